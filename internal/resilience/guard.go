// Package resilience guards a browsing session against hammering origins
// that keep failing. Each origin moves between closed, open, and half-open
// states based on consecutive request outcomes.
package resilience

import (
	"errors"
	"sync"
	"time"
)

// ErrOriginOpen indicates that an origin is refusing requests until its
// cooldown elapses.
var ErrOriginOpen = errors.New("origin guard is open")

// Guard tracks failure state per origin. The zero threshold and cooldown
// are replaced by defaults in NewGuard.
type Guard struct {
	threshold int
	cooldown  time.Duration

	mu      sync.Mutex
	origins map[string]*originState
}

type originState struct {
	failures int
	openedAt time.Time
	probing  bool
}

// NewGuard creates a guard opening an origin after threshold consecutive
// failures and letting a single probe through after cooldown.
func NewGuard(threshold int, cooldown time.Duration) *Guard {
	if threshold <= 0 {
		threshold = 5
	}
	if cooldown <= 0 {
		cooldown = 30 * time.Second
	}
	return &Guard{
		threshold: threshold,
		cooldown:  cooldown,
		origins:   map[string]*originState{},
	}
}

// Allow reports whether a request to origin may proceed. While an origin
// is open, only one probe per cooldown window gets through.
func (g *Guard) Allow(origin string) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	st, ok := g.origins[origin]
	if !ok || st.failures < g.threshold {
		return nil
	}
	if time.Since(st.openedAt) < g.cooldown || st.probing {
		return ErrOriginOpen
	}
	st.probing = true
	return nil
}

// Report records the outcome of a request to origin. A success closes the
// origin; a failure counts toward the threshold and restarts the cooldown
// once it is crossed.
func (g *Guard) Report(origin string, ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if ok {
		delete(g.origins, origin)
		return
	}

	st := g.origins[origin]
	if st == nil {
		st = &originState{}
		g.origins[origin] = st
	}
	st.failures++
	st.probing = false
	if st.failures >= g.threshold {
		st.openedAt = time.Now()
	}
}

// Failures returns the consecutive failure count recorded for origin.
func (g *Guard) Failures(origin string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if st := g.origins[origin]; st != nil {
		return st.failures
	}
	return 0
}
