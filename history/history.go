// Package history tracks visited locations with bounded back and forward
// lists, enabling browser-equivalent back, forward, and go navigation.
package history

import "errors"

// ErrNoCurrentLocation indicates that no location has been visited yet.
var ErrNoCurrentLocation = errors.New("no current location")

// Location is a visited page identified by its canonical URL.
type Location interface {
	URL() string
}

// Entry pairs a location with its offset relative to the current one:
// 0 is current, negative offsets lie behind, positive offsets ahead.
type Entry struct {
	Offset   int
	Location Location
}

// History holds the back list (current plus priors, most recent last) and
// the forward list (undone locations, most recent first). A zero bound
// means unbounded. It is owned by a single browsing session and performs
// no internal locking.
type History struct {
	back       []Location
	forward    []Location
	maxBack    int
	maxForward int
}

// New creates a history keeping at most maxBack prior locations and
// maxForward undone ones. The current location does not count against
// maxBack. Zero means unbounded.
func New(maxBack, maxForward int) *History {
	h := &History{maxForward: maxForward}
	if maxBack > 0 {
		h.maxBack = maxBack + 1 // room for the current location
	}
	return h
}

// Visit records a new current location. Visiting the current URL again is
// a no-op; any other URL is pushed onto the back list and clears the
// forward list.
func (h *History) Visit(loc Location) {
	if latest := h.Latest(); latest != nil && latest.URL() == loc.URL() {
		return
	}
	h.back = append(h.back, loc)
	if h.maxBack > 0 && len(h.back) > h.maxBack {
		h.back = h.back[len(h.back)-h.maxBack:]
	}
	h.forward = h.forward[:0]
}

// Current returns the current location.
func (h *History) Current() (Location, error) {
	if len(h.back) == 0 {
		return nil, ErrNoCurrentLocation
	}
	return h.back[len(h.back)-1], nil
}

// Latest returns the current location, or nil when nothing was visited.
func (h *History) Latest() Location {
	if len(h.back) == 0 {
		return nil
	}
	return h.back[len(h.back)-1]
}

// Back moves up to n locations from the back list onto the front of the
// forward list and returns the resulting current location.
func (h *History) Back(n int) (Location, error) {
	for i := 0; i < min(n, len(h.back)-1); i++ {
		last := h.back[len(h.back)-1]
		h.back = h.back[:len(h.back)-1]
		h.forward = append([]Location{last}, h.forward...)
		if h.maxForward > 0 && len(h.forward) > h.maxForward {
			h.forward = h.forward[:h.maxForward]
		}
	}
	return h.Current()
}

// Forward moves n locations from the front of the forward list back onto
// the back list. The caller must ensure n does not exceed ForwardLen;
// there is no internal clamp, and exceeding it panics.
func (h *History) Forward(n int) (Location, error) {
	for i := 0; i < n; i++ {
		next := h.forward[0]
		h.forward = h.forward[1:]
		h.back = append(h.back, next)
		if h.maxBack > 0 && len(h.back) > h.maxBack {
			h.back = h.back[len(h.back)-h.maxBack:]
		}
	}
	return h.Current()
}

// Go moves by delta: negative goes back, positive goes forward, zero
// returns the current location.
func (h *History) Go(delta int) (Location, error) {
	if delta < 0 {
		return h.Back(-delta)
	}
	if delta > 0 {
		return h.Forward(delta)
	}
	return h.Current()
}

// Len returns the total number of tracked locations.
func (h *History) Len() int { return len(h.back) + len(h.forward) }

// BackLen returns the size of the back list, current location included.
func (h *History) BackLen() int { return len(h.back) }

// ForwardLen returns the size of the forward list.
func (h *History) ForwardLen() int { return len(h.forward) }

// Entries lists every tracked location with its relative offset, ordered
// most-future-first.
func (h *History) Entries() []Entry {
	entries := make([]Entry, 0, h.Len())
	for i := len(h.forward) - 1; i >= 0; i-- {
		entries = append(entries, Entry{Offset: i + 1, Location: h.forward[i]})
	}
	n := len(h.back) - 1
	for i := len(h.back) - 1; i >= 0; i-- {
		entries = append(entries, Entry{Offset: i - n, Location: h.back[i]})
	}
	return entries
}
