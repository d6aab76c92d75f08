// Package retry wraps a page-opening operation with bounded retry and
// exponential backoff for transient network failures. Retry applies only
// to idempotent methods; everything else passes through untouched.
package retry

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"time"

	"go.uber.org/zap"
)

// DefaultForcelist holds the response status codes treated as retryable.
var DefaultForcelist = []int{429, 500, 502, 503, 504}

// DefaultMethods holds the idempotent methods retry applies to.
var DefaultMethods = []string{"HEAD", "GET", "OPTIONS"}

// Response is the slice of an opened page the policy inspects.
type Response interface {
	StatusCode() int
	Location() string
}

// ExhaustedError reports that every attempt failed, whether through
// retryable errors or persistently bad statuses.
type ExhaustedError struct {
	URL      string
	Attempts int
	Err      error // last attempt's error, nil when a bad status exhausted us
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("retry failed on %s after %d attempts", e.URL, e.Attempts)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Policy governs retry of a page-opening operation.
type Policy struct {
	Enabled     bool
	MaxAttempts int
	Multiplier  time.Duration // base backoff, doubled each attempt
	MaxDelay    time.Duration
	Forcelist   []int
	Methods     []string
	RetryIf     func(error) bool // retryable error kinds; defaults to transient network errors
	Logger      *zap.Logger

	// sleep is swapped out in tests.
	sleep func(context.Context, time.Duration) error
}

// Default returns a policy with the standard forcelist and method
// whitelist, three attempts, and a one second base backoff capped at 100s.
// Retry stays disabled until Enabled is set.
func Default() Policy {
	return Policy{
		MaxAttempts: 3,
		Multiplier:  time.Second,
		MaxDelay:    100 * time.Second,
		Forcelist:   DefaultForcelist,
		Methods:     DefaultMethods,
	}
}

// Do runs op, retrying while it returns a retryable error or a forcelisted
// status. A clean attempt returns immediately. Reaching MaxAttempts
// returns an ExhaustedError carrying the last URL and the attempt count.
func (p Policy) Do(ctx context.Context, method, url string, op func(context.Context) (Response, error)) (Response, error) {
	if !p.Enabled || !stringIn(method, p.Methods) {
		return op(ctx)
	}

	log := p.Logger
	if log == nil {
		log = zap.NewNop()
	}
	retryIf := p.RetryIf
	if retryIf == nil {
		retryIf = Transient
	}
	sleep := p.sleep
	if sleep == nil {
		sleep = wait
	}

	for attempt := 1; ; attempt++ {
		resp, err := op(ctx)

		switch {
		case err != nil && retryIf(err):
			log.Debug("retryable error", zap.String("url", url), zap.Int("attempt", attempt), zap.Error(err))
		case err != nil:
			return nil, err
		case intIn(resp.StatusCode(), p.Forcelist):
			url = resp.Location()
			log.Debug("retryable status", zap.String("url", url), zap.Int("attempt", attempt), zap.Int("status", resp.StatusCode()))
		default:
			return resp, nil
		}

		if attempt >= p.MaxAttempts {
			return nil, &ExhaustedError{URL: url, Attempts: attempt, Err: err}
		}
		if err := sleep(ctx, p.backoff(attempt)); err != nil {
			return nil, err
		}
	}
}

// backoff returns Multiplier doubled per completed attempt, capped at
// MaxDelay.
func (p Policy) backoff(attempt int) time.Duration {
	d := p.Multiplier << (attempt - 1)
	if p.MaxDelay > 0 && d > p.MaxDelay {
		return p.MaxDelay
	}
	return d
}

// Transient reports whether err looks like a transient network failure:
// timeouts and connection-level errors.
func Transient(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	return errors.Is(err, os.ErrDeadlineExceeded) || errors.Is(err, context.DeadlineExceeded)
}

// wait blocks for d, yielding early if ctx is done.
func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func stringIn(s string, list []string) bool {
	for _, item := range list {
		if s == item {
			return true
		}
	}
	return false
}

func intIn(n int, list []int) bool {
	for _, item := range list {
		if n == item {
			return true
		}
	}
	return false
}
