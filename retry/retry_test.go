package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResponse struct {
	status int
	url    string
}

func (r stubResponse) StatusCode() int  { return r.status }
func (r stubResponse) Location() string { return r.url }

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

// enabled returns a fast policy with sleeps recorded instead of taken.
func enabled(delays *[]time.Duration) Policy {
	p := Default()
	p.Enabled = true
	p.sleep = func(_ context.Context, d time.Duration) error {
		if delays != nil {
			*delays = append(*delays, d)
		}
		return nil
	}
	return p
}

func TestCleanAttemptReturnsImmediately(t *testing.T) {
	p := enabled(nil)
	calls := 0
	resp, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return stubResponse{status: 200}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, 1, calls)
}

func TestRetriesForcelistedStatusUntilSuccess(t *testing.T) {
	p := enabled(nil)
	statuses := []int{503, 429, 200}
	calls := 0
	resp, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		s := statuses[calls]
		calls++
		return stubResponse{status: s, url: "https://example.org"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode())
	assert.Equal(t, 3, calls)
}

func TestExhaustionReportsAttempts(t *testing.T) {
	p := enabled(nil)
	calls := 0
	_, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return stubResponse{status: 500, url: "https://example.org"}, nil
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 3, exhausted.Attempts)
	assert.Equal(t, "https://example.org", exhausted.URL)
	assert.NoError(t, exhausted.Err)
	assert.Equal(t, p.MaxAttempts, calls)
}

func TestExhaustionWrapsLastError(t *testing.T) {
	p := enabled(nil)
	cause := timeoutError{}
	_, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		return nil, cause
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.ErrorIs(t, err, cause)
}

func TestNonRetryableErrorReturnsImmediately(t *testing.T) {
	p := enabled(nil)
	cause := errors.New("certificate invalid")
	calls := 0
	_, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return nil, cause
	})
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, 1, calls)
}

func TestNonWhitelistedMethodPassesThrough(t *testing.T) {
	p := enabled(nil)
	calls := 0
	resp, err := p.Do(context.Background(), "POST", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return stubResponse{status: 503}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode())
	assert.Equal(t, 1, calls)
}

func TestDisabledPolicyPassesThrough(t *testing.T) {
	p := Default()
	calls := 0
	resp, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return stubResponse{status: 503}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 503, resp.StatusCode())
	assert.Equal(t, 1, calls)
}

func TestBackoffDoublesAndCaps(t *testing.T) {
	var delays []time.Duration
	p := enabled(&delays)
	p.MaxAttempts = 5
	p.Multiplier = time.Second
	p.MaxDelay = 5 * time.Second

	_, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		return stubResponse{status: 502, url: "https://example.org"}, nil
	})
	require.Error(t, err)
	assert.Equal(t, []time.Duration{
		time.Second,
		2 * time.Second,
		4 * time.Second,
		5 * time.Second,
	}, delays)
}

func TestCustomRetryIf(t *testing.T) {
	marker := errors.New("flaky upstream")
	p := enabled(nil)
	p.MaxAttempts = 2
	p.RetryIf = func(err error) bool { return errors.Is(err, marker) }

	calls := 0
	_, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return nil, marker
	})
	var exhausted *ExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Equal(t, 2, calls)
}

func TestSleepErrorAbortsRetry(t *testing.T) {
	p := Default()
	p.Enabled = true
	p.sleep = func(context.Context, time.Duration) error { return context.Canceled }

	calls := 0
	_, err := p.Do(context.Background(), "GET", "https://example.org", func(context.Context) (Response, error) {
		calls++
		return stubResponse{status: 500, url: "https://example.org"}, nil
	})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, calls)
}

func TestTransient(t *testing.T) {
	assert.True(t, Transient(timeoutError{}))
	assert.True(t, Transient(context.DeadlineExceeded))
	assert.False(t, Transient(errors.New("protocol violation")))
}
