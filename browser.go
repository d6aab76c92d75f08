package robox

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/gregjones/httpcache"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/danclaudiupop/robox/form"
	"github.com/danclaudiupop/robox/history"
	"github.com/danclaudiupop/robox/internal/logging"
	"github.com/danclaudiupop/robox/internal/metrics"
	"github.com/danclaudiupop/robox/internal/resilience"
	"github.com/danclaudiupop/robox/retry"
	"github.com/danclaudiupop/robox/robots"
)

var (
	// ErrForbiddenByRobots indicates that the target origin's robots.txt
	// disallows the requested URL.
	ErrForbiddenByRobots = errors.New("forbidden by robots.txt")
	// ErrNoHistory indicates a navigation call on an empty history.
	ErrNoHistory = errors.New("no history")
)

// StatusError is returned for 4xx and 5xx responses when Options.
// RaiseOnStatus is set.
type StatusError struct {
	URL    string
	Status int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("error response %d while requesting %s", e.Status, e.URL)
}

// Browser is a stateful browsing session: an HTTP client plus navigation
// history, robots.txt obedience, politeness limits, and a retry policy for
// idempotent opens. It is owned by a single logical session and performs
// no internal locking.
type Browser struct {
	client   *resty.Client
	opts     Options
	log      *logging.Logger
	history  *history.History
	robots   *robots.Cache
	limiter  *rate.Limiter
	guard    *resilience.Guard
	policy   retry.Policy
	registry *prometheus.Registry
	metrics  *metrics.Metrics

	// visited holds one root URL per origin that answered a request, so
	// cookie persistence works even when history tracking is off.
	visited map[string]*url.URL

	totalRequests int
}

// New creates a browsing session with the given options.
func New(opts Options) *Browser {
	log, err := logging.New(opts.LogLevel, opts.LogDevelopment)
	if err != nil {
		log = logging.Nop()
	}

	client := resty.New().
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent)
	if opts.Cache {
		client.SetTransport(httpcache.NewMemoryCacheTransport())
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if opts.RequestsPerSecond > 0 {
		burst := int(opts.RequestsPerSecond)
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(opts.RequestsPerSecond), burst)
	}

	policy := retry.Default()
	policy.Enabled = opts.Retry
	policy.MaxAttempts = opts.RetryMaxAttempts
	policy.Multiplier = opts.RetryMultiplier
	policy.MaxDelay = opts.RetryMaxDelay
	if len(opts.RetryForcelist) > 0 {
		policy.Forcelist = opts.RetryForcelist
	}
	policy.Logger = log.Logger

	registry := prometheus.NewRegistry()

	return &Browser{
		client:   client,
		opts:     opts,
		log:      log,
		history:  history.New(opts.MaxBack, opts.MaxForward),
		robots:   robots.NewCache(client),
		limiter:  limiter,
		guard:    resilience.NewGuard(opts.GuardThreshold, opts.GuardCooldown),
		policy:   policy,
		registry: registry,
		metrics:  metrics.New(registry),
		visited:  map[string]*url.URL{},
	}
}

// NewDefault creates a browsing session with default options.
func NewDefault() *Browser {
	return New(DefaultOptions())
}

// Client exposes the underlying resty client for transport-level tweaks
// (proxies, TLS, test servers).
func (b *Browser) Client() *resty.Client { return b.client }

// Gatherer exposes the session's metrics registry.
func (b *Browser) Gatherer() prometheus.Gatherer { return b.registry }

// TotalRequests returns the number of requests issued so far.
func (b *Browser) TotalRequests() int { return b.totalRequests }

// Open fetches url with GET, the tracked-navigation entry point.
func (b *Browser) Open(ctx context.Context, url string) (*Page, error) {
	return b.OpenMethod(ctx, http.MethodGet, url, nil)
}

// OpenMethod fetches url with the given method and optional form payload.
// When retry is enabled and the method is idempotent, transient failures
// and forcelisted statuses are retried with exponential backoff.
func (b *Browser) OpenMethod(ctx context.Context, method, url string, payload *form.Payload) (*Page, error) {
	return b.open(ctx, method, url, payload, nil)
}

func (b *Browser) open(ctx context.Context, method, rawurl string, payload *form.Payload, headers map[string]string) (*Page, error) {
	method = strings.ToUpper(method)
	b.log.Debug("making HTTP request", zap.String("method", method), zap.String("url", rawurl))

	attempts := 0
	resp, err := b.policy.Do(ctx, method, rawurl, func(ctx context.Context) (retry.Response, error) {
		attempts++
		if attempts > 1 {
			b.metrics.IncRetries()
		}
		return b.fetch(ctx, method, rawurl, payload, headers)
	})
	if err != nil {
		return nil, err
	}
	return resp.(*Page), nil
}

// fetch performs one attempt: robots check, politeness limits, origin
// guard, the request itself, and page construction.
func (b *Browser) fetch(ctx context.Context, method, rawurl string, payload *form.Payload, headers map[string]string) (*Page, error) {
	if b.opts.ObeyRobots {
		allowed, crawlDelay, err := b.robots.Allowed(ctx, rawurl, b.opts.UserAgent)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, fmt.Errorf("%w: %s", ErrForbiddenByRobots, rawurl)
		}
		if crawlDelay > 0 {
			b.log.Debug("waiting for crawl-delay", zap.Duration("delay", crawlDelay))
			if err := sleep(ctx, crawlDelay); err != nil {
				return nil, err
			}
		}
	}

	if err := b.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	origin := originOf(rawurl)
	if err := b.guard.Allow(origin); err != nil {
		return nil, fmt.Errorf("%s: %w", origin, err)
	}

	req := b.client.R().SetContext(ctx)
	for k, v := range headers {
		req.SetHeader(k, v)
	}
	applyPayload(req, payload)

	resp, err := req.Execute(method, rawurl)
	b.guard.Report(origin, err == nil)
	if err != nil {
		return nil, err
	}

	b.totalRequests++
	if raw := resp.RawResponse; raw != nil && raw.Request != nil && raw.Request.URL != nil {
		b.rememberOrigin(raw.Request.URL)
	}
	b.metrics.ObserveRequest(method, resp.StatusCode())
	b.log.Debug("response",
		zap.String("method", method),
		zap.String("url", resp.Request.URL),
		zap.Int("status", resp.StatusCode()),
		zap.Duration("elapsed", resp.Time()),
	)

	page := newPage(b, resp)
	if b.opts.RaiseOnStatus && resp.StatusCode() >= 400 {
		b.log.Error("error response", zap.Int("status", resp.StatusCode()), zap.String("url", page.URL()))
		return nil, &StatusError{URL: page.URL(), Status: resp.StatusCode()}
	}

	if b.opts.History {
		b.history.Visit(page)
		b.metrics.SetHistoryDepth(b.history.Len())
	}
	return page, nil
}

// History lists all tracked locations with their relative offsets.
func (b *Browser) History() []history.Entry {
	return b.history.Entries()
}

// CurrentURL returns the canonical URL of the current location.
func (b *Browser) CurrentURL() (string, error) {
	loc, err := b.history.Current()
	if err != nil {
		return "", err
	}
	return loc.URL(), nil
}

// Refresh re-opens the current location.
func (b *Browser) Refresh(ctx context.Context) (*Page, error) {
	loc, err := b.history.Current()
	if err != nil {
		return nil, ErrNoHistory
	}
	return b.Open(ctx, loc.URL())
}

// Back moves n locations back and re-opens the target. Re-opening the
// current URL is deduplicated by the history, so the forward list
// survives.
func (b *Browser) Back(ctx context.Context, n int) (*Page, error) {
	if b.history.Len() == 0 {
		return nil, fmt.Errorf("%w to go back", ErrNoHistory)
	}
	loc, err := b.history.Back(n)
	if err != nil {
		return nil, err
	}
	return b.Open(ctx, loc.URL())
}

// Forward moves n locations forward and re-opens the target. n must not
// exceed the available forward entries.
func (b *Browser) Forward(ctx context.Context, n int) (*Page, error) {
	if b.history.Len() == 0 {
		return nil, fmt.Errorf("%w to go forward", ErrNoHistory)
	}
	if n > b.history.ForwardLen() {
		return nil, fmt.Errorf("%w: only %d forward entries", ErrNoHistory, b.history.ForwardLen())
	}
	loc, err := b.history.Forward(n)
	if err != nil {
		return nil, err
	}
	return b.Open(ctx, loc.URL())
}

// Go moves by delta like history.Go and re-opens the target.
func (b *Browser) Go(ctx context.Context, delta int) (*Page, error) {
	if delta < 0 {
		return b.Back(ctx, -delta)
	}
	if delta > 0 {
		return b.Forward(ctx, delta)
	}
	return b.Refresh(ctx)
}

// rememberOrigin records the origin of a completed request for later
// cookie persistence.
func (b *Browser) rememberOrigin(u *url.URL) {
	origin := u.Scheme + "://" + u.Host
	if _, ok := b.visited[origin]; !ok {
		b.visited[origin] = &url.URL{Scheme: u.Scheme, Host: u.Host, Path: "/"}
	}
}

// SaveCookies writes the cookies collected for every origin that answered
// a request to a JSON file of name/value pairs. Persistence does not
// depend on history tracking.
func (b *Browser) SaveCookies(filename string) error {
	cookies := map[string]string{}
	if jar := b.client.GetClient().Jar; jar != nil {
		for _, u := range b.visited {
			for _, c := range jar.Cookies(u) {
				cookies[c.Name] = c.Value
			}
		}
	}
	data, err := json.Marshal(cookies)
	if err != nil {
		return err
	}
	return os.WriteFile(filename, data, 0o644)
}

// LoadCookies reads a cookie file written by SaveCookies and attaches the
// cookies to every subsequent request. A missing file is not an error.
func (b *Browser) LoadCookies(filename string) error {
	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	cookies := map[string]string{}
	if err := json.Unmarshal(data, &cookies); err != nil {
		return fmt.Errorf("parsing cookie file %s: %w", filename, err)
	}
	for name, value := range cookies {
		b.client.SetCookie(&http.Cookie{Name: name, Value: value})
	}
	return nil
}

// applyPayload copies a serialized form into the outgoing request.
func applyPayload(req *resty.Request, payload *form.Payload) {
	if payload == nil {
		return
	}
	if q := bucketValues(payload.Query); len(q) > 0 {
		req.SetQueryParamsFromValues(q)
	}
	if d := bucketValues(payload.Data); len(d) > 0 {
		req.SetFormDataFromValues(d)
	}
	for name, uploads := range payload.Files {
		for _, u := range uploads {
			req.SetFileReader(name, u.Name, u.Content)
		}
	}
}

func bucketValues(bucket map[string]interface{}) url.Values {
	vals := url.Values{}
	for name, v := range bucket {
		switch t := v.(type) {
		case string:
			vals.Set(name, t)
		case []string:
			for _, s := range t {
				vals.Add(name, s)
			}
		}
	}
	return vals
}

func originOf(rawurl string) string {
	u, err := url.Parse(rawurl)
	if err != nil {
		return rawurl
	}
	return u.Scheme + "://" + u.Host
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
