// Package fetcher pulls paginated JSON payloads from remote activity APIs
// with retry, rate limiting, and bounded pagination.
package fetcher

import (
	"context"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/arbor-insights/pulse-cli/internal/resilience"
)

// Auth describes how a collector's credential is attached to each request.
// Exactly one of Header or QueryParam should be set.
type Auth struct {
	Header     string // header name, e.g. "Authorization"
	Scheme     string // optional prefix, e.g. "Bearer"
	QueryParam string // query parameter name, e.g. "api_key"
	Token      string
}

// BearerAuth returns the common Authorization: Bearer <token> form.
func BearerAuth(token string) Auth {
	return Auth{Header: "Authorization", Scheme: "Bearer", Token: token}
}

// QueryAuth returns credentials passed as a query parameter.
func QueryAuth(param, token string) Auth {
	return Auth{QueryParam: param, Token: token}
}

func (a Auth) apply(req *http.Request) {
	if a.Token == "" {
		return
	}
	if a.Header != "" {
		val := a.Token
		if a.Scheme != "" {
			val = a.Scheme + " " + a.Token
		}
		req.Header.Set(a.Header, val)
		return
	}
	if a.QueryParam != "" {
		q := req.URL.Query()
		q.Set(a.QueryParam, a.Token)
		req.URL.RawQuery = q.Encode()
	}
}

// Options configures the HTTP client.
type Options struct {
	UserAgent    string
	Timeout      time.Duration
	RateLimit    float64                  // requests per second for hosts without a dedicated limiter
	RateBurst    int                      // burst size for the shared limiter
	RateLimiters map[string]*rate.Limiter // per-host overrides
}

// Client issues authenticated single-attempt GET requests. Retry policy
// lives one level up, in FetchAll.
type Client struct {
	http     *http.Client
	opts     Options
	limiters map[string]*rate.Limiter
	fallback *rate.Limiter
}

// NewClient creates a Client with the given options.
func NewClient(opts Options) *Client {
	if opts.Timeout == 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "pulse-cli/1.0"
	}
	if opts.RateLimit <= 0 {
		opts.RateLimit = 20
	}
	if opts.RateBurst <= 0 {
		opts.RateBurst = 20
	}
	limiters := make(map[string]*rate.Limiter, len(opts.RateLimiters))
	for host, lim := range opts.RateLimiters {
		limiters[host] = lim
	}
	return &Client{
		http: &http.Client{
			Timeout: opts.Timeout,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				MaxConnsPerHost:     20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		opts:     opts,
		limiters: limiters,
		fallback: rate.NewLimiter(rate.Limit(opts.RateLimit), opts.RateBurst),
	}
}

func (c *Client) limiterFor(rawURL string) *rate.Limiter {
	u, err := url.Parse(rawURL)
	if err != nil {
		return c.fallback
	}
	if lim, ok := c.limiters[u.Host]; ok {
		return lim
	}
	return c.fallback
}

// GetJSON performs a single rate-limited GET and returns the response body.
// 401/403 become *AuthError; retryable statuses and transport faults become
// transient errors for the retry layer; other non-2xx statuses are permanent.
func (c *Client) GetJSON(ctx context.Context, rawURL string, auth Auth) ([]byte, error) {
	lim := c.limiterFor(rawURL)
	if err := lim.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "fetcher: rate limiter wait")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "fetcher: create request")
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	req.Header.Set("Accept", "application/json")
	auth.apply(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, resilience.NewTransientError(err, 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, &AuthError{Endpoint: req.URL.Path, Status: resp.StatusCode}
	case resilience.IsTransientHTTPStatus(resp.StatusCode):
		return nil, resilience.NewTransientError(
			eris.Errorf("fetcher: http %d from %s", resp.StatusCode, req.URL.Path),
			resp.StatusCode,
		)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, eris.Errorf("fetcher: unexpected status %d from %s", resp.StatusCode, req.URL.Path)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "fetcher: read body"), resp.StatusCode)
	}
	return body, nil
}
