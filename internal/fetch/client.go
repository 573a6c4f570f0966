// Package fetch pulls driver data from the upstream REST (PostgREST style)
// endpoints with retry and a session cache.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"tpog/internal/config"
	"tpog/internal/domain"
	"tpog/internal/utils"
)

// Client fetches raw resource rows. Zero-value fields get defaults in New.
type Client struct {
	HTTP     *http.Client
	URLFor   func(resource string) string
	APIKey   string
	Attempts int
	Backoff  time.Duration
	TTL      time.Duration
	Cache    Cache

	group     singleflight.Group
	cacheOnce sync.Once
	sleep     func(ctx context.Context, d time.Duration) error
}

// New builds a Client from env; cache may be nil for the in-memory default.
func New(env config.Env, cache Cache) *Client {
	if cache == nil {
		cache = NewMemoryCache()
	}
	return &Client{
		HTTP:     &http.Client{Timeout: env.FetchTimeout},
		URLFor:   env.ResourceURL,
		APIKey:   env.UpstreamAPIKey,
		Attempts: env.FetchRetries,
		Backoff:  env.FetchBackoff,
		TTL:      env.CacheTTL,
		Cache:    cache,
	}
}

// FetchResource returns the raw JSON array of rows for resource on payDate.
// The drivers roster is not dated; pass an empty payDate for it.
func (c *Client) FetchResource(ctx context.Context, resource, payDate string) ([]byte, error) {
	return c.fetch(ctx, resource, payDate, "")
}

// FetchDriver returns rows whose driver name loosely matches driverName. The
// upstream filter is a superset; callers re-filter by NormalizeDriverName.
func (c *Client) FetchDriver(ctx context.Context, resource, payDate, driverName string) ([]byte, error) {
	key := utils.NormalizeDriverName(driverName)
	if key == "" {
		return nil, domain.ValidationError{Field: "driver_name", Msg: "required"}
	}
	return c.fetch(ctx, resource, payDate, key)
}

func (c *Client) fetch(ctx context.Context, resource, payDate, driverKey string) ([]byte, error) {
	if !config.IsResource(resource) {
		return nil, domain.ValidationError{Field: "resource", Msg: "unknown resource " + resource}
	}
	if resource == config.ResourceDrivers {
		payDate = ""
	}
	key := CacheKey(resource, payDate, driverKey)
	if body, ok := c.cache().Get(ctx, key); ok {
		return body, nil
	}

	// The shared fetch outlives any single caller so one cancellation does
	// not fail the others waiting on the same key.
	ch := c.group.DoChan(key, func() (any, error) {
		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.deadline())
		defer cancel()
		if body, ok := c.cache().Get(shared, key); ok {
			return body, nil
		}
		body, err := c.getWithRetry(shared, resource, c.buildURL(resource, payDate, driverKey))
		if err != nil {
			return nil, err
		}
		c.cache().Set(shared, key, body, c.ttl())
		return body, nil
	})
	select {
	case <-ctx.Done():
		return nil, domain.UpstreamError{Resource: resource, Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]byte), nil
	}
}

// Invalidate drops cached rows for one driver (or the whole resource when
// driverName is empty) on payDate.
func (c *Client) Invalidate(ctx context.Context, resource, payDate, driverName string) {
	if resource == config.ResourceDrivers {
		payDate = ""
	}
	c.cache().Delete(ctx, CacheKey(resource, payDate, utils.NormalizeDriverName(driverName)))
}

// InvalidatePayDate drops every cached row for payDate plus the roster.
func (c *Client) InvalidatePayDate(ctx context.Context, payDate string) {
	for _, r := range config.Resources {
		c.cache().DeletePrefix(ctx, r+":"+payDate+":")
	}
	c.cache().DeletePrefix(ctx, config.ResourceDrivers+"::")
}

func (c *Client) buildURL(resource, payDate, driverKey string) string {
	q := url.Values{}
	q.Set("select", "*")
	if payDate != "" && resource != config.ResourceDrivers {
		q.Set("pay_date", "eq."+payDate)
	}
	if driverKey != "" {
		q.Set("driver_name", "ilike."+DriverPattern(driverKey))
	}
	return c.URLFor(resource) + "?" + q.Encode()
}

// DriverPattern is an ilike pattern matching every name that normalizes to
// the same key as name: each letter or digit in order with wildcards between,
// so spacing, case and punctuation differences all match.
func DriverPattern(name string) string {
	var b strings.Builder
	b.WriteByte('*')
	for _, r := range utils.NormalizeDriverName(name) {
		if r == ' ' {
			continue
		}
		b.WriteRune(r)
		b.WriteByte('*')
	}
	return b.String()
}

func (c *Client) getWithRetry(ctx context.Context, resource, target string) ([]byte, error) {
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			wait := c.Backoff * time.Duration(1<<(attempt-2))
			if err := c.doSleep(ctx, wait); err != nil {
				return nil, domain.UpstreamError{Resource: resource, Err: err}
			}
		}

		body, status, err := c.getOnce(ctx, target)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return nil, domain.UpstreamError{Resource: resource, Err: ctx.Err()}
			}
			lastErr = domain.UpstreamError{Resource: resource, Err: err}
		case status >= 200 && status < 300:
			return body, nil
		default:
			lastErr = domain.UpstreamError{Resource: resource, Status: status}
			if !retryable(status) {
				return nil, lastErr
			}
		}
		utils.LogWarn("", "fetch", resource, fmt.Sprintf("attempt %d/%d failed: %v", attempt, attempts, lastErr))
	}
	return nil, lastErr
}

func (c *Client) getOnce(ctx context.Context, target string) ([]byte, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Accept", "application/json")
	if c.APIKey != "" {
		req.Header.Set("apikey", c.APIKey)
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	resp, err := c.httpClient().Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return nil, resp.StatusCode, err
	}
	return body, resp.StatusCode, nil
}

func retryable(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func (c *Client) doSleep(ctx context.Context, d time.Duration) error {
	if c.sleep != nil {
		return c.sleep(ctx, d)
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (c *Client) cache() Cache {
	c.cacheOnce.Do(func() {
		if c.Cache == nil {
			c.Cache = NewMemoryCache()
		}
	})
	return c.Cache
}

func (c *Client) ttl() time.Duration {
	if c.TTL <= 0 {
		return 5 * time.Minute
	}
	return c.TTL
}

// deadline bounds a shared fetch that no caller context can cancel.
func (c *Client) deadline() time.Duration {
	timeout := c.httpClient().Timeout
	if timeout <= 0 {
		return time.Minute
	}
	attempts := c.Attempts
	if attempts < 1 {
		attempts = 1
	}
	backoff := c.Backoff * time.Duration(1<<attempts)
	return timeout*time.Duration(attempts) + backoff
}

func (c *Client) httpClient() *http.Client {
	if c.HTTP == nil {
		return http.DefaultClient
	}
	return c.HTTP
}
