// Package httpclient configures the HTTP client used to call the remote
// catalog and data endpoints, including the retry/backoff policy.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/cci-tools/odpstore/internal/core/observability"
)

// NewOutbound creates a new outbound http client
func NewOutbound(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
		MaxIdleConns:          256,
		MaxIdleConnsPerHost:   128,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   5 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
	}
	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
	}
}

// RetryPolicy holds the documented retry tunables. Failed requests are retried
// up to NumRetries times with delays growing by BackoffBase per attempt,
// capped at BackoffMax.
type RetryPolicy struct {
	NumRetries     int
	BackoffBase    float64
	BackoffMax     time.Duration
	EnableWarnings bool
}

// StatusError reports a non-2xx response that was not retried away.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d", e.URL, e.StatusCode)
}

// IsNotFound reports whether err is a 404 StatusError.
func IsNotFound(err error) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == http.StatusNotFound
}

// Client issues GET requests with bounded retries. Server errors (5xx), 429
// and transport failures are retried; other client errors are terminal.
type Client struct {
	hc     *http.Client
	policy RetryPolicy
	log    zerolog.Logger
}

func New(hc *http.Client, policy RetryPolicy, log zerolog.Logger) *Client {
	if hc == nil {
		hc = NewOutbound(0)
	}
	if policy.BackoffBase <= 1.0 {
		policy.BackoffBase = 1.001
	}
	if policy.BackoffMax <= 0 {
		policy.BackoffMax = 40 * time.Millisecond
	}
	return &Client{hc: hc, policy: policy, log: log}
}

func (c *Client) newBackOff(ctx context.Context) backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = time.Millisecond
	bo.Multiplier = c.policy.BackoffBase
	bo.MaxInterval = c.policy.BackoffMax
	bo.RandomizationFactor = 0.25
	bo.MaxElapsedTime = 0
	var wrapped backoff.BackOff = bo
	if c.policy.NumRetries >= 0 {
		wrapped = backoff.WithMaxRetries(wrapped, uint64(c.policy.NumRetries))
	}
	return backoff.WithContext(wrapped, ctx)
}

// Get fetches url and returns the response body. Accept may be empty.
func (c *Client) Get(ctx context.Context, url, accept string) ([]byte, error) {
	var body []byte
	attempt := 0

	op := func() error {
		attempt++
		if attempt > 1 {
			observability.IncRetryAttempt()
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return backoff.Permanent(err)
		}
		if accept != "" {
			req.Header.Set("Accept", accept)
		}

		resp, err := c.hc.Do(req)
		if err != nil {
			c.warn(url, attempt, err)
			return err
		}
		defer resp.Body.Close()

		if resp.StatusCode >= 400 {
			serr := &StatusError{URL: url, StatusCode: resp.StatusCode}
			if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
				c.warn(url, attempt, serr)
				return serr
			}
			return backoff.Permanent(serr)
		}

		body, err = io.ReadAll(resp.Body)
		if err != nil {
			c.warn(url, attempt, err)
			return err
		}
		return nil
	}

	if err := backoff.Retry(op, c.newBackOff(ctx)); err != nil {
		return nil, fmt.Errorf("get %s after %d attempts: %w", url, attempt, err)
	}
	return body, nil
}

func (c *Client) warn(url string, attempt int, err error) {
	if !c.policy.EnableWarnings {
		return
	}
	c.log.Warn().
		Str("url", url).
		Int("attempt", attempt).
		Err(err).
		Msg("remote request failed")
}
