package httpclient

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/cesargomez89/tubearchive/internal/constants"
)

// Transport is an http.RoundTripper that paces requests, retries on 429/503
// and network errors, and adds the API key to every request.
type Transport struct {
	base   http.RoundTripper
	apiKey string

	minRequestInterval time.Duration
	retryBase          time.Duration
	maxAttempts        int
	lastRequest        time.Time
	mu                 sync.Mutex
}

// NewTransport wraps base. A nil base uses a pooled default transport.
func NewTransport(base http.RoundTripper, apiKey string, minRequestInterval time.Duration) *Transport {
	if base == nil {
		base = &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 20,
			IdleConnTimeout:     30 * time.Second,
			TLSHandshakeTimeout: 5 * time.Second,
		}
	}
	return &Transport{
		base:               base,
		apiKey:             apiKey,
		minRequestInterval: minRequestInterval,
		retryBase:          constants.DefaultRetryBase,
		maxAttempts:        constants.DefaultRetryCount,
	}
}

// WithRetryBase sets the linear backoff step between attempts.
func (t *Transport) WithRetryBase(d time.Duration) *Transport {
	t.retryBase = d
	return t
}

// NewClient returns an *http.Client backed by a Transport.
func NewClient(apiKey string, minRequestInterval, timeout time.Duration) *http.Client {
	return &http.Client{
		Timeout:   timeout,
		Transport: NewTransport(nil, apiKey, minRequestInterval),
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx := req.Context()
	req = t.withKey(req)
	retryable := req.Body == nil || req.GetBody != nil

	var lastErr error
	for attempt := 0; attempt < t.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := t.wait(ctx); err != nil {
			return nil, err
		}

		attemptReq := req
		if attempt > 0 && req.GetBody != nil {
			body, err := req.GetBody()
			if err != nil {
				return nil, err
			}
			attemptReq = req.Clone(ctx)
			attemptReq.Body = body
		}

		resp, err := t.base.RoundTrip(attemptReq)
		last := attempt == t.maxAttempts-1 || !retryable
		switch {
		case err != nil:
			lastErr = err
			if last || ctx.Err() != nil {
				return nil, lastErr
			}
		case resp.StatusCode == http.StatusServiceUnavailable || resp.StatusCode == http.StatusTooManyRequests:
			if last {
				// The caller decodes the API error body.
				return resp, nil
			}
			retryAfter := parseRetryAfter(resp)
			_ = resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (status %d)", resp.StatusCode)

			if retryAfter > 0 {
				t.mu.Lock()
				next := time.Now().Add(retryAfter)
				if t.lastRequest.Before(next) {
					t.lastRequest = next
				}
				t.mu.Unlock()
			}
			backoffWait := time.Duration(attempt+1) * t.retryBase
			if retryAfter > backoffWait {
				backoffWait = retryAfter
			}
			if err := sleep(ctx, backoffWait); err != nil {
				return nil, err
			}
			continue
		default:
			return resp, nil
		}

		if err := sleep(ctx, time.Duration(attempt+1)*t.retryBase); err != nil {
			return nil, err
		}
	}
	return nil, lastErr
}

// wait blocks until the pacing slot for the next request opens.
func (t *Transport) wait(ctx context.Context) error {
	t.mu.Lock()
	now := time.Now()
	nextAllowed := t.lastRequest.Add(t.minRequestInterval)
	var waitTime time.Duration
	if now.Before(nextAllowed) {
		waitTime = nextAllowed.Sub(now)
		t.lastRequest = nextAllowed
	} else {
		t.lastRequest = now
	}
	t.mu.Unlock()

	return sleep(ctx, waitTime)
}

func (t *Transport) withKey(req *http.Request) *http.Request {
	if t.apiKey == "" {
		return req
	}
	q := req.URL.Query()
	if q.Get("key") != "" {
		return req
	}
	q.Set("key", t.apiKey)
	clone := req.Clone(req.Context())
	clone.URL.RawQuery = q.Encode()
	return clone
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	select {
	case <-ctx.Done():
		timer.Stop()
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// parseRetryAfter reads a Retry-After header and returns the duration to wait.
func parseRetryAfter(resp *http.Response) time.Duration {
	ra := resp.Header.Get("Retry-After")
	if ra == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(ra); err == nil && seconds > 0 {
		return time.Duration(seconds) * time.Second
	}
	if t, err := http.ParseTime(ra); err == nil {
		return time.Until(t)
	}
	return 0
}
