package source

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/KaramelBytes/wavepeak-cli/internal/logging"
)

const userAgent = "wavepeak-cli"

// HTTPClient downloads datasets over HTTP(S), retrying on 429, 5xx and
// transient network errors with jittered exponential backoff.
type HTTPClient struct {
	httpClient       *http.Client
	retryMaxAttempts int
	retryBaseDelay   time.Duration
	retryMaxDelay    time.Duration
}

// NewHTTPClient allows customizing HTTP timeout and retry/backoff behavior.
func NewHTTPClient(httpTimeout time.Duration, retryMax int, baseDelay, maxDelay time.Duration) *HTTPClient {
	if httpTimeout <= 0 {
		httpTimeout = 60 * time.Second
	}
	if retryMax <= 0 {
		retryMax = 3
	}
	if baseDelay <= 0 {
		baseDelay = 500 * time.Millisecond
	}
	if maxDelay <= 0 {
		maxDelay = 4 * time.Second
	}
	return &HTTPClient{
		httpClient:       &http.Client{Timeout: httpTimeout},
		retryMaxAttempts: retryMax,
		retryBaseDelay:   baseDelay,
		retryMaxDelay:    maxDelay,
	}
}

// Fetch downloads location and returns the response body.
func (c *HTTPClient) Fetch(ctx context.Context, location string) ([]byte, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("parse url: %w", err)
	}
	log := logging.FromContext(ctx).With("url", location)
	backoff := c.retryBaseDelay

	var lastErr error
	for attempt := 1; attempt <= c.retryMaxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		body, wait, err := c.once(ctx, location)
		if err == nil {
			log.Debug("dataset downloaded", "bytes", len(body), "attempt", attempt)
			return body, nil
		}
		lastErr = err
		if wait < 0 || attempt == c.retryMaxAttempts {
			break
		}
		if wait == 0 {
			wait = withJitter(backoff)
			if c.retryMaxDelay > 0 && wait > c.retryMaxDelay {
				wait = c.retryMaxDelay
			}
			backoff *= 2
		}
		log.Warn("dataset fetch failed, retrying", "attempt", attempt, "wait", wait.String(), "error", err)
		if err := sleep(ctx, wait); err != nil {
			return nil, err
		}
	}
	var sc *StatusError
	if errors.As(lastErr, &sc) {
		return nil, lastErr
	}
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return nil, &UnreachableError{Host: u.Host, Err: lastErr}
}

// once performs a single attempt. wait is negative when the error is final,
// zero for default backoff, or the server-requested Retry-After.
func (c *HTTPClient) once(ctx context.Context, location string) ([]byte, time.Duration, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, -1, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "text/csv, text/plain, */*")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isRetryableNetErr(err) {
			return nil, 0, err
		}
		return nil, -1, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		se := &StatusError{
			StatusCode: resp.StatusCode,
			URL:        location,
			Message:    strings.TrimSpace(string(snippet)),
			RequestID:  extractRequestID(resp),
		}
		switch {
		case resp.StatusCode == http.StatusTooManyRequests:
			var ra time.Duration
			if secs, err := parseRetryAfterSeconds(resp.Header.Get("Retry-After")); err == nil && secs > 0 {
				ra = time.Duration(secs) * time.Second
			}
			return nil, ra, &RateLimitError{StatusError: se, RetryAfter: ra}
		case resp.StatusCode >= 500 && resp.StatusCode <= 599:
			return nil, 0, &ServerError{StatusError: se}
		case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
			return nil, -1, &NotFoundError{StatusError: se}
		default:
			return nil, -1, se
		}
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read body: %w", err)
	}
	return body, 0, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func isRetryableNetErr(err error) bool {
	var nerr net.Error
	if errors.As(err, &nerr) && nerr.Timeout() {
		return true
	}
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return true
	}
	return false
}

// parseRetryAfterSeconds tries to interpret Retry-After header value as seconds or HTTP date.
func parseRetryAfterSeconds(v string) (int, error) {
	if v == "" {
		return 0, errors.New("empty Retry-After")
	}
	if s, err := strconv.Atoi(v); err == nil {
		return s, nil
	}
	if t, err := http.ParseTime(v); err == nil {
		d := time.Until(t)
		if d < 0 {
			d = 0
		}
		return int(d.Seconds()), nil
	}
	return 0, fmt.Errorf("invalid Retry-After: %q", v)
}

func extractRequestID(resp *http.Response) string {
	if resp == nil {
		return ""
	}
	for _, k := range []string{"X-Request-Id", "X-GitHub-Request-Id", "X-Amz-Request-Id", "Cf-Ray"} {
		if v := resp.Header.Get(k); v != "" {
			return v
		}
	}
	return ""
}

// withJitter returns a backoff duration with +/- 20% jitter applied.
func withJitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 500 * time.Millisecond
	}
	f := 0.8 + rand.Float64()*0.4
	out := time.Duration(float64(d) * f)
	if out <= 0 {
		return d
	}
	return out
}
