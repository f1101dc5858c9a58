// Package places is the place-details provider client.
package places

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"attraction_registry/internal/adapters/observability"
	"attraction_registry/internal/domain"
)

// detailsFields is the field mask requested from the place-details endpoint.
const detailsFields = "name,formatted_address,geometry,types,photos,rating,user_ratings_total," +
	"website,url,international_phone_number,opening_hours,address_components"

const maxAttempts = 4

var (
	ErrNotFound  = errors.New("places: not found")
	ErrForbidden = errors.New("places: forbidden")
)

type Client struct {
	base string
	hc   *http.Client
	key  string
	rl   *rate.Limiter
}

func New(base, key string, rps int, timeout time.Duration) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 5
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		base: strings.TrimRight(base, "/"),
		hc:   &http.Client{Timeout: timeout},
		key:  key,
		rl:   rate.NewLimiter(rate.Limit(rps), rps),
	}, nil
}

type detailsEnvelope struct {
	Status       string               `json:"status"`
	ErrorMessage string               `json:"error_message"`
	Result       domain.PlaceSnapshot `json:"result"`
}

// outcome of a single attempt.
type attempt struct {
	status int // HTTP status, 0 when no response arrived
	retry  bool
	wait   time.Duration // server-provided delay, 0 means use backoff
	err    error
}

// PlaceDetails fetches one place snapshot. Every failure is a *domain.UpstreamError.
// Transient failures (transport errors, 429/5xx, OVER_QUERY_LIMIT, UNKNOWN_ERROR)
// are retried with jittered backoff while ctx allows.
func (c *Client) PlaceDetails(ctx context.Context, placeID string) (domain.PlaceSnapshot, error) {
	q := url.Values{}
	q.Set("place_id", placeID)
	q.Set("fields", detailsFields)
	q.Set("key", c.key)
	rawURL := c.base + "/details/json?" + q.Encode()

	var last attempt
	for i := 0; i < maxAttempts; i++ {
		if err := c.rl.Wait(ctx); err != nil {
			return domain.PlaceSnapshot{}, &domain.UpstreamError{Status: last.status, Err: err}
		}
		var env detailsEnvelope
		start := time.Now()
		last = c.fetch(ctx, rawURL, &env)
		observability.ObserveExternal("places", "details", last.status, time.Since(start))
		if last.err == nil {
			return env.Result, nil
		}
		if !last.retry || i == maxAttempts-1 {
			break
		}
		wait := last.wait
		if wait == 0 {
			wait = backoff(i)
		}
		if !sleepCtx(ctx, wait) {
			last.err = ctx.Err()
			break
		}
	}
	return domain.PlaceSnapshot{}, &domain.UpstreamError{Status: last.status, Err: last.err}
}

func (c *Client) fetch(ctx context.Context, rawURL string, env *detailsEnvelope) attempt {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return attempt{err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "attraction-registry/1.0")

	resp, err := c.hc.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return attempt{err: ctx.Err()}
		}
		return attempt{retry: true, err: err}
	}
	defer resp.Body.Close()
	out := attempt{status: resp.StatusCode}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusNotFound:
		out.err = ErrNotFound
		return out
	case http.StatusUnauthorized, http.StatusForbidden:
		out.err = ErrForbidden
		return out
	case http.StatusTooManyRequests, http.StatusInternalServerError,
		http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		_, _ = io.Copy(io.Discard, resp.Body)
		out.retry, out.wait = true, retryAfter(resp)
		out.err = fmt.Errorf("remote %d", resp.StatusCode)
		return out
	default:
		// a small error body helps diagnostics
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		out.err = fmt.Errorf("bad status %d: %s", resp.StatusCode, strings.TrimSpace(string(b)))
		return out
	}

	if err := json.NewDecoder(resp.Body).Decode(env); err != nil {
		out.err = fmt.Errorf("decode: %w", err)
		return out
	}
	switch env.Status {
	case "OK":
		return out
	case "NOT_FOUND", "ZERO_RESULTS":
		out.err = fmt.Errorf("%w: %s", ErrNotFound, env.Status)
	case "REQUEST_DENIED":
		out.err = fmt.Errorf("%w: %s", ErrForbidden, envelopeMessage(env))
	case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
		out.retry = true
		out.err = errors.New(envelopeMessage(env))
	default:
		out.err = errors.New(envelopeMessage(env))
	}
	return out
}

func envelopeMessage(env *detailsEnvelope) string {
	if env.Status == "" {
		return "missing status"
	}
	if env.ErrorMessage != "" {
		return env.Status + ": " + env.ErrorMessage
	}
	return env.Status
}

// sleepCtx waits for d and reports false if ctx ended first.
func sleepCtx(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}

// retryAfter parses Retry-After (seconds or HTTP-date); 0 when absent or invalid.
func retryAfter(resp *http.Response) time.Duration {
	h := strings.TrimSpace(resp.Header.Get("Retry-After"))
	if h == "" {
		return 0
	}
	if secs, err := strconv.Atoi(h); err == nil && secs >= 0 {
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(h); err == nil {
		return max(time.Until(t), 0)
	}
	return 0
}

// backoff returns 200ms, 400ms, 800ms... plus up to 50% jitter.
func backoff(i int) time.Duration {
	base := time.Duration(1<<i) * 200 * time.Millisecond
	return base + time.Duration(rand.Float64()*0.5*float64(base))
}
