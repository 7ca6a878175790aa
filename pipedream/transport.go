package pipedream

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// Default transport parameters. The per-call timeout is deliberately
// decoupled from the underlying http.Client defaults.
const (
	DefaultCallTimeout = 30 * time.Second
	DefaultRateLimit   = rate.Limit(10) // requests per second
	DefaultRateBurst   = 5
)

// Transport issues one HTTP request and returns the raw JSON body.
// Implementations must map failures onto the *APIError taxonomy.
type Transport interface {
	Send(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// RetryPolicy bounds retries of transport-level failures. HTTP status
// errors are never retried here: a 404 retried is still a 404, and status
// fallback is the chain's job, not the transport's.
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		d = p.MaxBackoff
	}
	return d
}

type httpTransport struct {
	baseURL     string
	apiKey      string
	client      *http.Client
	limiter     *rate.Limiter
	callTimeout time.Duration
	retry       RetryPolicy
}

func newHTTPTransport(baseURL, apiKey string, opts *Options) *httpTransport {
	t := &httpTransport{
		baseURL:     baseURL,
		apiKey:      apiKey,
		client:      &http.Client{},
		limiter:     rate.NewLimiter(DefaultRateLimit, DefaultRateBurst),
		callTimeout: DefaultCallTimeout,
		retry:       RetryPolicy{MaxAttempts: 1},
	}
	if opts == nil {
		return t
	}
	if opts.HTTPClient != nil {
		t.client = opts.HTTPClient
	}
	if opts.CallTimeout > 0 {
		t.callTimeout = opts.CallTimeout
	}
	if opts.RateLimit > 0 {
		t.limiter = rate.NewLimiter(opts.RateLimit, max(opts.RateBurst, 1))
	}
	if opts.Retry.MaxAttempts > 1 {
		t.retry = opts.Retry
		if t.retry.InitialBackoff <= 0 {
			t.retry.InitialBackoff = time.Second
		}
	}
	return t
}

// Send issues a single HTTPS request, parses the body as JSON, and maps
// failures to the error taxonomy. Transport-level failures may be retried
// per the policy; everything else fails fast.
func (t *httpTransport) Send(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	attempts := t.retry.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		raw, err := t.send(ctx, method, path, body)
		if err == nil {
			return raw, nil
		}
		lastErr = err
		if apiErr, ok := AsAPIError(err); !ok || apiErr.Kind != KindTransport {
			return nil, err
		}
		if attempt == attempts {
			break
		}
		delay := t.retry.backoff(attempt)
		slog.Debug("transport error, retrying", "method", method, "path", path, "attempt", attempt, "delay", delay, "error", err)
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, &APIError{Kind: KindTransport, Method: method, Path: path, Err: ctx.Err()}
		}
	}
	return nil, lastErr
}

func (t *httpTransport) send(ctx context.Context, method, path string, body any) (json.RawMessage, error) {
	if err := t.limiter.Wait(ctx); err != nil {
		return nil, &APIError{Kind: KindTransport, Method: method, Path: path, Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, t.callTimeout)
	defer cancel()

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, t.baseURL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+t.apiKey)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Method: method, Path: path, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &APIError{Kind: KindTransport, Method: method, Path: path, Err: err}
	}
	slog.Debug("api request", "method", method, "path", path, "status", resp.StatusCode, "elapsed", time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Kind:       KindStatus,
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       string(data),
		}
	}
	if !json.Valid(data) {
		return nil, &APIError{
			Kind:   KindParse,
			Method: method,
			Path:   path,
			Body:   string(data),
			Err:    fmt.Errorf("invalid JSON in %d response", resp.StatusCode),
		}
	}
	return json.RawMessage(data), nil
}
