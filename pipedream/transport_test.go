package pipedream

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestHTTPTransportSuccess(t *testing.T) {
	var gotAuth, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"data":{"id":"u_1"}}`))
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, "secret-key", nil)
	raw, err := tr.Send(context.Background(), "GET", "/v1/users/me", nil)
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != `{"data":{"id":"u_1"}}` {
		t.Errorf("unexpected body: %s", raw)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotAccept != "application/json" {
		t.Errorf("Accept = %q", gotAccept)
	}
}

func TestHTTPTransportStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, "k", nil)
	_, err := tr.Send(context.Background(), "GET", "/v1/workflows/p_gone", nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != KindStatus || apiErr.StatusCode != 404 {
		t.Errorf("kind=%s status=%d, want status/404", apiErr.Kind, apiErr.StatusCode)
	}
	if !apiErr.IsNotFound() {
		t.Error("IsNotFound() = false")
	}
}

func TestHTTPTransportInvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>load balancer error page</html>"))
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, "k", nil)
	_, err := tr.Send(context.Background(), "GET", "/v1/users/me", nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != KindParse {
		t.Errorf("kind = %s, want %s", apiErr.Kind, KindParse)
	}
}

func TestHTTPTransportConnectionError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens anymore

	tr := newHTTPTransport(srv.URL, "k", nil)
	_, err := tr.Send(context.Background(), "GET", "/v1/users/me", nil)
	apiErr, ok := AsAPIError(err)
	if !ok {
		t.Fatalf("expected APIError, got %T: %v", err, err)
	}
	if apiErr.Kind != KindTransport {
		t.Errorf("kind = %s, want %s", apiErr.Kind, KindTransport)
	}
}

// flakyRoundTripper fails the first n requests at the connection level.
type flakyRoundTripper struct {
	failures int
	inner    http.RoundTripper
}

func (f *flakyRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	if f.failures > 0 {
		f.failures--
		return nil, errors.New("connection reset by peer")
	}
	return f.inner.RoundTrip(req)
}

func TestRetryPolicyRecoversTransportErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, "k", &Options{
		HTTPClient: &http.Client{Transport: &flakyRoundTripper{failures: 1, inner: http.DefaultTransport}},
		Retry:      RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	if _, err := tr.Send(context.Background(), "GET", "/v1/users/me", nil); err != nil {
		t.Fatal(err)
	}
	if hits != 1 {
		t.Errorf("server hit %d times, want 1", hits)
	}
}

func TestNoRetryByDefault(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{}}`))
	}))
	defer srv.Close()

	flaky := &flakyRoundTripper{failures: 1, inner: http.DefaultTransport}
	tr := newHTTPTransport(srv.URL, "k", &Options{HTTPClient: &http.Client{Transport: flaky}})
	_, err := tr.Send(context.Background(), "GET", "/v1/users/me", nil)
	if err == nil {
		t.Fatal("expected the transport error to surface without retry")
	}
}

func TestRetryNeverAppliesToStatusErrors(t *testing.T) {
	var hits int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		http.Error(w, `{"error":"not found"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	tr := newHTTPTransport(srv.URL, "k", &Options{
		Retry: RetryPolicy{MaxAttempts: 3, InitialBackoff: time.Millisecond},
	})
	_, err := tr.Send(context.Background(), "GET", "/v1/workflows/p_gone", nil)
	if err == nil {
		t.Fatal("expected error")
	}
	if hits != 1 {
		t.Errorf("a 404 was retried %d times; status errors must fail fast", hits)
	}
}

var backoffSuites = []struct {
	name    string
	policy  RetryPolicy
	attempt int
	want    time.Duration
}{
	{"first", RetryPolicy{InitialBackoff: time.Second}, 1, time.Second},
	{"doubles", RetryPolicy{InitialBackoff: time.Second}, 2, 2 * time.Second},
	{"keeps doubling", RetryPolicy{InitialBackoff: time.Second}, 4, 8 * time.Second},
	{"capped", RetryPolicy{InitialBackoff: time.Second, MaxBackoff: 3 * time.Second}, 4, 3 * time.Second},
}

func TestRetryPolicyBackoff(t *testing.T) {
	for _, s := range backoffSuites {
		t.Run(s.name, func(t *testing.T) {
			if got := s.policy.backoff(s.attempt); got != s.want {
				t.Errorf("backoff(%d) = %s, want %s", s.attempt, got, s.want)
			}
		})
	}
}
