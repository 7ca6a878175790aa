package pipedream

import (
	"errors"
	"fmt"
	"strings"
)

// ErrorKind classifies a single request failure. The fallback strategy needs
// the distinction: a 404 on one endpoint means "try the next one", while a
// connection reset is a transport problem that no alternate path will fix
// (it is still recorded and the chain continues, but callers diagnosing an
// exhausted chain must be able to tell the two apart).
type ErrorKind string

const (
	// KindTransport is a network/DNS/timeout failure before any HTTP
	// response was obtained.
	KindTransport ErrorKind = "transport"

	// KindStatus is a response with status outside [200,300).
	KindStatus ErrorKind = "status"

	// KindParse is a 2xx response whose body is not valid JSON.
	KindParse ErrorKind = "parse"

	// KindEnvelope is valid JSON missing the expected "data" key, or a
	// GraphQL response carrying errors. Equivalent to not-found for
	// fallback purposes.
	KindEnvelope ErrorKind = "envelope"
)

// APIError is a single failed request against one endpoint.
type APIError struct {
	Kind       ErrorKind
	Method     string
	Path       string
	StatusCode int    // set for KindStatus only
	Body       string // raw response body, for diagnostics
	Err        error  // underlying cause, if any
}

func (e *APIError) Error() string {
	switch e.Kind {
	case KindStatus:
		return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
	case KindParse:
		return fmt.Sprintf("%s %s: unparseable success response: %s", e.Method, e.Path, e.Err)
	case KindEnvelope:
		return fmt.Sprintf("%s %s: response has no data: %s", e.Method, e.Path, e.Body)
	default:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Err)
	}
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// IsNotFound reports whether the failure was an HTTP 404.
func (e *APIError) IsNotFound() bool {
	return e.Kind == KindStatus && e.StatusCode == 404
}

// Attempt records one candidate endpoint tried by a fallback chain and how
// it failed.
type Attempt struct {
	Endpoint string // "GET /v1/workflows/p_abc"
	Err      error
}

// ExhaustedError is raised when every candidate of a fallback chain has
// failed. It is the only error type that crosses the client boundary for
// multi-candidate operations; the per-attempt failures are retained because
// the whole point of centralizing the chains was to stop losing them.
type ExhaustedError struct {
	Operation string
	Attempts  []Attempt
}

func (e *ExhaustedError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: all %d endpoints failed:", e.Operation, len(e.Attempts))
	for i, a := range e.Attempts {
		fmt.Fprintf(&b, "\n  %d. %s: %s", i+1, a.Endpoint, a.Err)
	}
	return b.String()
}

// Unwrap exposes the last attempt's error for errors.Is/As chains.
func (e *ExhaustedError) Unwrap() error {
	if len(e.Attempts) == 0 {
		return nil
	}
	return e.Attempts[len(e.Attempts)-1].Err
}

// AsAPIError unwraps err to an *APIError if possible.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}
