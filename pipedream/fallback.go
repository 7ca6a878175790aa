package pipedream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/pdkit/pdkit/types"
)

// candidate is one entry of a fallback chain: a concrete endpoint (method +
// logical path + version hint), an endpoint whose path must be resolved
// lazily (organization-scoped paths need the org id, which is fetched only
// if the chain gets that far), or a derivation step that computes the answer
// from a richer resource. Candidates are executed strictly in order; later
// candidates are progressively more expensive, so ordering matters.
type candidate struct {
	method  string
	path    string
	version string
	body    any

	// pathFn, when set, computes the logical path at execution time.
	// template names the endpoint in diagnostics if pathFn itself fails.
	pathFn   func(ctx context.Context) (string, error)
	template string

	// derive, when set, replaces the HTTP call entirely. label names the
	// step in diagnostics.
	derive func(ctx context.Context) (json.RawMessage, error)
	label  string
}

func get(path, version string) candidate {
	return candidate{method: "GET", path: path, version: version}
}

func post(path, version string, body any) candidate {
	return candidate{method: "POST", path: path, version: version, body: body}
}

func getLazy(template, version string, pathFn func(ctx context.Context) (string, error)) candidate {
	return candidate{method: "GET", version: version, pathFn: pathFn, template: template}
}

func derived(label string, fn func(ctx context.Context) (json.RawMessage, error)) candidate {
	return candidate{derive: fn, label: label}
}

// runCandidate executes one candidate and returns the unwrapped data
// payload along with the concrete endpoint it hit (for diagnostics).
func (c *Client) runCandidate(ctx context.Context, cand candidate) (json.RawMessage, string, error) {
	if cand.derive != nil {
		data, err := cand.derive(ctx)
		return data, cand.label, err
	}
	logical := cand.path
	if cand.pathFn != nil {
		p, err := cand.pathFn(ctx)
		if err != nil {
			return nil, fmt.Sprintf("%s %s", cand.method, resolvePath(cand.template, cand.version)), err
		}
		logical = p
	}
	path := resolvePath(logical, cand.version)
	endpoint := fmt.Sprintf("%s %s", cand.method, path)
	raw, err := c.transport.Send(ctx, cand.method, path, cand.body)
	if err != nil {
		return nil, endpoint, err
	}
	data, err := unwrapEnvelope(cand.method, path, raw)
	return data, endpoint, err
}

// runChain executes candidates in order and returns the data payload of the
// first one that yields a 2xx response with valid JSON containing a "data"
// key. Candidates run sequentially, never concurrently: the upstream API has
// undocumented rate limits, and probing in parallel would amplify load.
// Individual failures are logged and recorded; only when the chain is
// exhausted does a single aggregated error escape.
func (c *Client) runChain(ctx context.Context, op string, candidates []candidate) (json.RawMessage, error) {
	var attempts []Attempt
	for _, cand := range candidates {
		data, ok := c.tryCandidate(ctx, op, cand, &attempts)
		if ok {
			return data, nil
		}
	}
	c.metrics.ObserveExhausted(op)
	return nil, &ExhaustedError{Operation: op, Attempts: attempts}
}

// tryCandidate runs a single candidate, recording a failure into attempts.
// Used directly by operations whose chains are extended dynamically (the
// organization scan of getProjectWorkflows cannot be enumerated up front).
func (c *Client) tryCandidate(ctx context.Context, op string, cand candidate, attempts *[]Attempt) (json.RawMessage, bool) {
	data, endpoint, err := c.runCandidate(ctx, cand)
	if err == nil {
		c.metrics.ObserveSuccess(op, len(*attempts))
		return data, true
	}
	slog.Debug("fallback candidate failed", "operation", op, "endpoint", endpoint, "error", err)
	*attempts = append(*attempts, Attempt{Endpoint: endpoint, Err: err})
	c.metrics.ObserveFallback(op)
	return nil, false
}

// unwrapEnvelope type-checks the {data} wrapper. Absence of "data" is an
// error condition equivalent to not-found, not just a missing field.
func unwrapEnvelope(method, path string, raw json.RawMessage) (json.RawMessage, error) {
	var env types.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, &APIError{Kind: KindParse, Method: method, Path: path, Body: string(raw), Err: err}
	}
	if len(env.Errors) > 0 {
		return nil, &APIError{Kind: KindEnvelope, Method: method, Path: path, Body: string(raw), Err: fmt.Errorf("response carries %d errors", len(env.Errors))}
	}
	if !env.HasData() {
		return nil, &APIError{Kind: KindEnvelope, Method: method, Path: path, Body: string(raw)}
	}
	return env.Data, nil
}
