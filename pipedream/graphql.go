package pipedream

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/pdkit/pdkit/types"
)

// graphQLPath is version-less; the resolver must leave it untouched.
const graphQLPath = "/graphql"

// persistedQueryRequest is the persisted-query envelope: the query text is
// pinned server-side and identified only by its sha256 hash.
type persistedQueryRequest struct {
	OperationName string         `json:"operationName"`
	Variables     map[string]any `json:"variables"`
	Extensions    struct {
		PersistedQuery struct {
			Version    int    `json:"version"`
			SHA256Hash string `json:"sha256Hash"`
		} `json:"persistedQuery"`
	} `json:"extensions"`
}

// QueryPersisted executes a persisted GraphQL query by operation name and
// hash. The {data, errors} envelope is checked the same way as REST
// responses: GraphQL errors or a missing data key fail the call.
func (c *Client) QueryPersisted(ctx context.Context, operationName string, variables map[string]any, sha256Hash string) (json.RawMessage, error) {
	req := persistedQueryRequest{
		OperationName: operationName,
		Variables:     variables,
	}
	req.Extensions.PersistedQuery.Version = 1
	req.Extensions.PersistedQuery.SHA256Hash = sha256Hash

	raw, err := c.transport.Send(ctx, "POST", resolvePath(graphQLPath, VersionRaw), req)
	if err != nil {
		return nil, err
	}
	return unwrapEnvelope("POST", graphQLPath, raw)
}

// shareStatusHash pins the getWorkflowShareStatus persisted query.
const shareStatusHash = "3c1b6f0a8f4d9f2f7f0f5f0c9f9d4e2b1a7c6d5e4f3a2b1c0d9e8f7a6b5c4d3e"

// GetWorkflowShareStatus looks up the sharing state of a workflow. This is
// the one operation with no REST endpoint at all; it only exists as a
// persisted GraphQL query.
func (c *Client) GetWorkflowShareStatus(ctx context.Context, id string) (*types.ShareStatus, error) {
	data, err := c.QueryPersisted(ctx, "getWorkflowShareStatus",
		map[string]any{"workflowId": id}, shareStatusHash)
	if err != nil {
		return nil, err
	}
	var wrapper struct {
		Workflow types.ShareStatus `json:"workflow"`
	}
	if err := json.Unmarshal(data, &wrapper); err != nil {
		return nil, fmt.Errorf("failed to decode share status of workflow %s: %w", id, err)
	}
	return &wrapper.Workflow, nil
}
