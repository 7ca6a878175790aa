package pipedream

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/time/rate"

	"github.com/pdkit/pdkit/config"
	"github.com/pdkit/pdkit/metrics"
	"github.com/pdkit/pdkit/types"
)

// Client is the resource client for the Pipedream API. Every operation is
// backed by an ordered fallback chain rather than a single call, because
// the upstream API surface is inconsistent across versions and scopes: the
// most specific endpoint is tried first, then progressively more general
// ones, and finally the answer is derived from a richer resource.
//
// A Client is created once per command invocation and owns its credential
// and its per-instance memoized current-user cache for its lifetime. No
// state is shared across instances.
type Client struct {
	transport Transport
	orgID     string // explicit org scoping from config, may be empty
	metrics   *metrics.Metrics

	user *types.User // memoized result of getCurrentUser
}

// Options tune the transport; zero values fall back to defaults.
type Options struct {
	HTTPClient  *http.Client
	CallTimeout time.Duration
	RateLimit   rate.Limit
	RateBurst   int
	Retry       RetryPolicy
}

// New creates a resource client from a loaded configuration.
func New(cfg *config.Config) *Client {
	opts := &Options{
		CallTimeout: cfg.CallTimeout.ToDuration(),
		RateLimit:   rate.Limit(cfg.RateLimit),
		RateBurst:   cfg.RateBurst,
		Retry: RetryPolicy{
			MaxAttempts:    cfg.Retry.MaxAttempts,
			InitialBackoff: cfg.Retry.InitialBackoff.ToDuration(),
			MaxBackoff:     cfg.Retry.MaxBackoff.ToDuration(),
		},
	}
	return &Client{
		transport: newHTTPTransport(cfg.BaseURL, cfg.APIKey.String(), opts),
		orgID:     cfg.OrgID,
		metrics:   metrics.Default(),
	}
}

// NewWithTransport creates a client over a caller-supplied transport.
// Used by tests to observe exactly which endpoints a chain probes.
func NewWithTransport(tr Transport, orgID string) *Client {
	return &Client{
		transport: tr,
		orgID:     orgID,
		metrics:   metrics.NewMetrics(),
	}
}

// GetCurrentUser fetches the authenticated user. Single attempt, no
// fallback: if this fails nothing else can be scoped, so the failure is
// fatal to any chain that needs it. The result is memoized for the client
// lifetime so organization-scoped fallback steps do not refetch it.
func (c *Client) GetCurrentUser(ctx context.Context) (*types.User, error) {
	if c.user != nil {
		return c.user, nil
	}
	data, err := c.runChain(ctx, "getCurrentUser", []candidate{
		get("/users/me", VersionV1),
	})
	if err != nil {
		return nil, err
	}
	var u types.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}
	c.user = &u
	return c.user, nil
}

// organizationID resolves the organization id used to scope fallback
// endpoints. An explicit org id from the configuration wins; otherwise the
// first organization in the user's list is used. No tie-break rule exists
// for users in multiple organizations (preserved behavior).
func (c *Client) organizationID(ctx context.Context) (string, error) {
	if c.orgID != "" {
		return c.orgID, nil
	}
	u, err := c.GetCurrentUser(ctx)
	if err != nil {
		return "", err
	}
	if len(u.Orgs) == 0 {
		return "", fmt.Errorf("user %s belongs to no organization", u.ID)
	}
	return u.Orgs[0].ID, nil
}

// GetWorkflow fetches one workflow by id.
func (c *Client) GetWorkflow(ctx context.Context, id string) (*types.Workflow, error) {
	data, err := c.runChain(ctx, "getWorkflow", c.workflowChain(id, ""))
	if err != nil {
		return nil, err
	}
	var w types.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode workflow %s: %w", id, err)
	}
	return &w, nil
}

// GetWorkflowCode fetches the code bundle of a workflow.
func (c *Client) GetWorkflowCode(ctx context.Context, id string) (*types.WorkflowCode, error) {
	data, err := c.runChain(ctx, "getWorkflowCode", c.workflowChain(id, "/code"))
	if err != nil {
		return nil, err
	}
	return decodeWorkflowCode(id, data)
}

// workflowChain is the shared fallback order for workflow-scoped reads:
// v2 then v1 of the direct endpoint, then the user-scoped path, then the
// organization-scoped path (org id resolved lazily, only if the chain gets
// that far).
func (c *Client) workflowChain(id, suffix string) []candidate {
	return []candidate{
		get("/workflows/"+id+suffix, VersionV2),
		get("/workflows/"+id+suffix, VersionV1),
		get("/users/me/workflows/"+id+suffix, VersionV1),
		getLazy("/organizations/{org}/workflows/"+id+suffix, VersionV1, func(ctx context.Context) (string, error) {
			org, err := c.organizationID(ctx)
			if err != nil {
				return "", err
			}
			return "/organizations/" + org + "/workflows/" + id + suffix, nil
		}),
	}
}

// GetWorkflowTriggers fetches the trigger components of a workflow. When no
// triggers endpoint responds, the triggers are derived from the full
// workflow by the partition rule of IsTriggerComponent.
func (c *Client) GetWorkflowTriggers(ctx context.Context, id string) ([]types.Component, error) {
	data, err := c.runChain(ctx, "getWorkflowTriggers", []candidate{
		get("/workflows/"+id+"/triggers", VersionV2),
		get("/workflows/"+id+"/triggers", VersionV1),
		get("/users/me/workflows/"+id+"/triggers", VersionV1),
		derived("derive triggers from getWorkflow("+id+")", func(ctx context.Context) (json.RawMessage, error) {
			w, err := c.GetWorkflow(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(DeriveTriggers(w.AllComponents()))
		}),
	})
	if err != nil {
		return nil, err
	}
	return decodeComponents(id, data)
}

// GetWorkflowSteps fetches the non-trigger step components of a workflow,
// deriving them from the full workflow when no steps endpoint responds.
// The derivation applies the same partition rule as GetWorkflowTriggers,
// so the two sets are complementary.
func (c *Client) GetWorkflowSteps(ctx context.Context, id string) ([]types.Component, error) {
	data, err := c.runChain(ctx, "getWorkflowSteps", []candidate{
		get("/workflows/"+id+"/steps", VersionV2),
		get("/workflows/"+id+"/steps", VersionV1),
		get("/users/me/workflows/"+id+"/steps", VersionV1),
		derived("derive steps from getWorkflow("+id+")", func(ctx context.Context) (json.RawMessage, error) {
			w, err := c.GetWorkflow(ctx, id)
			if err != nil {
				return nil, err
			}
			return json.Marshal(DeriveSteps(w.AllComponents()))
		}),
	})
	if err != nil {
		return nil, err
	}
	return decodeComponents(id, data)
}

// GetProjectWorkflows lists the workflows of a project. The chain extends
// dynamically: when the direct endpoint fails, every organization of the
// current user is probed under both the organizations and the workspaces
// path family, and the component listing filtered by project id is the
// last resort.
func (c *Client) GetProjectWorkflows(ctx context.Context, projectID string) ([]types.Workflow, error) {
	const op = "getProjectWorkflows"
	var attempts []Attempt

	if data, ok := c.tryCandidate(ctx, op, get("/projects/"+projectID+"/workflows", VersionV1), &attempts); ok {
		return decodeWorkflows(projectID, data)
	}

	u, err := c.GetCurrentUser(ctx)
	if err != nil {
		attempts = append(attempts, Attempt{Endpoint: "resolve organizations via getCurrentUser", Err: err})
	} else {
		for _, org := range u.Orgs {
			for _, prefix := range []string{"/organizations/", "/workspaces/"} {
				cand := get(prefix+org.ID+"/projects/"+projectID+"/workflows", VersionV1)
				if data, ok := c.tryCandidate(ctx, op, cand, &attempts); ok {
					return decodeWorkflows(projectID, data)
				}
			}
		}
	}

	// Last resort: filter the global component listing by project.
	cand := get("/components/workflows?project_id="+projectID, VersionV1)
	if data, ok := c.tryCandidate(ctx, op, cand, &attempts); ok {
		return decodeWorkflows(projectID, data)
	}

	c.metrics.ObserveExhausted(op)
	return nil, &ExhaustedError{Operation: op, Attempts: attempts}
}

// GetProjects lists projects. With an explicit org id the organization and
// workspace path families are tried in order; without one the projects of
// the current user are listed.
func (c *Client) GetProjects(ctx context.Context, orgID string) ([]types.Project, error) {
	var candidates []candidate
	if orgID != "" {
		candidates = []candidate{
			get("/organizations/"+orgID+"/projects", VersionV1),
			get("/workspaces/"+orgID+"/projects", VersionV1),
		}
	} else {
		candidates = []candidate{
			get("/users/me/projects", VersionV1),
		}
	}
	data, err := c.runChain(ctx, "getProjects", candidates)
	if err != nil {
		return nil, err
	}
	var projects []types.Project
	if err := json.Unmarshal(data, &projects); err != nil {
		return nil, fmt.Errorf("failed to decode projects: %w", err)
	}
	return projects, nil
}

// CreateProject creates a project, falling back to the organization-scoped
// endpoint when the flat one is unavailable.
func (c *Client) CreateProject(ctx context.Context, name string) (*types.Project, error) {
	body := map[string]string{"name": name}
	data, err := c.runChain(ctx, "createProject", []candidate{
		post("/projects", VersionV1, body),
		{
			method:   "POST",
			version:  VersionV1,
			body:     body,
			template: "/organizations/{org}/projects",
			pathFn: func(ctx context.Context) (string, error) {
				org, err := c.organizationID(ctx)
				if err != nil {
					return "", err
				}
				return "/organizations/" + org + "/projects", nil
			},
		},
	})
	if err != nil {
		return nil, err
	}
	var p types.Project
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode project: %w", err)
	}
	return &p, nil
}

// CreateWorkflow creates a workflow in a project.
func (c *Client) CreateWorkflow(ctx context.Context, w *types.Workflow) (*types.Workflow, error) {
	if w.ProjectID == "" {
		return nil, fmt.Errorf("workflow project_id is required")
	}
	data, err := c.runChain(ctx, "createWorkflow", []candidate{
		post("/workflows", VersionV1, w),
		post("/projects/"+w.ProjectID+"/workflows", VersionV1, w),
	})
	if err != nil {
		return nil, err
	}
	var created types.Workflow
	if err := json.Unmarshal(data, &created); err != nil {
		return nil, fmt.Errorf("failed to decode created workflow: %w", err)
	}
	return &created, nil
}

func decodeWorkflows(projectID string, data json.RawMessage) ([]types.Workflow, error) {
	var workflows []types.Workflow
	if err := json.Unmarshal(data, &workflows); err != nil {
		return nil, fmt.Errorf("failed to decode workflows of project %s: %w", projectID, err)
	}
	return workflows, nil
}

func decodeComponents(workflowID string, data json.RawMessage) ([]types.Component, error) {
	var components []types.Component
	if err := json.Unmarshal(data, &components); err != nil {
		return nil, fmt.Errorf("failed to decode components of workflow %s: %w", workflowID, err)
	}
	return components, nil
}

// decodeWorkflowCode accepts both shapes the code endpoints return: a
// structured bundle with files, or a bare string of code.
func decodeWorkflowCode(workflowID string, data json.RawMessage) (*types.WorkflowCode, error) {
	var code types.WorkflowCode
	if err := json.Unmarshal(data, &code); err == nil {
		if code.WorkflowID == "" {
			code.WorkflowID = workflowID
		}
		return &code, nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode code of workflow %s: %w", workflowID, err)
	}
	return &types.WorkflowCode{WorkflowID: workflowID, Code: raw}, nil
}
