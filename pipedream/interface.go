package pipedream

import (
	"context"
	"encoding/json"

	"github.com/pdkit/pdkit/types"
)

// ResourceClient defines the resource client contract
type ResourceClient interface {
	// User operations
	GetCurrentUser(ctx context.Context) (*types.User, error)

	// Workflow operations
	GetWorkflow(ctx context.Context, id string) (*types.Workflow, error)
	GetWorkflowCode(ctx context.Context, id string) (*types.WorkflowCode, error)
	GetWorkflowTriggers(ctx context.Context, id string) ([]types.Component, error)
	GetWorkflowSteps(ctx context.Context, id string) ([]types.Component, error)

	// Project operations
	GetProjects(ctx context.Context, orgID string) ([]types.Project, error)
	GetProjectWorkflows(ctx context.Context, projectID string) ([]types.Workflow, error)
	CreateProject(ctx context.Context, name string) (*types.Project, error)
	CreateWorkflow(ctx context.Context, w *types.Workflow) (*types.Workflow, error)

	// GraphQL operations
	QueryPersisted(ctx context.Context, operationName string, variables map[string]any, sha256Hash string) (json.RawMessage, error)
	GetWorkflowShareStatus(ctx context.Context, id string) (*types.ShareStatus, error)
}

// Ensure that Client implements ResourceClient
var _ ResourceClient = (*Client)(nil)
