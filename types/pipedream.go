package types

import (
	"encoding/json"
	"time"
)

// Component type constants as they appear in workflow component lists.
const (
	ComponentTypeSource  = "source"
	ComponentTypeTrigger = "trigger"
	ComponentTypeAction  = "action"

	// TriggerKey is the conventional key of the trigger component.
	TriggerKey = "trigger"
)

// Envelope is the {data} (or {data, errors} for GraphQL) wrapper the
// Pipedream API uses for all responses. Data is kept raw so callers decide
// how to decode it; a response without a "data" key is an error condition,
// not an empty result.
type Envelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []GraphQLError  `json:"errors,omitempty"`
}

// HasData reports whether the envelope actually carried a "data" key.
func (e *Envelope) HasData() bool {
	return len(e.Data) > 0 && string(e.Data) != "null"
}

// GraphQLError is a single error entry from a GraphQL response.
type GraphQLError struct {
	Message string   `json:"message"`
	Path    []string `json:"path,omitempty"`
}

// User represents the authenticated Pipedream user (/users/me).
type User struct {
	ID       string         `json:"id"`
	Username string         `json:"username,omitempty"`
	Email    string         `json:"email,omitempty"`
	Orgs     []Organization `json:"orgs,omitempty"`
}

// PrimaryOrgID returns the id of the user's first organization, or an
// empty string for users without one. There is no tie-break rule for
// users in multiple organizations.
func (u *User) PrimaryOrgID() string {
	if len(u.Orgs) == 0 {
		return ""
	}
	return u.Orgs[0].ID
}

// Organization is Pipedream's tenant-scoping concept (aka workspace).
type Organization struct {
	ID   string `json:"id"`
	Name string `json:"name,omitempty"`
}

// Project groups workflows under an organization.
type Project struct {
	ID        string    `json:"id"`
	Name      string    `json:"name,omitempty"`
	OrgID     string    `json:"org_id,omitempty"`
	CreatedAt time.Time `json:"created_at,omitempty"`
}

// Workflow is a Pipedream workflow. Depending on the endpoint that returned
// it, the component list may appear under "components", or pre-split into
// "triggers" and "steps".
type Workflow struct {
	ID         string      `json:"id"`
	Name       string      `json:"name,omitempty"`
	Active     bool        `json:"active,omitempty"`
	ProjectID  string      `json:"project_id,omitempty"`
	OrgID      string      `json:"org_id,omitempty"`
	Components []Component `json:"components,omitempty"`
	Triggers   []Component `json:"triggers,omitempty"`
	Steps      []Component `json:"steps,omitempty"`
	CreatedAt  time.Time   `json:"created_at,omitempty"`
	UpdatedAt  time.Time   `json:"updated_at,omitempty"`
}

// AllComponents returns the full component list regardless of which shape
// the endpoint delivered.
func (w *Workflow) AllComponents() []Component {
	if len(w.Components) > 0 {
		return w.Components
	}
	out := make([]Component, 0, len(w.Triggers)+len(w.Steps))
	out = append(out, w.Triggers...)
	out = append(out, w.Steps...)
	return out
}

// Component is a workflow building block: a trigger/source or an action step.
type Component struct {
	ID     string          `json:"id,omitempty"`
	Key    string          `json:"key,omitempty"`
	Type   string          `json:"type,omitempty"`
	Name   string          `json:"name,omitempty"`
	Code   string          `json:"code,omitempty"`
	Source json.RawMessage `json:"source,omitempty"`
	Props  json.RawMessage `json:"props,omitempty"`
}

// HasSource reports whether the component carries a populated source
// sub-object (an empty object or null does not count).
func (c *Component) HasSource() bool {
	s := string(c.Source)
	return len(c.Source) > 0 && s != "null" && s != "{}"
}

// ShareStatus is the sharing state of a workflow, available only through
// the persisted getWorkflowShareStatus GraphQL query.
type ShareStatus struct {
	ID     string `json:"id"`
	Shared bool   `json:"shared"`
	Active bool   `json:"active"`
}

// WorkflowCode is the code bundle of a workflow as returned by the
// /workflows/{id}/code endpoints.
type WorkflowCode struct {
	WorkflowID string     `json:"workflow_id,omitempty"`
	Files      []CodeFile `json:"files,omitempty"`
	Code       string     `json:"code,omitempty"`
}

// CodeFile is one file of a workflow code bundle.
type CodeFile struct {
	Path    string `json:"path"`
	Content string `json:"content"`
}
