package mockserver

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"sync"

	"github.com/pdkit/pdkit/metrics"
	"github.com/pdkit/pdkit/types"
)

const contentType = "application/json"

// Route families that can be disabled to push a client's fallback chain
// deeper. Disabled families answer 404 like the real API does on accounts
// or plans where the endpoint is absent.
const (
	RouteV2         = "v2"
	RouteDirect     = "direct"     // /workflows/{id}, /projects/{id}/workflows
	RouteUserScoped = "user"       // /users/me/...
	RouteOrgScoped  = "org"        // /organizations/{org}/...
	RouteWorkspaces = "workspaces" // /workspaces/{org}/...
	RouteSplit      = "split"      // /workflows/{id}/triggers and /steps
)

// Server is an in-memory mock of the Pipedream API surface the resource
// client probes. Used by `pdcreator test` and by package tests to exercise
// fallback chains end to end without touching the network.
type Server struct {
	store    *Store
	metrics  *metrics.Metrics
	mu       sync.RWMutex
	disabled map[string]bool
}

// New creates a mock server over the given store.
func New(store *Store, m *metrics.Metrics) *Server {
	if m == nil {
		m = metrics.NewMetrics()
	}
	return &Server{
		store:    store,
		metrics:  m,
		disabled: map[string]bool{},
	}
}

// Disable turns a route family off; requests to it answer 404.
func (s *Server) Disable(families ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, f := range families {
		s.disabled[f] = true
	}
}

func (s *Server) isDisabled(family string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled[family]
}

// Handler returns the HTTP handler serving the mock API.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /v1/users/me", s.handleUser)
	mux.HandleFunc("GET /v1/users/me/projects", s.handleUserProjects)

	for _, v := range []string{"v1", "v2"} {
		mux.HandleFunc("GET /"+v+"/workflows/{id}", s.workflowHandler(v, RouteDirect, s.renderWorkflow))
		mux.HandleFunc("GET /"+v+"/workflows/{id}/code", s.workflowHandler(v, RouteDirect, s.renderCode))
		mux.HandleFunc("GET /"+v+"/workflows/{id}/triggers", s.workflowHandler(v, RouteSplit, s.renderTriggers))
		mux.HandleFunc("GET /"+v+"/workflows/{id}/steps", s.workflowHandler(v, RouteSplit, s.renderSteps))
	}

	mux.HandleFunc("GET /v1/users/me/workflows/{id}", s.workflowHandler("v1", RouteUserScoped, s.renderWorkflow))
	mux.HandleFunc("GET /v1/users/me/workflows/{id}/code", s.workflowHandler("v1", RouteUserScoped, s.renderCode))
	mux.HandleFunc("GET /v1/users/me/workflows/{id}/triggers", s.workflowHandler("v1", RouteUserScoped, s.renderTriggers))
	mux.HandleFunc("GET /v1/users/me/workflows/{id}/steps", s.workflowHandler("v1", RouteUserScoped, s.renderSteps))

	mux.HandleFunc("GET /v1/organizations/{org}/workflows/{id}", s.orgWorkflowHandler(RouteOrgScoped, s.renderWorkflow))
	mux.HandleFunc("GET /v1/organizations/{org}/workflows/{id}/code", s.orgWorkflowHandler(RouteOrgScoped, s.renderCode))

	mux.HandleFunc("GET /v1/projects/{id}/workflows", s.handleProjectWorkflows(RouteDirect))
	mux.HandleFunc("GET /v1/organizations/{org}/projects/{id}/workflows", s.handleProjectWorkflows(RouteOrgScoped))
	mux.HandleFunc("GET /v1/workspaces/{org}/projects/{id}/workflows", s.handleProjectWorkflows(RouteWorkspaces))
	mux.HandleFunc("GET /v1/organizations/{org}/projects", s.handleOrgProjects(RouteOrgScoped))
	mux.HandleFunc("GET /v1/workspaces/{org}/projects", s.handleOrgProjects(RouteWorkspaces))
	mux.HandleFunc("GET /v1/components/workflows", s.handleComponentWorkflows)

	mux.HandleFunc("POST /v1/projects", s.handleCreateProject)
	mux.HandleFunc("POST /v1/organizations/{org}/projects", s.handleCreateProject)
	mux.HandleFunc("POST /v1/workflows", s.handleCreateWorkflow)
	mux.HandleFunc("POST /v1/projects/{id}/workflows", s.handleCreateWorkflow)

	mux.HandleFunc("POST /graphql", s.handleGraphQL)

	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		s.metrics.MockNotFound.Inc()
		s.writeError(w, r, r.URL.Path, http.StatusNotFound, "no such endpoint")
	})
	return mux
}

func (s *Server) writeData(w http.ResponseWriter, r *http.Request, route string, v any) {
	s.metrics.MockRequests.WithLabelValues(route, "200").Inc()
	w.Header().Set("Content-Type", contentType)
	json.NewEncoder(w).Encode(map[string]any{"data": v})
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, route string, status int, msg string) {
	s.metrics.MockRequests.WithLabelValues(route, strconv.Itoa(status)).Inc()
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func (s *Server) handleUser(w http.ResponseWriter, r *http.Request) {
	s.writeData(w, r, "users/me", s.store.User())
}

func (s *Server) handleUserProjects(w http.ResponseWriter, r *http.Request) {
	if s.isDisabled(RouteUserScoped) {
		s.writeError(w, r, "users/me/projects", http.StatusNotFound, "not found")
		return
	}
	s.writeData(w, r, "users/me/projects", s.store.Projects())
}

type renderFunc func(w http.ResponseWriter, r *http.Request, route string, wf *types.Workflow)

func (s *Server) workflowHandler(version, family string, render renderFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := version + "/workflows"
		if version == "v2" && s.isDisabled(RouteV2) {
			s.writeError(w, r, route, http.StatusNotFound, "not found")
			return
		}
		if s.isDisabled(family) {
			s.writeError(w, r, route, http.StatusNotFound, "not found")
			return
		}
		wf, ok := s.store.Workflow(r.PathValue("id"))
		if !ok {
			s.writeError(w, r, route, http.StatusNotFound, "workflow not found")
			return
		}
		render(w, r, route, wf)
	}
}

func (s *Server) orgWorkflowHandler(family string, render renderFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := "organizations/workflows"
		if s.isDisabled(family) {
			s.writeError(w, r, route, http.StatusNotFound, "not found")
			return
		}
		u := s.store.User()
		if r.PathValue("org") != u.PrimaryOrgID() {
			s.writeError(w, r, route, http.StatusNotFound, "organization not found")
			return
		}
		wf, ok := s.store.Workflow(r.PathValue("id"))
		if !ok {
			s.writeError(w, r, route, http.StatusNotFound, "workflow not found")
			return
		}
		render(w, r, route, wf)
	}
}

func (s *Server) renderWorkflow(w http.ResponseWriter, r *http.Request, route string, wf *types.Workflow) {
	s.writeData(w, r, route, wf)
}

func (s *Server) renderCode(w http.ResponseWriter, r *http.Request, route string, wf *types.Workflow) {
	code, ok := s.store.WorkflowCode(wf.ID)
	if !ok {
		s.writeError(w, r, route, http.StatusNotFound, "code not found")
		return
	}
	s.writeData(w, r, route, code)
}

func (s *Server) renderTriggers(w http.ResponseWriter, r *http.Request, route string, wf *types.Workflow) {
	if len(wf.Triggers) > 0 {
		s.writeData(w, r, route, wf.Triggers)
		return
	}
	s.writeError(w, r, route, http.StatusNotFound, "triggers not available")
}

func (s *Server) renderSteps(w http.ResponseWriter, r *http.Request, route string, wf *types.Workflow) {
	if len(wf.Steps) > 0 {
		s.writeData(w, r, route, wf.Steps)
		return
	}
	s.writeError(w, r, route, http.StatusNotFound, "steps not available")
}

func (s *Server) handleProjectWorkflows(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := "projects/workflows"
		if s.isDisabled(family) {
			s.writeError(w, r, route, http.StatusNotFound, "not found")
			return
		}
		id := r.PathValue("id")
		if _, ok := s.store.Project(id); !ok {
			s.writeError(w, r, route, http.StatusNotFound, "project not found")
			return
		}
		s.writeData(w, r, route, s.store.ProjectWorkflows(id))
	}
}

func (s *Server) handleOrgProjects(family string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		route := "organizations/projects"
		if s.isDisabled(family) {
			s.writeError(w, r, route, http.StatusNotFound, "not found")
			return
		}
		u := s.store.User()
		if r.PathValue("org") != u.PrimaryOrgID() {
			s.writeError(w, r, route, http.StatusNotFound, "organization not found")
			return
		}
		s.writeData(w, r, route, s.store.Projects())
	}
}

func (s *Server) handleComponentWorkflows(w http.ResponseWriter, r *http.Request) {
	route := "components/workflows"
	projectID := r.URL.Query().Get("project_id")
	if projectID == "" {
		s.writeError(w, r, route, http.StatusBadRequest, "project_id is required")
		return
	}
	s.writeData(w, r, route, s.store.ProjectWorkflows(projectID))
}

func (s *Server) handleCreateProject(w http.ResponseWriter, r *http.Request) {
	route := "projects/create"
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		s.writeError(w, r, route, http.StatusBadRequest, "name is required")
		return
	}
	s.writeData(w, r, route, s.store.AddProject(body.Name))
}

func (s *Server) handleCreateWorkflow(w http.ResponseWriter, r *http.Request) {
	route := "workflows/create"
	var wf types.Workflow
	if err := json.NewDecoder(r.Body).Decode(&wf); err != nil {
		s.writeError(w, r, route, http.StatusBadRequest, "invalid workflow payload")
		return
	}
	if id := r.PathValue("id"); id != "" {
		wf.ProjectID = id
	}
	if wf.ProjectID == "" {
		s.writeError(w, r, route, http.StatusBadRequest, "project_id is required")
		return
	}
	if _, ok := s.store.Project(wf.ProjectID); !ok {
		s.writeError(w, r, route, http.StatusNotFound, "project not found")
		return
	}
	s.writeData(w, r, route, s.store.AddWorkflow(wf))
}

// handleGraphQL answers persisted queries. Only the workflow share-status
// query is pinned; anything else gets the standard PersistedQueryNotFound
// error that real servers return for unknown hashes.
func (s *Server) handleGraphQL(w http.ResponseWriter, r *http.Request) {
	route := "graphql"
	var req struct {
		OperationName string         `json:"operationName"`
		Variables     map[string]any `json:"variables"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, route, http.StatusBadRequest, "invalid request")
		return
	}
	switch req.OperationName {
	case "getWorkflowShareStatus":
		id, _ := req.Variables["workflowId"].(string)
		wf, ok := s.store.Workflow(id)
		if !ok {
			s.writeGraphQLError(w, r, route, fmt.Sprintf("workflow %s not found", id))
			return
		}
		s.writeData(w, r, route, map[string]any{
			"workflow": map[string]any{"id": wf.ID, "shared": false, "active": wf.Active},
		})
	default:
		s.writeGraphQLError(w, r, route, "PersistedQueryNotFound")
	}
}

func (s *Server) writeGraphQLError(w http.ResponseWriter, r *http.Request, route, msg string) {
	s.metrics.MockRequests.WithLabelValues(route, "200").Inc()
	w.Header().Set("Content-Type", contentType)
	json.NewEncoder(w).Encode(map[string]any{
		"data":   nil,
		"errors": []map[string]string{{"message": msg}},
	})
}
