package mockserver

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/pdkit/pdkit/types"
)

// Store is the in-memory state behind the mock API server. It is seedable
// from a JSON fixture and safe for concurrent handlers.
type Store struct {
	mu        sync.RWMutex
	user      types.User
	projects  map[string]*types.Project
	workflows map[string]*types.Workflow
	codes     map[string]*types.WorkflowCode
	seq       int
}

// Seed is the JSON fixture layout accepted by SeedBytes/SeedFile.
type Seed struct {
	User      types.User                    `json:"user"`
	Projects  []types.Project               `json:"projects,omitempty"`
	Workflows []types.Workflow              `json:"workflows,omitempty"`
	Codes     map[string]types.WorkflowCode `json:"codes,omitempty"`
}

// NewStore creates an empty store with a default user and organization.
func NewStore() *Store {
	return &Store{
		user: types.User{
			ID:       "u_mock",
			Username: "mock",
			Orgs:     []types.Organization{{ID: "o_mock", Name: "mock org"}},
		},
		projects:  map[string]*types.Project{},
		workflows: map[string]*types.Workflow{},
		codes:     map[string]*types.WorkflowCode{},
	}
}

// SeedFile loads a JSON fixture from disk.
func (s *Store) SeedFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read seed file: %w", err)
	}
	return s.SeedBytes(data)
}

// SeedBytes loads a JSON fixture.
func (s *Store) SeedBytes(data []byte) error {
	var seed Seed
	if err := json.Unmarshal(data, &seed); err != nil {
		return fmt.Errorf("failed to parse seed: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if seed.User.ID != "" {
		s.user = seed.User
	}
	for i := range seed.Projects {
		p := seed.Projects[i]
		s.projects[p.ID] = &p
	}
	for i := range seed.Workflows {
		w := seed.Workflows[i]
		s.workflows[w.ID] = &w
	}
	for id, c := range seed.Codes {
		code := c
		if code.WorkflowID == "" {
			code.WorkflowID = id
		}
		s.codes[id] = &code
	}
	return nil
}

// User returns the mock authenticated user.
func (s *Store) User() types.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.user
}

// Workflow looks up a workflow by id.
func (s *Store) Workflow(id string) (*types.Workflow, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	w, ok := s.workflows[id]
	return w, ok
}

// WorkflowCode looks up a workflow's code bundle by workflow id.
func (s *Store) WorkflowCode(id string) (*types.WorkflowCode, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.codes[id]
	return c, ok
}

// Project looks up a project by id.
func (s *Store) Project(id string) (*types.Project, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.projects[id]
	return p, ok
}

// Projects lists all projects.
func (s *Store) Projects() []types.Project {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Project, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, *p)
	}
	return out
}

// ProjectWorkflows lists workflows belonging to a project.
func (s *Store) ProjectWorkflows(projectID string) []types.Workflow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]types.Workflow, 0)
	for _, w := range s.workflows {
		if w.ProjectID == projectID {
			out = append(out, *w)
		}
	}
	return out
}

// AddProject stores a new project under a generated id.
func (s *Store) AddProject(name string) *types.Project {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p := &types.Project{
		ID:    fmt.Sprintf("proj_mock%d", s.seq),
		Name:  name,
		OrgID: s.user.PrimaryOrgID(),
	}
	s.projects[p.ID] = p
	return p
}

// AddWorkflow stores a new workflow under a generated id.
func (s *Store) AddWorkflow(w types.Workflow) *types.Workflow {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	w.ID = fmt.Sprintf("p_mock%d", s.seq)
	s.workflows[w.ID] = &w
	return &w
}
