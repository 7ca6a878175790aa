package tui

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdkit/pdkit/types"
)

// ViewMode represents the current view state
type ViewMode int

const (
	ViewList ViewMode = iota
	ViewDetail
)

// Client is the subset of the resource client the TUI consumes.
type Client interface {
	GetProjectWorkflows(ctx context.Context, projectID string) ([]types.Workflow, error)
	GetWorkflow(ctx context.Context, id string) (*types.Workflow, error)
	GetWorkflowTriggers(ctx context.Context, id string) ([]types.Component, error)
	GetWorkflowSteps(ctx context.Context, id string) ([]types.Component, error)
}

// Model represents the TUI application state
type Model struct {
	ctx       context.Context
	client    Client
	projectID string

	workflows   []types.Workflow
	selectedIdx int
	listScroll  int
	viewMode    ViewMode

	detail   *workflowDetail
	width    int
	height   int
	loading  bool
	err      error
	errTime  time.Time
	lastLoad time.Time
}

type workflowDetail struct {
	workflow *types.Workflow
	triggers []types.Component
	steps    []types.Component
	scroll   int
}

// Message types for Bubble Tea
type (
	workflowsMsg []types.Workflow
	detailMsg    *workflowDetail
	errorMsg     error
)

// NewModel creates a new TUI model
func NewModel(ctx context.Context, client Client, projectID string) *Model {
	return &Model{
		ctx:       ctx,
		client:    client,
		projectID: projectID,
		viewMode:  ViewList,
		loading:   true,
	}
}

// Init initializes the TUI model
func (m *Model) Init() tea.Cmd {
	return m.fetchWorkflows()
}

// Update handles TUI messages and state updates
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case workflowsMsg:
		m.workflows = []types.Workflow(msg)
		m.loading = false
		m.lastLoad = time.Now()
		if m.selectedIdx >= len(m.workflows) && len(m.workflows) > 0 {
			m.selectedIdx = len(m.workflows) - 1
		}
		return m, nil

	case detailMsg:
		m.detail = (*workflowDetail)(msg)
		m.viewMode = ViewDetail
		m.loading = false
		return m, nil

	case errorMsg:
		m.err = error(msg)
		m.errTime = time.Now()
		m.loading = false
		return m, nil
	}

	return m, nil
}

// fetchWorkflows lists the project's workflows.
func (m *Model) fetchWorkflows() tea.Cmd {
	return func() tea.Msg {
		workflows, err := m.client.GetProjectWorkflows(m.ctx, m.projectID)
		if err != nil {
			return errorMsg(err)
		}
		return workflowsMsg(workflows)
	}
}

// fetchDetail loads one workflow with its trigger/step split. The three
// calls are sequential on purpose; the fallback chains behind them already
// probe multiple endpoints each.
func (m *Model) fetchDetail(id string) tea.Cmd {
	return func() tea.Msg {
		w, err := m.client.GetWorkflow(m.ctx, id)
		if err != nil {
			return errorMsg(err)
		}
		triggers, err := m.client.GetWorkflowTriggers(m.ctx, id)
		if err != nil {
			return errorMsg(err)
		}
		steps, err := m.client.GetWorkflowSteps(m.ctx, id)
		if err != nil {
			return errorMsg(err)
		}
		return detailMsg(&workflowDetail{workflow: w, triggers: triggers, steps: steps})
	}
}
