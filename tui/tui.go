package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
)

// Run starts the workflow browser TUI for one project.
func Run(ctx context.Context, client Client, projectID string) error {
	model := NewModel(ctx, client, projectID)
	p := tea.NewProgram(model, tea.WithAltScreen())
	_, err := p.Run()
	return err
}

// handleKeyPress handles keyboard input based on current view mode
func (m *Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return m, tea.Quit
	case "q":
		if m.viewMode == ViewList {
			return m, tea.Quit
		}
	}

	switch m.viewMode {
	case ViewList:
		return m.handleListKeys(msg)
	case ViewDetail:
		return m.handleDetailKeys(msg)
	}
	return m, nil
}

// handleListKeys handles keys in the list view
func (m *Model) handleListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		if m.selectedIdx > 0 {
			m.selectedIdx--
			m.adjustScrollForSelection()
		}
	case "down", "j":
		if m.selectedIdx < len(m.workflows)-1 {
			m.selectedIdx++
			m.adjustScrollForSelection()
		}
	case "home":
		m.selectedIdx = 0
		m.listScroll = 0
	case "end":
		m.selectedIdx = len(m.workflows) - 1
		m.adjustScrollForSelection()
	case "enter":
		if len(m.workflows) > 0 {
			m.loading = true
			return m, m.fetchDetail(m.workflows[m.selectedIdx].ID)
		}
	case "r":
		m.loading = true
		return m, m.fetchWorkflows()
	}
	return m, nil
}

// handleDetailKeys handles keys in the detail view
func (m *Model) handleDetailKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q", "esc":
		m.viewMode = ViewList
		m.detail = nil
	case "up", "k":
		if m.detail != nil && m.detail.scroll > 0 {
			m.detail.scroll--
		}
	case "down", "j":
		if m.detail != nil {
			m.detail.scroll++
		}
	case "home":
		if m.detail != nil {
			m.detail.scroll = 0
		}
	}
	return m, nil
}

func (m *Model) adjustScrollForSelection() {
	visible := m.visibleRows()
	if visible <= 0 {
		return
	}
	if m.selectedIdx < m.listScroll {
		m.listScroll = m.selectedIdx
	}
	if m.selectedIdx >= m.listScroll+visible {
		m.listScroll = m.selectedIdx - visible + 1
	}
}

func (m *Model) visibleRows() int {
	// Header, column titles, and footer take a few lines.
	rows := m.height - 6
	if rows < 1 {
		rows = 10
	}
	return rows
}
