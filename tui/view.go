package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/pdkit/pdkit/types"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("240"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("57"))

	activeStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	inactiveStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("203"))
	errorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	helpStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// View renders the TUI
func (m *Model) View() string {
	switch m.viewMode {
	case ViewDetail:
		return m.renderDetailView()
	default:
		return m.renderListView()
	}
}

func (m *Model) renderListView() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render(fmt.Sprintf("pdmanager — workflows of %s", m.projectID)))
	b.WriteString("\n\n")

	switch {
	case m.loading:
		b.WriteString("loading...\n")
	case len(m.workflows) == 0:
		b.WriteString("no workflows in this project\n")
	default:
		b.WriteString(headerStyle.Render(fmt.Sprintf("  %-16s %-8s %s", "ID", "STATE", "NAME")))
		b.WriteString("\n")
		visible := m.visibleRows()
		end := min(m.listScroll+visible, len(m.workflows))
		for i := m.listScroll; i < end; i++ {
			w := m.workflows[i]
			line := fmt.Sprintf("  %-16s %-8s %s", w.ID, stateLabel(w.Active), w.Name)
			if i == m.selectedIdx {
				line = selectedStyle.Render("→" + line[1:])
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if m.err != nil && time.Since(m.errTime) < 5*time.Second {
		b.WriteString("\n")
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
	}
	b.WriteString("\n")
	b.WriteString(helpStyle.Render("↑/↓: move  enter: detail  r: reload  q: quit"))
	return b.String()
}

func (m *Model) renderDetailView() string {
	if m.detail == nil || m.detail.workflow == nil {
		return "loading...\n"
	}
	w := m.detail.workflow

	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("%s  %s", w.ID, w.Name)))
	b.WriteString("\n\n")
	b.WriteString(fmt.Sprintf("state: %s   project: %s\n\n", stateLabel(w.Active), w.ProjectID))

	b.WriteString(headerStyle.Render("TRIGGERS"))
	b.WriteString("\n")
	b.WriteString(renderComponents(m.detail.triggers))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render("STEPS"))
	b.WriteString("\n")
	b.WriteString(renderComponents(m.detail.steps))

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("esc/q: back  ↑/↓: scroll"))

	lines := strings.Split(b.String(), "\n")
	if m.detail.scroll >= len(lines) {
		m.detail.scroll = len(lines) - 1
	}
	return strings.Join(lines[m.detail.scroll:], "\n")
}

func renderComponents(components []types.Component) string {
	if len(components) == 0 {
		return "  (none)\n"
	}
	var b strings.Builder
	for _, c := range components {
		b.WriteString(fmt.Sprintf("  %-20s %s\n", c.Key, c.Type))
	}
	return b.String()
}

func stateLabel(active bool) string {
	if active {
		return activeStyle.Render("active")
	}
	return inactiveStyle.Render("off")
}
