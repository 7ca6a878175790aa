package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pdkit/pdkit/types"
)

func keyMsg(r rune) tea.KeyMsg {
	return tea.KeyMsg(tea.Key{Type: tea.KeyRunes, Runes: []rune{r}})
}

func testModel(t *testing.T, n int) *Model {
	t.Helper()
	m := NewModel(context.Background(), nil, "proj_1")
	workflows := make([]types.Workflow, n)
	for i := range workflows {
		workflows[i] = types.Workflow{ID: "p_" + string(rune('a'+i))}
	}
	updated, _ := m.Update(workflowsMsg(workflows))
	return updated.(*Model)
}

func TestWorkflowsMsgClearsLoading(t *testing.T) {
	m := testModel(t, 3)
	if m.loading {
		t.Error("still loading after workflows arrived")
	}
	if len(m.workflows) != 3 {
		t.Errorf("workflows = %d", len(m.workflows))
	}
}

func TestListNavigationBounds(t *testing.T) {
	m := testModel(t, 2)
	m.height = 20

	// Up from the top stays at the top.
	m.Update(keyMsg('k'))
	if m.selectedIdx != 0 {
		t.Errorf("selectedIdx = %d after up at top", m.selectedIdx)
	}
	m.Update(keyMsg('j'))
	if m.selectedIdx != 1 {
		t.Errorf("selectedIdx = %d after down", m.selectedIdx)
	}
	// Down past the end stays at the end.
	m.Update(keyMsg('j'))
	if m.selectedIdx != 1 {
		t.Errorf("selectedIdx = %d after down at bottom", m.selectedIdx)
	}
}

func TestDetailMsgSwitchesView(t *testing.T) {
	m := testModel(t, 1)
	detail := &workflowDetail{
		workflow: &types.Workflow{ID: "p_a", Name: "wf"},
		triggers: []types.Component{{Key: "trigger"}},
		steps:    []types.Component{{Key: "step1"}},
	}
	m.Update(detailMsg(detail))
	if m.viewMode != ViewDetail {
		t.Fatalf("viewMode = %v", m.viewMode)
	}
	if out := m.View(); out == "" {
		t.Error("empty detail view")
	}

	m.Update(tea.KeyMsg(tea.Key{Type: tea.KeyEsc}))
	if m.viewMode != ViewList {
		t.Errorf("esc did not return to list view")
	}
	if m.detail != nil {
		t.Error("detail state kept after leaving the view")
	}
}

func TestSelectionClampedWhenListShrinks(t *testing.T) {
	m := testModel(t, 5)
	m.selectedIdx = 4
	m.Update(workflowsMsg([]types.Workflow{{ID: "p_a"}, {ID: "p_b"}}))
	if m.selectedIdx != 1 {
		t.Errorf("selectedIdx = %d, want clamped to 1", m.selectedIdx)
	}
}

func TestListViewRenders(t *testing.T) {
	m := testModel(t, 3)
	m.height = 20
	out := m.View()
	if out == "" {
		t.Fatal("empty view")
	}
	for _, id := range []string{"p_a", "p_b", "p_c"} {
		if !strings.Contains(out, id) {
			t.Errorf("view misses %s", id)
		}
	}
}
