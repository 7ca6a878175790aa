package mockrun_test

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/pdkit/pdkit/mockrun"
	"github.com/pdkit/pdkit/types"
)

func testWorkflow() *types.Workflow {
	return &types.Workflow{
		ID:   "p_test",
		Name: "test",
		Components: []types.Component{
			{Key: "trigger", Type: "source", Source: json.RawMessage(`{"type":"http"}`)},
			{Key: "transform", Type: "action"},
			{Key: "load", Type: "action"},
		},
	}
}

func TestExecute(t *testing.T) {
	result, err := mockrun.Execute(testWorkflow())
	if err != nil {
		t.Fatal(err)
	}
	if result.TriggerKey != "trigger" {
		t.Errorf("trigger key = %q", result.TriggerKey)
	}
	if len(result.Steps) != 2 {
		t.Fatalf("steps = %d, want 2", len(result.Steps))
	}

	first, second := result.Steps[0], result.Steps[1]
	if first.Key != "transform" || second.Key != "load" {
		t.Errorf("step order: %q, %q", first.Key, second.Key)
	}
	if got := first.Exports["$return_value"]; got != "ok:transform" {
		t.Errorf("first return value = %v", got)
	}
	if got := first.Exports["prior_steps"]; got != 0 {
		t.Errorf("first step saw %v prior steps", got)
	}
	if got := second.Exports["prior_steps"]; got != 1 {
		t.Errorf("second step saw %v prior steps", got)
	}
	if got := second.Exports["event_source"]; got != "trigger" {
		t.Errorf("event source = %v", got)
	}
	if got := result.DB["last_step"]; got != "load" {
		t.Errorf("db last_step = %v", got)
	}
}

func TestExecuteIsDeterministic(t *testing.T) {
	a, err := mockrun.Execute(testWorkflow())
	if err != nil {
		t.Fatal(err)
	}
	b, err := mockrun.Execute(testWorkflow())
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(a, b); diff != "" {
		t.Errorf("two runs over the same workflow differ (-first +second):\n%s", diff)
	}
}

func TestExecuteRequiresTrigger(t *testing.T) {
	if _, err := mockrun.Execute(&types.Workflow{ID: "p_empty"}); err == nil {
		t.Error("expected error for empty workflow")
	}
	noTrigger := &types.Workflow{
		ID:         "p_notrigger",
		Components: []types.Component{{Key: "step1", Type: "action"}},
	}
	if _, err := mockrun.Execute(noTrigger); err == nil {
		t.Error("expected error for workflow without trigger")
	}
}

func TestKV(t *testing.T) {
	kv := mockrun.NewKV()
	if _, ok := kv.Get("missing"); ok {
		t.Error("unexpected hit")
	}
	kv.Set("k", "v")
	if v, ok := kv.Get("k"); !ok || v != "v" {
		t.Errorf("got %v, %v", v, ok)
	}
	snap := kv.Snapshot()
	snap["k"] = "mutated"
	if v, _ := kv.Get("k"); v != "v" {
		t.Error("snapshot must be a copy")
	}
}
