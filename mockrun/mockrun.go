// Package mockrun is a deterministic stub of the Pipedream workflow
// runtime, used for local testing of scaffolded workflows. It does not
// evaluate component code: it walks the component list in order, feeds each
// step a stub execution context (event, shared key-value store, exports of
// earlier steps), and records what each step would have exported. The point
// is exercising workflow structure and data plumbing, not running JS.
package mockrun

import (
	"fmt"

	"github.com/pdkit/pdkit/pipedream"
	"github.com/pdkit/pdkit/types"
)

// KV is the stub of the workflow's persistent key-value store ($.service.db).
type KV struct {
	data map[string]any
}

func NewKV() *KV {
	return &KV{data: map[string]any{}}
}

func (kv *KV) Get(key string) (any, bool) {
	v, ok := kv.data[key]
	return v, ok
}

func (kv *KV) Set(key string, value any) {
	kv.data[key] = value
}

// Snapshot returns a copy of the store contents.
func (kv *KV) Snapshot() map[string]any {
	out := make(map[string]any, len(kv.data))
	for k, v := range kv.data {
		out[k] = v
	}
	return out
}

// Context is the stub execution context visible to each step: the trigger
// event, the shared store, and the exports of previously executed steps.
type Context struct {
	Event map[string]any
	DB    *KV
	Steps map[string]map[string]any
}

// StepResult records one executed step.
type StepResult struct {
	Key     string         `json:"key"`
	Type    string         `json:"type,omitempty"`
	Exports map[string]any `json:"exports"`
}

// RunResult is the outcome of one stub execution.
type RunResult struct {
	TriggerKey string         `json:"trigger_key"`
	Event      map[string]any `json:"event"`
	Steps      []StepResult   `json:"steps"`
	DB         map[string]any `json:"db,omitempty"`
}

// Execute runs the stub over a workflow's components. The partition between
// trigger and steps uses the same rule the API client applies when deriving
// them, so a workflow tests locally exactly as it would decompose remotely.
// Execution is fully deterministic: same workflow in, same result out.
func Execute(w *types.Workflow) (*RunResult, error) {
	components := w.AllComponents()
	if len(components) == 0 {
		return nil, fmt.Errorf("workflow %s has no components", w.ID)
	}
	triggers := pipedream.DeriveTriggers(components)
	if len(triggers) == 0 {
		return nil, fmt.Errorf("workflow %s has no trigger component", w.ID)
	}
	steps := pipedream.DeriveSteps(components)

	trigger := triggers[0]
	event := map[string]any{
		"source":   trigger.Key,
		"type":     trigger.Type,
		"workflow": w.ID,
	}
	ctx := &Context{
		Event: event,
		DB:    NewKV(),
		Steps: map[string]map[string]any{},
	}

	result := &RunResult{
		TriggerKey: trigger.Key,
		Event:      event,
	}
	for i, step := range steps {
		exports := executeStep(ctx, step, i)
		ctx.Steps[step.Key] = exports
		ctx.DB.Set("last_step", step.Key)
		result.Steps = append(result.Steps, StepResult{
			Key:     step.Key,
			Type:    step.Type,
			Exports: exports,
		})
	}
	result.DB = ctx.DB.Snapshot()
	return result, nil
}

// executeStep produces the stub exports of one step: its position, the
// event it saw, and the keys of the steps that ran before it.
func executeStep(ctx *Context, step types.Component, index int) map[string]any {
	prior := make([]string, 0, len(ctx.Steps))
	for k := range ctx.Steps {
		prior = append(prior, k)
	}
	return map[string]any{
		"$return_value": fmt.Sprintf("ok:%s", step.Key),
		"index":         index,
		"event_source":  ctx.Event["source"],
		"prior_steps":   len(prior),
	}
}
