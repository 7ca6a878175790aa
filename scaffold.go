package pdkit

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdkit/pdkit/types"
)

const scaffoldStepCode = `export default defineComponent({
  async run({ steps, $ }) {
    return { ok: true };
  },
});
`

// scaffoldWorkflow writes a workflow skeleton under dir/<name>/: a
// workflow.json with a trigger and one step, and an editable code file per
// step. The code files are merged back into the definition at deploy time.
func scaffoldWorkflow(name, dir, trigger string) error {
	switch trigger {
	case "http", "schedule":
	default:
		return fmt.Errorf("unknown trigger kind: %s", trigger)
	}

	wfDir := filepath.Join(dir, name)
	if _, err := os.Stat(filepath.Join(wfDir, "workflow.json")); err == nil {
		return fmt.Errorf("%s already contains a workflow.json", wfDir)
	}
	if err := os.MkdirAll(filepath.Join(wfDir, "steps"), 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", wfDir, err)
	}

	source, _ := json.Marshal(map[string]string{"type": trigger})
	w := types.Workflow{
		Name: name,
		Components: []types.Component{
			{
				Key:    types.TriggerKey,
				Type:   types.ComponentTypeSource,
				Source: source,
			},
			{
				Key:  "step1",
				Type: types.ComponentTypeAction,
			},
		},
	}
	data, err := json.MarshalIndent(&w, "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(filepath.Join(wfDir, "workflow.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write workflow.json: %w", err)
	}
	if err := os.WriteFile(filepath.Join(wfDir, "steps", "step1.js"), []byte(scaffoldStepCode), 0644); err != nil {
		return fmt.Errorf("failed to write step code: %w", err)
	}
	slog.Info("scaffolded workflow", "name", name, "dir", wfDir, "trigger", trigger)
	return nil
}

// loadScaffold reads a scaffold directory back into a workflow definition,
// filling each component's code from steps/<key>.js when the definition
// itself carries none.
func loadScaffold(dir string) (*types.Workflow, error) {
	data, err := os.ReadFile(filepath.Join(dir, "workflow.json"))
	if err != nil {
		return nil, fmt.Errorf("failed to read workflow.json: %w", err)
	}
	var w types.Workflow
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to parse workflow.json: %w", err)
	}
	for i, c := range w.Components {
		if c.Code != "" || c.Key == "" {
			continue
		}
		code, err := os.ReadFile(filepath.Join(dir, "steps", c.Key+".js"))
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to read code of step %s: %w", c.Key, err)
		}
		w.Components[i].Code = string(code)
	}
	return &w, nil
}
