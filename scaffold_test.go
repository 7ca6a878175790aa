package pdkit

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pdkit/pdkit/pipedream"
)

func TestScaffoldRoundTrip(t *testing.T) {
	dir := t.TempDir()
	if err := scaffoldWorkflow("my-wf", dir, "http"); err != nil {
		t.Fatal(err)
	}

	wfDir := filepath.Join(dir, "my-wf")
	for _, f := range []string{"workflow.json", filepath.Join("steps", "step1.js")} {
		if _, err := os.Stat(filepath.Join(wfDir, f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}

	w, err := loadScaffold(wfDir)
	if err != nil {
		t.Fatal(err)
	}
	if w.Name != "my-wf" {
		t.Errorf("name = %q", w.Name)
	}
	triggers := pipedream.DeriveTriggers(w.Components)
	steps := pipedream.DeriveSteps(w.Components)
	if len(triggers) != 1 || len(steps) != 1 {
		t.Fatalf("partition = %d triggers, %d steps", len(triggers), len(steps))
	}
	// The step code file is merged back into the definition.
	if !strings.Contains(steps[0].Code, "defineComponent") {
		t.Errorf("step code not merged: %q", steps[0].Code)
	}
	if strings.Contains(string(triggers[0].Source), "http") == false {
		t.Errorf("trigger source = %s", triggers[0].Source)
	}
}

func TestScaffoldRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	if err := scaffoldWorkflow("wf", dir, "schedule"); err != nil {
		t.Fatal(err)
	}
	if err := scaffoldWorkflow("wf", dir, "schedule"); err == nil {
		t.Fatal("expected error for existing scaffold")
	}
}

func TestScaffoldRejectsUnknownTrigger(t *testing.T) {
	if err := scaffoldWorkflow("wf", t.TempDir(), "webhook"); err == nil {
		t.Fatal("expected error for unknown trigger kind")
	}
}

func TestLoadScaffoldKeepsInlineCode(t *testing.T) {
	dir := t.TempDir()
	content := `{
		"name": "inline",
		"components": [
			{"key": "trigger", "type": "source"},
			{"key": "step1", "type": "action", "code": "inline code"}
		]
	}`
	if err := os.WriteFile(filepath.Join(dir, "workflow.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(filepath.Join(dir, "steps"), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "steps", "step1.js"), []byte("file code"), 0644); err != nil {
		t.Fatal(err)
	}

	w, err := loadScaffold(dir)
	if err != nil {
		t.Fatal(err)
	}
	if w.Components[1].Code != "inline code" {
		t.Errorf("inline code overwritten: %q", w.Components[1].Code)
	}
}
