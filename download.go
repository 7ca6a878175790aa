package pdkit

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pdkit/pdkit/pipedream"
	"github.com/pdkit/pdkit/types"
)

// downloadProject lists a project's workflows and writes each one's
// definition and code bundle under dir/<workflow-id>/. The workflow listing
// must complete before individual codes can be fetched; the fetches
// themselves stay sequential like every other API access.
func downloadProject(ctx context.Context, client *pipedream.Client, projectID, dir string) error {
	workflows, err := client.GetProjectWorkflows(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to list workflows of project %s: %w", projectID, err)
	}
	if len(workflows) == 0 {
		slog.Info("project has no workflows", "project", projectID)
		return nil
	}

	for _, w := range workflows {
		if err := downloadWorkflow(ctx, client, &w, dir); err != nil {
			return err
		}
	}
	slog.Info("download complete", "project", projectID, "workflows", len(workflows), "dir", dir)
	return nil
}

func downloadWorkflow(ctx context.Context, client *pipedream.Client, w *types.Workflow, dir string) error {
	wfDir := filepath.Join(dir, w.ID)
	if err := os.MkdirAll(wfDir, 0755); err != nil {
		return fmt.Errorf("failed to create %s: %w", wfDir, err)
	}

	data, err := json.MarshalIndent(w, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal workflow %s: %w", w.ID, err)
	}
	if err := os.WriteFile(filepath.Join(wfDir, "workflow.json"), data, 0644); err != nil {
		return fmt.Errorf("failed to write workflow %s: %w", w.ID, err)
	}

	code, err := client.GetWorkflowCode(ctx, w.ID)
	if err != nil {
		// A workflow without a retrievable code bundle is still worth
		// the definition file.
		slog.Warn("failed to get workflow code, skipping", "workflow", w.ID, "error", err)
		return nil
	}
	if len(code.Files) > 0 {
		for _, f := range code.Files {
			p := filepath.Join(wfDir, filepath.Clean(f.Path))
			if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
				return fmt.Errorf("failed to create dir for %s: %w", p, err)
			}
			if err := os.WriteFile(p, []byte(f.Content), 0644); err != nil {
				return fmt.Errorf("failed to write %s: %w", p, err)
			}
		}
	} else if code.Code != "" {
		p := filepath.Join(wfDir, "workflow.js")
		if err := os.WriteFile(p, []byte(code.Code), 0644); err != nil {
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
	}
	slog.Info("downloaded workflow", "workflow", w.ID, "name", w.Name, "dir", wfDir)
	return nil
}
