package pdkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/aereal/jsondiff"
	"github.com/fatih/color"

	"github.com/pdkit/pdkit/pipedream"
)

// diffWorkflow compares a local workflow JSON artifact (as written by the
// download command) against the current remote workflow.
func diffWorkflow(ctx context.Context, client *pipedream.Client, id, file string) error {
	localData, err := os.ReadFile(file)
	if err != nil {
		return fmt.Errorf("failed to read local workflow file: %w", err)
	}
	var local any
	if err := json.Unmarshal(localData, &local); err != nil {
		return fmt.Errorf("failed to parse local workflow file %s: %w", file, err)
	}

	remote, err := client.GetWorkflow(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get workflow %s: %w", id, err)
	}

	diff, err := jsondiff.Diff(
		&jsondiff.Input{Name: file, X: local},
		&jsondiff.Input{Name: "remote:" + id, X: remote},
	)
	if err != nil {
		return fmt.Errorf("failed to compute diff: %w", err)
	}
	if diff != "" {
		fmt.Print(ColoredDiff(diff))
	}
	return nil
}

// ColoredDiff adds color to diff output (+/- lines)
func ColoredDiff(src string) string {
	var b strings.Builder
	for _, line := range strings.Split(src, "\n") {
		if strings.HasPrefix(line, "-") {
			b.WriteString(color.RedString(line) + "\n")
		} else if strings.HasPrefix(line, "+") {
			b.WriteString(color.GreenString(line) + "\n")
		} else {
			b.WriteString(line + "\n")
		}
	}
	return b.String()
}
