package pdkit

import (
	"context"
	"fmt"
	"log/slog"
	"net/http/httptest"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/pdkit/pdkit/config"
	"github.com/pdkit/pdkit/metrics"
	"github.com/pdkit/pdkit/mockrun"
	"github.com/pdkit/pdkit/mockserver"
	"github.com/pdkit/pdkit/pipedream"
	"github.com/pdkit/pdkit/types"
)

// CreatorCLI is the command surface of pdcreator: scaffolding a workflow,
// testing it locally against a mock API, and deploying it.
type CreatorCLI struct {
	Init struct {
		Name    string `arg:"" help:"Name of the new workflow."`
		Dir     string `help:"Directory to scaffold into." default:"." type:"path"`
		Trigger string `help:"Trigger kind." enum:"http,schedule" default:"http"`
	} `cmd:"" help:"Scaffold a new workflow skeleton."`

	Test struct {
		Dir string `arg:"" help:"Scaffold directory to test." type:"existingdir"`
	} `cmd:"" help:"Deploy the scaffold into an in-process mock API and stub-execute it."`

	Deploy struct {
		Dir     string `arg:"" help:"Scaffold directory to deploy." type:"existingdir"`
		Project string `help:"Project id (defaults to the configured project)." short:"p"`
	} `cmd:"" help:"Deploy a scaffolded workflow."`

	CommonOptions
	Version kong.VersionFlag `help:"Show version."`
}

// RunCreator is the pdcreator entry point.
func RunCreator(ctx context.Context) error {
	var cli CreatorCLI
	k := kong.Parse(&cli,
		kong.Name("pdcreator"),
		kong.Description("Scaffold, locally test, and deploy Pipedream workflows."),
		kong.Vars{"version": fmt.Sprintf("pdcreator %s", Version)},
	)
	setupLogger(cli.Debug)

	stopMetrics, err := startMetricsServer(ctx, cli.MetricsPort)
	if err != nil {
		return err
	}
	defer stopMetrics()

	switch strings.Fields(k.Command())[0] {
	case "init":
		return scaffoldWorkflow(cli.Init.Name, cli.Init.Dir, cli.Init.Trigger)
	case "test":
		return testScaffold(ctx, cli.Test.Dir)
	case "deploy":
		cfg, err := loadConfig(ctx, &cli.CommonOptions)
		if err != nil {
			return err
		}
		client := pipedream.New(cfg)
		projectID := cli.Deploy.Project
		if projectID == "" {
			projectID = cfg.Project.ID
		}
		if projectID == "" {
			// No project configured anywhere: fall back to a project
			// named after the scaffold directory, creating it if needed.
			p, err := ensureProject(ctx, client, filepath.Base(cli.Deploy.Dir))
			if err != nil {
				return fmt.Errorf("failed to resolve project: %w", err)
			}
			projectID = p.ID
		}
		return deployScaffold(ctx, client, cli.Deploy.Dir, projectID)
	default:
		return fmt.Errorf("unknown command: %s", k.Command())
	}
}

// testScaffold round-trips the scaffold through an in-process mock API —
// create a project, deploy the workflow, read it back through the same
// fallback chains the real tool uses — then stub-executes the result. No
// network is touched and the run is deterministic.
func testScaffold(ctx context.Context, dir string) error {
	w, err := loadScaffold(dir)
	if err != nil {
		return err
	}

	store := mockserver.NewStore()
	ms := metrics.NewStore()
	srv := httptest.NewServer(mockserver.New(store, ms.Metrics()).Handler())
	defer srv.Close()

	cfg := config.New("mock-api-key")
	cfg.BaseURL = srv.URL
	client := pipedream.New(cfg)

	project, err := client.CreateProject(ctx, "pdcreator-test")
	if err != nil {
		return fmt.Errorf("failed to create mock project: %w", err)
	}
	w.ProjectID = project.ID
	created, err := client.CreateWorkflow(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to deploy into mock API: %w", err)
	}
	slog.Info("deployed into mock API", "workflow", created.ID, "project", project.ID)

	// Read back through the fallback chains, then verify the partition.
	fetched, err := client.GetWorkflow(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to read workflow back: %w", err)
	}
	triggers, err := client.GetWorkflowTriggers(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to get triggers: %w", err)
	}
	steps, err := client.GetWorkflowSteps(ctx, created.ID)
	if err != nil {
		return fmt.Errorf("failed to get steps: %w", err)
	}
	if got, want := len(triggers)+len(steps), len(fetched.AllComponents()); got != want {
		return fmt.Errorf("triggers (%d) + steps (%d) do not cover all %d components", len(triggers), len(steps), want)
	}

	result, err := mockrun.Execute(fetched)
	if err != nil {
		return fmt.Errorf("stub execution failed: %w", err)
	}
	slog.Info("stub execution finished",
		"trigger", result.TriggerKey,
		"steps", len(result.Steps),
		"unmatched_mock_requests", metrics.CounterValue(ms.Metrics().MockNotFound),
	)
	if dump, err := ms.Dump(); err == nil {
		slog.Debug("mock API metrics", "dump", dump)
	}
	return printJSON(result)
}

// deployScaffold pushes a scaffolded workflow into a real project.
func deployScaffold(ctx context.Context, client *pipedream.Client, dir, projectID string) error {
	w, err := loadScaffold(dir)
	if err != nil {
		return err
	}
	w.ProjectID = projectID
	created, err := client.CreateWorkflow(ctx, w)
	if err != nil {
		return fmt.Errorf("failed to deploy workflow: %w", err)
	}
	slog.Info("deployed workflow", "workflow", created.ID, "project", projectID)
	return printJSON(created)
}

// ensureProject resolves a project by listing, creating it when absent.
// Used when deploying by project name instead of id.
func ensureProject(ctx context.Context, client *pipedream.Client, name string) (*types.Project, error) {
	projects, err := client.GetProjects(ctx, "")
	if err == nil {
		for _, p := range projects {
			if p.Name == name {
				return &p, nil
			}
		}
	}
	return client.CreateProject(ctx, name)
}
