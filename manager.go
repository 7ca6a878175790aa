package pdkit

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/pdkit/pdkit/pipedream"
	"github.com/pdkit/pdkit/tui"
)

// ManagerCLI is the command surface of pdmanager: inspection, listing,
// download, and diff of Pipedream projects and workflows.
type ManagerCLI struct {
	User struct{} `cmd:"" help:"Show the authenticated user."`

	Projects struct {
		Org string `help:"Organization id to scope the listing." short:"o"`
	} `cmd:"" help:"List projects."`

	Workflows struct {
		Project string `arg:"" optional:"" help:"Project id (defaults to the configured project)."`
	} `cmd:"" help:"List workflows of a project."`

	Workflow struct {
		ID       string `arg:"" help:"Workflow id."`
		Code     bool   `help:"Show the code bundle instead of the workflow."`
		Triggers bool   `help:"Show only the trigger components."`
		Steps    bool   `help:"Show only the step components."`
		Share    bool   `help:"Show the sharing status."`
	} `cmd:"" help:"Inspect one workflow."`

	Download struct {
		Project string `arg:"" optional:"" help:"Project id (defaults to the configured project)."`
		Dir     string `help:"Directory to write artifacts into." default:"." type:"path"`
	} `cmd:"" help:"Download all workflows of a project with their code."`

	Diff struct {
		ID   string `arg:"" help:"Workflow id."`
		File string `help:"Local workflow JSON to compare against." required:"" type:"existingfile"`
	} `cmd:"" help:"Diff a local workflow file against the remote workflow."`

	Browse struct {
		Project string `arg:"" optional:"" help:"Project id (defaults to the configured project)."`
	} `cmd:"" help:"Browse workflows in a TUI."`

	CommonOptions
	Version kong.VersionFlag `help:"Show version."`
}

// RunManager is the pdmanager entry point.
func RunManager(ctx context.Context) error {
	var cli ManagerCLI
	k := kong.Parse(&cli,
		kong.Name("pdmanager"),
		kong.Description("Manage Pipedream projects and workflows."),
		kong.Vars{"version": fmt.Sprintf("pdmanager %s", Version)},
	)
	setupLogger(cli.Debug)

	stopMetrics, err := startMetricsServer(ctx, cli.MetricsPort)
	if err != nil {
		return err
	}
	defer stopMetrics()

	cfg, err := loadConfig(ctx, &cli.CommonOptions)
	if err != nil {
		return err
	}
	client := pipedream.New(cfg)

	switch strings.Fields(k.Command())[0] {
	case "user":
		return managerUser(ctx, client)
	case "projects":
		return managerProjects(ctx, client, cli.Projects.Org)
	case "workflows":
		id, err := resolveProjectID(cli.Workflows.Project, cfg)
		if err != nil {
			return err
		}
		return managerWorkflows(ctx, client, id)
	case "workflow":
		return managerWorkflow(ctx, client, &cli)
	case "download":
		id, err := resolveProjectID(cli.Download.Project, cfg)
		if err != nil {
			return err
		}
		return downloadProject(ctx, client, id, cli.Download.Dir)
	case "diff":
		return diffWorkflow(ctx, client, cli.Diff.ID, cli.Diff.File)
	case "browse":
		id, err := resolveProjectID(cli.Browse.Project, cfg)
		if err != nil {
			return err
		}
		return tui.Run(ctx, client, id)
	default:
		return fmt.Errorf("unknown command: %s", k.Command())
	}
}

func managerUser(ctx context.Context, client *pipedream.Client) error {
	u, err := client.GetCurrentUser(ctx)
	if err != nil {
		return fmt.Errorf("failed to get current user: %w", err)
	}
	return printJSON(u)
}

func managerProjects(ctx context.Context, client *pipedream.Client, orgID string) error {
	projects, err := client.GetProjects(ctx, orgID)
	if err != nil {
		return fmt.Errorf("failed to list projects: %w", err)
	}
	return printJSON(projects)
}

func managerWorkflows(ctx context.Context, client *pipedream.Client, projectID string) error {
	workflows, err := client.GetProjectWorkflows(ctx, projectID)
	if err != nil {
		return fmt.Errorf("failed to list workflows of project %s: %w", projectID, err)
	}
	return printJSON(workflows)
}

func managerWorkflow(ctx context.Context, client *pipedream.Client, cli *ManagerCLI) error {
	id := cli.Workflow.ID
	switch {
	case cli.Workflow.Code:
		code, err := client.GetWorkflowCode(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get code of workflow %s: %w", id, err)
		}
		return printJSON(code)
	case cli.Workflow.Triggers:
		triggers, err := client.GetWorkflowTriggers(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get triggers of workflow %s: %w", id, err)
		}
		return printJSON(triggers)
	case cli.Workflow.Steps:
		steps, err := client.GetWorkflowSteps(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get steps of workflow %s: %w", id, err)
		}
		return printJSON(steps)
	case cli.Workflow.Share:
		status, err := client.GetWorkflowShareStatus(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get share status of workflow %s: %w", id, err)
		}
		return printJSON(status)
	default:
		w, err := client.GetWorkflow(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get workflow %s: %w", id, err)
		}
		return printJSON(w)
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
