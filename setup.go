package pdkit

import (
	"context"
	"fmt"
	"os"

	"github.com/pdkit/pdkit/config"
	"github.com/pdkit/pdkit/metrics"
)

// CommonOptions are the flags shared by pdmanager and pdcreator.
type CommonOptions struct {
	Config      string `help:"Path to the JSON configuration file." env:"PDKIT_CONFIG"`
	EnvFile     string `help:"Path to a .env file." default:".env" env:"PDKIT_ENV_FILE"`
	INI         string `help:"Path to the legacy config.ini." default:"config.ini" env:"PDKIT_INI"`
	MetricsPort int    `help:"Port to expose Prometheus metrics on (0 disables)." env:"PDKIT_METRICS_PORT"`
	Debug       bool   `help:"Enable debug mode." env:"DEBUG"`
}

// startMetricsServer exposes the process metrics when a port is configured.
// The returned function stops the server and is safe to call either way.
func startMetricsServer(ctx context.Context, port int) (func(), error) {
	if port <= 0 {
		return func() {}, nil
	}
	return metrics.DefaultStore().RunServer(ctx, port)
}

// loadConfig assembles the effective configuration: .env first (so the
// environment is populated before expansion), then the JSON config file if
// one is given, otherwise the PIPEDREAM_API_KEY environment variable alone.
// The legacy config.ini contributes only the default project id and never
// overrides an id from the config file.
func loadConfig(ctx context.Context, opt *CommonOptions) (*config.Config, error) {
	if _, err := os.Stat(opt.EnvFile); err == nil {
		if err := config.LoadEnvFile(opt.EnvFile); err != nil {
			return nil, err
		}
	}

	var cfg *config.Config
	if opt.Config != "" {
		c, err := config.Load(ctx, opt.Config)
		if err != nil {
			return nil, err
		}
		cfg = c
	} else {
		key := os.Getenv("PIPEDREAM_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("no configuration file and PIPEDREAM_API_KEY is not set")
		}
		cfg = config.New(key)
	}

	if cfg.Project.ID == "" {
		if _, err := os.Stat(opt.INI); err == nil {
			id, err := config.LoadProjectINI(opt.INI)
			if err != nil {
				return nil, err
			}
			cfg.Project.ID = id
		}
	}
	return cfg, nil
}

// resolveProjectID picks the project id from the command line or falls back
// to the configured default.
func resolveProjectID(arg string, cfg *config.Config) (string, error) {
	if arg != "" {
		return arg, nil
	}
	if cfg.Project.ID != "" {
		return cfg.Project.ID, nil
	}
	return "", fmt.Errorf("no project id given and none configured in config file or config.ini")
}
