package config

import (
	"fmt"
	"os"

	envparse "github.com/hashicorp/go-envparse"
)

// LoadEnvFile reads a .env file and sets any variables that are not already
// present in the process environment. Existing variables win so that values
// exported in the shell take precedence over the file.
func LoadEnvFile(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open env file: %w", err)
	}
	defer f.Close()

	vars, err := envparse.Parse(f)
	if err != nil {
		return fmt.Errorf("failed to parse env file %s: %w", path, err)
	}
	for k, v := range vars {
		if _, exists := os.LookupEnv(k); exists {
			continue
		}
		if err := os.Setenv(k, v); err != nil {
			return fmt.Errorf("failed to set %s: %w", k, err)
		}
	}
	return nil
}
