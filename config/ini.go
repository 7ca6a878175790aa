package config

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadProjectINI reads the legacy config.ini layout and returns the default
// project id from its [project] section:
//
//	[project]
//	id = proj_xxxxxxx
//
// Only this one key is consumed; unknown sections and keys are ignored.
// Returns an empty string when the section or key is absent.
func LoadProjectINI(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open ini file: %w", err)
	}
	defer f.Close()

	var section string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}
		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			section = strings.TrimSpace(line[1 : len(line)-1])
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		if section == "project" && strings.TrimSpace(key) == "id" {
			return strings.TrimSpace(value), nil
		}
	}
	if err := sc.Err(); err != nil {
		return "", fmt.Errorf("failed to read ini file: %w", err)
	}
	return "", nil
}
