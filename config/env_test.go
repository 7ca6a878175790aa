package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/pdkit/pdkit/config"
)

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	content := "PDKIT_TEST_FROM_FILE=file-value\nPDKIT_TEST_EXISTING=file-value\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("PDKIT_TEST_EXISTING", "shell-value")
	os.Unsetenv("PDKIT_TEST_FROM_FILE")
	t.Cleanup(func() { os.Unsetenv("PDKIT_TEST_FROM_FILE") })

	if err := config.LoadEnvFile(path); err != nil {
		t.Fatal(err)
	}
	if got := os.Getenv("PDKIT_TEST_FROM_FILE"); got != "file-value" {
		t.Errorf("PDKIT_TEST_FROM_FILE = %q", got)
	}
	// Variables already exported in the shell win over the file.
	if got := os.Getenv("PDKIT_TEST_EXISTING"); got != "shell-value" {
		t.Errorf("PDKIT_TEST_EXISTING = %q", got)
	}
}

func TestLoadEnvFileMissing(t *testing.T) {
	if err := config.LoadEnvFile(filepath.Join(t.TempDir(), "absent.env")); err == nil {
		t.Fatal("expected error for missing file")
	}
}
