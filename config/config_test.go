package config_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pdkit/pdkit/config"
)

var validateSuites = []struct {
	name   string
	config *config.Config
	valid  bool
}{
	{
		"empty",
		&config.Config{},
		false,
	},
	{
		"api key only",
		&config.Config{APIKey: "pd_key"},
		true,
	},
	{
		"http base url",
		&config.Config{APIKey: "pd_key", BaseURL: "http://localhost:8080"},
		true,
	},
	{
		"bad scheme",
		&config.Config{APIKey: "pd_key", BaseURL: "ftp://example.com"},
		false,
	},
	{
		"negative rate limit",
		&config.Config{APIKey: "pd_key", RateLimit: -1},
		false,
	},
	{
		"retry backoff inverted",
		&config.Config{
			APIKey: "pd_key",
			Retry: config.Retry{
				MaxAttempts:    3,
				InitialBackoff: config.Duration(2 * time.Second),
				MaxBackoff:     config.Duration(time.Second),
			},
		},
		false,
	},
	{
		"retry sane",
		&config.Config{
			APIKey: "pd_key",
			Retry: config.Retry{
				MaxAttempts:    3,
				InitialBackoff: config.Duration(time.Second),
				MaxBackoff:     config.Duration(10 * time.Second),
			},
		},
		true,
	},
}

func TestConfigValidate(t *testing.T) {
	for _, s := range validateSuites {
		t.Run(s.name, func(t *testing.T) {
			err := s.config.Validate()
			if s.valid && err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if !s.valid && err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestLoadExpandsEnvironment(t *testing.T) {
	t.Setenv("PIPEDREAM_API_KEY", "pd_from_env")
	path := filepath.Join(t.TempDir(), "config.json")
	content := `{
		"api_key": "${PIPEDREAM_API_KEY}",
		"org_id": "o_1",
		"call_timeout": "5s",
		"project": {"id": "proj_1"}
	}`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := config.Load(context.Background(), path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.APIKey.String() != "pd_from_env" {
		t.Errorf("api_key = %q", cfg.APIKey.String())
	}
	if cfg.OrgID != "o_1" || cfg.Project.ID != "proj_1" {
		t.Errorf("unexpected config: %s", cfg)
	}
	if cfg.CallTimeout.ToDuration() != 5*time.Second {
		t.Errorf("call_timeout = %s", cfg.CallTimeout)
	}
	// Defaults applied on load.
	if cfg.BaseURL != config.DefaultBaseURL {
		t.Errorf("base_url = %q", cfg.BaseURL)
	}
	if cfg.RateLimit != config.DefaultRateLimit || cfg.RateBurst != config.DefaultRateBurst {
		t.Errorf("rate defaults not applied: %s", cfg)
	}
}

func TestLoadRejectsMissingAPIKey(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"org_id": "o_1"}`), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := config.Load(context.Background(), path); err == nil {
		t.Fatal("expected error for config without api_key")
	}
}

func TestPasswordMaskedInOutput(t *testing.T) {
	cfg := config.New("pd_super_secret")
	out := cfg.String()
	if strings.Contains(out, "pd_super_secret") {
		t.Errorf("api key leaked into output:\n%s", out)
	}
	if !strings.Contains(out, "********") {
		t.Errorf("masked value missing:\n%s", out)
	}
	// The real value stays accessible for request signing.
	if cfg.APIKey.String() != "pd_super_secret" {
		t.Errorf("String() = %q", cfg.APIKey.String())
	}
}

func TestDurationRoundTrip(t *testing.T) {
	var d config.Duration
	if err := json.Unmarshal([]byte(`"1m30s"`), &d); err != nil {
		t.Fatal(err)
	}
	if d.ToDuration() != 90*time.Second {
		t.Errorf("parsed %s", d)
	}
	out, err := json.Marshal(d)
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != `"1m30s"` {
		t.Errorf("marshaled %s", out)
	}
	if err := json.Unmarshal([]byte(`"not a duration"`), &d); err == nil {
		t.Error("expected parse error")
	}
}

func TestHashChangesWithContent(t *testing.T) {
	a := config.New("key-a")
	b := config.New("key-b")
	if a.Hash() == "" || b.Hash() == "" {
		t.Fatal("empty hash")
	}
	if a.Hash() != a.Hash() {
		t.Error("hash not stable")
	}
	if a.Hash() == b.Hash() {
		t.Error("different configs share a hash")
	}
}
