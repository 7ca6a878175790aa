package config

import (
	"context"
	"crypto/sha256"
	"encoding/gob"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"time"
)

// Default values for API access
const (
	DefaultBaseURL     = "https://api.pipedream.com"
	DefaultCallTimeout = 30 * time.Second
	DefaultRateLimit   = 10.0 // requests per second
	DefaultRateBurst   = 5
)

// Config represents the configuration of the pdkit tools.
type Config struct {
	APIKey      Password `json:"api_key"`
	OrgID       string   `json:"org_id,omitempty"`
	BaseURL     string   `json:"base_url,omitempty"`
	CallTimeout Duration `json:"call_timeout,omitempty"`
	RateLimit   float64  `json:"rate_limit,omitempty"`
	RateBurst   int      `json:"rate_burst,omitempty"`
	Retry       Retry    `json:"retry,omitempty"`
	Project     Project  `json:"project,omitempty"`
}

// Retry bounds retries of transport-level failures. Zero attempts means a
// failed request is not retried, only alternate endpoints are tried.
type Retry struct {
	MaxAttempts    int      `json:"max_attempts,omitempty"`
	InitialBackoff Duration `json:"initial_backoff,omitempty"`
	MaxBackoff     Duration `json:"max_backoff,omitempty"`
}

// Project holds the default project scoping used when no id is given on
// the command line.
type Project struct {
	ID string `json:"id,omitempty"`
}

// Hash calculates SHA256 hash of the config using gob encoding
func (c *Config) Hash() string {
	hasher := sha256.New()
	encoder := gob.NewEncoder(hasher)
	if err := encoder.Encode(c); err != nil {
		slog.Error("Failed to encode config with gob for hashing", "error", err)
		return ""
	}
	return hex.EncodeToString(hasher.Sum(nil))
}

func (c *Config) String() string {
	data, _ := json.MarshalIndent(c, "", "  ")
	return string(data)
}

// Load reads a JSON configuration file. Environment variables referenced in
// the file are expanded, so an api_key of "${PIPEDREAM_API_KEY}" picks up
// the key from the environment (possibly populated from a .env file).
func Load(ctx context.Context, f string) (*Config, error) {
	var c Config
	slog.Debug("loading configuration", "file", f)

	data, err := os.ReadFile(f)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	expanded := os.ExpandEnv(string(data))

	if err := json.Unmarshal([]byte(expanded), &c); err != nil {
		return nil, fmt.Errorf("failed to unmarshal JSON: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	c.SetDefaults()
	return &c, nil
}

// New builds a config from an API key alone, applying defaults. Used when
// no config file is present and the key comes from the environment.
func New(apiKey string) *Config {
	c := &Config{APIKey: Password(apiKey)}
	c.SetDefaults()
	return c
}

// SetDefaults sets default values for config fields if not specified
func (c *Config) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.CallTimeout == 0 {
		c.CallTimeout = Duration(DefaultCallTimeout)
	}
	if c.RateLimit == 0 {
		c.RateLimit = DefaultRateLimit
	}
	if c.RateBurst == 0 {
		c.RateBurst = DefaultRateBurst
	}
	if c.Retry.MaxAttempts > 1 && c.Retry.InitialBackoff == 0 {
		c.Retry.InitialBackoff = Duration(time.Second)
	}
}

func (c *Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("api_key is required")
	}
	if c.BaseURL != "" {
		u, err := url.Parse(c.BaseURL)
		if err != nil {
			return fmt.Errorf("invalid base_url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("base_url must be http or https: %s", c.BaseURL)
		}
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	if c.Retry.MaxAttempts > 1 && c.Retry.MaxBackoff != 0 && c.Retry.MaxBackoff < c.Retry.InitialBackoff {
		return fmt.Errorf("retry max_backoff must be >= initial_backoff")
	}
	return nil
}

// Password is a custom type that masks the value during JSON marshaling
type Password string

// UnmarshalJSON implements json.Unmarshaler interface
func (p *Password) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*p = Password(s)
	return nil
}

// MarshalJSON implements json.Marshaler interface to mask the API key
func (p Password) MarshalJSON() ([]byte, error) {
	if p == "" {
		return json.Marshal("")
	}
	return json.Marshal("********")
}

// String returns the actual value (for internal use)
func (p Password) String() string {
	return string(p)
}

// Duration is a custom type that can unmarshal duration strings from JSON
type Duration time.Duration

// UnmarshalJSON implements json.Unmarshaler interface
func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return err
	}
	*d = Duration(dur)
	return nil
}

// MarshalJSON implements json.Marshaler interface
func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Duration(d).String())
}

// String returns string representation
func (d Duration) String() string {
	return time.Duration(d).String()
}

// ToDuration converts to time.Duration
func (d Duration) ToDuration() time.Duration {
	return time.Duration(d)
}
