package config

import (
	"fmt"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the server configuration file.
type Config struct {
	Database string        `yaml:"database"`
	Session  SessionConfig `yaml:"session"`
	CORS     CORSConfig    `yaml:"cors"`
	Jira     JiraConfig    `yaml:"jira"`
	Cache    CacheConfig   `yaml:"cache"`
	Auth     AuthConfig    `yaml:"auth"`
}

// SessionConfig controls session token lifetime.
type SessionConfig struct {
	TTL             Duration `yaml:"ttl"`
	CleanupInterval Duration `yaml:"cleanupInterval"`
}

// CORSConfig lists browser origins allowed to call the API. Empty disables CORS headers.
type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowedOrigins"`
}

// JiraConfig describes how the Atlassian site of a user is reached.
type JiraConfig struct {
	BaseURL       string   `yaml:"baseURL"` // must contain {domain}
	Timeout       Duration `yaml:"timeout"`
	SkipTLSVerify bool     `yaml:"skipTLSVerify"`
	MaxResults    int      `yaml:"maxResults"`
}

// CacheConfig controls the project search cache. A zero TTL disables it.
type CacheConfig struct {
	TTL Duration `yaml:"ttl"`
}

// AuthConfig throttles the /api/auth endpoints.
type AuthConfig struct {
	RateLimit RateLimit `yaml:"rateLimit"`
}

// RateLimit is a token bucket per client IP. A zero RPS disables it.
type RateLimit struct {
	RPS   float64 `yaml:"rps"`
	Burst int     `yaml:"burst"`
}

// Duration is a time.Duration read from YAML either as a Go duration string
// ("90s", "12h") or as a bare integer number of seconds.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: duration must be a scalar", value.Line)
	}
	if value.Tag == "!!int" {
		n, err := strconv.ParseInt(value.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
		}
		*d = Duration(time.Duration(n) * time.Second)
		return nil
	}
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	*d = Duration(parsed)
	return nil
}

// String formats d like time.Duration.
func (d Duration) String() string { return time.Duration(d).String() }
