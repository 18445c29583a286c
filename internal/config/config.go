package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/containeroo/resolver"
	"gopkg.in/yaml.v3"
)

// DomainPlaceholder is replaced by the Atlassian site name in Jira.BaseURL.
const DomainPlaceholder = "{domain}"

// Default values applied to unset fields.
const (
	defaultDatabase        = "ricefwboard.db"
	defaultSessionTTL      = Duration(30 * 24 * time.Hour)
	defaultCleanupInterval = Duration(time.Hour)
	defaultJiraBaseURL     = "https://" + DomainPlaceholder + ".atlassian.net"
	defaultJiraTimeout     = Duration(15 * time.Second)
	defaultJiraMaxResults  = 50
	defaultCacheTTL        = Duration(time.Minute)
	defaultRateLimitRPS    = 5
	defaultRateLimitBurst  = 10
)

// Default returns the configuration used without a config file.
func Default() Config {
	var cfg Config
	setDefaults(&cfg, nil)
	return cfg
}

// LoadConfig reads the YAML file at path. An empty path yields Default().
func LoadConfig(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	set, err := explicitKeys(data)
	if err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}
	setDefaults(&cfg, set)

	if err := resolveReferences(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// explicitKeys returns the dotted paths present in the file, so that an
// explicit zero (cache.ttl: 0 or 0s) is not overwritten by a default.
func explicitKeys(data []byte) (map[string]bool, error) {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	keys := map[string]bool{}
	var walk func(prefix string, m map[string]any)
	walk = func(prefix string, m map[string]any) {
		for k, v := range m {
			key := prefix + k
			keys[key] = true
			if child, ok := v.(map[string]any); ok {
				walk(key+".", child)
			}
		}
	}
	walk("", raw)
	return keys, nil
}

// setDefaults fills fields that are zero and not explicitly set.
func setDefaults(cfg *Config, explicit map[string]bool) {
	unset := func(key string) bool { return !explicit[key] }

	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}
	if cfg.Session.TTL == 0 {
		cfg.Session.TTL = defaultSessionTTL
	}
	if cfg.Session.CleanupInterval == 0 {
		cfg.Session.CleanupInterval = defaultCleanupInterval
	}
	if cfg.Jira.BaseURL == "" {
		cfg.Jira.BaseURL = defaultJiraBaseURL
	}
	if cfg.Jira.Timeout == 0 {
		cfg.Jira.Timeout = defaultJiraTimeout
	}
	if cfg.Jira.MaxResults == 0 {
		cfg.Jira.MaxResults = defaultJiraMaxResults
	}
	if cfg.Cache.TTL == 0 && unset("cache.ttl") {
		cfg.Cache.TTL = defaultCacheTTL
	}
	if cfg.Auth.RateLimit.RPS == 0 && unset("auth.rateLimit.rps") {
		cfg.Auth.RateLimit.RPS = defaultRateLimitRPS
	}
	if cfg.Auth.RateLimit.Burst == 0 {
		cfg.Auth.RateLimit.Burst = defaultRateLimitBurst
	}
}

// resolveReferences expands env: and file: references in string settings.
func resolveReferences(cfg *Config) error {
	var errs []string
	for name, field := range map[string]*string{
		"database":     &cfg.Database,
		"jira.baseURL": &cfg.Jira.BaseURL,
	} {
		v, err := resolver.ResolveVariable(*field)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			continue
		}
		*field = v
	}
	for i, origin := range cfg.CORS.AllowedOrigins {
		v, err := resolver.ResolveVariable(origin)
		if err != nil {
			errs = append(errs, fmt.Sprintf("cors.allowedOrigins[%d]: %v", i, err))
			continue
		}
		cfg.CORS.AllowedOrigins[i] = v
	}
	if len(errs) > 0 {
		return fmt.Errorf("resolving config failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// ValidateConfig checks the consistency of cfg.
func ValidateConfig(cfg Config) error {
	var errs []string

	if strings.TrimSpace(cfg.Database) == "" {
		errs = append(errs, "database is required")
	}
	if cfg.Session.TTL <= 0 {
		errs = append(errs, "session.ttl must be > 0")
	}
	if cfg.Session.CleanupInterval <= 0 {
		errs = append(errs, "session.cleanupInterval must be > 0")
	}

	switch {
	case !strings.Contains(cfg.Jira.BaseURL, DomainPlaceholder):
		errs = append(errs, fmt.Sprintf("jira.baseURL %q must contain %s", cfg.Jira.BaseURL, DomainPlaceholder))
	default:
		u, err := url.Parse(strings.ReplaceAll(cfg.Jira.BaseURL, DomainPlaceholder, "example"))
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			errs = append(errs, fmt.Sprintf("jira.baseURL %q must be an absolute http(s) URL", cfg.Jira.BaseURL))
		}
	}
	if cfg.Jira.Timeout <= 0 {
		errs = append(errs, "jira.timeout must be > 0")
	}
	if cfg.Jira.MaxResults < 1 || cfg.Jira.MaxResults > 100 {
		errs = append(errs, "jira.maxResults must be between 1 and 100")
	}

	if cfg.Cache.TTL < 0 {
		errs = append(errs, "cache.ttl must be >= 0")
	}
	if cfg.Auth.RateLimit.RPS < 0 {
		errs = append(errs, "auth.rateLimit.rps must be >= 0")
	}
	if cfg.Auth.RateLimit.Burst < 1 {
		errs = append(errs, "auth.rateLimit.burst must be >= 1")
	}

	for i, origin := range cfg.CORS.AllowedOrigins {
		if origin == "*" {
			continue
		}
		u, err := url.Parse(origin)
		if err != nil || u.Scheme == "" || u.Host == "" {
			errs = append(errs, fmt.Sprintf("cors.allowedOrigins[%d]: %q is not an origin", i, origin))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}
