// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// EnvironmentVariable names the variable Load reads the config path from.
const EnvironmentVariable = "SPARK_CONFIG"

// Environment represents the deployment environment.
type Environment string

const (
	Development Environment = "development"
	Staging     Environment = "staging"
	Production  Environment = "production"
)

// Config is the complete client configuration.
type Config struct {
	Environment Environment `yaml:"environment"`

	// Identity is the signed-in user and device every activity is
	// attributed to.
	Identity IdentityConfig `yaml:"identity"`

	// Services maps a service name ("conversation", "identity") to its
	// base URL. Entries here win over discovery.
	Services map[string]string `yaml:"services"`

	Discovery DiscoveryConfig `yaml:"discovery"`
	Request   RequestConfig   `yaml:"request"`
	KMS       KMSConfig       `yaml:"kms"`
	Logging   LoggingConfig   `yaml:"logging"`

	Development *Overrides `yaml:"development,omitempty"`
	Staging     *Overrides `yaml:"staging,omitempty"`
	Production  *Overrides `yaml:"production,omitempty"`
}

// Overrides holds the fields an environment section may replace.
type Overrides struct {
	Services  map[string]string `yaml:"services,omitempty"`
	Discovery *DiscoveryConfig  `yaml:"discovery,omitempty"`
	Request   *RequestConfig    `yaml:"request,omitempty"`
	Logging   *LoggingConfig    `yaml:"logging,omitempty"`
}

// IdentityConfig names the caller.
type IdentityConfig struct {
	// UserID is the caller's UUID. It becomes the default actor and is
	// always prepended to conversation participant lists.
	UserID string `yaml:"user_id"`

	// DeviceURL is the registered device, sent for attribution only.
	DeviceURL string `yaml:"device_url"`
}

// DiscoveryConfig configures the service catalog endpoint.
type DiscoveryConfig struct {
	// URL of the catalog endpoint. Empty disables discovery; every
	// service must then appear in Services.
	URL string `yaml:"url"`

	// CacheSize bounds the number of cached service URLs.
	CacheSize int `yaml:"cache_size"`

	// CacheTTL is how long a discovered URL is trusted.
	CacheTTL time.Duration `yaml:"cache_ttl"`
}

// RequestConfig configures the HTTP request executor.
type RequestConfig struct {
	// Timeout bounds each request. Zero means no client-side timeout.
	Timeout time.Duration `yaml:"timeout"`

	// TokenFile holds the bearer access token.
	TokenFile string `yaml:"token_file"`
}

// KMSConfig configures the local key service.
type KMSConfig struct {
	// Domain is the host part of minted key URIs (kms://<domain>/keys/...).
	Domain string `yaml:"domain"`
}

// LoggingConfig configures slog output.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `yaml:"level"`
}

// Default returns the development defaults that a loaded file is
// merged over.
func Default() *Config {
	homeDir, _ := os.UserHomeDir()
	return &Config{
		Environment: Development,
		Services:    map[string]string{},
		Discovery: DiscoveryConfig{
			CacheSize: 64,
			CacheTTL:  10 * time.Minute,
		},
		Request: RequestConfig{
			Timeout:   30 * time.Second,
			TokenFile: filepath.Join(homeDir, ".config", "spark", "token"),
		},
		KMS: KMSConfig{
			Domain: "kms.local",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// Load loads configuration from the file named by SPARK_CONFIG.
func Load() (*Config, error) {
	path := os.Getenv(EnvironmentVariable)
	if path == "" {
		return nil, fmt.Errorf("%s environment variable not set; "+
			"set it to the path of your spark.yaml config file, or use --config", EnvironmentVariable)
	}
	return LoadFile(path)
}

// LoadFile loads configuration from path, applies the matching
// environment section, and expands variables.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if err := cfg.loadFile(path); err != nil {
		return nil, err
	}
	cfg.applyEnvironmentOverrides()
	cfg.expandVariables()
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	// yaml.v3 accepts JSON documents, so JSONC only needs its comments
	// and trailing commas stripped.
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json", ".jsonc":
		data = jsonc.ToJSON(data)
	}

	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnvironmentOverrides() {
	var overrides *Overrides
	switch c.Environment {
	case Development:
		overrides = c.Development
	case Staging:
		overrides = c.Staging
	case Production:
		overrides = c.Production
		// Production logs at warn unless told otherwise.
		if overrides == nil {
			overrides = &Overrides{Logging: &LoggingConfig{Level: "warn"}}
		}
	}
	if overrides == nil {
		return
	}

	if c.Services == nil {
		c.Services = map[string]string{}
	}
	for name, base := range overrides.Services {
		c.Services[name] = base
	}

	if overrides.Discovery != nil {
		if overrides.Discovery.URL != "" {
			c.Discovery.URL = overrides.Discovery.URL
		}
		if overrides.Discovery.CacheSize != 0 {
			c.Discovery.CacheSize = overrides.Discovery.CacheSize
		}
		if overrides.Discovery.CacheTTL != 0 {
			c.Discovery.CacheTTL = overrides.Discovery.CacheTTL
		}
	}

	if overrides.Request != nil {
		if overrides.Request.Timeout != 0 {
			c.Request.Timeout = overrides.Request.Timeout
		}
		if overrides.Request.TokenFile != "" {
			c.Request.TokenFile = overrides.Request.TokenFile
		}
	}

	if overrides.Logging != nil && overrides.Logging.Level != "" {
		c.Logging.Level = overrides.Logging.Level
	}
}

func (c *Config) expandVariables() {
	vars := map[string]string{
		"HOME": os.Getenv("HOME"),
	}
	for name, base := range c.Services {
		c.Services[name] = expandVars(base, vars)
	}
	c.Discovery.URL = expandVars(c.Discovery.URL, vars)
	c.Request.TokenFile = expandVars(c.Request.TokenFile, vars)
	c.Identity.DeviceURL = expandVars(c.Identity.DeviceURL, vars)
}

var varPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandVars expands ${VAR} and ${VAR:-default}, preferring vars over
// the process environment.
func expandVars(s string, vars map[string]string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		parts := varPattern.FindStringSubmatch(match)
		if len(parts) < 2 {
			return match
		}
		name := parts[1]
		defaultValue := ""
		if len(parts) >= 3 {
			defaultValue = parts[2]
		}
		if value, ok := vars[name]; ok && value != "" {
			return value
		}
		if value := os.Getenv(name); value != "" {
			return value
		}
		return defaultValue
	})
}

// Validate reports every configuration problem at once.
func (c *Config) Validate() error {
	var errs []error

	switch c.Environment {
	case Development, Staging, Production:
	default:
		errs = append(errs, fmt.Errorf("invalid environment: %q", c.Environment))
	}

	if c.Identity.UserID == "" {
		errs = append(errs, errors.New("identity.user_id is required"))
	}

	if _, ok := c.Services["conversation"]; !ok && c.Discovery.URL == "" {
		errs = append(errs, errors.New("services.conversation is required when discovery.url is empty"))
	}
	for name, base := range c.Services {
		if err := validateURL(base); err != nil {
			errs = append(errs, fmt.Errorf("services.%s: %w", name, err))
		}
	}
	if c.Discovery.URL != "" {
		if err := validateURL(c.Discovery.URL); err != nil {
			errs = append(errs, fmt.Errorf("discovery.url: %w", err))
		}
	}
	if c.Discovery.CacheSize <= 0 {
		errs = append(errs, fmt.Errorf("discovery.cache_size must be positive, got %d", c.Discovery.CacheSize))
	}
	if c.Request.Timeout < 0 {
		errs = append(errs, fmt.Errorf("request.timeout must not be negative, got %s", c.Request.Timeout))
	}
	if c.KMS.Domain == "" {
		errs = append(errs, errors.New("kms.domain is required"))
	}
	if _, err := c.LogLevel(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// LogLevel parses Logging.Level.
func (c *Config) LogLevel() (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.Logging.Level)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level: %w", err)
	}
	return level, nil
}

func validateURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("URL %q must be http or https", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("URL %q has no host", raw)
	}
	return nil
}
