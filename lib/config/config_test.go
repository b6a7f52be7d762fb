// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.Environment != Development {
		t.Errorf("environment = %s, want development", cfg.Environment)
	}
	if cfg.Request.Timeout != 30*time.Second {
		t.Errorf("request.timeout = %s", cfg.Request.Timeout)
	}
	if cfg.Discovery.CacheSize != 64 {
		t.Errorf("discovery.cache_size = %d", cfg.Discovery.CacheSize)
	}
}

func TestLoadRequiresEnvironmentVariable(t *testing.T) {
	t.Setenv(EnvironmentVariable, "")
	_, err := Load()
	if err == nil {
		t.Fatal("expected error when SPARK_CONFIG is unset")
	}
	if !strings.HasPrefix(err.Error(), "SPARK_CONFIG environment variable not set") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadYAML(t *testing.T) {
	path := writeConfig(t, "spark.yaml", `
environment: staging
identity:
  user_id: 5a4b3c2d-0000-4000-8000-000000000001
services:
  conversation: https://conv-a.example.com/conversation/api/v1
request:
  timeout: 5s
staging:
  services:
    conversation: https://conv-staging.example.com/conversation/api/v1
  logging:
    level: debug
`)
	t.Setenv(EnvironmentVariable, path)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Environment != Staging {
		t.Errorf("environment = %s", cfg.Environment)
	}
	if got := cfg.Services["conversation"]; got != "https://conv-staging.example.com/conversation/api/v1" {
		t.Errorf("staging override not applied: %s", got)
	}
	if cfg.Request.Timeout != 5*time.Second {
		t.Errorf("request.timeout = %s", cfg.Request.Timeout)
	}
	level, err := cfg.LogLevel()
	if err != nil || level != slog.LevelDebug {
		t.Errorf("LogLevel = %v, %v", level, err)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestLoadJSONC(t *testing.T) {
	path := writeConfig(t, "spark.jsonc", `{
  // development box
  "environment": "development",
  "identity": {"user_id": "u-self"},
  "services": {"conversation": "http://localhost:8080/conversation/api/v1"},
  "kms": {"domain": "kms.dev.example.com"},
}`)
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Identity.UserID != "u-self" {
		t.Errorf("identity.user_id = %q", cfg.Identity.UserID)
	}
	if cfg.KMS.Domain != "kms.dev.example.com" {
		t.Errorf("kms.domain = %q", cfg.KMS.Domain)
	}
}

func TestProductionDefaultsToWarn(t *testing.T) {
	path := writeConfig(t, "spark.yaml", "environment: production\n")
	cfg, err := LoadFile(path)
	if err != nil {
		t.Fatalf("LoadFile: %v", err)
	}
	if cfg.Logging.Level != "warn" {
		t.Errorf("logging.level = %q, want warn", cfg.Logging.Level)
	}
}

func TestExpandVars(t *testing.T) {
	t.Setenv("SPARK_TEST_HOST", "conv.example.com")
	vars := map[string]string{"HOME": "/home/tester"}

	tests := []struct {
		input string
		want  string
	}{
		{"${HOME}/.config/spark/token", "/home/tester/.config/spark/token"},
		{"https://${SPARK_TEST_HOST}/api", "https://conv.example.com/api"},
		{"https://${SPARK_TEST_UNSET:-fallback.example.com}/api", "https://fallback.example.com/api"},
		{"no variables", "no variables"},
	}
	for _, test := range tests {
		if got := expandVars(test.input, vars); got != test.want {
			t.Errorf("expandVars(%q) = %q, want %q", test.input, got, test.want)
		}
	}
}

func TestValidateCollectsEveryError(t *testing.T) {
	cfg := Default()
	cfg.Environment = "qa"
	cfg.Services["identity"] = "ftp://identity.example.com"
	cfg.Discovery.CacheSize = 0
	cfg.KMS.Domain = ""
	cfg.Logging.Level = "loud"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}
	for _, fragment := range []string{
		"invalid environment",
		"identity.user_id is required",
		"services.conversation is required",
		"services.identity",
		"discovery.cache_size",
		"kms.domain is required",
		"logging.level",
	} {
		if !strings.Contains(err.Error(), fragment) {
			t.Errorf("error missing %q:\n%v", fragment, err)
		}
	}
}
