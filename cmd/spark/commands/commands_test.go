// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestVersion(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := Root(&stdout, &stderr).Execute(context.Background(), []string{"version"}); err != nil {
		t.Fatalf("version: %v", err)
	}
	if !strings.HasPrefix(stdout.String(), "spark ") {
		t.Errorf("version output = %q", stdout.String())
	}
}

func TestHelpGoesToStderr(t *testing.T) {
	var stdout, stderr bytes.Buffer
	if err := Root(&stdout, &stderr).Execute(context.Background(), []string{"--help"}); err != nil {
		t.Fatalf("--help: %v", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("help wrote to stdout: %q", stdout.String())
	}
	for _, want := range []string{"conversation", "config", "version"} {
		if !strings.Contains(stderr.String(), want) {
			t.Errorf("help missing %q:\n%s", want, stderr.String())
		}
	}
}

func TestConfigCheck(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	contents := `environment: staging
identity:
  user_id: 0b1c2d3e-4f50-4617-8829-3a4b5c6d7e8f
services:
  conversation: https://conv.example.com/api/v1
`
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatal(err)
	}

	var stdout, stderr bytes.Buffer
	err := Root(&stdout, &stderr).Execute(context.Background(), []string{"config", "check", "--config", path, "--json"})
	if err != nil {
		t.Fatalf("config check: %v", err)
	}
	var summary configSummary
	if err := json.Unmarshal(stdout.Bytes(), &summary); err != nil {
		t.Fatalf("decoding %q: %v", stdout.String(), err)
	}
	if summary.Environment != "staging" || summary.Services["conversation"] != "https://conv.example.com/api/v1" {
		t.Errorf("summary = %+v", summary)
	}
	if summary.KMSDomain == "" {
		t.Error("summary lost the default kms domain")
	}
}

func TestConfigCheckRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("environment: moon\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	var stdout, stderr bytes.Buffer
	err := Root(&stdout, &stderr).Execute(context.Background(), []string{"config", "check", "--config", path})
	if err == nil || !strings.Contains(err.Error(), "invalid environment") {
		t.Errorf("error = %v, want invalid environment", err)
	}
}
