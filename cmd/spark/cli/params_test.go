// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/spf13/pflag"
)

func TestBindFlagsDefaults(t *testing.T) {
	var params struct {
		JSONOutput
		Name     string        `flag:"name" default:"general"`
		Favorite bool          `flag:"favorite" default:"true"`
		Limit    int           `flag:"limit" default:"100"`
		Timeout  time.Duration `flag:"timeout" default:"5s"`
		Tags     []string      `flag:"tag" default:"a,b"`
		Ignored  string
	}

	flagSet := FlagsFromParams("test", &params)
	if err := flagSet.Parse(nil); err != nil {
		t.Fatalf("Parse() error: %v", err)
	}
	if params.Name != "general" || !params.Favorite || params.Limit != 100 || params.Timeout != 5*time.Second {
		t.Errorf("defaults not applied: %+v", params)
	}
	if len(params.Tags) != 2 || params.Tags[0] != "a" {
		t.Errorf("Tags = %v, want [a b]", params.Tags)
	}
	if flagSet.Lookup("json") == nil {
		t.Error("embedded JSONOutput did not bind --json")
	}
}

func TestBindFlagsRejectsBadInput(t *testing.T) {
	var unsupported struct {
		Ratio float32 `flag:"ratio"`
	}
	if err := BindFlags(&unsupported, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted float32 field")
	}

	var badDefault struct {
		Limit int `flag:"limit" default:"many"`
	}
	if err := BindFlags(&badDefault, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted non-numeric int default")
	}

	if err := BindFlags(struct{}{}, pflag.NewFlagSet("test", pflag.ContinueOnError)); err == nil {
		t.Error("BindFlags accepted non-pointer params")
	}
}

func TestEmitJSON(t *testing.T) {
	var output JSONOutput
	var buffer bytes.Buffer

	done, err := output.EmitJSON(&buffer, []string(nil))
	if done || err != nil || buffer.Len() != 0 {
		t.Fatalf("EmitJSON without --json = (%v, %v), wrote %q", done, err, buffer.String())
	}

	output.OutputJSON = true
	done, err = output.EmitJSON(&buffer, []string(nil))
	if !done || err != nil {
		t.Fatalf("EmitJSON = (%v, %v)", done, err)
	}
	if strings.TrimSpace(buffer.String()) != "[]" {
		t.Errorf("nil slice emitted as %q, want []", buffer.String())
	}
}

func TestNewLoggerFormat(t *testing.T) {
	var buffer bytes.Buffer
	newLogger(&buffer, false, slog.LevelInfo).Info("posted", "conversation", "c1")

	var record map[string]any
	if err := json.Unmarshal(buffer.Bytes(), &record); err != nil {
		t.Fatalf("piped logger did not write JSON: %v (%q)", err, buffer.String())
	}
	if record["conversation"] != "c1" {
		t.Errorf("record = %v", record)
	}

	buffer.Reset()
	newLogger(&buffer, true, slog.LevelWarn).Info("hidden")
	if buffer.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buffer.String())
	}
}
