// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"

	"github.com/spf13/pflag"

	"github.com/stonedpebbles/spark/cmd/spark/cli"
	"github.com/stonedpebbles/spark/lib/config"
)

type configCheckParams struct {
	cli.JSONOutput
	Path string `flag:"config" desc:"client config file (default: $SPARK_CONFIG)"`
}

// configSummary is the --json output of "config check".
type configSummary struct {
	Environment  string            `json:"environment"`
	UserID       string            `json:"user_id"`
	Services     map[string]string `json:"services"`
	DiscoveryURL string            `json:"discovery_url,omitempty"`
	KMSDomain    string            `json:"kms_domain"`
	LogLevel     string            `json:"log_level"`
}

func configCommand(stdout io.Writer) *cli.Command {
	var params configCheckParams
	return &cli.Command{
		Name:    "config",
		Summary: "Inspect the client configuration",
		Subcommands: []*cli.Command{
			{
				Name:    "check",
				Summary: "Load and validate the client configuration",
				Description: `Load the client configuration, apply environment overrides and
variable expansion, and report every validation problem at once.`,
				Usage: "spark config check [flags]",
				Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("check", &params) },
				Run: func(_ context.Context, args []string) error {
					if len(args) > 0 {
						return fmt.Errorf("unexpected argument %q", args[0])
					}
					var cfg *config.Config
					var err error
					if params.Path != "" {
						cfg, err = config.LoadFile(params.Path)
					} else {
						cfg, err = config.Load()
					}
					if err != nil {
						return err
					}
					if err := cfg.Validate(); err != nil {
						return fmt.Errorf("invalid configuration:\n%w", err)
					}

					summary := configSummary{
						Environment:  string(cfg.Environment),
						UserID:       cfg.Identity.UserID,
						Services:     cfg.Services,
						DiscoveryURL: cfg.Discovery.URL,
						KMSDomain:    cfg.KMS.Domain,
						LogLevel:     cfg.Logging.Level,
					}
					if done, err := params.EmitJSON(stdout, summary); done {
						return err
					}
					fmt.Fprintf(stdout, "environment: %s\n", summary.Environment)
					fmt.Fprintf(stdout, "user:        %s\n", summary.UserID)
					for _, name := range slices.Sorted(maps.Keys(summary.Services)) {
						fmt.Fprintf(stdout, "service:     %s = %s\n", name, summary.Services[name])
					}
					if summary.DiscoveryURL != "" {
						fmt.Fprintf(stdout, "discovery:   %s\n", summary.DiscoveryURL)
					}
					_, err = fmt.Fprintf(stdout, "kms domain:  %s\nconfig OK\n", summary.KMSDomain)
					return err
				},
			},
		},
	}
}
