// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands assembles the spark command tree.
package commands

import (
	"context"
	"fmt"
	"io"

	"github.com/stonedpebbles/spark/cmd/spark/cli"
	conversationcmd "github.com/stonedpebbles/spark/cmd/spark/conversation"
	"github.com/stonedpebbles/spark/lib/version"
)

// Root returns the top-level spark command. Command results go to
// stdout and help text to stderr.
func Root(stdout, stderr io.Writer) *cli.Command {
	return &cli.Command{
		Name: "spark",
		Description: `spark: conversation service client.

Read, create and post to conversations, manage their participants, and
rotate their encryption keys as the identity named in the client
config.`,
		HelpOutput: stderr,
		Subcommands: []*cli.Command{
			conversationcmd.Command(stdout),
			configCommand(stdout),
			{
				Name:    "version",
				Summary: "Print version information",
				Run: func(_ context.Context, _ []string) error {
					_, err := fmt.Fprintf(stdout, "spark %s\n", version.Full())
					return err
				},
			},
		},
		Examples: []cli.Example{
			{
				Description: "Check the client configuration",
				Command:     "spark config check --config ~/.config/spark/config.yaml",
			},
			{
				Description: "List conversations",
				Command:     "spark conversation list",
			},
			{
				Description: "Message a colleague, creating the conversation if needed",
				Command:     "spark conversation create bob@example.com -m 'got a minute?'",
			},
		},
	}
}
