// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"io"

	"github.com/stonedpebbles/spark/cmd/spark/cli"
)

// Command returns the "conversation" command group. Results are
// written to stdout.
func Command(stdout io.Writer) *cli.Command {
	return &cli.Command{
		Name:    "conversation",
		Summary: "Read and post to conversations",
		Description: `Read and post to conversations as the configured identity.

Conversations are referenced by id or by full URL. An id is expanded
against the conversation service's base URL, which is looked up in the
config's services map or the discovery endpoint.`,
		Subcommands: []*cli.Command{
			listCommand(stdout),
			getCommand(stdout),
			createCommand(stdout),
			postCommand(stdout),
			activitiesCommand(stdout),
			mentionsCommand(stdout),
			addCommand(stdout),
			leaveCommand(stdout),
			rotateKeyCommand(stdout),
			verbCommand(stdout),
		},
	}
}
