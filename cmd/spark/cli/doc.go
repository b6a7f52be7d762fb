// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli is the command framework for the spark CLI.
//
// A [Command] is a node in the command tree: either a group with
// Subcommands or a leaf with Run. [Command.Execute] dispatches on the
// first positional argument, parses the leaf's flags, and calls Run
// with the remaining arguments. Unknown commands and flags get a
// did-you-mean suggestion.
//
// Flags are declared as tagged struct fields and bound with
// [FlagsFromParams]; embedding [JSONOutput] adds --json. Command
// loggers come from [NewCommandLogger]. A command that has already
// reported its own failure returns [ExitError] to set the exit code
// without an extra error line.
package cli
