// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stonedpebbles/spark/cmd/spark/cli"
	libconversation "github.com/stonedpebbles/spark/conversation"
)

// queryParams is the pass-through query shared by the list commands.
type queryParams struct {
	Query []string `flag:"query,q" desc:"extra service query parameter as key=value (repeatable)"`
}

func (p queryParams) values() (url.Values, error) {
	if len(p.Query) == 0 {
		return nil, nil
	}
	values := url.Values{}
	for _, pair := range p.Query {
		key, value, ok := strings.Cut(pair, "=")
		if !ok || key == "" {
			return nil, fmt.Errorf("--query %q: want key=value", pair)
		}
		values.Add(key, value)
	}
	return values, nil
}

type listParams struct {
	Connection
	cli.JSONOutput
	queryParams
	Left bool `flag:"left" desc:"list conversations the caller has left"`
}

func listCommand(stdout io.Writer) *cli.Command {
	var params listParams
	return &cli.Command{
		Name:    "list",
		Summary: "List conversations",
		Description: `List the caller's conversations, oldest activity first.

Participants are returned as UUIDs and each listed person is recorded
in the identity cache.`,
		Usage: "spark conversation list [flags]",
		Examples: []cli.Example{
			{Description: "Conversations as JSON", Command: "spark conversation list --json"},
			{Description: "Conversations the caller has left", Command: "spark conversation list --left"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("list", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			query, err := params.values()
			if err != nil {
				return err
			}
			return params.withSession("list", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				list := s.client.List
				if params.Left {
					list = s.client.ListLeft
				}
				conversations, err := list(ctx, libconversation.ListOptions{Query: query})
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(stdout, conversations); done {
					return err
				}
				return printConversations(stdout, conversations)
			})
		},
	}
}

type getParams struct {
	Connection
	cli.JSONOutput
	User         string `flag:"user" desc:"fetch the one-on-one conversation with this user instead"`
	Activities   int    `flag:"activities" desc:"number of recent activities to include" default:"0"`
	Participants bool   `flag:"participants" desc:"include the participant list" default:"true"`
}

func getCommand(stdout io.Writer) *cli.Command {
	var params getParams
	return &cli.Command{
		Name:    "get",
		Summary: "Show one conversation",
		Usage:   "spark conversation get <conversation> [flags]\n  spark conversation get --user <email-or-uuid> [flags]",
		Examples: []cli.Example{
			{Description: "A conversation with its last ten activities", Command: "spark conversation get 5a1c9d2e --activities 10"},
			{Description: "The one-on-one conversation with a user", Command: "spark conversation get --user alice@example.com"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("get", &params) },
		Run: func(ctx context.Context, args []string) error {
			var ref *libconversation.Object
			switch {
			case params.User != "" && len(args) == 0:
			case params.User == "" && len(args) == 1:
				var err error
				if ref, err = parseRef(args[0]); err != nil {
					return err
				}
			default:
				return fmt.Errorf("want exactly one of <conversation> or --user")
			}
			return params.withSession("get", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				conversation, err := s.client.Get(ctx, ref, libconversation.GetOptions{
					User:                params.User,
					ActivitiesLimit:     params.Activities,
					IncludeParticipants: params.Participants,
				})
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(stdout, conversation); done {
					return err
				}
				return printConversation(stdout, conversation)
			})
		},
	}
}

type activitiesParams struct {
	Connection
	cli.JSONOutput
	queryParams
	Limit int `flag:"limit,n" desc:"maximum activities to return (0 for the service default)" default:"0"`
}

func activitiesCommand(stdout io.Writer) *cli.Command {
	var params activitiesParams
	return &cli.Command{
		Name:    "activities",
		Summary: "List a conversation's activities",
		Usage:   "spark conversation activities <conversation> [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("activities", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one <conversation> argument, got %d", len(args))
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			query, err := params.values()
			if err != nil {
				return err
			}
			if params.Limit > 0 {
				if query == nil {
					query = url.Values{}
				}
				query.Set("limit", strconv.Itoa(params.Limit))
			}
			return params.withSession("activities", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				activities, err := s.client.ListActivities(ctx, ref, libconversation.ListOptions{Query: query})
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(stdout, activities); done {
					return err
				}
				return printActivities(stdout, activities)
			})
		},
	}
}

type mentionsParams struct {
	Connection
	cli.JSONOutput
	queryParams
}

func mentionsCommand(stdout io.Writer) *cli.Command {
	var params mentionsParams
	return &cli.Command{
		Name:    "mentions",
		Summary: "List activities that mention the caller",
		Usage:   "spark conversation mentions [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("mentions", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument %q", args[0])
			}
			query, err := params.values()
			if err != nil {
				return err
			}
			return params.withSession("mentions", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				mentions, err := s.client.ListMentions(ctx, libconversation.ListOptions{Query: query})
				if err != nil {
					return err
				}
				if done, err := params.EmitJSON(stdout, mentions); done {
					return err
				}
				return printActivities(stdout, mentions)
			})
		},
	}
}
