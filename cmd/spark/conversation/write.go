// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"github.com/spf13/pflag"

	"github.com/stonedpebbles/spark/cmd/spark/cli"
	libconversation "github.com/stonedpebbles/spark/conversation"
)

type createParams struct {
	Connection
	cli.JSONOutput
	Title    string   `flag:"title" desc:"title of a grouped conversation"`
	Comment  string   `flag:"comment,m" desc:"first message to post"`
	Tags     []string `flag:"tag" desc:"tag for the new conversation (repeatable)"`
	Favorite bool     `flag:"favorite" desc:"mark the conversation as a favorite"`
	Grouped  bool     `flag:"grouped" desc:"create a grouped conversation even for a single participant"`
}

func createCommand(stdout io.Writer) *cli.Command {
	var params createParams
	return &cli.Command{
		Name:    "create",
		Summary: "Start a conversation",
		Description: `Start a conversation with one or more participants.

Participants may be emails or UUIDs; unknown emails are provisioned.
With a single participant the existing one-on-one conversation is
returned when there is one, and --comment is posted into it.`,
		Usage: "spark conversation create <participant>... [flags]",
		Examples: []cli.Example{
			{Description: "One-on-one", Command: "spark conversation create bob@example.com -m 'hi'"},
			{Description: "Grouped", Command: "spark conversation create bob@example.com carol@example.com --title 'Launch'"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("create", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return errors.New("at least one participant is required")
			}
			return params.withSession("create", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				conversation, err := s.client.Create(ctx, libconversation.CreateParams{
					Participants: args,
					DisplayName:  params.Title,
					Comment:      params.Comment,
					Tags:         params.Tags,
					Favorite:     params.Favorite,
				}, libconversation.CreateOptions{ForceGrouped: params.Grouped})
				if err != nil {
					return err
				}
				s.logger.Info("conversation ready",
					"conversation_id", conversation.ID,
					"participants", len(conversation.ParticipantIDs()),
				)
				if done, err := params.EmitJSON(stdout, conversation); done {
					return err
				}
				return printConversation(stdout, conversation)
			})
		},
	}
}

type postParams struct {
	Connection
	cli.JSONOutput
	Content string   `flag:"content" desc:"rich (HTML) body sent alongside the plain-text message"`
	Files   []string `flag:"file" desc:"URL of a file to share (repeatable)"`
}

func postCommand(stdout io.Writer) *cli.Command {
	var params postParams
	return &cli.Command{
		Name:    "post",
		Summary: "Post a message or share files",
		Usage:   "spark conversation post <conversation> [message...] [flags]",
		Examples: []cli.Example{
			{Command: "spark conversation post 5a1c9d2e 'standup in five'"},
			{Description: "Share a file with a caption", Command: "spark conversation post 5a1c9d2e 'notes' --file https://files.example.com/notes.pdf"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("post", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) == 0 {
				return errors.New("a <conversation> argument is required")
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			message := strings.Join(args[1:], " ")
			if message == "" && len(params.Files) == 0 {
				return errors.New("nothing to post: give a message or --file")
			}
			if message == "" && params.Content != "" {
				return errors.New("--content needs a plain-text message")
			}
			return params.withSession("post", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				var activity *libconversation.Activity
				if len(params.Files) > 0 {
					activity, err = s.client.Share(ctx, ref, libconversation.ShareContent{
						DisplayName: message,
						Content:     params.Content,
						Files:       filesFromURLs(params.Files),
					}, nil)
				} else {
					activity, err = s.client.Post(ctx, ref, libconversation.Comment{
						DisplayName: message,
						Content:     params.Content,
					}, nil)
				}
				if err != nil {
					return err
				}
				return emitActivity(stdout, params.JSONOutput, activity)
			})
		},
	}
}

func filesFromURLs(urls []string) []libconversation.File {
	files := make([]libconversation.File, 0, len(urls))
	for _, raw := range urls {
		name := path.Base(raw)
		files = append(files, libconversation.File{
			ObjectType:  libconversation.ObjectTypeFile,
			DisplayName: name,
			MimeType:    mime.TypeByExtension(path.Ext(name)),
			URL:         raw,
		})
	}
	return files
}

type memberParams struct {
	Connection
	cli.JSONOutput
}

func addCommand(stdout io.Writer) *cli.Command {
	var params memberParams
	return &cli.Command{
		Name:    "add",
		Summary: "Add a participant",
		Usage:   "spark conversation add <conversation> <participant> [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("add", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("want <conversation> <participant>, got %d arguments", len(args))
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			return params.withSession("add", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				activity, err := s.client.Add(ctx, ref, args[1], nil)
				if err != nil {
					return err
				}
				return emitActivity(stdout, params.JSONOutput, activity)
			})
		},
	}
}

func leaveCommand(stdout io.Writer) *cli.Command {
	var params memberParams
	return &cli.Command{
		Name:    "leave",
		Summary: "Remove a participant, the caller by default",
		Usage:   "spark conversation leave <conversation> [participant] [flags]",
		Flags:   func() *pflag.FlagSet { return cli.FlagsFromParams("leave", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) < 1 || len(args) > 2 {
				return fmt.Errorf("want <conversation> [participant], got %d arguments", len(args))
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			return params.withSession("leave", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				participant := s.client.Identity().UserID
				if len(args) == 2 {
					participant = args[1]
				}
				activity, err := s.client.Leave(ctx, ref, participant, nil)
				if err != nil {
					return err
				}
				return emitActivity(stdout, params.JSONOutput, activity)
			})
		},
	}
}

type rotateKeyParams struct {
	Connection
	cli.JSONOutput
	Key string `flag:"key" desc:"existing key URI to bind instead of minting one"`
}

func rotateKeyCommand(stdout io.Writer) *cli.Command {
	var params rotateKeyParams
	return &cli.Command{
		Name:    "rotate-key",
		Summary: "Bind a new encryption key to a conversation",
		Description: `Bind a new default encryption key to a conversation.

A conversation without a key-resource-object gets one created and
authorized for every current participant. Without --key a fresh key is
minted by the local KMS.`,
		Usage: "spark conversation rotate-key <conversation> [flags]",
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("rotate-key", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 1 {
				return fmt.Errorf("want exactly one <conversation> argument, got %d", len(args))
			}
			ref, err := parseRef(args[0])
			if err != nil {
				return err
			}
			var key *libconversation.Key
			if params.Key != "" {
				key = &libconversation.Key{URI: params.Key}
			}
			return params.withSession("rotate-key", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				activity, err := s.client.UpdateKey(ctx, ref, key)
				if err != nil {
					return err
				}
				if activity.Object != nil {
					s.logger.Info("conversation key rotated",
						"key_uri", activity.Object.DefaultActivityEncryptionKeyURL,
					)
				}
				return emitActivity(stdout, params.JSONOutput, activity)
			})
		},
	}
}

type verbParams struct {
	Connection
	cli.JSONOutput
	Tags      []string `flag:"tag" desc:"tag for tag and untag (repeatable)"`
	Moderator string   `flag:"moderator" desc:"person for assignModerator and unassignModerator (default: the caller)"`
}

func verbCommand(stdout io.Writer) *cli.Command {
	var params verbParams
	return &cli.Command{
		Name:    "verb",
		Summary: "Submit a simple activity such as favorite, mute or tag",
		Description: `Submit one of the simple verbs against a conversation:

  favorite unfavorite hide unhide lock unlock mute unmute
  tag untag (with --tag)
  assignModerator unassignModerator (with --moderator, default the caller)`,
		Usage: "spark conversation verb <verb> <conversation> [flags]",
		Examples: []cli.Example{
			{Command: "spark conversation verb mute 5a1c9d2e"},
			{Command: "spark conversation verb tag 5a1c9d2e --tag MESSAGE_NOTIFICATIONS_ON"},
		},
		Flags: func() *pflag.FlagSet { return cli.FlagsFromParams("verb", &params) },
		Run: func(ctx context.Context, args []string) error {
			if len(args) != 2 {
				return fmt.Errorf("want <verb> <conversation>, got %d arguments", len(args))
			}
			verb := args[0]
			if _, ok := libconversation.VerbVariant(verb); !ok {
				return fmt.Errorf("%q is not a simple verb", verb)
			}
			ref, err := parseRef(args[1])
			if err != nil {
				return err
			}
			return params.withSession("verb", func(s *session) error {
				ctx, cancel := callContext(ctx, s)
				defer cancel()

				activity, err := s.client.SimpleActivity(ctx, verb, ref, libconversation.SimpleOptions{
					Tags:      params.Tags,
					Moderator: params.Moderator,
				})
				if err != nil {
					return err
				}
				return emitActivity(stdout, params.JSONOutput, activity)
			})
		},
	}
}

func emitActivity(stdout io.Writer, output cli.JSONOutput, activity *libconversation.Activity) error {
	if done, err := output.EmitJSON(stdout, activity); done {
		return err
	}
	return printActivity(stdout, activity)
}
