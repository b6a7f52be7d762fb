// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	libconversation "github.com/stonedpebbles/spark/conversation"
)

func printConversations(w io.Writer, conversations []libconversation.Conversation) error {
	if len(conversations) == 0 {
		_, err := fmt.Fprintln(w, "no conversations")
		return err
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tPARTICIPANTS\tLAST ACTIVITY")
	for i := range conversations {
		conversation := &conversations[i]
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			conversation.ID,
			orDash(conversation.DisplayName),
			len(conversation.ParticipantIDs()),
			formatTime(conversation.LastActivity),
		)
	}
	return tw.Flush()
}

func printConversation(w io.Writer, conversation *libconversation.Conversation) error {
	fmt.Fprintf(w, "id:     %s\n", conversation.ID)
	fmt.Fprintf(w, "url:    %s\n", conversation.URL)
	fmt.Fprintf(w, "title:  %s\n", orDash(conversation.DisplayName))
	if len(conversation.Tags) > 0 {
		fmt.Fprintf(w, "tags:   %v\n", conversation.Tags)
	}
	if conversation.DefaultActivityEncryptionKeyURL != "" {
		fmt.Fprintf(w, "key:    %s\n", conversation.DefaultActivityEncryptionKeyURL)
	}
	for _, participant := range conversation.ParticipantIDs() {
		fmt.Fprintf(w, "member: %s\n", participant)
	}
	if conversation.Activities != nil && len(conversation.Activities.Items) > 0 {
		fmt.Fprintln(w)
		return printActivities(w, conversation.Activities.Items)
	}
	return nil
}

func printActivities(w io.Writer, activities []libconversation.Activity) error {
	if len(activities) == 0 {
		_, err := fmt.Fprintln(w, "no activities")
		return err
	}
	tw := tabwriter.NewWriter(w, 2, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PUBLISHED\tVERB\tACTOR\tCONTENT")
	for i := range activities {
		activity := &activities[i]
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			formatTime(activity.Published),
			activity.Verb,
			actorName(activity),
			orDash(activityContent(activity)),
		)
	}
	return tw.Flush()
}

func printActivity(w io.Writer, activity *libconversation.Activity) error {
	_, err := fmt.Fprintf(w, "%s %s (%s)\n", activity.Verb, orDash(activity.ID), formatTime(activity.Published))
	return err
}

func actorName(activity *libconversation.Activity) string {
	if activity.Actor == nil {
		return "-"
	}
	if activity.Actor.DisplayName != "" {
		return activity.Actor.DisplayName
	}
	if activity.Actor.EmailAddress != "" {
		return activity.Actor.EmailAddress
	}
	return orDash(activity.Actor.ID)
}

func activityContent(activity *libconversation.Activity) string {
	if activity.Object == nil {
		return ""
	}
	if activity.Object.DisplayName != "" {
		return activity.Object.DisplayName
	}
	return activity.Object.Content
}

func formatTime(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "-"
	}
	return t.UTC().Format(time.RFC3339)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
