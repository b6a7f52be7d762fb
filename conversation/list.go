// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/stonedpebbles/spark/lib/request"
)

// listDefaults sit beneath every list query; caller values win.
var listDefaults = url.Values{
	"personRefresh":     {"true"},
	"uuidEntryFormat":   {"true"},
	"activitiesLimit":   {"0"},
	"participantsLimit": {"0"},
}

// ListOptions are passed through to the service as query parameters.
type ListOptions struct {
	// Query overrides and extends the list defaults.
	Query url.Values
}

// lister fetches one collection resource and normalizes its items.
type lister[T any] struct {
	client    *Client
	resource  string
	published func(*T) *time.Time
	process   func(context.Context, *T) error
}

// list returns resource's items in ascending published order, each
// processed before return.
func (l lister[T]) list(ctx context.Context, query url.Values) ([]T, error) {
	merged := overlay(listDefaults, query)
	response, err := l.client.requester.Do(ctx, request.Descriptor{
		Service:  ServiceName,
		Resource: l.resource,
		Query:    merged,
	})
	if err != nil {
		return nil, err
	}

	var collection ItemCollection[T]
	if err := response.Decode(&collection); err != nil {
		return nil, fmt.Errorf("conversation: decoding %s: %w", l.resource, err)
	}
	items := collection.Items
	if len(items) == 0 {
		return []T{}, nil
	}

	// Some backends return newest first.
	first, last := l.published(&items[0]), l.published(&items[len(items)-1])
	if first != nil && last != nil && last.Before(*first) {
		slices.Reverse(items)
	}

	if l.process != nil {
		group, groupCtx := errgroup.WithContext(ctx)
		for i := range items {
			group.Go(func() error {
				return l.process(groupCtx, &items[i])
			})
		}
		if err := group.Wait(); err != nil {
			return nil, err
		}
	}
	return items, nil
}

// overlay returns base with every key present in top replaced by top's
// values.
func overlay(base, top url.Values) url.Values {
	merged := make(url.Values, len(base)+len(top))
	for key, values := range base {
		merged[key] = slices.Clone(values)
	}
	for key, values := range top {
		merged[key] = slices.Clone(values)
	}
	return merged
}

func (c *Client) conversationLister(resource string) lister[Conversation] {
	return lister[Conversation]{
		client:    c,
		resource:  resource,
		published: func(conversation *Conversation) *time.Time { return conversation.Published },
		process:   c.processConversation,
	}
}

func (c *Client) activityLister(resource string) lister[Activity] {
	return lister[Activity]{
		client:    c,
		resource:  resource,
		published: func(activity *Activity) *time.Time { return activity.Published },
		process:   c.processActivity,
	}
}

// List returns the conversations the user participates in.
func (c *Client) List(ctx context.Context, options ListOptions) ([]Conversation, error) {
	return c.conversationLister("conversations").list(ctx, options.Query)
}

// ListLeft returns conversations the user has left.
func (c *Client) ListLeft(ctx context.Context, options ListOptions) ([]Conversation, error) {
	return c.conversationLister("conversations/left").list(ctx, options.Query)
}

// ListActivities returns the activities of the referenced conversation.
func (c *Client) ListActivities(ctx context.Context, ref *Object, options ListOptions) ([]Activity, error) {
	target, err := c.resolveTarget(ctx, ref)
	if err != nil {
		return nil, err
	}
	id := target.ID
	if id == "" {
		id = lastPathSegment(target.URL)
	}
	query := overlay(url.Values{"conversationId": {id}}, options.Query)
	return c.activityLister("activities").list(ctx, query)
}

// ListMentions returns activities that mention the user.
func (c *Client) ListMentions(ctx context.Context, options ListOptions) ([]Activity, error) {
	return c.activityLister("mentions").list(ctx, options.Query)
}

// processConversation records participant UUIDs and decrypts the
// conversation.
func (c *Client) processConversation(ctx context.Context, conversation *Conversation) error {
	c.recordParticipants(ctx, conversation)
	return c.decryptConversation(ctx, conversation)
}

// processActivity records the actor's UUID and decrypts the activity.
func (c *Client) processActivity(ctx context.Context, activity *Activity) error {
	if activity.Actor != nil {
		c.recordPerson(ctx, activity.Actor)
	}
	return c.decryptActivity(ctx, activity)
}

func (c *Client) recordParticipants(ctx context.Context, conversation *Conversation) {
	if conversation.Participants == nil {
		return
	}
	for i := range conversation.Participants.Items {
		c.recordPerson(ctx, &conversation.Participants.Items[i])
	}
}

// recordPerson is bookkeeping: failures are logged, not returned.
func (c *Client) recordPerson(ctx context.Context, person *Object) {
	if person.ID == "" {
		return
	}
	if err := c.identities.RecordUUID(ctx, person.ID, person.EmailAddress); err != nil {
		c.logger.Debug("recording participant uuid failed", "participant_id", person.ID, "error", err)
	}
}
