// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/stonedpebbles/spark/lib/request"
)

// GetOptions control a single-conversation fetch.
type GetOptions struct {
	// User, if set, fetches the one-on-one conversation with this
	// participant instead of the referenced conversation.
	User string
	// ActivitiesLimit is how many recent activities to embed.
	ActivitiesLimit int
	// IncludeParticipants embeds the participant list.
	IncludeParticipants bool
	// Query overrides any parameter above.
	Query url.Values
}

func (o GetOptions) query() url.Values {
	return overlay(url.Values{
		"uuidEntryFormat":     {"true"},
		"personRefresh":       {"true"},
		"activitiesLimit":     {strconv.Itoa(o.ActivitiesLimit)},
		"includeParticipants": {strconv.FormatBool(o.IncludeParticipants)},
	}, o.Query)
}

// Get fetches a conversation by reference, or the one-on-one
// conversation with options.User.
func (c *Client) Get(ctx context.Context, ref *Object, options GetOptions) (*Conversation, error) {
	if options.User != "" {
		id, err := c.identities.AsUUID(ctx, options.User, false)
		if err != nil {
			return nil, err
		}
		return c.getByUser(ctx, id, options)
	}

	target, err := c.resolveTarget(ctx, ref)
	if err != nil {
		return nil, err
	}
	return c.fetch(ctx, request.Descriptor{URI: target.URL, Query: options.query()})
}

// getByUser fetches the one-on-one conversation with userID. A missing
// conversation is returned as a 404 *request.ServiceError.
func (c *Client) getByUser(ctx context.Context, userID string, options GetOptions) (*Conversation, error) {
	return c.fetch(ctx, request.Descriptor{
		Service:  ServiceName,
		Resource: "conversations/user/" + url.PathEscape(userID),
		Query:    options.query(),
	})
}

func (c *Client) fetch(ctx context.Context, descriptor request.Descriptor) (*Conversation, error) {
	response, err := c.requester.Do(ctx, descriptor)
	if err != nil {
		return nil, err
	}
	var conversation Conversation
	if err := response.Decode(&conversation); err != nil {
		return nil, fmt.Errorf("conversation: decoding conversation: %w", err)
	}
	if err := c.processConversation(ctx, &conversation); err != nil {
		return nil, err
	}
	return &conversation, nil
}
