// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"golang.org/x/sync/errgroup"

	"github.com/stonedpebbles/spark/lib/request"
)

// CreateParams describe a new conversation.
type CreateParams struct {
	// Participants to include besides the caller. Required.
	Participants []string
	// DisplayName titles a grouped conversation.
	DisplayName string
	// Comment, if set, is posted as the first message.
	Comment string
	// Tags are attached to the new conversation.
	Tags []string
	// Favorite marks the new conversation as a favorite.
	Favorite bool
}

// CreateOptions modify how Create chooses its path.
type CreateOptions struct {
	// ForceGrouped creates a grouped conversation even for two
	// participants, skipping the one-on-one lookup.
	ForceGrouped bool
}

// Create starts a conversation between the caller and
// params.Participants.
//
// Participants are resolved to UUIDs (creating unknown users), the
// caller is prepended, and duplicates are dropped. Exactly two
// participants without ForceGrouped returns the existing one-on-one
// conversation when there is one, posting params.Comment into it;
// otherwise a new conversation is created.
func (c *Client) Create(ctx context.Context, params CreateParams, options CreateOptions) (*Conversation, error) {
	if len(params.Participants) == 0 {
		return nil, &ValidationError{Operation: "create", Reason: "participants are required"}
	}

	resolved := make([]string, len(params.Participants))
	group, groupCtx := errgroup.WithContext(ctx)
	for i, participant := range params.Participants {
		group.Go(func() error {
			id, err := c.identities.AsUUID(groupCtx, participant, true)
			if err != nil {
				return fmt.Errorf("conversation: resolving participant %q: %w", participant, err)
			}
			resolved[i] = id
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	participants := dedupe(append([]string{c.identity.UserID}, resolved...))
	if len(participants) == 2 && !options.ForceGrouped {
		return c.createOrGetOneOnOne(ctx, participants, params)
	}
	return c.createGrouped(ctx, participants, params)
}

// createOrGetOneOnOne looks up the existing conversation with the other
// participant, falling back to creation only when the lookup returns
// 404. Concurrent callers may both miss and both create; the server
// returns the same conversation to each.
func (c *Client) createOrGetOneOnOne(ctx context.Context, participants []string, params CreateParams) (*Conversation, error) {
	other := participants[1]
	existing, err := c.getByUser(ctx, other, GetOptions{})
	if err != nil {
		if !request.IsNotFound(err) {
			return nil, err
		}
		c.logger.Debug("no one-on-one conversation yet, creating", "participant_id", other)
		params.Tags = []string{TagOneOnOne}
		return c.createGrouped(ctx, participants, params)
	}

	if params.Comment != "" {
		posted, err := c.Post(ctx, existing.Ref(), Comment{DisplayName: params.Comment}, nil)
		if err != nil {
			return nil, err
		}
		if existing.Activities == nil {
			existing.Activities = &ItemCollection[Activity]{}
		}
		existing.Activities.Items = append(existing.Activities.Items, *posted)
	}
	return existing, nil
}

// createGrouped submits a new conversation.
func (c *Client) createGrouped(ctx context.Context, participants []string, params CreateParams) (*Conversation, error) {
	payload, err := c.creationPayload(participants, params)
	if err != nil {
		return nil, err
	}

	response, err := c.requester.Do(ctx, request.Descriptor{
		Method:   http.MethodPost,
		Service:  ServiceName,
		Resource: "conversations",
		Body:     payload,
	})
	if err != nil {
		return nil, err
	}

	var created Conversation
	if err := response.Decode(&created); err != nil {
		return nil, fmt.Errorf("conversation: decoding created conversation: %w", err)
	}
	if err := c.processConversation(ctx, &created); err != nil {
		return nil, err
	}
	c.logger.Info("conversation created",
		"conversation_url", created.URL,
		"participants", len(participants),
		"one_on_one", created.HasTag(TagOneOnOne),
	)
	return &created, nil
}

// creationPayload builds the conversation body: a create activity by
// the caller, an add for every participant, then the optional comment
// and favorite.
func (c *Client) creationPayload(participants []string, params CreateParams) (*Conversation, error) {
	activities := []Activity{c.expand(VerbCreate, nil)}
	for _, participant := range participants {
		activities = append(activities, c.expand(VerbAdd, Person(participant)))
	}
	if params.Comment != "" {
		activities = append(activities, c.expand(VerbPost, &Object{
			ObjectType:  ObjectTypeComment,
			DisplayName: params.Comment,
		}))
	}
	if params.Favorite {
		activities = append(activities, c.expand(VerbFavorite, nil))
	}
	for i := range activities {
		if err := ValidateObjectTypes(&activities[i]); err != nil {
			return nil, err
		}
	}

	return &Conversation{
		ObjectType:  ObjectTypeConversation,
		DisplayName: params.DisplayName,
		Activities:  &ItemCollection[Activity]{Items: activities},
		KMSMessage:  CreateResource(participants, nil),
		Tags:        slices.Clone(params.Tags),
	}, nil
}

// expand is the minimal activity embedded in a creation payload.
func (c *Client) expand(verb string, object *Object) Activity {
	return Activity{
		Verb:       verb,
		Actor:      c.self(),
		Object:     object,
		ObjectType: ObjectTypeActivity,
	}
}

// dedupe drops repeated ids, keeping first occurrences in order.
func dedupe(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			result = append(result, id)
		}
	}
	return result
}
