// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
)

// Comment is the text of a posted message.
type Comment struct {
	DisplayName string
	Content     string
}

// ShareContent is a set of files posted as one activity.
type ShareContent struct {
	DisplayName string
	Content     string
	Files       []File
}

// Content categories for shared files.
const (
	ContentCategoryImages    = "images"
	ContentCategoryDocuments = "documents"
)

// Post sends a comment to the referenced conversation.
func (c *Client) Post(ctx context.Context, ref *Object, comment Comment, draft Draft) (*Activity, error) {
	return c.submitIntent(ctx, ref, draft, Params{
		Verb: VerbPost,
		Object: &Object{
			ObjectType:  ObjectTypeComment,
			DisplayName: comment.DisplayName,
			Content:     comment.Content,
		},
	})
}

// Share posts files to the referenced conversation. The content is
// categorized as images when every file is an image.
func (c *Client) Share(ctx context.Context, ref *Object, share ShareContent, draft Draft) (*Activity, error) {
	if len(share.Files) == 0 {
		return nil, &ValidationError{Operation: VerbShare, Reason: "at least one file is required"}
	}
	category := ContentCategoryImages
	files := make([]File, len(share.Files))
	for i, file := range share.Files {
		if file.ObjectType == "" {
			file.ObjectType = ObjectTypeFile
		}
		if !file.IsImage() {
			category = ContentCategoryDocuments
		}
		files[i] = file
	}
	return c.submitIntent(ctx, ref, draft, Params{
		Verb: VerbShare,
		Object: &Object{
			ObjectType:      ObjectTypeContent,
			DisplayName:     share.DisplayName,
			Content:         share.Content,
			ContentCategory: category,
			Files:           &ItemCollection[File]{Items: files},
		},
	})
}

// Add adds participant to the referenced conversation and authorizes
// them on its key-resource-object.
func (c *Client) Add(ctx context.Context, ref *Object, participant string, draft Draft) (*Activity, error) {
	id, err := c.identities.AsUUID(ctx, participant, true)
	if err != nil {
		return nil, err
	}
	return c.submitIntent(ctx, ref, draft, Params{
		Verb:       VerbAdd,
		Object:     Person(id),
		KMSMessage: CreateAuthorization(id),
	})
}

// Leave removes participant, or the caller when participant is empty,
// from the referenced conversation and revokes their key authorization.
func (c *Client) Leave(ctx context.Context, ref *Object, participant string, draft Draft) (*Activity, error) {
	id := c.identity.UserID
	if participant != "" {
		resolved, err := c.identities.AsUUID(ctx, participant, false)
		if err != nil {
			return nil, err
		}
		id = resolved
	}
	return c.submitIntent(ctx, ref, draft, Params{
		Verb:       VerbLeave,
		Object:     Person(id),
		KMSMessage: DeleteAuthorization(id),
	})
}

// Acknowledge marks activity as read. Acknowledgements do not count as
// user activity.
func (c *Client) Acknowledge(ctx context.Context, ref *Object, activity *Activity, draft Draft) (*Activity, error) {
	if activity == nil {
		return nil, &ValidationError{Operation: VerbAcknowledge, Reason: "activity is required"}
	}
	return c.submitIntent(ctx, ref, draft, Params{
		Verb:   VerbAcknowledge,
		Object: activityRef(activity),
	})
}

// Update submits a change to the referenced conversation described by
// object (e.g. a new displayName).
func (c *Client) Update(ctx context.Context, ref *Object, object *Object, draft Draft) (*Activity, error) {
	if object == nil {
		return nil, &ValidationError{Operation: VerbUpdate, Reason: "object is required"}
	}
	return c.submitIntent(ctx, ref, draft, Params{
		Verb:   VerbUpdate,
		Object: object,
	})
}

// Delete retracts activity from the referenced conversation.
func (c *Client) Delete(ctx context.Context, ref *Object, activity *Activity, draft Draft) (*Activity, error) {
	if activity == nil {
		return nil, &ValidationError{Operation: VerbDelete, Reason: "activity is required"}
	}
	return c.submitIntent(ctx, ref, draft, Params{
		Verb:   VerbDelete,
		Object: activityRef(activity),
	})
}

// UpdateKey rotates the referenced conversation to key, minting one
// when key is nil. The conversation is re-fetched first so the
// create-or-update decision reflects its current state.
func (c *Client) UpdateKey(ctx context.Context, ref *Object, key *Key) (*Activity, error) {
	target, err := c.resolveTarget(ctx, ref)
	if err != nil {
		return nil, err
	}
	current, err := c.fetchForKeyChange(ctx, target)
	if err != nil {
		return nil, err
	}
	binding, err := c.keys.BindConversation(ctx, current, key)
	if err != nil {
		return nil, err
	}
	activity, err := c.Prepare(ctx, nil, Params{
		Verb:   VerbUpdateKey,
		Target: current.Ref(),
		Object: &Object{
			ObjectType:                      ObjectTypeConversation,
			DefaultActivityEncryptionKeyURL: binding.Key.URI,
		},
		KMSMessage: binding.KMSMessage,
	})
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, activity)
}

func (c *Client) fetchForKeyChange(ctx context.Context, target *Object) (*Conversation, error) {
	current, err := c.Get(ctx, target, GetOptions{ActivitiesLimit: 0, IncludeParticipants: true})
	if err != nil {
		return nil, err
	}
	if current.URL == "" {
		current.URL = target.URL
	}
	if current.ID == "" {
		current.ID = lastPathSegment(current.URL)
	}
	return current, nil
}

// UpdateTeamKey binds a key to team (see [KeyPolicy.BindTeam]) and
// submits the change. recipients are used only when the team has no
// key-resource-object yet. team is updated in place.
func (c *Client) UpdateTeamKey(ctx context.Context, team *Team, recipients []string, supplied *Key, collection []Key) (*Activity, error) {
	if team.URL == "" && team.ID == "" {
		return nil, &ValidationError{Operation: VerbUpdateKey, Reason: "team has neither url nor id"}
	}
	binding, err := c.keys.BindTeam(ctx, team, recipients, supplied, collection)
	if err != nil {
		return nil, err
	}
	activity, err := c.Prepare(ctx, nil, Params{
		Verb:   VerbUpdateKey,
		Target: team.Ref(),
		Object: &Object{
			ObjectType:                      ObjectTypeTeam,
			DefaultActivityEncryptionKeyURL: team.DefaultActivityEncryptionKeyURL,
			EncryptionKeyURL:                team.EncryptionKeyURL,
		},
		KMSMessage: binding.KMSMessage,
	})
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, activity)
}

// submitIntent resolves ref into the target, prepares and submits.
func (c *Client) submitIntent(ctx context.Context, ref *Object, draft Draft, params Params) (*Activity, error) {
	target, err := c.resolveTarget(ctx, ref)
	if err != nil {
		return nil, err
	}
	params.Target = target
	activity, err := c.Prepare(ctx, draft, params)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, activity)
}

func activityRef(activity *Activity) *Object {
	return &Object{
		ID:         activity.ID,
		URL:        activity.URL,
		ObjectType: ObjectTypeActivity,
	}
}
