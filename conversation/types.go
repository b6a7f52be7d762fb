// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/stonedpebbles/spark/lib/codec"
	"github.com/stonedpebbles/spark/lib/kms"
)

// Object types recognized by the conversation service.
const (
	ObjectTypeActivity     = "activity"
	ObjectTypeComment      = "comment"
	ObjectTypeContent      = "content"
	ObjectTypeConversation = "conversation"
	ObjectTypeFile         = "file"
	ObjectTypePerson       = "person"
	ObjectTypeTag          = "tag"
	ObjectTypeTeam         = "team"
)

// Verbs submitted by this package.
const (
	VerbAcknowledge       = "acknowledge"
	VerbAdd               = "add"
	VerbAssignModerator   = "assignModerator"
	VerbCreate            = "create"
	VerbDelete            = "delete"
	VerbFavorite          = "favorite"
	VerbHide              = "hide"
	VerbLeave             = "leave"
	VerbLock              = "lock"
	VerbMute              = "mute"
	VerbPost              = "post"
	VerbShare             = "share"
	VerbTag               = "tag"
	VerbUnassignModerator = "unassignModerator"
	VerbUnfavorite        = "unfavorite"
	VerbUnhide            = "unhide"
	VerbUnlock            = "unlock"
	VerbUnmute            = "unmute"
	VerbUntag             = "untag"
	VerbUpdate            = "update"
	VerbUpdateKey         = "updateKey"
)

// TagOneOnOne marks a two-party conversation that the server
// deduplicates by participant pair.
const TagOneOnOne = "ONE_ON_ONE"

// Key is an encryption key reference. Only the URI is sent to the
// service.
type Key = kms.Key

// Identity is the acting user. It is threaded explicitly into every
// activity build.
type Identity struct {
	// UserID is the caller's user UUID; it becomes the default actor.
	UserID string
	// DeviceURL identifies the caller's registered device.
	DeviceURL string
}

// Object is a generic activity-stream entity: a person, a comment, a
// conversation reference, a tag set, shared content.
//
// A bare JSON string decodes to a person with that id.
type Object struct {
	ID                              string                `json:"id,omitempty"`
	URL                             string                `json:"url,omitempty"`
	ObjectType                      string                `json:"objectType,omitempty"`
	DisplayName                     string                `json:"displayName,omitempty"`
	Content                         string                `json:"content,omitempty"`
	EmailAddress                    string                `json:"emailAddress,omitempty"`
	DefaultActivityEncryptionKeyURL string                `json:"defaultActivityEncryptionKeyUrl,omitempty"`
	KMSResourceObjectURL            string                `json:"kmsResourceObjectUrl,omitempty"`
	EncryptionKeyURL                string                `json:"encryptionKeyUrl,omitempty"`
	ContentCategory                 string                `json:"contentCategory,omitempty"`
	Files                           *ItemCollection[File] `json:"files,omitempty"`
	Tags                            []string              `json:"tags,omitempty"`
	Published                       *time.Time            `json:"published,omitempty"`
}

// UnmarshalJSON accepts either an object or a bare person id.
func (o *Object) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var id string
		if err := json.Unmarshal(trimmed, &id); err != nil {
			return err
		}
		*o = Object{ID: id, ObjectType: ObjectTypePerson}
		return nil
	}
	type plain Object
	return json.Unmarshal(data, (*plain)(o))
}

// Person returns a person reference for id.
func Person(id string) *Object {
	return &Object{ID: id, ObjectType: ObjectTypePerson}
}

// Clone returns a deep copy of o. A nil receiver returns nil.
func (o *Object) Clone() *Object {
	if o == nil {
		return nil
	}
	clone := *o
	clone.Tags = slices.Clone(o.Tags)
	if o.Files != nil {
		clone.Files = &ItemCollection[File]{Items: slices.Clone(o.Files.Items)}
	}
	if o.Published != nil {
		published := *o.Published
		clone.Published = &published
	}
	return &clone
}

// isBareReference reports whether o carries nothing but an id: the Go
// form of an actor given as a plain identifier.
func (o *Object) isBareReference() bool {
	if o == nil || o.ID == "" {
		return false
	}
	return o.URL == "" && o.ObjectType == "" && o.DisplayName == "" &&
		o.Content == "" && o.EmailAddress == "" && o.ContentCategory == "" &&
		o.DefaultActivityEncryptionKeyURL == "" && o.KMSResourceObjectURL == "" &&
		o.EncryptionKeyURL == "" && o.Files == nil && o.Tags == nil && o.Published == nil
}

// File is one attachment of shared content.
type File struct {
	ObjectType  string `json:"objectType,omitempty"`
	DisplayName string `json:"displayName,omitempty"`
	MimeType    string `json:"mimeType,omitempty"`
	FileSize    int64  `json:"fileSize,omitempty"`
	URL         string `json:"url,omitempty"`
}

// IsImage reports whether the file's mime type is an image type.
func (f File) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(f.MimeType), "image/")
}

// ItemCollection is the {"items": [...]} envelope used throughout the
// service's wire format.
type ItemCollection[T any] struct {
	Items []T `json:"items"`
}

// Activity is a single verb-shaped event against a conversation.
type Activity struct {
	ID               string      `json:"id,omitempty"`
	URL              string      `json:"url,omitempty"`
	Verb             string      `json:"verb,omitempty"`
	Actor            *Object     `json:"actor,omitempty"`
	Object           *Object     `json:"object,omitempty"`
	Target           *Object     `json:"target,omitempty"`
	KMSMessage       *KMSMessage `json:"kmsMessage,omitempty"`
	ClientTempID     string      `json:"clientTempId,omitempty"`
	ObjectType       string      `json:"objectType,omitempty"`
	Published        *time.Time  `json:"published,omitempty"`
	EncryptionKeyURL string      `json:"encryptionKeyUrl,omitempty"`
}

// Clone returns a deep copy of a. A nil receiver returns nil.
func (a *Activity) Clone() *Activity {
	if a == nil {
		return nil
	}
	clone := *a
	clone.Actor = a.Actor.Clone()
	clone.Object = a.Object.Clone()
	clone.Target = a.Target.Clone()
	clone.KMSMessage = a.KMSMessage.Clone()
	if a.Published != nil {
		published := *a.Published
		clone.Published = &published
	}
	return &clone
}

// Fingerprint is a stable digest of the activity's content, ignoring
// clientTempId. Two builds from the same inputs have equal
// fingerprints.
func (a *Activity) Fingerprint() (string, error) {
	clone := a.Clone()
	clone.ClientTempID = ""
	return codec.Digest(clone)
}

// Conversation is the service's view of a conversation. The same type
// is the creation payload.
type Conversation struct {
	ID                              string                    `json:"id,omitempty"`
	URL                             string                    `json:"url,omitempty"`
	ObjectType                      string                    `json:"objectType,omitempty"`
	DisplayName                     string                    `json:"displayName,omitempty"`
	DefaultActivityEncryptionKeyURL string                    `json:"defaultActivityEncryptionKeyUrl,omitempty"`
	KMSResourceObjectURL            string                    `json:"kmsResourceObjectUrl,omitempty"`
	EncryptionKeyURL                string                    `json:"encryptionKeyUrl,omitempty"`
	KMSMessage                      *KMSMessage               `json:"kmsMessage,omitempty"`
	Tags                            []string                  `json:"tags,omitempty"`
	Participants                    *ItemCollection[Object]   `json:"participants,omitempty"`
	Activities                      *ItemCollection[Activity] `json:"activities,omitempty"`
	Published                       *time.Time                `json:"published,omitempty"`
	LastActivity                    *time.Time                `json:"lastActivity,omitempty"`
}

// Ref returns a reference to c suitable as an activity target.
func (c *Conversation) Ref() *Object {
	return &Object{
		ID:                              c.ID,
		URL:                             c.URL,
		ObjectType:                      ObjectTypeConversation,
		DefaultActivityEncryptionKeyURL: c.DefaultActivityEncryptionKeyURL,
		KMSResourceObjectURL:            c.KMSResourceObjectURL,
	}
}

// ParticipantIDs returns the ids of c's participants in order.
func (c *Conversation) ParticipantIDs() []string {
	if c.Participants == nil {
		return nil
	}
	ids := make([]string, 0, len(c.Participants.Items))
	for _, participant := range c.Participants.Items {
		if participant.ID != "" {
			ids = append(ids, participant.ID)
		}
	}
	return ids
}

// HasTag reports whether c carries tag.
func (c *Conversation) HasTag(tag string) bool {
	return slices.Contains(c.Tags, tag)
}

// Team is a group of conversations sharing a key-resource-object.
type Team struct {
	ID                              string      `json:"id,omitempty"`
	URL                             string      `json:"url,omitempty"`
	ObjectType                      string      `json:"objectType,omitempty"`
	DisplayName                     string      `json:"displayName,omitempty"`
	DefaultActivityEncryptionKeyURL string      `json:"defaultActivityEncryptionKeyUrl,omitempty"`
	EncryptionKeyURL                string      `json:"encryptionKeyUrl,omitempty"`
	KMSResourceObjectURL            string      `json:"kmsResourceObjectUrl,omitempty"`
	KMSMessage                      *KMSMessage `json:"kmsMessage,omitempty"`
}

// Ref returns a reference to t suitable as an activity target.
func (t *Team) Ref() *Object {
	return &Object{
		ID:                              t.ID,
		URL:                             t.URL,
		ObjectType:                      ObjectTypeTeam,
		DefaultActivityEncryptionKeyURL: t.DefaultActivityEncryptionKeyURL,
		KMSResourceObjectURL:            t.KMSResourceObjectURL,
	}
}
