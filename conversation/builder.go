// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Params are the per-operation inputs to [Builder.Prepare].
type Params struct {
	// Verb defaults the activity's verb.
	Verb string
	// KMSMessage defaults the activity's key instruction.
	KMSMessage *KMSMessage
	// Target is merged into the activity's target, overwriting, limited
	// to the reference fields (id, url, objectType,
	// kmsResourceObjectUrl, defaultActivityEncryptionKeyUrl).
	Target *Object
	// Object and Actor fill empty fields of the activity's object and
	// actor without overwriting.
	Object *Object
	Actor  *Object
}

// Draft is a caller-supplied starting point for an activity.
type Draft interface {
	// Base returns the working activity the builder fills in. The
	// builder owns and mutates the returned value.
	Base(ctx context.Context, params Params) (*Activity, error)
}

// Base returns a copy of a, so preparing never mutates the caller's
// draft.
func (a *Activity) Base(context.Context, Params) (*Activity, error) {
	return a.Clone(), nil
}

// PrepareFunc adapts a preparation hook to [Draft].
type PrepareFunc func(ctx context.Context, params Params) (*Activity, error)

// Base calls f.
func (f PrepareFunc) Base(ctx context.Context, params Params) (*Activity, error) {
	return f(ctx, params)
}

// Builder shapes raw activity inputs into canonical activities. The
// stages run in a fixed order and are exported for direct use:
//
//	Base → Defaults → NormalizeActor → ApplyParams → NormalizeActor →
//	ApplyTarget → DeriveIDs → ValidateObjectTypes → ValidateContent
//
// The second NormalizeActor covers an actor supplied only by params.
//
// Prepare performs no network I/O beyond whatever the draft's own hook
// does.
type Builder struct {
	newID func() string
}

// NewBuilder returns a Builder. newID generates clientTempId values; nil
// uses random UUIDs.
func NewBuilder(newID func() string) *Builder {
	if newID == nil {
		newID = uuid.NewString
	}
	return &Builder{newID: newID}
}

// Prepare runs every stage against draft (which may be nil) and returns
// the finished activity.
func (b *Builder) Prepare(ctx context.Context, identity Identity, draft Draft, params Params) (*Activity, error) {
	activity, err := b.Base(ctx, draft, params)
	if err != nil {
		return nil, err
	}
	b.Defaults(activity, identity, params)
	NormalizeActor(activity)
	ApplyParams(activity, params)
	NormalizeActor(activity)
	ApplyTarget(activity, params.Target)
	DeriveIDs(activity)
	if err := ValidateObjectTypes(activity); err != nil {
		return nil, err
	}
	if err := ValidateContent(activity); err != nil {
		return nil, err
	}
	return activity, nil
}

// Base returns the working activity: the draft's hook output, or an
// empty activity when draft is nil or its hook returns nil.
func (b *Builder) Base(ctx context.Context, draft Draft, params Params) (*Activity, error) {
	if draft == nil {
		return &Activity{}, nil
	}
	activity, err := draft.Base(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("conversation: preparing draft activity: %w", err)
	}
	if activity == nil {
		return &Activity{}, nil
	}
	return activity, nil
}

// Defaults fills verb, kmsMessage, objectType, clientTempId and actor
// where they are empty.
func (b *Builder) Defaults(activity *Activity, identity Identity, params Params) {
	if activity.Verb == "" {
		activity.Verb = params.Verb
	}
	if activity.KMSMessage == nil {
		activity.KMSMessage = params.KMSMessage.Clone()
	}
	if activity.ObjectType == "" {
		activity.ObjectType = ObjectTypeActivity
	}
	if activity.ClientTempID == "" {
		activity.ClientTempID = b.newID()
	}
	if activity.Actor == nil && identity.UserID != "" {
		activity.Actor = &Object{ID: identity.UserID}
	}
}

// NormalizeActor turns an actor given as a bare id into a person.
func NormalizeActor(activity *Activity) {
	if activity.Actor.isBareReference() {
		activity.Actor.ObjectType = ObjectTypePerson
	}
}

// ApplyParams fills empty fields of the activity's actor and object
// from params.
func ApplyParams(activity *Activity, params Params) {
	if params.Actor != nil {
		if activity.Actor == nil {
			activity.Actor = &Object{}
		}
		fillEmpty(activity.Actor, params.Actor)
	}
	if params.Object != nil {
		if activity.Object == nil {
			activity.Object = &Object{}
		}
		fillEmpty(activity.Object, params.Object)
	}
}

// ApplyTarget copies target's reference fields onto the activity's
// target, overwriting. Other fields of target are ignored.
func ApplyTarget(activity *Activity, target *Object) {
	if target == nil {
		return
	}
	if activity.Target == nil {
		activity.Target = &Object{}
	}
	overwrite := func(dst *string, src string) {
		if src != "" {
			*dst = src
		}
	}
	overwrite(&activity.Target.ID, target.ID)
	overwrite(&activity.Target.URL, target.URL)
	overwrite(&activity.Target.ObjectType, target.ObjectType)
	overwrite(&activity.Target.KMSResourceObjectURL, target.KMSResourceObjectURL)
	overwrite(&activity.Target.DefaultActivityEncryptionKeyURL, target.DefaultActivityEncryptionKeyURL)
}

// DeriveIDs sets a missing object or target id from the final path
// segment of its url.
func DeriveIDs(activity *Activity) {
	for _, object := range []*Object{activity.Object, activity.Target} {
		if object != nil && object.ID == "" && object.URL != "" {
			object.ID = lastPathSegment(object.URL)
		}
	}
}

// ValidateObjectTypes fails with *ConstructionError when a populated
// actor, object or target has no objectType.
func ValidateObjectTypes(activity *Activity) error {
	for _, field := range []struct {
		name   string
		object *Object
	}{
		{"actor", activity.Actor},
		{"object", activity.Object},
		{"target", activity.Target},
	} {
		if field.object != nil && field.object.ObjectType == "" {
			return &ConstructionError{Field: field.name}
		}
	}
	return nil
}

// ValidateContent rejects an object with content but no displayName.
func ValidateContent(activity *Activity) error {
	if activity.Object != nil && activity.Object.Content != "" && activity.Object.DisplayName == "" {
		return &ValidationError{
			Operation: "prepare " + activity.Verb,
			Reason:    "object.content requires object.displayName",
		}
	}
	return nil
}

// fillEmpty copies every non-empty field of src into the matching empty
// field of dst.
func fillEmpty(dst, src *Object) {
	fill := func(d *string, s string) {
		if *d == "" {
			*d = s
		}
	}
	fill(&dst.ID, src.ID)
	fill(&dst.URL, src.URL)
	fill(&dst.ObjectType, src.ObjectType)
	fill(&dst.DisplayName, src.DisplayName)
	fill(&dst.Content, src.Content)
	fill(&dst.EmailAddress, src.EmailAddress)
	fill(&dst.DefaultActivityEncryptionKeyURL, src.DefaultActivityEncryptionKeyURL)
	fill(&dst.KMSResourceObjectURL, src.KMSResourceObjectURL)
	fill(&dst.EncryptionKeyURL, src.EncryptionKeyURL)
	fill(&dst.ContentCategory, src.ContentCategory)
	if dst.Files == nil && src.Files != nil {
		dst.Files = src.Clone().Files
	}
	if dst.Tags == nil && src.Tags != nil {
		dst.Tags = append([]string(nil), src.Tags...)
	}
	if dst.Published == nil && src.Published != nil {
		published := *src.Published
		dst.Published = &published
	}
}

func lastPathSegment(rawURL string) string {
	trimmed := strings.TrimRight(rawURL, "/")
	if index := strings.LastIndex(trimmed, "/"); index >= 0 {
		return trimmed[index+1:]
	}
	return trimmed
}
