// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"fmt"
)

// Variant is the structural shape of a simple verb's activity.
type Variant int

const (
	// Bare activities take the conversation itself as object.
	Bare Variant = iota
	// WithTarget activities target the conversation with a caller object.
	WithTarget
	// WithModerationTarget activities target the conversation with a
	// person object, the caller by default.
	WithModerationTarget
)

func (v Variant) String() string {
	switch v {
	case Bare:
		return "bare"
	case WithTarget:
		return "withTarget"
	case WithModerationTarget:
		return "withModerationTarget"
	default:
		return fmt.Sprintf("Variant(%d)", int(v))
	}
}

var simpleVerbs = map[string]Variant{
	VerbFavorite:          Bare,
	VerbUnfavorite:        Bare,
	VerbHide:              Bare,
	VerbUnhide:            Bare,
	VerbLock:              Bare,
	VerbUnlock:            Bare,
	VerbMute:              Bare,
	VerbUnmute:            Bare,
	VerbTag:               WithTarget,
	VerbUntag:             WithTarget,
	VerbAssignModerator:   WithModerationTarget,
	VerbUnassignModerator: WithModerationTarget,
}

// VerbVariant reports the variant of a simple verb. ok is false for
// verbs that are not simple.
func VerbVariant(verb string) (variant Variant, ok bool) {
	variant, ok = simpleVerbs[verb]
	return variant, ok
}

// SimpleOptions parameterize [Client.SimpleActivity].
type SimpleOptions struct {
	// Object is the WithTarget object. For tag and untag it may be
	// omitted in favor of Tags.
	Object *Object
	// Tags build a tag object for tag and untag.
	Tags []string
	// Moderator is the WithModerationTarget person; empty means the
	// caller.
	Moderator string
	// Draft is an optional starting activity.
	Draft Draft
}

// SimpleActivity submits one of the simple verbs (see [VerbVariant])
// against the referenced conversation.
func (c *Client) SimpleActivity(ctx context.Context, verb string, ref *Object, options SimpleOptions) (*Activity, error) {
	variant, ok := VerbVariant(verb)
	if !ok {
		return nil, &ValidationError{Operation: verb, Reason: "not a simple verb"}
	}
	target, err := c.resolveTarget(ctx, ref)
	if err != nil {
		return nil, err
	}

	params := Params{Verb: verb}
	switch variant {
	case Bare:
		params.Object = target
	case WithTarget:
		params.Target = target
		params.Object = options.Object.Clone()
		if params.Object == nil && len(options.Tags) > 0 {
			params.Object = &Object{ObjectType: ObjectTypeTag, Tags: options.Tags}
		}
		if params.Object == nil {
			return nil, &ValidationError{Operation: verb, Reason: "object is required"}
		}
	case WithModerationTarget:
		params.Target = target
		moderator := c.identity.UserID
		if options.Moderator != "" {
			moderator, err = c.identities.AsUUID(ctx, options.Moderator, false)
			if err != nil {
				return nil, err
			}
		}
		params.Object = Person(moderator)
	}

	activity, err := c.Prepare(ctx, options.Draft, params)
	if err != nil {
		return nil, err
	}
	return c.Submit(ctx, activity)
}
