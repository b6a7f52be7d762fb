// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"errors"
	"fmt"
	"testing"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("temp-%d", n)
	}
}

var alice = Identity{UserID: "a11ce000-0000-4000-8000-000000000001"}

func TestPrepareDefaults(t *testing.T) {
	builder := NewBuilder(sequentialIDs())
	kmsMessage := CreateAuthorization("u-bob")

	activity, err := builder.Prepare(context.Background(), alice, nil, Params{
		Verb:       VerbAdd,
		KMSMessage: kmsMessage,
		Object:     Person("u-bob"),
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if activity.Verb != VerbAdd {
		t.Errorf("verb = %q", activity.Verb)
	}
	if activity.ObjectType != ObjectTypeActivity {
		t.Errorf("objectType = %q", activity.ObjectType)
	}
	if activity.ClientTempID != "temp-1" {
		t.Errorf("clientTempId = %q", activity.ClientTempID)
	}
	if activity.Actor == nil || activity.Actor.ID != alice.UserID || activity.Actor.ObjectType != ObjectTypePerson {
		t.Errorf("actor = %+v, want person %s", activity.Actor, alice.UserID)
	}
	if activity.KMSMessage == kmsMessage {
		t.Error("kmsMessage should be copied, not shared with params")
	}
	if activity.KMSMessage.ResourceURI != KROPlaceholder {
		t.Errorf("kmsMessage = %+v", activity.KMSMessage)
	}
}

func TestPrepareNormalizesActorFromParams(t *testing.T) {
	builder := NewBuilder(sequentialIDs())

	activity, err := builder.Prepare(context.Background(), Identity{}, nil, Params{
		Verb:   VerbAdd,
		Actor:  &Object{ID: "u-dana"},
		Object: Person("u-bob"),
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if activity.Actor.ID != "u-dana" || activity.Actor.ObjectType != ObjectTypePerson {
		t.Errorf("actor = %+v, want person u-dana", activity.Actor)
	}
}

func TestPrepareNeverOverwritesDraft(t *testing.T) {
	builder := NewBuilder(sequentialIDs())
	draft := &Activity{
		Verb:         "custom",
		ClientTempID: "caller-temp",
		Actor:        &Object{ID: "u-carol"},
		Object:       &Object{ObjectType: ObjectTypeComment, DisplayName: "mine"},
	}

	activity, err := builder.Prepare(context.Background(), alice, draft, Params{
		Verb:   VerbPost,
		Object: &Object{ObjectType: ObjectTypeComment, DisplayName: "theirs", Content: "<b>theirs</b>"},
	})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if activity.Verb != "custom" || activity.ClientTempID != "caller-temp" {
		t.Errorf("draft fields overwritten: verb=%q clientTempId=%q", activity.Verb, activity.ClientTempID)
	}
	if activity.Actor.ID != "u-carol" || activity.Actor.ObjectType != ObjectTypePerson {
		t.Errorf("actor = %+v, want normalized u-carol", activity.Actor)
	}
	if activity.Object.DisplayName != "mine" {
		t.Errorf("object displayName = %q, want draft value", activity.Object.DisplayName)
	}
	if activity.Object.Content != "<b>theirs</b>" {
		t.Errorf("object content = %q, want filled from params", activity.Object.Content)
	}
	if draft.Actor.ObjectType != "" {
		t.Error("draft was mutated")
	}
}

func TestPrepareHook(t *testing.T) {
	builder := NewBuilder(sequentialIDs())
	var seen Params
	hook := PrepareFunc(func(_ context.Context, params Params) (*Activity, error) {
		seen = params
		return &Activity{ClientTempID: "from-hook"}, nil
	})

	activity, err := builder.Prepare(context.Background(), alice, hook, Params{Verb: VerbLock})
	if err != nil {
		t.Fatalf("Prepare: %v", err)
	}
	if seen.Verb != VerbLock {
		t.Errorf("hook saw verb %q", seen.Verb)
	}
	if activity.ClientTempID != "from-hook" || activity.Verb != VerbLock {
		t.Errorf("activity = %+v", activity)
	}

	failing := PrepareFunc(func(context.Context, Params) (*Activity, error) {
		return nil, errors.New("hook exploded")
	})
	if _, err := builder.Prepare(context.Background(), alice, failing, Params{}); err == nil {
		t.Error("expected hook error to propagate")
	}
}

func TestApplyTargetAllowList(t *testing.T) {
	activity := &Activity{Target: &Object{ID: "old", ObjectType: ObjectTypeConversation, DisplayName: "kept"}}
	ApplyTarget(activity, &Object{
		URL:                             "https://conv.example/conversations/new",
		ID:                              "new",
		ObjectType:                      ObjectTypeConversation,
		DisplayName:                     "ignored",
		Content:                         "ignored",
		DefaultActivityEncryptionKeyURL: "kms://k/1",
		KMSResourceObjectURL:            "kms://r/1",
	})

	target := activity.Target
	if target.ID != "new" || target.URL != "https://conv.example/conversations/new" {
		t.Errorf("id/url not overwritten: %+v", target)
	}
	if target.DisplayName != "kept" || target.Content != "" {
		t.Errorf("non-allow-listed fields leaked: %+v", target)
	}
	if target.DefaultActivityEncryptionKeyURL != "kms://k/1" || target.KMSResourceObjectURL != "kms://r/1" {
		t.Errorf("key fields not applied: %+v", target)
	}
}

func TestDeriveIDs(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://conv.example/conversations/abc-123", "abc-123"},
		{"https://conv.example/activities/xyz", "xyz"},
		{"https://conv.example/conversations/abc/", "abc"},
		{"opaque", "opaque"},
	}
	for _, test := range tests {
		t.Run(test.url, func(t *testing.T) {
			activity := &Activity{
				Object: &Object{URL: test.url, ObjectType: ObjectTypeActivity},
				Target: &Object{URL: test.url, ObjectType: ObjectTypeConversation},
			}
			DeriveIDs(activity)
			if activity.Object.ID != test.want || activity.Target.ID != test.want {
				t.Errorf("ids = %q/%q, want %q", activity.Object.ID, activity.Target.ID, test.want)
			}
		})
	}

	t.Run("existing id kept", func(t *testing.T) {
		activity := &Activity{Target: &Object{ID: "given", URL: "https://x/conversations/other"}}
		DeriveIDs(activity)
		if activity.Target.ID != "given" {
			t.Errorf("id = %q", activity.Target.ID)
		}
	})
}

func TestPrepareRequiresObjectTypes(t *testing.T) {
	builder := NewBuilder(sequentialIDs())
	tests := []struct {
		name   string
		draft  *Activity
		params Params
		field  string
	}{
		{
			name:   "object without objectType",
			params: Params{Verb: VerbPost, Object: &Object{DisplayName: "hi"}},
			field:  "object",
		},
		{
			name:   "target without objectType",
			params: Params{Verb: VerbPost, Target: &Object{ID: "c1"}},
			field:  "target",
		},
		{
			name:  "structured actor without objectType",
			draft: &Activity{Actor: &Object{ID: "u-1", DisplayName: "Dana"}},
			field: "actor",
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			var draft Draft
			if test.draft != nil {
				draft = test.draft
			}
			_, err := builder.Prepare(context.Background(), alice, draft, test.params)
			var constructionErr *ConstructionError
			if !errors.As(err, &constructionErr) {
				t.Fatalf("expected ConstructionError, got %v", err)
			}
			if constructionErr.Field != test.field {
				t.Errorf("field = %q, want %q", constructionErr.Field, test.field)
			}
		})
	}
}

func TestPrepareRejectsContentWithoutDisplayName(t *testing.T) {
	builder := NewBuilder(sequentialIDs())
	_, err := builder.Prepare(context.Background(), alice, nil, Params{
		Verb:   VerbPost,
		Object: &Object{ObjectType: ObjectTypeComment, Content: "<p>rich</p>"},
	})
	if !IsValidationError(err) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
}

func TestPrepareIsIdempotentApartFromClientTempID(t *testing.T) {
	builder := NewBuilder(nil)
	params := Params{
		Verb:   VerbPost,
		Target: &Object{URL: "https://conv.example/conversations/c1", ObjectType: ObjectTypeConversation},
		Object: &Object{ObjectType: ObjectTypeComment, DisplayName: "same"},
	}

	first, err := builder.Prepare(context.Background(), alice, nil, params)
	if err != nil {
		t.Fatal(err)
	}
	second, err := builder.Prepare(context.Background(), alice, nil, params)
	if err != nil {
		t.Fatal(err)
	}
	if first.ClientTempID == second.ClientTempID {
		t.Error("clientTempId should differ between builds")
	}

	firstPrint, err := first.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	secondPrint, err := second.Fingerprint()
	if err != nil {
		t.Fatal(err)
	}
	if firstPrint != secondPrint {
		t.Errorf("fingerprints differ: %s vs %s", firstPrint, secondPrint)
	}

	second.Object.DisplayName = "different"
	changed, _ := second.Fingerprint()
	if changed == firstPrint {
		t.Error("fingerprint ignores object content")
	}
}
