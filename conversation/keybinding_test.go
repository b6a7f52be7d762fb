// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"testing"
)

type stubMinter struct {
	calls int
	keys  []Key
	err   error
}

func (m *stubMinter) CreateUnboundKeys(_ context.Context, count int) ([]Key, error) {
	m.calls++
	if count != 1 {
		return nil, fmt.Errorf("unexpected count %d", count)
	}
	return m.keys, m.err
}

func participants(ids ...string) *ItemCollection[Object] {
	collection := &ItemCollection[Object]{}
	for _, id := range ids {
		collection.Items = append(collection.Items, *Person(id))
	}
	return collection
}

func TestBindConversationCreatesResourceForUnkeyedConversation(t *testing.T) {
	minter := &stubMinter{keys: []Key{{URI: "kms://k/minted"}, {URI: "kms://k/extra"}}}
	policy := &KeyPolicy{KMS: minter}
	conversation := &Conversation{Participants: participants("u-1", "u-2", "u-3")}

	binding, err := policy.BindConversation(context.Background(), conversation, nil)
	if err != nil {
		t.Fatalf("BindConversation: %v", err)
	}
	if binding.Key.URI != "kms://k/minted" {
		t.Errorf("key = %q, want first minted key", binding.Key.URI)
	}
	message := binding.KMSMessage
	if message.Method != KMSMethodCreate || message.URI != ResourcesURI {
		t.Errorf("message = %+v, want create /resources", message)
	}
	if !slices.Equal(message.UserIDs, []string{"u-1", "u-2", "u-3"}) {
		t.Errorf("userIds = %v", message.UserIDs)
	}
	if !slices.Equal(message.KeyURIs, []string{"kms://k/minted"}) {
		t.Errorf("keyUris = %v", message.KeyURIs)
	}
}

func TestBindConversationUpdatesExistingResource(t *testing.T) {
	minter := &stubMinter{}
	policy := &KeyPolicy{KMS: minter}
	conversation := &Conversation{
		DefaultActivityEncryptionKeyURL: "kms://k/old",
		Participants:                    participants("u-1", "u-2"),
	}

	binding, err := policy.BindConversation(context.Background(), conversation, &Key{URI: "kms://k/new"})
	if err != nil {
		t.Fatalf("BindConversation: %v", err)
	}
	if minter.calls != 0 {
		t.Error("supplied key should not mint")
	}
	want := KMSMessage{Method: KMSMethodUpdate, ResourceURI: KROPlaceholder, URI: "kms://k/new"}
	if binding.KMSMessage.Method != want.Method || binding.KMSMessage.ResourceURI != want.ResourceURI ||
		binding.KMSMessage.URI != want.URI || binding.KMSMessage.UserIDs != nil {
		t.Errorf("message = %+v, want %+v", binding.KMSMessage, want)
	}
}

func TestBindConversationKMSFailures(t *testing.T) {
	kmsErr := errors.New("kms unavailable")
	tests := []struct {
		name   string
		policy *KeyPolicy
		check  func(error) bool
	}{
		{"propagates unchanged", &KeyPolicy{KMS: &stubMinter{err: kmsErr}}, func(err error) bool { return err == kmsErr }},
		{"empty collection", &KeyPolicy{KMS: &stubMinter{}}, func(err error) bool { return err != nil }},
		{"no kms", &KeyPolicy{}, func(err error) bool { return err != nil }},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			binding, err := test.policy.BindConversation(context.Background(), &Conversation{}, nil)
			if binding != nil || !test.check(err) {
				t.Errorf("binding=%v err=%v", binding, err)
			}
		})
	}
}

func TestBindTeam(t *testing.T) {
	t.Run("first binding mints and sets default", func(t *testing.T) {
		policy := &KeyPolicy{KMS: &stubMinter{keys: []Key{{URI: "kms://k/t1"}}}}
		team := &Team{}

		binding, err := policy.BindTeam(context.Background(), team, []string{"u-1", "u-2"}, nil, nil)
		if err != nil {
			t.Fatal(err)
		}
		if !binding.KMSMessage.isResourceCreate() || !slices.Equal(binding.KMSMessage.UserIDs, []string{"u-1", "u-2"}) {
			t.Errorf("message = %+v", binding.KMSMessage)
		}
		if team.EncryptionKeyURL != "kms://k/t1" || team.DefaultActivityEncryptionKeyURL != "kms://k/t1" {
			t.Errorf("team = %+v", team)
		}
		if team.KMSMessage == nil || !slices.Equal(team.KMSMessage.KeyURIs, []string{"kms://k/t1"}) {
			t.Errorf("team keyUris = %+v", team.KMSMessage)
		}
	})

	t.Run("single supplied key keeps default", func(t *testing.T) {
		policy := &KeyPolicy{}
		team := &Team{DefaultActivityEncryptionKeyURL: "kms://k/default"}

		binding, err := policy.BindTeam(context.Background(), team, nil, &Key{URI: "kms://k/rotated"}, nil)
		if err != nil {
			t.Fatal(err)
		}
		if binding.KMSMessage.Method != KMSMethodUpdate || binding.KMSMessage.URI != "kms://k/rotated" {
			t.Errorf("message = %+v", binding.KMSMessage)
		}
		if team.DefaultActivityEncryptionKeyURL != "kms://k/default" {
			t.Errorf("default overwritten: %q", team.DefaultActivityEncryptionKeyURL)
		}
		if team.EncryptionKeyURL != "kms://k/rotated" {
			t.Errorf("encryptionKeyUrl = %q", team.EncryptionKeyURL)
		}
		if team.KMSMessage != nil {
			t.Errorf("single key should not accumulate: %+v", team.KMSMessage)
		}
	})

	t.Run("collection accumulates without duplicates", func(t *testing.T) {
		policy := &KeyPolicy{}
		team := &Team{KMSMessage: CreateResource([]string{"u-1"}, []string{"kms://k/a"})}

		_, err := policy.BindTeam(context.Background(), team, []string{"u-1"}, nil,
			[]Key{{URI: "kms://k/a"}, {URI: "kms://k/b"}, {URI: "kms://k/b"}})
		if err != nil {
			t.Fatal(err)
		}
		if !slices.Equal(team.KMSMessage.KeyURIs, []string{"kms://k/a", "kms://k/b"}) {
			t.Errorf("keyUris = %v", team.KMSMessage.KeyURIs)
		}
		if team.EncryptionKeyURL != "kms://k/a" {
			t.Errorf("encryptionKeyUrl = %q, want first key", team.EncryptionKeyURL)
		}
		if team.DefaultActivityEncryptionKeyURL != "" {
			t.Errorf("caller keys should not set default: %q", team.DefaultActivityEncryptionKeyURL)
		}
	})

	t.Run("one-key collection accumulates", func(t *testing.T) {
		policy := &KeyPolicy{}
		team := &Team{
			DefaultActivityEncryptionKeyURL: "kms://x/0",
			KMSMessage:                      CreateResource([]string{"u-1"}, []string{"kms://x/0"}),
		}

		binding, err := policy.BindTeam(context.Background(), team, nil, nil, []Key{{URI: "kms://x/9"}})
		if err != nil {
			t.Fatal(err)
		}
		if binding.Key.URI != "kms://x/9" || binding.KMSMessage.Method != KMSMethodUpdate {
			t.Errorf("binding = %+v", binding)
		}
		if !slices.Equal(team.KMSMessage.KeyURIs, []string{"kms://x/0", "kms://x/9"}) {
			t.Errorf("keyUris = %v, want the collection key recorded", team.KMSMessage.KeyURIs)
		}
		if team.DefaultActivityEncryptionKeyURL != "kms://x/0" {
			t.Errorf("default overwritten: %q", team.DefaultActivityEncryptionKeyURL)
		}
	})

	t.Run("key and collection together are rejected", func(t *testing.T) {
		policy := &KeyPolicy{}
		team := &Team{}
		_, err := policy.BindTeam(context.Background(), team, nil, &Key{URI: "kms://k/a"}, []Key{{URI: "kms://k/b"}})
		var validation *ValidationError
		if !errors.As(err, &validation) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if team.EncryptionKeyURL != "" || team.KMSMessage != nil {
			t.Errorf("team modified on error: %+v", team)
		}
	})
}
