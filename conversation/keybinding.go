// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
)

// KeyBinding is the outcome of a key decision: the key to bind and the
// instruction that binds it.
type KeyBinding struct {
	Key        Key
	KMSMessage *KMSMessage
}

// KeyPolicy decides how a key change is expressed to the KMS. Every
// decision is made against the state passed in; nothing is cached
// between calls.
type KeyPolicy struct {
	// KMS mints a key when the caller supplies none.
	KMS KeyMinter
}

// BindConversation binds supplied (or a freshly minted key when nil) to
// conversation. A conversation that already has a default encryption
// key gets an update against its key-resource-object; one without gets
// a new key-resource-object naming every participant.
func (p *KeyPolicy) BindConversation(ctx context.Context, conversation *Conversation, supplied *Key) (*KeyBinding, error) {
	var key Key
	if supplied != nil {
		key = *supplied
	} else {
		minted, err := p.mint(ctx)
		if err != nil {
			return nil, err
		}
		key = minted[0]
	}

	binding := &KeyBinding{Key: key}
	if conversation.DefaultActivityEncryptionKeyURL != "" {
		binding.KMSMessage = UpdateResource(key.URI)
	} else {
		binding.KMSMessage = CreateResource(conversation.ParticipantIDs(), []string{key.URI})
	}
	return binding, nil
}

// BindTeam binds a key to team and updates team in place.
//
// The key comes from supplied, a single key, or from collection. With
// neither a key is minted. Minted keys and every supplied collection,
// including one of length one, are recorded on team.KMSMessage.KeyURIs
// without duplicates and the first is bound. A single supplied key is
// bound alone. team.EncryptionKeyURL always becomes the bound key;
// team.DefaultActivityEncryptionKeyURL only when the key was minted, so
// an explicit caller key never replaces the default.
func (p *KeyPolicy) BindTeam(ctx context.Context, team *Team, recipients []string, supplied *Key, collection []Key) (*KeyBinding, error) {
	if supplied != nil && len(collection) > 0 {
		return nil, &ValidationError{Operation: VerbUpdateKey, Reason: "both a key and a key collection were supplied"}
	}
	var keys []Key
	minted := false
	switch {
	case supplied != nil:
		keys = []Key{*supplied}
	case len(collection) > 0:
		keys = collection
	default:
		fresh, err := p.mint(ctx)
		if err != nil {
			return nil, err
		}
		keys = fresh
		minted = true
	}
	key := keys[0]

	binding := &KeyBinding{Key: key}
	if team.DefaultActivityEncryptionKeyURL != "" {
		binding.KMSMessage = UpdateResource(key.URI)
	} else {
		binding.KMSMessage = CreateResource(recipients, []string{key.URI})
	}

	if supplied == nil {
		if team.KMSMessage == nil {
			team.KMSMessage = binding.KMSMessage.Clone()
		}
		for _, k := range keys {
			if !slices.Contains(team.KMSMessage.KeyURIs, k.URI) {
				team.KMSMessage.KeyURIs = append(team.KMSMessage.KeyURIs, k.URI)
			}
		}
	}
	team.EncryptionKeyURL = key.URI
	if minted {
		team.DefaultActivityEncryptionKeyURL = key.URI
	}
	return binding, nil
}

// mint requests one unbound key. A collection is accepted and only its
// first element is used.
func (p *KeyPolicy) mint(ctx context.Context) ([]Key, error) {
	if p.KMS == nil {
		return nil, errors.New("conversation: no key supplied and no KMS configured")
	}
	keys, err := p.KMS.CreateUnboundKeys(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(keys) == 0 {
		return nil, fmt.Errorf("conversation: KMS returned no keys")
	}
	return keys, nil
}
