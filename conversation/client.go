// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversation

import (
	"context"
	"errors"
	"log/slog"

	"github.com/stonedpebbles/spark/lib/request"
)

// ServiceName is the catalog name of the conversation service.
const ServiceName = "conversation"

// Requester executes backend requests. Non-2xx responses are returned
// as *request.ServiceError.
type Requester interface {
	Do(ctx context.Context, descriptor request.Descriptor) (*request.Response, error)
}

// ServiceLocator maps a service name to its base URL.
type ServiceLocator interface {
	ServiceURL(ctx context.Context, name string) (string, error)
}

// IdentityResolver maps participant references to user UUIDs.
type IdentityResolver interface {
	// AsUUID resolves participant (a UUID, email address or opaque id).
	// With create set, unknown users are provisioned.
	AsUUID(ctx context.Context, participant string, create bool) (string, error)
	// RecordUUID remembers that emailAddress belongs to id.
	RecordUUID(ctx context.Context, id, emailAddress string) error
}

// KeyMinter mints unbound encryption keys.
type KeyMinter interface {
	CreateUnboundKeys(ctx context.Context, count int) ([]Key, error)
}

// Encrypter encrypts activity text with a conversation key.
type Encrypter interface {
	EncryptText(ctx context.Context, keyURI, plaintext string) (string, error)
}

// Decrypter reverses Encrypter.
type Decrypter interface {
	DecryptText(ctx context.Context, keyURI, ciphertext string) (string, error)
}

// Notifier receives a signal each time the user does something in a
// conversation.
type Notifier interface {
	UserActivity(ctx context.Context, verb string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, verb string)

// UserActivity calls f.
func (f NotifierFunc) UserActivity(ctx context.Context, verb string) { f(ctx, verb) }

// ClientConfig holds configuration for creating a Client.
type ClientConfig struct {
	// Requester executes requests. Required.
	Requester Requester
	// Services resolves the conversation service's base URL. Required.
	Services ServiceLocator
	// Identities resolves participants. Required.
	Identities IdentityResolver
	// Identity is the acting user. UserID is required.
	Identity Identity

	// KMS mints keys when a key change is requested without one. If
	// nil, key changes must supply their key.
	KMS KeyMinter
	// Encrypter, if set, encrypts activities whose target carries a
	// default encryption key.
	Encrypter Encrypter
	// Decrypter, if set, decrypts listed and returned activities that
	// carry an encryptionKeyUrl.
	Decrypter Decrypter
	// Notifier, if set, is told about every submission except
	// acknowledgements.
	Notifier Notifier

	// NewID generates clientTempId values. If nil, random UUIDs are used.
	NewID func() string
	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

// Client submits and reads conversation activities for one identity.
// It holds no mutable state and is safe for concurrent use.
type Client struct {
	requester  Requester
	services   ServiceLocator
	identities IdentityResolver
	identity   Identity
	encrypter  Encrypter
	decrypter  Decrypter
	notifier   Notifier
	builder    *Builder
	keys       *KeyPolicy
	logger     *slog.Logger
}

// NewClient creates a Client.
func NewClient(config ClientConfig) (*Client, error) {
	if config.Requester == nil {
		return nil, errors.New("conversation: Requester is required")
	}
	if config.Services == nil {
		return nil, errors.New("conversation: Services is required")
	}
	if config.Identities == nil {
		return nil, errors.New("conversation: Identities is required")
	}
	if config.Identity.UserID == "" {
		return nil, errors.New("conversation: Identity.UserID is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		requester:  config.Requester,
		services:   config.Services,
		identities: config.Identities,
		identity:   config.Identity,
		encrypter:  config.Encrypter,
		decrypter:  config.Decrypter,
		notifier:   config.Notifier,
		builder:    NewBuilder(config.NewID),
		keys:       &KeyPolicy{KMS: config.KMS},
		logger:     logger,
	}, nil
}

// Identity returns the acting user.
func (c *Client) Identity() Identity {
	return c.identity
}

// WithIdentity returns a Client sharing c's collaborators but acting as
// identity.
func (c *Client) WithIdentity(identity Identity) *Client {
	clone := *c
	clone.identity = identity
	return &clone
}

// Prepare builds an activity as c's identity. See [Builder.Prepare].
func (c *Client) Prepare(ctx context.Context, draft Draft, params Params) (*Activity, error) {
	return c.builder.Prepare(ctx, c.identity, draft, params)
}

// self returns a person reference for the acting user.
func (c *Client) self() *Object {
	return Person(c.identity.UserID)
}
