// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package conversationtest

import (
	"context"
	"log/slog"
	"sync"
	"testing"

	"github.com/stonedpebbles/spark/conversation"
	"github.com/stonedpebbles/spark/lib/catalog"
	"github.com/stonedpebbles/spark/lib/identity"
	"github.com/stonedpebbles/spark/lib/kms"
	"github.com/stonedpebbles/spark/lib/request"
	"github.com/stonedpebbles/spark/lib/secret"
)

// Harness is a conversation.Client wired to a Server, with handles on
// its collaborators.
type Harness struct {
	Client     *conversation.Client
	Server     *Server
	Catalog    *catalog.Catalog
	Identities *identity.Service
	KMS        *kms.Local
	Notifier   *RecordingNotifier
}

// ClientOptions adjust NewClient.
type ClientOptions struct {
	// UserID is the acting user. Defaults to a fixed UUID.
	UserID string
	// Encrypt wires the KMS as Encrypter and Decrypter.
	Encrypt bool
	// NewID overrides clientTempId generation.
	NewID func() string
	// Logger defaults to a discarding logger.
	Logger *slog.Logger
}

// DefaultUserID is the acting user when ClientOptions.UserID is empty.
const DefaultUserID = "0b1c2d3e-4f50-4617-8829-3a4b5c6d7e8f"

// NewClient returns a Harness whose client discovers server through its
// catalog endpoint. The KMS is closed when the test completes.
func NewClient(t testing.TB, server *Server, options ClientOptions) *Harness {
	t.Helper()
	userID := options.UserID
	if userID == "" {
		userID = DefaultUserID
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	// The fake service takes the bearer token as the caller's user id.
	token, err := secret.NewFromString(userID)
	if err != nil {
		t.Fatalf("creating token: %v", err)
	}
	t.Cleanup(func() { token.Close() })

	services := catalog.New(catalog.Config{
		DiscoveryURL: server.DiscoveryURL(),
		Logger:       logger,
	})
	requester := request.NewClient(request.ClientConfig{
		Services: services,
		Token:    token,
		Logger:   logger,
	})
	identities, err := identity.New(identity.Config{Requester: requester, Logger: logger})
	if err != nil {
		t.Fatalf("creating identity service: %v", err)
	}
	keys, err := kms.New(kms.Config{Domain: "kms.test", Logger: logger})
	if err != nil {
		t.Fatalf("creating kms: %v", err)
	}
	t.Cleanup(func() { keys.Close() })

	notifier := &RecordingNotifier{}
	config := conversation.ClientConfig{
		Requester:  requester,
		Services:   services,
		Identities: identities,
		Identity:   conversation.Identity{UserID: userID},
		KMS:        keys,
		Notifier:   notifier,
		NewID:      options.NewID,
		Logger:     logger,
	}
	if options.Encrypt {
		config.Encrypter = keys
		config.Decrypter = keys
	}
	client, err := conversation.NewClient(config)
	if err != nil {
		t.Fatalf("creating conversation client: %v", err)
	}

	return &Harness{
		Client:     client,
		Server:     server,
		Catalog:    services,
		Identities: identities,
		KMS:        keys,
		Notifier:   notifier,
	}
}

// RecordingNotifier records the verbs it is told about.
type RecordingNotifier struct {
	mu    sync.Mutex
	verbs []string
}

// UserActivity records verb.
func (n *RecordingNotifier) UserActivity(_ context.Context, verb string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.verbs = append(n.verbs, verb)
}

// Verbs returns the recorded verbs in order.
func (n *RecordingNotifier) Verbs() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.verbs...)
}
