// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package kms

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"filippo.io/age"
	"github.com/google/uuid"

	"github.com/stonedpebbles/spark/lib/clock"
	"github.com/stonedpebbles/spark/lib/secret"
)

// ErrUnknownKey is returned when a key URI was not minted by this
// service or the service has been closed.
var ErrUnknownKey = errors.New("kms: unknown key")

// Key is an encryption key reference. Only URI crosses the wire.
type Key struct {
	URI string `json:"uri"`
}

// Config holds configuration for creating a Local service.
type Config struct {
	// Domain is the authority component of minted key URIs. Required.
	Domain string

	// Clock stamps key creation. If nil, clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default() is used.
	Logger *slog.Logger
}

type keyMaterial struct {
	privateKey *secret.Buffer
	publicKey  string
	created    time.Time
}

// Local mints and holds keys in process memory. Safe for concurrent use.
type Local struct {
	domain string
	clock  clock.Clock
	logger *slog.Logger

	mu     sync.RWMutex
	keys   map[string]*keyMaterial
	closed bool
}

// New creates a Local service.
func New(config Config) (*Local, error) {
	if config.Domain == "" {
		return nil, errors.New("kms: Domain is required")
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Local{
		domain: config.Domain,
		clock:  clk,
		logger: logger,
		keys:   make(map[string]*keyMaterial),
	}, nil
}

// CreateUnboundKeys mints count new keys. A key is unbound until a
// conversation's key-resource-object references its URI.
func (l *Local) CreateUnboundKeys(ctx context.Context, count int) ([]Key, error) {
	if count <= 0 {
		return nil, fmt.Errorf("kms: key count must be positive, got %d", count)
	}
	minted := make([]Key, 0, count)
	materials := make([]*keyMaterial, 0, count)
	for range count {
		if err := ctx.Err(); err != nil {
			closeAll(materials)
			return nil, err
		}
		material, err := generate(l.clock.Now())
		if err != nil {
			closeAll(materials)
			return nil, err
		}
		minted = append(minted, Key{URI: fmt.Sprintf("kms://%s/keys/%s", l.domain, uuid.NewString())})
		materials = append(materials, material)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		closeAll(materials)
		return nil, errors.New("kms: service closed")
	}
	for i, key := range minted {
		l.keys[key.URI] = materials[i]
	}
	l.logger.Debug("minted unbound keys", "count", count, "domain", l.domain)
	return minted, nil
}

// Created reports when keyURI was minted.
func (l *Local) Created(keyURI string) (time.Time, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	material, ok := l.keys[keyURI]
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownKey, keyURI)
	}
	return material.created, nil
}

// Close zeroes and releases every key. Subsequent operations fail with
// ErrUnknownKey. Idempotent.
func (l *Local) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return nil
	}
	l.closed = true
	var errs []error
	for uri, material := range l.keys {
		if err := material.privateKey.Close(); err != nil {
			errs = append(errs, fmt.Errorf("kms: releasing %s: %w", uri, err))
		}
	}
	l.keys = nil
	return errors.Join(errs...)
}

func generate(now time.Time) (*keyMaterial, error) {
	identity, err := age.GenerateX25519Identity()
	if err != nil {
		return nil, fmt.Errorf("kms: generating key: %w", err)
	}
	privateKey, err := secret.NewFromBytes([]byte(identity.String()))
	if err != nil {
		return nil, fmt.Errorf("kms: protecting private key: %w", err)
	}
	return &keyMaterial{
		privateKey: privateKey,
		publicKey:  identity.Recipient().String(),
		created:    now,
	}, nil
}

func closeAll(materials []*keyMaterial) {
	for _, material := range materials {
		material.privateKey.Close()
	}
}
