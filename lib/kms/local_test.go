// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package kms

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stonedpebbles/spark/lib/clock"
)

func newTestLocal(t *testing.T) (*Local, *clock.FakeClock) {
	t.Helper()
	fake := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	local, err := New(Config{Domain: "kms.test", Clock: fake})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { local.Close() })
	return local, fake
}

func TestCreateUnboundKeys(t *testing.T) {
	local, fake := newTestLocal(t)
	ctx := context.Background()

	keys, err := local.CreateUnboundKeys(ctx, 3)
	if err != nil {
		t.Fatalf("CreateUnboundKeys: %v", err)
	}
	if len(keys) != 3 {
		t.Fatalf("got %d keys, want 3", len(keys))
	}
	seen := make(map[string]bool)
	for _, key := range keys {
		if !strings.HasPrefix(key.URI, "kms://kms.test/keys/") {
			t.Errorf("URI = %q, want kms://kms.test/keys/ prefix", key.URI)
		}
		if seen[key.URI] {
			t.Errorf("duplicate URI %q", key.URI)
		}
		seen[key.URI] = true

		created, err := local.Created(key.URI)
		if err != nil {
			t.Fatalf("Created: %v", err)
		}
		if !created.Equal(fake.Now()) {
			t.Errorf("created = %v, want %v", created, fake.Now())
		}
	}

	if _, err := local.CreateUnboundKeys(ctx, 0); err == nil {
		t.Error("expected error for zero count")
	}
}

func TestEncryptDecryptText(t *testing.T) {
	local, _ := newTestLocal(t)
	ctx := context.Background()

	keys, err := local.CreateUnboundKeys(ctx, 2)
	if err != nil {
		t.Fatal(err)
	}

	ciphertext, err := local.EncryptText(ctx, keys[0].URI, "hello, room")
	if err != nil {
		t.Fatalf("EncryptText: %v", err)
	}
	if strings.Contains(ciphertext, "hello") {
		t.Error("ciphertext contains plaintext")
	}

	plaintext, err := local.DecryptText(ctx, keys[0].URI, ciphertext)
	if err != nil {
		t.Fatalf("DecryptText: %v", err)
	}
	if plaintext != "hello, room" {
		t.Errorf("plaintext = %q", plaintext)
	}

	if _, err := local.DecryptText(ctx, keys[1].URI, ciphertext); err == nil {
		t.Error("expected failure decrypting with the wrong key")
	}
}

func TestUnknownKey(t *testing.T) {
	local, _ := newTestLocal(t)
	ctx := context.Background()

	_, err := local.EncryptText(ctx, "kms://kms.test/keys/missing", "x")
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("EncryptText: expected ErrUnknownKey, got %v", err)
	}
	_, err = local.DecryptText(ctx, "kms://kms.test/keys/missing", "eA==")
	if !errors.Is(err, ErrUnknownKey) {
		t.Errorf("DecryptText: expected ErrUnknownKey, got %v", err)
	}
}

func TestCloseReleasesKeys(t *testing.T) {
	local, _ := newTestLocal(t)
	ctx := context.Background()

	keys, err := local.CreateUnboundKeys(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if err := local.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := local.Close(); err != nil {
		t.Fatalf("second Close: %v", err)
	}
	if _, err := local.EncryptText(ctx, keys[0].URI, "x"); !errors.Is(err, ErrUnknownKey) {
		t.Errorf("expected ErrUnknownKey after Close, got %v", err)
	}
	if _, err := local.CreateUnboundKeys(ctx, 1); err == nil {
		t.Error("expected error minting after Close")
	}
}

func TestNewRequiresDomain(t *testing.T) {
	if _, err := New(Config{}); err == nil {
		t.Error("expected error without domain")
	}
}
