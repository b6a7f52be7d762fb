// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

package kms

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"io"
	"strings"

	"filippo.io/age"
)

// EncryptText encrypts plaintext to keyURI and returns standard base64
// ciphertext suitable for a JSON string field.
func (l *Local) EncryptText(_ context.Context, keyURI, plaintext string) (string, error) {
	l.mu.RLock()
	material, ok := l.keys[keyURI]
	l.mu.RUnlock()
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, keyURI)
	}

	recipient, err := age.ParseX25519Recipient(material.publicKey)
	if err != nil {
		return "", fmt.Errorf("kms: parsing recipient for %s: %w", keyURI, err)
	}
	var ciphertext bytes.Buffer
	writer, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return "", fmt.Errorf("kms: creating encryptor: %w", err)
	}
	if _, err := io.WriteString(writer, plaintext); err != nil {
		return "", fmt.Errorf("kms: writing plaintext: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("kms: finalizing encryption: %w", err)
	}
	return base64.StdEncoding.EncodeToString(ciphertext.Bytes()), nil
}

// DecryptText reverses EncryptText.
func (l *Local) DecryptText(_ context.Context, keyURI, ciphertext string) (string, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	material, ok := l.keys[keyURI]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownKey, keyURI)
	}

	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertext))
	if err != nil {
		return "", fmt.Errorf("kms: decoding ciphertext: %w", err)
	}
	// age parses identities from strings only; the heap copy is
	// request-scoped.
	identity, err := age.ParseX25519Identity(material.privateKey.String())
	if err != nil {
		return "", fmt.Errorf("kms: parsing key %s: %w", keyURI, err)
	}
	reader, err := age.Decrypt(bytes.NewReader(raw), identity)
	if err != nil {
		return "", fmt.Errorf("kms: decrypting with %s: %w", keyURI, err)
	}
	plaintext, err := io.ReadAll(reader)
	if err != nil {
		return "", fmt.Errorf("kms: reading plaintext: %w", err)
	}
	return string(plaintext), nil
}
