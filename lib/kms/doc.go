// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package kms is a local key-management service for conversation
// encryption keys.
//
// [Local] mints unbound keys on demand. Each key is addressed by a URI
// of the form kms://<domain>/keys/<uuid> and is backed by an age
// x25519 identity whose private half lives in a [secret.Buffer]. The
// same service implements the text transform used when activities are
// encrypted before submission and decrypted after listing:
//
//   - [Local.CreateUnboundKeys] -- mint count fresh keys
//   - [Local.EncryptText] / [Local.DecryptText] -- age, base64 on the wire
//   - [Local.Close] -- release every private key
//
// Keys never leave the process. A deployment talking to a remote KMS
// supplies its own implementation of the conversation package's
// KeyMinter, Encrypter and Decrypter interfaces instead.
package kms
