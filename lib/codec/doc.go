// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec provides the canonical binary encoding used to compare
// activities.
//
// Activities travel as JSON, but JSON gives no byte-level guarantee
// about key order. [Marshal] encodes with CBOR Core Deterministic
// Encoding (RFC 8949 §4.2: sorted map keys, shortest integers, no
// indefinite lengths), so equal values always produce equal bytes.
// [Digest] hashes that encoding with BLAKE3, which is what
// conversation.Activity.Fingerprint reports.
//
// Struct fields are taken from json tags when no cbor tag is present,
// so wire types need no second set of tags.
package codec
