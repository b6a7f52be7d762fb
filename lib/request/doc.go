// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package request executes HTTP requests against the conversation
// backend on behalf of the conversation client.
//
// A [Descriptor] names its target either as a catalog service plus a
// resource path ("conversation" + "activities") or as an absolute URI
// (a conversation's own url). [Client.Do] resolves the service base
// through a [ServiceLocator], encodes the body as JSON, attaches the
// bearer token and a per-request TrackingID header, and returns the
// raw [Response].
//
// Every non-2xx response becomes a [*ServiceError] carrying the status
// code, the server's message, and its tracking id. [IsNotFound] and
// [IsStatus] test for specific statuses through errors.As, which is how
// the one-on-one resolver detects the "no such conversation" race.
//
// The client performs no retries; callers that want them wrap Do.
package request
