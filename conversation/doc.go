// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversation turns conversational intents into activities
// submitted to the conversation service.
//
// Every mutating operation follows the same pipeline:
//
//   - [Client.ResolveRef] fills in a conversation's url when only its
//     id is known, using the service catalog.
//   - [Builder.Prepare] shapes the activity: defaults, actor
//     normalization, allow-listed target fields, ids derived from urls,
//     then objectType and content validation.
//   - [KeyPolicy] decides whether a key change mints a new
//     key-resource-object or updates the conversation's existing one,
//     and emits the matching [KMSMessage].
//   - [Client.Submit] routes the finished activity (shares to the
//     content resource, everything else to the activity stream),
//     encrypts it when the target carries a default key, and raises the
//     user-activity notification.
//
// [Client.Create] wraps the pipeline for new conversations. Two-party
// requests first look for an existing one-on-one conversation and fall
// back to creating one tagged [TagOneOnOne] when the lookup returns 404;
// the server deduplicates concurrent creations by participant pair.
//
// List operations ([Client.List], [Client.ListActivities], ...) always
// return items in ascending published order and record participant
// UUIDs with the identity resolver before returning.
//
// The client's own identity is an explicit [Identity] value carried in
// [ClientConfig] and passed to every [Builder.Prepare] call.
package conversation
