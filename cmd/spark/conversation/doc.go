// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package conversation implements the "spark conversation" command
// group: listing, reading, creating and posting to conversations, and
// the membership, key rotation and simple-verb activities.
//
// Every command loads the client configuration (--config, or the file
// named by SPARK_CONFIG), then wires a service catalog, request
// executor, identity resolver and local KMS into a conversation client
// acting as the configured identity.
package conversation
