// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared test helpers.
//
// [RequireReceive] wraps the select-with-timeout pattern for tests that
// wait on a channel fed by a fake collaborator, so a missing send fails
// the test instead of hanging it. [UniqueID] generates distinct
// display names and identifiers without reading the wall clock.
//
// All helpers call t.Fatalf on failure rather than returning errors.
package testutil
