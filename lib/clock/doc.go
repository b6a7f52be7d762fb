// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable source of the current time.
//
// Components that stamp times (the fake conversation service assigning
// "published" to activities, the local KMS recording key creation)
// take a [Clock] instead of calling time.Now. Production code passes
// [Real]; tests pass a [FakeClock] and advance it explicitly, so
// ordering assertions never depend on wall-clock resolution.
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	c.SetStep(time.Second) // every Now() moves one second forward
package clock
