// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package version reports the build version of spark binaries.
//
// Values are injected at build time:
//
//	go build -ldflags "-X github.com/stonedpebbles/spark/lib/version.GitCommit=$(git rev-parse --short HEAD)"
package version
