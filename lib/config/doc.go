// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads configuration for the conversation client and
// the spark CLI.
//
// Configuration comes from exactly one file, named by the SPARK_CONFIG
// environment variable ([Load]) or a --config flag ([LoadFile]). There
// is no search path and no environment-variable override of individual
// values. Files ending in .json or .jsonc are read as JSON with
// comments; anything else is YAML.
//
// The file may carry development, staging, and production sections
// that override the base values when [Config].Environment matches.
// After loading, ${VAR} and ${VAR:-default} are expanded in URL and
// path fields.
//
// Key exports:
//
//   - [Config] -- identity, service URLs, discovery, request, KMS, logging
//   - [Default] -- development defaults every file is merged over
//   - [Load] and [LoadFile] -- the two entry points
package config
