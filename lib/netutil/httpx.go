// Copyright 2026 The Spark Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides bounded HTTP response handling for the
// conversation client.
//
// Every JSON body the client reads (conversation service, identity
// lookups, service discovery) goes through [ReadResponse] or
// [DecodeResponse], which cap the read at [MaxResponseSize]. Activity
// lists with large participant sets are still far below the cap; the
// bound only exists so a broken server cannot exhaust memory.
package netutil

import (
	"encoding/json"
	"fmt"
	"io"
)

// MaxResponseSize caps JSON response reads at 64 MB.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads at most MaxResponseSize bytes of body.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// DecodeResponse reads body (bounded by MaxResponseSize) and decodes
// it as JSON into target. An empty body leaves target untouched.
func DecodeResponse(body io.Reader, target any) error {
	data, err := ReadResponse(body)
	if err != nil {
		return fmt.Errorf("reading response body: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, target)
}

// ErrorBody returns as much of an error response body as can be read,
// for use in diagnostic messages. Read failures yield a partial body.
func ErrorBody(body io.Reader) string {
	data, _ := ReadResponse(body)
	return string(data)
}
