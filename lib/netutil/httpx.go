// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package netutil provides shared HTTP I/O helpers for Liaison's API
// clients.
//
// ReadResponse and ErrorBody bound all response body reads at
// MaxResponseSize to prevent unbounded memory allocation from a
// misbehaving or malicious server. They are intended for JSON API
// responses (Matrix client-server API, tracker GraphQL API, oracle
// completion API), not for streaming or large binary transfers.
package netutil

import (
	"io"
)

// MaxResponseSize is the bound on API response body reads: 64 MB. This
// exists solely to keep a pathological response from exhausting memory.
// Legitimate responses from the homeserver, the tracker, and the oracle
// are orders of magnitude smaller; the limit is generous enough to
// never interfere with normal operation.
const MaxResponseSize int64 = 64 << 20

// ReadResponse reads an API response body up to MaxResponseSize bytes.
// Use instead of io.ReadAll when reading HTTP response bodies.
func ReadResponse(body io.Reader) ([]byte, error) {
	return io.ReadAll(io.LimitReader(body, MaxResponseSize))
}

// ErrorBody reads an HTTP error response body and returns it as a
// string for diagnostic error messages. Read errors are silently
// ignored; a partial or empty body is still useful in an error
// message.
func ErrorBody(body io.Reader) string {
	data, _ := io.ReadAll(io.LimitReader(body, MaxResponseSize))
	return string(data)
}
