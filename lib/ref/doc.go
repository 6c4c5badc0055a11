// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identifiers for the
// two systems Liaison bridges: Matrix (user IDs, room IDs, room
// aliases, event IDs, server names) and the issue tracker (ticket
// references like "ENG-42", issue UUIDs).
//
// Raw identifier strings arrive from configuration files, Matrix API
// responses, tracker API responses, webhook payloads, and oracle
// output. They are parsed into ref types at those boundaries and
// passed through the rest of the codebase as validated values;
// interior code never re-checks identifier syntax.
//
// All constructors validate their inputs and return errors for
// malformed identifiers. Once constructed, a ref is immutable. The
// zero value of every ref type is "unset"; use IsZero to check.
//
// JSON and CBOR marshaling use the canonical string form via
// encoding.TextMarshaler.
package ref
