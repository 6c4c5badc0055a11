// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package messaging wraps the Matrix client-server API for Liaison's
// chat transport.
//
// The package provides two core types. [Client] is an unauthenticated
// Matrix client that handles password login and token-based session
// construction, returning authenticated [DirectSession] values. Client
// holds the homeserver URL and HTTP transport, shared across all
// sessions derived from it.
//
// [DirectSession] wraps a Client with an access token for the
// operations the bridge needs: joining rooms, sending message and
// custom events with idempotent transaction IDs, incremental sync with
// long-polling, room alias resolution, paginated room history, profile
// display names, and identity verification (WhoAmI). The [Session]
// interface abstracts these operations so bridge code can be tested
// against a fake homeserver-free implementation.
//
// Sessions are lightweight (a pointer to the parent Client plus an
// access token in mmap-backed secret.Buffer memory). The access token
// is locked against swap and excluded from core dumps; callers must
// call Close to release the protected memory.
//
// All API errors are returned as [*MatrixError] with the standard
// Matrix error code (M_FORBIDDEN, M_NOT_FOUND, etc.) and HTTP status
// code. [IsMatrixError] tests for a specific error code. Request URLs
// are built by string concatenation rather than url.URL to avoid
// double-encoding of path segments that contain URL-encoded characters
// (such as room aliases with slashes).
//
// Message construction is first-class: [NewTextMessage] and
// [NewNoticeMessage] create plain messages, [NewFormattedNotice]
// attaches rendered HTML, and [NewReplaceMessage] produces an
// m.replace edit so the bridge can update an earlier reply in place.
package messaging
