// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package service provides the runtime scaffolding the bridge daemon is
// built on: an HTTP listener with graceful shutdown for the tracker
// webhook endpoint, HMAC verification for webhook deliveries, and the
// Matrix /sync long-poll loop with retry backoff.
//
// The package owns lifecycle, not semantics; callers provide the
// http.Handler that routes and processes webhook payloads, and the
// SyncHandler that reacts to room events.
package service
