// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package issuestore persists the bridge's view of tracker issues in
// SQLite: one record per issue ID, a per-chat membership index, and a
// bounded per-chat message history window.
//
// The issue record is a local mirror, not the source of truth; the
// tracker owns issue state, and the webhook reconciler merges updates
// into stored records as they arrive. Records are keyed by the
// tracker's durable issue ID; the human-facing ticket ref (ENG-42) is
// stored alongside for display and lookup.
//
// The chat index has set semantics: membership of issue IDs per chat,
// used to recall which tickets a conversation has touched. The history
// window keeps the most recent messages per chat, trimmed to a count
// limit and expired by age on both read and write; it feeds the command
// interpreter's conversational context and is never authoritative.
//
// Comment lists are stored as a single deterministic-CBOR blob per
// issue, zstd-compressed past a size threshold. A leading tag byte
// records the encoding so the threshold can change without migration.
package issuestore
