// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// The liaison-bridge daemon connects a Matrix homeserver to an issue
// tracker. Chat messages addressed to the bridge are interpreted into
// ticket commands by an LLM, validated, and dispatched as tracker
// mutations; tracker webhooks flow back as chat notifications against
// a locally mirrored issue record.
//
// Two independent entry points drive everything: the Matrix /sync
// long-poll loop (inbound commands) and the webhook HTTP listener
// (inbound tracker state). Each processes events sequentially; the
// only shared mutable state is the tracker user cache and the
// reconciler's last-notified map.
//
// Configuration comes from one YAML file (--config); secrets come from
// an age-sealed credential bundle managed by the liaison CLI.
package main
