// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package command turns chat messages into typed tracker commands.
//
// The [Interpreter] sends each message, together with the identity
// directory and recent-ticket context, to an LLM and parses the reply
// into a [Command]. The model's output is untrusted text: it arrives
// wrapped in markdown fences, padded with prose, or carrying raw
// newlines inside string literals, so [Sanitize] runs a repair
// pipeline before decoding. A reply that survives no repair is not an
// error; the interpreter reports it as "no command" and the caller
// asks the user to rephrase.
//
// Fields that the model guessed are re-derived before anything acts on
// them: an assignee name that the identity resolver cannot map to a
// tracker user is cleared rather than passed through. The reported
// confidence is advisory; callers compare it against [MinConfidence].
package command
