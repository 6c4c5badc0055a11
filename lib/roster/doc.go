// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package roster maps the names people use in chat to tracker users.
//
// Two pieces cooperate. The Directory is a static table loaded from
// configuration at startup: each Person binds a canonical name to a
// tracker email, a chat handle, and the nicknames teammates actually
// type. The Resolver combines the Directory with the live tracker user
// list and runs a fixed matching cascade, strongest signal first:
// exact email, then email local-part, then substring matching.
//
// The cascade order is a deliberate tie-break. Curated Directory
// entries always outrank incidental substring hits, so two people
// sharing a short nickname resolve to whichever one the Directory
// prefers instead of whoever happens to sort first in the tracker.
// Generic substring matching runs only when the Directory has no entry
// for the input at all.
package roster
