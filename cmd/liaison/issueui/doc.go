// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package issueui is the read-only terminal browser behind "liaison
// issues". It renders the bridge's issue store as a two-pane view:
// a list of mirrored issues on the left, the selected issue's detail
// (description, status, comment trail) on the right.
//
// The browser is a plain bubbletea model over a snapshot of the
// store. It never talks to the tracker or the chat homeserver, and it
// never mutates: operators act on issues through chat, the browser
// only answers "what does the bridge believe right now".
package issueui
