// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential manages the Liaison credential bundle: an
// age-encrypted JSON object holding the secrets the bridge runs with
// (Matrix auth, tracker API key, oracle API key, webhook HMAC secret).
//
// The operator CLI seals a bundle to the bridge host's age public key
// with [Seal]; the daemon opens it at startup with [Load], which moves
// each secret into its own locked buffer ([secret.Buffer]) so raw
// values never sit on the Go heap. [Describe] reports which fields a
// sealed bundle carries without printing any values, for auditing.
//
// Secrets never appear in the YAML config or on the command line: the
// config names the bundle and identity file paths, nothing more.
package credential
