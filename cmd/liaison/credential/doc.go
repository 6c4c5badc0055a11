// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package credential implements the "liaison credentials" command
// group: generating the bridge host's age keypair, sealing the
// credential bundle, and auditing a sealed bundle's contents.
package credential
