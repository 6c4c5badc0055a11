// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads the Liaison bridge configuration.
//
// Configuration comes from a single YAML file named by either the
// LIAISON_CONFIG environment variable (via [Load]) or a --config flag
// (via [LoadFile]). There are no fallbacks, no ~/.config discovery,
// and no automatic file search: every deployed bridge points at
// exactly one auditable file.
//
// Raw secrets never appear in the file. It carries the location of
// the sealed credential bundle and the age identity that opens it;
// the bridge decrypts the bundle at startup.
//
// Path fields support ${VAR} and ${VAR:-default} expansion against
// the process environment, so one file can serve hosts that differ
// only in their data directory.
//
// Key exports:
//
//   - [Config] -- the full bridge configuration
//   - [Load] and [LoadFile] -- the two entry points for loading
package config
