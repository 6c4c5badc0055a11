// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package cli provides the command-line framework for the liaison
// operator CLI.
//
// The central type is [Command], which represents a named subcommand
// with optional nested [Command.Subcommands], a [pflag.FlagSet]
// factory, and a Run function. Commands are assembled into a tree in
// cmd/liaison/commands and dispatched via [Command.Execute], which
// handles flag parsing, subcommand routing, and structured help
// output with examples.
//
// [ExitError] lets a command exit non-zero without an extra error
// line when it has already written its own output.
package cli
