// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the liaison CLI command tree. The tree is
// assembled once in Root and dispatched by the liaison binary's main.
package commands
