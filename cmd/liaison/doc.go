// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// The liaison binary is the operator CLI for the Liaison bridge:
// credential bundle management, identity resolution tracing, and a
// read-only browser over the bridge's issue store. The bridge daemon
// itself is the liaison-bridge binary.
package main
