// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package tracker provides a typed Go client for the issue tracker's
// GraphQL API.
//
// Every operation is a single POST of {"query": ...} to one endpoint,
// authenticated with an API key held in a secret buffer. Responses are
// the standard GraphQL envelope: a "data" object on success, an
// "errors" list otherwise. Both transport failures and GraphQL-level
// errors surface as *APIError.
//
// Free text embedded in a mutation (titles, descriptions) must pass
// through EscapeString first. Mutations in this package do that
// themselves; callers building their own queries carry the same
// obligation, since an unescaped quote or newline both breaks the
// mutation and lets message text alter the query structure.
//
// UserCache wraps the Users query with a TTL so identity resolution
// (which runs on every inbound message) does not hit the tracker each
// time. It degrades to the last known list when a refresh fails.
package tracker
