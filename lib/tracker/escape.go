// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import "strings"

// graphqlEscaper rewrites the characters that terminate or corrupt a
// GraphQL string literal. Backslash is listed first so replacement
// output is never re-escaped; strings.Replacer scans the input once.
var graphqlEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	"\n", `\n`,
	"\t", `\t`,
	"\r", `\r`,
)

// EscapeString escapes free text for embedding inside a double-quoted
// GraphQL string literal. Titles and descriptions come straight from
// chat messages, so raw quotes and newlines are common; sending them
// unescaped breaks the mutation and lets message text escape the
// literal into query position.
func EscapeString(value string) string {
	return graphqlEscaper.Replace(value)
}
