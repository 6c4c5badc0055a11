// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package command

import (
	"fmt"
	"strings"

	"github.com/tidwall/jsonc"
)

// Sanitize extracts the JSON object embedded in a model reply and
// repairs the defects models routinely produce. The pipeline:
//
//  1. Strip markdown code fences and any prose around them.
//  2. Take the first balanced {...} block, tracking string literals
//     so braces inside strings do not count.
//  3. Strip // comments and trailing commas.
//  4. Escape raw control characters (newlines, tabs, carriage
//     returns) that appear inside string literals, where JSON
//     forbids them.
//
// Returns an error when no balanced object exists in the text. The
// result may still fail to unmarshal; callers treat that the same way.
func Sanitize(raw string) ([]byte, error) {
	text := stripCodeFences(raw)
	object, ok := extractObject(text)
	if !ok {
		return nil, fmt.Errorf("command: no JSON object in response")
	}
	stripped := jsonc.ToJSON([]byte(object))
	return escapeControlChars(stripped), nil
}

// stripCodeFences removes a markdown code fence wrapper, including
// the language tag on the opening fence line. Text outside the fence
// is discarded. Input without fences is returned trimmed.
func stripCodeFences(text string) string {
	trimmed := strings.TrimSpace(text)
	start := strings.Index(trimmed, "```")
	if start == -1 {
		return trimmed
	}
	rest := trimmed[start+3:]
	if newline := strings.IndexByte(rest, '\n'); newline != -1 {
		rest = rest[newline+1:]
	}
	if end := strings.LastIndex(rest, "```"); end != -1 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// extractObject returns the first balanced {...} block in text. The
// scan tracks string literals and backslash escapes, so braces and
// quotes inside strings do not affect nesting depth.
func extractObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start == -1 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		char := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case char == '\\':
				escaped = true
			case char == '"':
				inString = false
			}
			continue
		}
		switch char {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// escapeControlChars walks the text byte by byte and escapes raw
// control characters inside string literals. Models emit multi-line
// descriptions as literal newlines inside a JSON string, which the
// decoder rejects. Control characters outside strings pass through.
func escapeControlChars(text []byte) []byte {
	var builder strings.Builder
	builder.Grow(len(text))

	inString := false
	escaped := false
	for i := 0; i < len(text); i++ {
		char := text[i]
		if !inString {
			if char == '"' {
				inString = true
			}
			builder.WriteByte(char)
			continue
		}
		if escaped {
			escaped = false
			builder.WriteByte(char)
			continue
		}
		switch {
		case char == '\\':
			escaped = true
			builder.WriteByte(char)
		case char == '"':
			inString = false
			builder.WriteByte(char)
		case char == '\n':
			builder.WriteString(`\n`)
		case char == '\t':
			builder.WriteString(`\t`)
		case char == '\r':
			builder.WriteString(`\r`)
		case char < 0x20:
			fmt.Fprintf(&builder, `\u%04x`, char)
		default:
			builder.WriteByte(char)
		}
	}
	return []byte(builder.String())
}
