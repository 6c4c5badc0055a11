// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// IssueID is a validated tracker-internal issue identifier: the UUID
// the tracker assigns at creation (e.g.,
// "a3f91c7e-0d42-4b8a-95c1-7e2f08d1b9aa").
//
// Issue IDs arrive from tracker API responses and webhook payloads.
// Unlike TicketRef, an IssueID never changes; tickets can move between
// teams and be renumbered, but the UUID is stable, so the issue store
// keys its records on IssueID. Parsing canonicalizes to lowercase hex.
//
// IssueID is an immutable value type. The zero value is not valid;
// use IsZero to check.
type IssueID struct {
	id string
}

// uuidDashPositions marks the byte offsets of the four dashes in the
// canonical 8-4-4-4-12 UUID layout.
var uuidDashPositions = [...]int{8, 13, 18, 23}

// ParseIssueID validates and canonicalizes a raw issue UUID string.
// Returns an error if the string is not a 36-character UUID with
// dashes in the standard positions and hex digits elsewhere.
func ParseIssueID(raw string) (IssueID, error) {
	if raw == "" {
		return IssueID{}, fmt.Errorf("empty issue ID")
	}
	if len(raw) != 36 {
		return IssueID{}, fmt.Errorf("issue ID %q is %d characters, want 36", raw, len(raw))
	}
	dash := 0
	for i := 0; i < len(raw); i++ {
		if dash < len(uuidDashPositions) && i == uuidDashPositions[dash] {
			if raw[i] != '-' {
				return IssueID{}, fmt.Errorf("issue ID %q: want '-' at position %d", raw, i)
			}
			dash++
			continue
		}
		if !isHexDigit(raw[i]) {
			return IssueID{}, fmt.Errorf("issue ID %q: invalid character %q at position %d", raw, raw[i], i)
		}
	}
	return IssueID{id: strings.ToLower(raw)}, nil
}

// MustParseIssueID is like ParseIssueID but panics on error. Use in
// tests and static initialization where the input is known-valid.
func MustParseIssueID(raw string) IssueID {
	id, err := ParseIssueID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseIssueID(%q): %v", raw, err))
	}
	return id
}

// String returns the canonical lowercase UUID string.
func (i IssueID) String() string { return i.id }

// IsZero reports whether the IssueID is the zero value (uninitialized).
func (i IssueID) IsZero() bool { return i.id == "" }

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (i IssueID) MarshalText() ([]byte, error) {
	if i.id == "" {
		return []byte{}, nil
	}
	return []byte(i.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates and canonicalizes the
// UUID. An empty input produces the zero value (unset issue ID).
func (i *IssueID) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*i = IssueID{}
		return nil
	}
	parsed, err := ParseIssueID(string(data))
	if err != nil {
		return err
	}
	*i = parsed
	return nil
}

func isHexDigit(c byte) bool {
	return (c >= '0' && c <= '9') || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}
