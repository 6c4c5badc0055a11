// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strconv"
	"strings"
)

const (
	// maxTeamKeyLength is the maximum length of a tracker team key.
	// Trackers keep team keys short ("ENG", "OPS", "DESIGN"); anything
	// longer than this is a scanning false positive, not a key.
	maxTeamKeyLength = 10

	// maxTicketNumberLength is the maximum digit count of a ticket
	// number. Nine digits keeps the parsed value comfortably inside
	// an int on all platforms.
	maxTicketNumberLength = 9
)

// TicketRef is a validated human-readable ticket reference
// (e.g., "ENG-42"): an uppercase team key, a hyphen, and a positive
// issue number.
//
// Ticket references arrive from chat text, oracle output, tracker API
// responses, and CLI arguments. ParseTicketRef accepts any letter case
// and canonicalizes to the tracker's display form (uppercase key, no
// leading zeros), so "eng-007" and "ENG-7" parse to the same value.
// Code that keys maps or store rows on a ticket reference always sees
// the canonical string.
//
// TicketRef is an immutable value type. The zero value is not valid;
// use IsZero to check.
type TicketRef struct {
	ref string
}

// ParseTicketRef validates and canonicalizes a raw ticket reference
// string. Returns an error if the string is empty, has no hyphen, has
// a malformed team key (must start with a letter, letters and digits
// only), or has a malformed number (digits only, at least 1).
func ParseTicketRef(raw string) (TicketRef, error) {
	if raw == "" {
		return TicketRef{}, fmt.Errorf("empty ticket reference")
	}
	hyphenIndex := strings.IndexByte(raw, '-')
	if hyphenIndex < 0 {
		return TicketRef{}, fmt.Errorf("ticket reference %q missing '-' between team key and number", raw)
	}

	key := raw[:hyphenIndex]
	if key == "" {
		return TicketRef{}, fmt.Errorf("ticket reference %q has empty team key", raw)
	}
	if len(key) > maxTeamKeyLength {
		return TicketRef{}, fmt.Errorf("ticket reference %q: team key is %d characters, maximum is %d", raw, len(key), maxTeamKeyLength)
	}
	if !isASCIILetter(key[0]) {
		return TicketRef{}, fmt.Errorf("ticket reference %q: team key must start with a letter", raw)
	}
	for i := 1; i < len(key); i++ {
		if !isASCIILetter(key[i]) && !isASCIIDigit(key[i]) {
			return TicketRef{}, fmt.Errorf("ticket reference %q: invalid character %q in team key", raw, key[i])
		}
	}

	digits := raw[hyphenIndex+1:]
	if digits == "" {
		return TicketRef{}, fmt.Errorf("ticket reference %q has empty number", raw)
	}
	if len(digits) > maxTicketNumberLength {
		return TicketRef{}, fmt.Errorf("ticket reference %q: number is %d digits, maximum is %d", raw, len(digits), maxTicketNumberLength)
	}
	for i := 0; i < len(digits); i++ {
		if !isASCIIDigit(digits[i]) {
			return TicketRef{}, fmt.Errorf("ticket reference %q: invalid character %q in number", raw, digits[i])
		}
	}
	number, err := strconv.Atoi(digits)
	if err != nil {
		return TicketRef{}, fmt.Errorf("ticket reference %q: %v", raw, err)
	}
	if number == 0 {
		return TicketRef{}, fmt.Errorf("ticket reference %q: number must be positive", raw)
	}

	return TicketRef{ref: strings.ToUpper(key) + "-" + strconv.Itoa(number)}, nil
}

// MustParseTicketRef is like ParseTicketRef but panics on error. Use
// in tests and static initialization where the input is known-valid.
func MustParseTicketRef(raw string) TicketRef {
	t, err := ParseTicketRef(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseTicketRef(%q): %v", raw, err))
	}
	return t
}

// String returns the canonical ticket reference (e.g., "ENG-42").
func (t TicketRef) String() string { return t.ref }

// IsZero reports whether the TicketRef is the zero value (uninitialized).
func (t TicketRef) IsZero() bool { return t.ref == "" }

// Team returns the team key portion of the reference (e.g., "ENG").
// Returns "" for the zero value.
func (t TicketRef) Team() string {
	if t.ref == "" {
		return ""
	}
	// Safe: validated at construction to contain '-'.
	return t.ref[:strings.IndexByte(t.ref, '-')]
}

// Number returns the issue number portion of the reference (e.g., 42).
// Returns 0 for the zero value.
func (t TicketRef) Number() int {
	if t.ref == "" {
		return 0
	}
	number, _ := strconv.Atoi(t.ref[strings.IndexByte(t.ref, '-')+1:])
	return number
}

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (t TicketRef) MarshalText() ([]byte, error) {
	if t.ref == "" {
		return []byte{}, nil
	}
	return []byte(t.ref), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates and canonicalizes the
// reference. An empty input produces the zero value (unset reference).
func (t *TicketRef) UnmarshalText(data []byte) error {
	if len(data) == 0 {
		*t = TicketRef{}
		return nil
	}
	parsed, err := ParseTicketRef(string(data))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// FindTicketRefs scans freeform text for ticket references and returns
// them in order of first appearance, deduplicated. Only uppercase team
// keys are recognized when scanning: chat text is full of lowercase
// hyphenated words ("utf-8", "x86-64 builds") that would otherwise
// match, and anyone naming a ticket inline writes the display form.
func FindTicketRefs(text string) []TicketRef {
	var refs []TicketRef
	var seen map[string]bool

	i := 0
	for i < len(text) {
		if !isASCIIUpper(text[i]) || (i > 0 && isWordByte(text[i-1])) {
			i++
			continue
		}

		// Consume the candidate team key.
		j := i + 1
		for j < len(text) && (isASCIIUpper(text[j]) || isASCIIDigit(text[j])) {
			j++
		}
		if j-i > maxTeamKeyLength || j >= len(text) || text[j] != '-' {
			i = j
			continue
		}

		// Consume the number.
		k := j + 1
		for k < len(text) && isASCIIDigit(text[k]) {
			k++
		}
		if k == j+1 || (k < len(text) && isWordByte(text[k])) {
			i = j + 1
			continue
		}

		parsed, err := ParseTicketRef(text[i:k])
		if err != nil {
			i = k
			continue
		}
		if !seen[parsed.String()] {
			if seen == nil {
				seen = make(map[string]bool)
			}
			seen[parsed.String()] = true
			refs = append(refs, parsed)
		}
		i = k
	}
	return refs
}

func isASCIILetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isASCIIUpper(c byte) bool {
	return c >= 'A' && c <= 'Z'
}

func isASCIIDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isWordByte reports whether c is a letter or digit, the characters
// that extend an identifier-like run. Used for word-boundary checks
// when scanning text for ticket references.
func isWordByte(c byte) bool {
	return isASCIILetter(c) || isASCIIDigit(c)
}
