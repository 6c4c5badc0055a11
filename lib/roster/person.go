// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"fmt"
	"strings"
)

// Person is one directory entry: a chat-side person bound to their
// canonical tracker identity. Entries are immutable after load.
type Person struct {
	// CanonicalName is the name the tracker knows the person by,
	// unique across the directory. Substring matching against tracker
	// display names uses it.
	CanonicalName string `yaml:"name"`

	// TrackerEmail is the person's email in the tracker. Exact email
	// match is the strongest resolution signal; empty disables the
	// email strategies for this person.
	TrackerEmail string `yaml:"email"`

	// ChatHandle is the person's chat handle (Matrix localpart),
	// matched when someone mentions them by handle.
	ChatHandle string `yaml:"chat_handle"`

	// Aliases are the nicknames teammates type. Aliases may repeat
	// across people; the earlier directory entry wins.
	Aliases []string `yaml:"aliases"`
}

// validate checks the fields a directory entry must carry.
func (person Person) validate() error {
	if strings.TrimSpace(person.CanonicalName) == "" {
		return fmt.Errorf("roster: person has no canonical name")
	}
	if email := person.TrackerEmail; email != "" && !strings.Contains(email, "@") {
		return fmt.Errorf("roster: person %q: malformed email %q", person.CanonicalName, email)
	}
	return nil
}

// Normalize canonicalizes a free-text name for matching: lowercase,
// surrounding whitespace removed, one leading "@" stripped. Every name
// comparison in this package happens in normalized space.
func Normalize(name string) string {
	name = strings.TrimSpace(name)
	name = strings.TrimPrefix(name, "@")
	return strings.ToLower(strings.TrimSpace(name))
}
