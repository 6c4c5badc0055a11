// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import "fmt"

// Directory is the static identity table. Lookup is exact match (after
// normalization) against canonical names, chat handles, and aliases.
type Directory struct {
	people []Person
	index  map[string]int // normalized name → index into people
}

// NewDirectory builds a directory from configuration entries. Entry
// order matters: when two people claim the same alias, the earlier
// entry owns it. Duplicate canonical names are a configuration error,
// not an ambiguity to tolerate.
func NewDirectory(people []Person) (*Directory, error) {
	directory := &Directory{
		people: make([]Person, len(people)),
		index:  make(map[string]int),
	}
	copy(directory.people, people)

	seenCanonical := make(map[string]string)
	for i, person := range directory.people {
		if err := person.validate(); err != nil {
			return nil, err
		}

		canonical := Normalize(person.CanonicalName)
		if previous, dup := seenCanonical[canonical]; dup {
			return nil, fmt.Errorf("roster: duplicate canonical name %q (entries %q and %q)",
				canonical, previous, person.CanonicalName)
		}
		seenCanonical[canonical] = person.CanonicalName

		directory.claim(canonical, i)
		if handle := Normalize(person.ChatHandle); handle != "" {
			directory.claim(handle, i)
		}
		for _, alias := range person.Aliases {
			if normalized := Normalize(alias); normalized != "" {
				directory.claim(normalized, i)
			}
		}
	}
	return directory, nil
}

// claim assigns a normalized name to a person unless an earlier entry
// already holds it.
func (directory *Directory) claim(name string, person int) {
	if _, taken := directory.index[name]; !taken {
		directory.index[name] = person
	}
}

// Lookup finds the person a name refers to. The name is normalized
// before matching; only exact matches count; fuzzy matching is the
// Resolver's job.
func (directory *Directory) Lookup(name string) (Person, bool) {
	i, ok := directory.index[Normalize(name)]
	if !ok {
		return Person{}, false
	}
	return directory.people[i], true
}

// People returns the directory entries in configuration order. The
// command interpreter embeds them in its prompt so the oracle picks
// canonical names instead of inventing spellings.
func (directory *Directory) People() []Person {
	return directory.people
}

// Len returns the number of directory entries.
func (directory *Directory) Len() int {
	return len(directory.people)
}
