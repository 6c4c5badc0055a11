// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package roster

import (
	"context"
	"log/slog"
	"strings"

	"github.com/liaisonhq/liaison/lib/tracker"
)

// Strategy names the rule that produced a resolution. The CLI's
// resolve command prints it; tests assert on it.
type Strategy string

const (
	// StrategyNone means no rule matched.
	StrategyNone Strategy = "none"
	// StrategyEmail is an exact match on the directory email.
	StrategyEmail Strategy = "email"
	// StrategyEmailLocalPart matches the part before the "@".
	StrategyEmailLocalPart Strategy = "email-local-part"
	// StrategyDisplayCanonical is a substring match, either direction,
	// between a tracker display name and the directory canonical name.
	StrategyDisplayCanonical Strategy = "display-canonical"
	// StrategyDisplayAlias is a substring match, either direction,
	// between a tracker display name and a directory alias.
	StrategyDisplayAlias Strategy = "display-alias"
	// StrategyGeneric is the directory-miss fallback: substring match
	// between the raw input and any user's display name, full name, or
	// email local-part.
	StrategyGeneric Strategy = "generic-substring"
)

// UserSource supplies the tracker users the resolver matches against.
// *tracker.UserCache implements it.
type UserSource interface {
	Users(ctx context.Context) []tracker.User
}

// ResolverConfig holds configuration for creating a Resolver.
type ResolverConfig struct {
	// Directory is the static identity table. Required.
	Directory *Directory

	// Users supplies the live tracker user list. Required.
	Users UserSource

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// Resolver maps free-text names to tracker users by cascading the
// directory and the live user list. See the package doc for the rule
// order and the reasoning behind it.
type Resolver struct {
	directory *Directory
	users     UserSource
	logger    *slog.Logger
}

// NewResolver creates a resolver. Panics if Directory or Users is nil:
// both are wiring bugs, not runtime conditions.
func NewResolver(config ResolverConfig) *Resolver {
	if config.Directory == nil {
		panic("roster: ResolverConfig.Directory is required")
	}
	if config.Users == nil {
		panic("roster: ResolverConfig.Users is required")
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Resolver{
		directory: config.Directory,
		users:     config.Users,
		logger:    logger,
	}
}

// Resolution records how an input name was (or was not) resolved.
type Resolution struct {
	// Input is the normalized form of the name that was resolved.
	Input string

	// Person is the directory entry the input matched, if any. A
	// non-nil Person with a nil User means the directory knows the
	// name but no tracker user matches the entry.
	Person *Person

	// User is the resolved tracker user, nil when unresolved.
	User *tracker.User

	// Strategy is the rule that produced User, or StrategyNone.
	Strategy Strategy
}

// Resolve maps a free-text name to a tracker user. Returns false when
// nothing matches; callers treat that as "unknown person", never as an
// excuse to guess.
func (resolver *Resolver) Resolve(ctx context.Context, rawName string) (*tracker.User, bool) {
	resolution := resolver.ResolveDetail(ctx, rawName)
	return resolution.User, resolution.User != nil
}

// ResolveDetail runs the full cascade and reports which rule matched.
//
// Rule order, first match wins:
//  1. normalize the input;
//  2. exact directory lookup (canonical name, chat handle, alias);
//  3. on a directory hit, match the entry against tracker users:
//     exact email, then email local-part, then display↔canonical
//     substring, then display↔alias substring;
//  4. only on a directory miss, substring-match the input itself
//     against every user's display name, full name, and email
//     local-part, in either direction.
//
// A directory hit that matches no tracker user resolves to nothing.
// Falling through to the generic rule there would let a shared
// nickname drift to the wrong person, which is exactly what the
// directory exists to prevent.
func (resolver *Resolver) ResolveDetail(ctx context.Context, rawName string) Resolution {
	resolution := Resolution{Input: Normalize(rawName), Strategy: StrategyNone}
	if resolution.Input == "" {
		return resolution
	}

	users := resolver.users.Users(ctx)
	if len(users) == 0 {
		resolver.logger.Debug("name resolution with empty user list", "input", resolution.Input)
		return resolution
	}

	if person, ok := resolver.directory.Lookup(resolution.Input); ok {
		resolution.Person = &person
		resolution.User, resolution.Strategy = matchPerson(person, users)
		return resolution
	}

	for i := range users {
		if userMatchesInput(&users[i], resolution.Input) {
			resolution.User = &users[i]
			resolution.Strategy = StrategyGeneric
			return resolution
		}
	}
	return resolution
}

// matchPerson matches a directory entry against the user list, one
// strategy at a time. Each strategy scans the whole list before the
// cascade weakens to the next.
func matchPerson(person Person, users []tracker.User) (*tracker.User, Strategy) {
	email := strings.ToLower(person.TrackerEmail)
	if email != "" {
		for i := range users {
			if strings.ToLower(users[i].Email) == email {
				return &users[i], StrategyEmail
			}
		}
		if localPart, _, found := strings.Cut(email, "@"); found && localPart != "" {
			for i := range users {
				userLocalPart, _, _ := strings.Cut(strings.ToLower(users[i].Email), "@")
				if userLocalPart == localPart {
					return &users[i], StrategyEmailLocalPart
				}
			}
		}
	}

	canonical := Normalize(person.CanonicalName)
	for i := range users {
		if containsEitherWay(strings.ToLower(users[i].DisplayName), canonical) {
			return &users[i], StrategyDisplayCanonical
		}
	}

	for i := range users {
		display := strings.ToLower(users[i].DisplayName)
		for _, alias := range person.Aliases {
			if containsEitherWay(display, Normalize(alias)) {
				return &users[i], StrategyDisplayAlias
			}
		}
	}

	return nil, StrategyNone
}

// userMatchesInput implements the generic fallback: the normalized
// input against display name, full name, and email local-part.
func userMatchesInput(user *tracker.User, input string) bool {
	localPart, _, _ := strings.Cut(strings.ToLower(user.Email), "@")
	return containsEitherWay(strings.ToLower(user.DisplayName), input) ||
		containsEitherWay(strings.ToLower(user.Name), input) ||
		containsEitherWay(localPart, input)
}

// containsEitherWay reports whether either non-empty string contains
// the other. Empty strings match nothing: a person with no aliases
// must not match every user.
func containsEitherWay(a, b string) bool {
	if a == "" || b == "" {
		return false
	}
	return strings.Contains(a, b) || strings.Contains(b, a)
}
