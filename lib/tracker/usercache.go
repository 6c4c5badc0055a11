// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
)

// defaultUserCacheTTL bounds how stale the cached user list may get
// before a read triggers a refresh.
const defaultUserCacheTTL = 5 * time.Minute

// UserLister is the slice of the tracker API the user cache consumes.
// *Client implements it.
type UserLister interface {
	Users(ctx context.Context) ([]User, error)
}

// UserCacheConfig holds configuration for creating a UserCache.
type UserCacheConfig struct {
	// Source supplies the fresh user list on refresh. Required.
	Source UserLister

	// TTL is the maximum age of the cached list before a read
	// refreshes it. Defaults to 5 minutes.
	TTL time.Duration

	// Clock provides time operations. Defaults to clock.Real().
	Clock clock.Clock

	// Logger is used for structured logging. Defaults to slog.Default().
	Logger *slog.Logger
}

// UserCache is a fetch-through cache over the tracker's user list.
// Identity resolution consults the list on every inbound message;
// without the cache each chat message would cost a tracker round trip.
//
// Reads never fail: when a refresh errors, the cache logs and serves
// the last successful list, even if that list is empty. The fetch
// timestamp advances only on success, so a failing tracker is retried
// on every read until one succeeds.
type UserCache struct {
	source UserLister
	ttl    time.Duration
	clock  clock.Clock
	logger *slog.Logger

	mu        sync.Mutex
	users     []User
	fetchedAt time.Time
}

// NewUserCache creates a user cache. Panics if Source is nil: that is
// a wiring bug, not a runtime condition.
func NewUserCache(config UserCacheConfig) *UserCache {
	if config.Source == nil {
		panic("tracker: UserCacheConfig.Source is required")
	}
	ttl := config.TTL
	if ttl <= 0 {
		ttl = defaultUserCacheTTL
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &UserCache{
		source: config.Source,
		ttl:    ttl,
		clock:  clk,
		logger: logger,
	}
}

// Users returns the tracker user list, refreshing it when empty or
// older than the TTL. The returned slice is shared between callers and
// replaced wholesale on refresh; callers must not modify it.
func (cache *UserCache) Users(ctx context.Context) []User {
	cache.mu.Lock()
	defer cache.mu.Unlock()

	now := cache.clock.Now()
	if len(cache.users) > 0 && now.Sub(cache.fetchedAt) < cache.ttl {
		return cache.users
	}

	users, err := cache.source.Users(ctx)
	if err != nil {
		cache.logger.Warn("user list refresh failed, serving last known list",
			"error", err,
			"cached_users", len(cache.users),
		)
		return cache.users
	}

	cache.users = users
	cache.fetchedAt = now
	return cache.users
}
