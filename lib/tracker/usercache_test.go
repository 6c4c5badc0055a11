// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
)

// fakeUserLister counts fetches and serves a scripted result.
type fakeUserLister struct {
	users      []User
	err        error
	fetchCount int
}

func (lister *fakeUserLister) Users(ctx context.Context) ([]User, error) {
	lister.fetchCount++
	if lister.err != nil {
		return nil, lister.err
	}
	return lister.users, nil
}

func TestUserCacheServesWithinTTL(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lister := &fakeUserLister{users: []User{{ID: "user-1", DisplayName: "jane"}}}
	cache := NewUserCache(UserCacheConfig{Source: lister, Clock: fakeClock})

	ctx := context.Background()
	first := cache.Users(ctx)
	if len(first) != 1 {
		t.Fatalf("got %d users, want 1", len(first))
	}
	if lister.fetchCount != 1 {
		t.Fatalf("fetchCount = %d, want 1", lister.fetchCount)
	}

	// Within the TTL the cached list is served without a fetch.
	fakeClock.Advance(4 * time.Minute)
	second := cache.Users(ctx)
	if lister.fetchCount != 1 {
		t.Errorf("fetchCount = %d after fresh read, want 1", lister.fetchCount)
	}
	if len(second) != 1 {
		t.Errorf("got %d users from cache, want 1", len(second))
	}
}

func TestUserCacheRefreshesPastTTL(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lister := &fakeUserLister{users: []User{{ID: "user-1"}}}
	cache := NewUserCache(UserCacheConfig{Source: lister, Clock: fakeClock})

	ctx := context.Background()
	cache.Users(ctx)

	fakeClock.Advance(5*time.Minute + time.Second)
	lister.users = []User{{ID: "user-1"}, {ID: "user-2"}}

	refreshed := cache.Users(ctx)
	if lister.fetchCount != 2 {
		t.Errorf("fetchCount = %d, want 2", lister.fetchCount)
	}
	if len(refreshed) != 2 {
		t.Errorf("got %d users after refresh, want 2", len(refreshed))
	}
}

func TestUserCacheDegradesToStaleOnFailure(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lister := &fakeUserLister{users: []User{{ID: "user-1", DisplayName: "jane"}}}
	cache := NewUserCache(UserCacheConfig{Source: lister, Clock: fakeClock})

	ctx := context.Background()
	cache.Users(ctx)

	// The tracker starts failing after the list expires.
	fakeClock.Advance(10 * time.Minute)
	lister.err = fmt.Errorf("tracker: HTTP 502: upstream unavailable")

	stale := cache.Users(ctx)
	if len(stale) != 1 || stale[0].DisplayName != "jane" {
		t.Fatalf("stale read = %+v, want last known list", stale)
	}
	if lister.fetchCount != 2 {
		t.Errorf("fetchCount = %d, want 2", lister.fetchCount)
	}

	// The failed refresh must not advance the timestamp: the next
	// read tries again rather than treating the stale list as fresh.
	cache.Users(ctx)
	if lister.fetchCount != 3 {
		t.Errorf("fetchCount = %d after second stale read, want 3", lister.fetchCount)
	}

	// Recovery replaces the list wholesale.
	lister.err = nil
	lister.users = []User{{ID: "user-1"}, {ID: "user-2"}}
	recovered := cache.Users(ctx)
	if len(recovered) != 2 {
		t.Errorf("got %d users after recovery, want 2", len(recovered))
	}
}

func TestUserCacheEmptyOnPersistentFailure(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lister := &fakeUserLister{err: fmt.Errorf("tracker: HTTP 502")}
	cache := NewUserCache(UserCacheConfig{Source: lister, Clock: fakeClock})

	users := cache.Users(context.Background())
	if len(users) != 0 {
		t.Errorf("got %d users, want 0", len(users))
	}
}

func TestUserCacheEmptyListRefetches(t *testing.T) {
	fakeClock := clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	lister := &fakeUserLister{}
	cache := NewUserCache(UserCacheConfig{Source: lister, Clock: fakeClock})

	ctx := context.Background()
	cache.Users(ctx)
	cache.Users(ctx)

	// An empty successful fetch is not cached: each read retries.
	if lister.fetchCount != 2 {
		t.Errorf("fetchCount = %d, want 2", lister.fetchCount)
	}
}
