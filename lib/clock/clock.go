// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock parameter instead of calling time.Now
// or time.After directly. In production, Real() provides standard
// library behavior. In tests, Fake() provides a deterministic clock
// that advances only when Advance is called.
//
// Add a Clock field to structs that use time:
//
//	type UserCache struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In tests:
//
//	c := clock.Fake(time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	cache := NewUserCache(Config{Clock: c})
//	c.Advance(6 * time.Minute) // the cache is now stale
//
// When a goroutine registers a timer via After, use WaitForTimers to
// block until it is pending before calling Advance. This eliminates
// the registration/advancement race that plagues tests using
// time.Sleep for synchronization.
package clock

import "time"

// Clock abstracts time operations for testability. Production code
// injects Real(); tests inject Fake() with deterministic time control.
//
// Every production function that calls time.Now or time.After should
// accept a Clock parameter (or be a method on a struct with a Clock
// field) instead of calling the time package directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time after
	// duration d elapses. Equivalent to time.After. If d <= 0, the
	// channel receives immediately.
	After(d time.Duration) <-chan time.Time
}
