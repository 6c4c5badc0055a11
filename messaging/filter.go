// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"encoding/json"

	"github.com/liaisonhq/liaison/lib/ref"
)

// SyncFilter configures what events a /sync call returns.
//
// A nil *SyncFilter means "all events" (state, timeline, and
// ephemeral). The bridge restricts its sync to message and action
// events across every joined room; presence and account data are
// always suppressed; nothing in Liaison consumes them.
type SyncFilter struct {
	// Rooms restricts the response to these rooms. Empty means all
	// joined rooms.
	Rooms []ref.RoomID `json:"rooms,omitempty"`

	// TimelineTypes restricts timeline events to these Matrix event types
	// (e.g., "m.room.message"). An empty slice means all timeline types.
	TimelineTypes []string `json:"timeline_types,omitempty"`

	// TimelineLimit caps the number of timeline events per /sync response.
	// Zero means no explicit limit (server default).
	TimelineLimit int `json:"timeline_limit,omitempty"`

	// ExcludeState suppresses state events from the /sync response.
	// When true, only timeline events matching TimelineTypes are returned.
	ExcludeState bool `json:"exclude_state,omitempty"`
}

// BuildInlineFilter constructs the inline JSON filter string for /sync.
// Presence and account data are always filtered out. Additional
// restrictions from the SyncFilter (rooms, event types, limits, state
// suppression) are merged in. A nil filter yields the base filter that
// only drops presence and account data.
func BuildInlineFilter(filter *SyncFilter) string {
	roomFilter := map[string]any{}

	if filter != nil {
		if len(filter.Rooms) > 0 {
			rooms := make([]string, len(filter.Rooms))
			for i, roomID := range filter.Rooms {
				rooms[i] = roomID.String()
			}
			roomFilter["rooms"] = rooms
		}

		if len(filter.TimelineTypes) > 0 {
			timeline := map[string]any{"types": filter.TimelineTypes}
			if filter.TimelineLimit > 0 {
				timeline["limit"] = filter.TimelineLimit
			}
			roomFilter["timeline"] = timeline
		} else if filter.TimelineLimit > 0 {
			roomFilter["timeline"] = map[string]any{"limit": filter.TimelineLimit}
		}

		if filter.ExcludeState {
			roomFilter["state"] = map[string]any{"types": []string{}}
		}
	}

	top := map[string]any{
		"room":         roomFilter,
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}

	data, _ := json.Marshal(top)
	return string(data)
}
