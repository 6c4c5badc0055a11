// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import (
	"github.com/liaisonhq/liaison/lib/ref"
)

// Event types the bridge sends and watches for.
const (
	// EventTypeMessage is the standard Matrix room message event.
	EventTypeMessage ref.EventType = "m.room.message"

	// EventTypeMember is the standard Matrix membership state event.
	EventTypeMember ref.EventType = "m.room.member"

	// EventTypeAction is the Liaison custom event a chat client sends
	// when the user presses a button the bridge attached to an earlier
	// reply. Content is [ActionPressContent].
	EventTypeAction ref.EventType = "m.liaison.action"
)

// Message types for m.room.message content.
const (
	// MsgText is a plain user-authored message.
	MsgText = "m.text"

	// MsgNotice is an automated message. The bridge sends all its
	// replies as notices so other bots (and the bridge itself) know
	// to ignore them.
	MsgNotice = "m.notice"
)

// FormatHTML is the only value Matrix defines for MessageContent.Format.
const FormatHTML = "org.matrix.custom.html"

// AuthResponse is returned by Login.
type AuthResponse struct {
	UserID      ref.UserID `json:"user_id"`
	AccessToken string     `json:"access_token"`
	DeviceID    string     `json:"device_id"`
}

// LoginRequest is the request body for password login.
type LoginRequest struct {
	Type                     string `json:"type"`
	User                     string `json:"user"`
	Password                 string `json:"password"`
	DeviceID                 string `json:"device_id,omitempty"`
	InitialDeviceDisplayName string `json:"initial_device_display_name,omitempty"`
}

// MessageContent is the content body of a Matrix message event
// (m.room.message).
//
// The bridge sends three shapes: plain notices, HTML-formatted notices
// (Format + FormattedBody), and in-place edits (RelatesTo with
// m.replace plus NewContent carrying the replacement). Actions is a
// Liaison extension: a list of buttons the chat client renders under
// the message, pressed buttons come back as m.liaison.action events.
type MessageContent struct {
	MsgType       string          `json:"msgtype"`
	Body          string          `json:"body"`
	Format        string          `json:"format,omitempty"`
	FormattedBody string          `json:"formatted_body,omitempty"`
	Mentions      *Mentions       `json:"m.mentions,omitempty"`
	RelatesTo     *RelatesTo      `json:"m.relates_to,omitempty"`
	NewContent    *MessageContent `json:"m.new_content,omitempty"`
	Actions       []MessageAction `json:"m.liaison.actions,omitempty"`
}

// Mentions identifies users referenced in a message. Follows the Matrix
// spec m.mentions format: a list of fully-qualified Matrix user IDs
// that the message is addressed to. The bridge reads this on inbound
// messages to decide whether it is being spoken to.
type Mentions struct {
	UserIDs []string `json:"user_ids,omitempty"`
}

// RelatesTo expresses relationships between events. The bridge uses
// RelType "m.replace" with the event ID of an earlier reply to edit
// it in place.
type RelatesTo struct {
	RelType string      `json:"rel_type"`
	EventID ref.EventID `json:"event_id"`
}

// MessageAction is one button attached to a bridge reply. The chat
// client renders the label; a press comes back as an m.liaison.action
// event whose content carries the ID.
type MessageAction struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

// ActionPressContent is the content of an m.liaison.action event: the
// user pressed a button on an earlier bridge reply. SourceEvent is the
// event ID of the message carrying the button.
type ActionPressContent struct {
	ActionID    string      `json:"action_id"`
	SourceEvent ref.EventID `json:"source_event,omitempty"`
}

// NewTextMessage creates a plain text message.
func NewTextMessage(body string) MessageContent {
	return MessageContent{
		MsgType: MsgText,
		Body:    body,
	}
}

// NewNoticeMessage creates a plain automated message. All bridge
// replies are notices.
func NewNoticeMessage(body string) MessageContent {
	return MessageContent{
		MsgType: MsgNotice,
		Body:    body,
	}
}

// NewFormattedNotice creates an automated message with an HTML
// rendering. body is the plain-text fallback for clients that do not
// render HTML.
func NewFormattedNotice(body, htmlBody string) MessageContent {
	return MessageContent{
		MsgType:       MsgNotice,
		Body:          body,
		Format:        FormatHTML,
		FormattedBody: htmlBody,
	}
}

// NewReplaceMessage creates an m.replace edit of an earlier event. The
// replacement content travels in m.new_content; the top-level body is
// the spec-mandated "* " fallback shown by clients that do not apply
// edits.
func NewReplaceMessage(target ref.EventID, replacement MessageContent) MessageContent {
	edited := replacement
	return MessageContent{
		MsgType:       replacement.MsgType,
		Body:          "* " + replacement.Body,
		Format:        replacement.Format,
		FormattedBody: replacement.FormattedBody,
		RelatesTo: &RelatesTo{
			RelType: "m.replace",
			EventID: target,
		},
		NewContent: &edited,
	}
}

// Event represents a Matrix event from the server.
type Event struct {
	EventID        ref.EventID    `json:"event_id"`
	Type           ref.EventType  `json:"type"`
	Sender         ref.UserID     `json:"sender"`
	OriginServerTS int64          `json:"origin_server_ts"`
	Content        map[string]any `json:"content"`
	RoomID         ref.RoomID     `json:"room_id,omitempty"`
	StateKey       *string        `json:"state_key,omitempty"`
	Unsigned       *EventUnsigned `json:"unsigned,omitempty"`
}

// EventUnsigned holds optional unsigned data attached to events.
type EventUnsigned struct {
	Age           int64  `json:"age,omitempty"`
	TransactionID string `json:"transaction_id,omitempty"`
}

// RoomMessagesOptions controls pagination for room message fetching.
type RoomMessagesOptions struct {
	From      string // pagination token; empty means "from now"
	Direction string // "b" (backward/older) or "f" (forward/newer)
	Limit     int    // max events to return; 0 uses server default
}

// RoomMessagesResponse is returned by RoomMessages.
type RoomMessagesResponse struct {
	Start string  `json:"start"`
	End   string  `json:"end"`
	Chunk []Event `json:"chunk"`
}

// SyncOptions controls the behavior of the /sync endpoint.
type SyncOptions struct {
	Since      string // next_batch token from previous sync; empty for initial sync
	Timeout    int    // long-poll timeout in milliseconds; 0 for immediate return
	SetTimeout bool   // if true, send the timeout parameter (needed to distinguish "not set" from "0")
	Filter     string // filter ID or inline JSON filter
}

// SyncResponse is the top-level response from /sync.
type SyncResponse struct {
	NextBatch string       `json:"next_batch"`
	Rooms     RoomsSection `json:"rooms"`
}

// RoomsSection contains per-room sync data grouped by membership state.
// Map keys are room IDs; encoding/json uses ref.RoomID's TextUnmarshaler
// for automatic validation at deserialization.
type RoomsSection struct {
	Join   map[ref.RoomID]JoinedRoom  `json:"join,omitempty"`
	Invite map[ref.RoomID]InvitedRoom `json:"invite,omitempty"`
	Leave  map[ref.RoomID]LeftRoom    `json:"leave,omitempty"`
}

// JoinedRoom contains sync data for a room the user has joined.
type JoinedRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// InvitedRoom contains sync data for a room the user was invited to.
type InvitedRoom struct {
	InviteState StateSection `json:"invite_state"`
}

// LeftRoom contains sync data for a room the user has left.
type LeftRoom struct {
	Timeline TimelineSection `json:"timeline"`
	State    StateSection    `json:"state"`
}

// TimelineSection contains timeline events from a sync response.
type TimelineSection struct {
	Events    []Event `json:"events"`
	PrevBatch string  `json:"prev_batch"`
	Limited   bool    `json:"limited"`
}

// StateSection contains state events from a sync response.
type StateSection struct {
	Events []Event `json:"events"`
}

// SendEventResponse is returned by SendMessage and SendEvent.
type SendEventResponse struct {
	EventID ref.EventID `json:"event_id"`
}

// WhoAmIResponse is returned by WhoAmI.
type WhoAmIResponse struct {
	UserID   ref.UserID `json:"user_id"`
	DeviceID string     `json:"device_id,omitempty"`
}

// ResolveAliasResponse is returned by ResolveAlias.
type ResolveAliasResponse struct {
	RoomID  ref.RoomID `json:"room_id"`
	Servers []string   `json:"servers"`
}

// JoinedRoomsResponse is returned by JoinedRooms.
type JoinedRoomsResponse struct {
	JoinedRooms []ref.RoomID `json:"joined_rooms"`
}

// DisplayNameResponse is returned by the /profile/{userId}/displayname endpoint.
type DisplayNameResponse struct {
	DisplayName string `json:"displayname"`
}

// ServerVersionsResponse is returned by Client.ServerVersions.
type ServerVersionsResponse struct {
	Versions         []string        `json:"versions"`
	UnstableFeatures map[string]bool `json:"unstable_features,omitempty"`
}
