// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package command

// Action is the kind of tracker operation a command requests.
type Action string

const (
	// ActionCreate makes a new tracker issue.
	ActionCreate Action = "create"
	// ActionEdit changes one field of an existing issue.
	ActionEdit Action = "edit"
	// ActionCancel archives an issue. Reversible in the tracker.
	ActionCancel Action = "cancel"
	// ActionDelete permanently removes an issue.
	ActionDelete Action = "delete"
	// ActionAssign reassigns an existing issue.
	ActionAssign Action = "assign"
	// ActionStatus moves an issue to a named workflow state.
	ActionStatus Action = "status"
)

// Known reports whether the action is one the dispatcher handles.
func (action Action) Known() bool {
	switch action {
	case ActionCreate, ActionEdit, ActionCancel, ActionDelete, ActionAssign, ActionStatus:
		return true
	}
	return false
}

// Edit-field selectors for ActionEdit. FieldMenu (or an absent
// editField) means the user did not name a field and should be shown
// a field-choice menu instead of a mutation.
const (
	FieldTitle       = "title"
	FieldDescription = "description"
	FieldAssignee    = "assignee"
	FieldStatus      = "status"
	FieldMenu        = "menu"
)

// MinConfidence is the threshold below which callers treat a command
// as "could not understand the request". The interpreter reports
// confidence without enforcing it so that callers can log near-misses.
const MinConfidence = 0.5

// Command is one parsed chat request. Produced per message, never
// persisted. String fields are empty when the model supplied nothing
// usable; the sentinel strings "null" and "undefined" are normalized
// to empty during decoding.
type Command struct {
	Action      Action  `json:"action"`
	TicketRef   string  `json:"ticketRef"`
	Assignee    string  `json:"assignee"`
	NewStatus   string  `json:"newStatus"`
	Title       string  `json:"title"`
	Description string  `json:"description"`
	EditField   string  `json:"editField"`
	NewValue    string  `json:"newValue"`
	Confidence  float64 `json:"confidence"`
}
