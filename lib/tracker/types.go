// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import "github.com/liaisonhq/liaison/lib/ref"

// User is a tracker user. Appears in issue assignees and in the
// directory-backed identity resolution cascade.
type User struct {
	ID          string `json:"id"`
	Name        string `json:"name"` // full name
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}

// Team is a tracker team. Issues are created inside a team; the team
// also owns the workflow states a status change resolves against.
type Team struct {
	ID   string `json:"id"`
	Key  string `json:"key"` // short uppercase prefix of ticket refs, e.g. "ENG"
	Name string `json:"name"`
}

// WorkflowState is one status an issue can hold, scoped to a team.
type WorkflowState struct {
	ID   string `json:"id"`
	Name string `json:"name"` // e.g. "Todo", "In Progress", "Done"
}

// Issue is a tracker issue as returned by queries and mutations.
type Issue struct {
	ID         ref.IssueID   `json:"id"`
	Identifier ref.TicketRef `json:"identifier"`
	Title      string        `json:"title"`
	URL        string        `json:"url"`
	State      WorkflowState `json:"state"`
	Assignee   *User         `json:"assignee"`
}
