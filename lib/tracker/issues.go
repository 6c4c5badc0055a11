// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package tracker

import (
	"context"
	"fmt"
	"strings"

	"github.com/liaisonhq/liaison/lib/ref"
)

// issueFields is the selection set fetched for every issue-returning
// operation. Keeping one fragment means every code path sees the same
// shape.
const issueFields = `id identifier title url state { id name } assignee { id name displayName email }`

// CreateIssueRequest contains the fields for creating a new issue.
// TeamID and AssigneeID are tracker-internal IDs, not names; callers
// resolve names first.
type CreateIssueRequest struct {
	Title       string // required
	Description string
	TeamID      string // required
	AssigneeID  string
}

// IssueUpdate contains the fields for updating an issue. Only non-nil
// fields are included in the mutation.
type IssueUpdate struct {
	Title       *string
	Description *string
	AssigneeID  *string
	StateID     *string
}

// CreateIssue creates a new issue and returns it as the tracker
// recorded it, including the assigned human-readable identifier.
func (client *Client) CreateIssue(ctx context.Context, request CreateIssueRequest) (*Issue, error) {
	if request.Title == "" {
		return nil, fmt.Errorf("tracker: issue title is required")
	}
	if request.TeamID == "" {
		return nil, fmt.Errorf("tracker: team ID is required")
	}

	input := []string{
		fmt.Sprintf(`title: "%s"`, EscapeString(request.Title)),
		fmt.Sprintf(`teamId: "%s"`, EscapeString(request.TeamID)),
	}
	if request.Description != "" {
		input = append(input, fmt.Sprintf(`description: "%s"`, EscapeString(request.Description)))
	}
	if request.AssigneeID != "" {
		input = append(input, fmt.Sprintf(`assigneeId: "%s"`, EscapeString(request.AssigneeID)))
	}

	document := fmt.Sprintf(`mutation { issueCreate(input: {%s}) { success issue { %s } } }`,
		strings.Join(input, ", "), issueFields)

	var result struct {
		IssueCreate struct {
			Success bool  `json:"success"`
			Issue   Issue `json:"issue"`
		} `json:"issueCreate"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return nil, fmt.Errorf("creating issue: %w", err)
	}
	if !result.IssueCreate.Success {
		return nil, fmt.Errorf("tracker: issue creation reported failure")
	}
	return &result.IssueCreate.Issue, nil
}

// UpdateIssue applies the non-nil fields of update to an existing
// issue and returns the updated issue.
func (client *Client) UpdateIssue(ctx context.Context, issueID ref.IssueID, update IssueUpdate) (*Issue, error) {
	var input []string
	if update.Title != nil {
		input = append(input, fmt.Sprintf(`title: "%s"`, EscapeString(*update.Title)))
	}
	if update.Description != nil {
		input = append(input, fmt.Sprintf(`description: "%s"`, EscapeString(*update.Description)))
	}
	if update.AssigneeID != nil {
		input = append(input, fmt.Sprintf(`assigneeId: "%s"`, EscapeString(*update.AssigneeID)))
	}
	if update.StateID != nil {
		input = append(input, fmt.Sprintf(`stateId: "%s"`, EscapeString(*update.StateID)))
	}
	if len(input) == 0 {
		return nil, fmt.Errorf("tracker: issue update with no fields")
	}

	document := fmt.Sprintf(`mutation { issueUpdate(id: "%s", input: {%s}) { success issue { %s } } }`,
		issueID, strings.Join(input, ", "), issueFields)

	var result struct {
		IssueUpdate struct {
			Success bool  `json:"success"`
			Issue   Issue `json:"issue"`
		} `json:"issueUpdate"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return nil, fmt.Errorf("updating issue %s: %w", issueID, err)
	}
	if !result.IssueUpdate.Success {
		return nil, fmt.Errorf("tracker: update of issue %s reported failure", issueID)
	}
	return &result.IssueUpdate.Issue, nil
}

// ArchiveIssue archives an issue. Archival is reversible from the
// tracker's own UI; the bridge treats it as cancellation.
func (client *Client) ArchiveIssue(ctx context.Context, issueID ref.IssueID) error {
	document := fmt.Sprintf(`mutation { issueArchive(id: "%s") { success } }`, issueID)

	var result struct {
		IssueArchive struct {
			Success bool `json:"success"`
		} `json:"issueArchive"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return fmt.Errorf("archiving issue %s: %w", issueID, err)
	}
	if !result.IssueArchive.Success {
		return fmt.Errorf("tracker: archive of issue %s reported failure", issueID)
	}
	return nil
}

// DeleteIssue permanently removes an issue. There is no undo on the
// tracker side.
func (client *Client) DeleteIssue(ctx context.Context, issueID ref.IssueID) error {
	document := fmt.Sprintf(`mutation { issueDelete(id: "%s") { success } }`, issueID)

	var result struct {
		IssueDelete struct {
			Success bool `json:"success"`
		} `json:"issueDelete"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return fmt.Errorf("deleting issue %s: %w", issueID, err)
	}
	if !result.IssueDelete.Success {
		return fmt.Errorf("tracker: delete of issue %s reported failure", issueID)
	}
	return nil
}

// IssueByRef resolves a human-readable ticket reference ("ENG-42") to
// the full issue, most importantly its durable issue ID. The tracker
// accepts the identifier anywhere an issue ID is expected in queries.
func (client *Client) IssueByRef(ctx context.Context, ticket ref.TicketRef) (*Issue, error) {
	document := fmt.Sprintf(`query { issue(id: "%s") { %s } }`, ticket, issueFields)

	var result struct {
		Issue *Issue `json:"issue"`
	}
	if err := client.query(ctx, document, &result); err != nil {
		return nil, fmt.Errorf("resolving issue %s: %w", ticket, err)
	}
	if result.Issue == nil {
		return nil, &APIError{StatusCode: 200, Messages: []string{fmt.Sprintf("issue %s not found", ticket)}}
	}
	return result.Issue, nil
}
