// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"
	"testing"

	"github.com/liaisonhq/liaison/lib/command"
	"github.com/liaisonhq/liaison/lib/ref"
)

func testOrigin() Origin {
	return Origin{RoomID: testRoom, Sender: testRequester}
}

func TestCreateRoundTrip(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, store := newTestDispatcher(t, fake, nil)
	ctx := context.Background()

	outcome := dispatcher.Dispatch(ctx, &command.Command{
		Action:      command.ActionCreate,
		Title:       "Fix login bug",
		Description: "Repro:\n\tsubmit \"empty\" password",
		Assignee:    "florent",
		Confidence:  0.9,
	}, testOrigin())

	if len(fake.createRequests) != 1 {
		t.Fatalf("tracker saw %d create calls, want 1", len(fake.createRequests))
	}
	request := fake.createRequests[0]
	if request.Title != "Fix login bug" {
		t.Errorf("create title = %q, want the command title", request.Title)
	}
	if request.AssigneeID != "user-florent" {
		t.Errorf("create assignee = %q, want the resolved tracker id", request.AssigneeID)
	}
	if request.TeamID != "team-eng" {
		t.Errorf("create team = %q, want team-eng", request.TeamID)
	}

	record, err := store.Get(ctx, fake.createdIssue.ID)
	if err != nil {
		t.Fatalf("Get stored record: %v", err)
	}
	if record == nil {
		t.Fatal("no record stored under the returned issue id")
	}
	if record.TicketRef != fake.createdIssue.Identifier {
		t.Errorf("record ticket ref = %v, want %v", record.TicketRef, fake.createdIssue.Identifier)
	}
	if record.Requester != testRequester {
		t.Errorf("record requester = %v, want the origin sender", record.Requester)
	}

	if !strings.Contains(outcome.Text, "ENG-43") {
		t.Errorf("outcome = %q, want it to name the new ticket", outcome.Text)
	}
	if len(outcome.Actions) != 3 {
		t.Errorf("outcome carries %d buttons, want edit/cancel/done", len(outcome.Actions))
	}
}

func TestCreateRequiresTitle(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionCreate,
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.createRequests) != 0 {
		t.Errorf("tracker saw %d create calls, want 0 (rejected locally)", len(fake.createRequests))
	}
	if !strings.Contains(outcome.Text, "title") {
		t.Errorf("outcome = %q, want a title usage hint", outcome.Text)
	}
}

func TestCreateUnknownAssigneeRejectedBeforeTracker(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionCreate,
		Title:      "Fix login bug",
		Assignee:   "nobody",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.createRequests) != 0 {
		t.Errorf("tracker saw %d create calls, want 0", len(fake.createRequests))
	}
	if !strings.Contains(outcome.Text, "nobody") {
		t.Errorf("outcome = %q, want it to name the unknown person", outcome.Text)
	}
}

func TestAssignWithoutTicketRoutesToCreate(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionAssign,
		Assignee:   "sam",
		Title:      "Set up the staging environment",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 0 {
		t.Errorf("tracker saw %d update calls, want 0 (no existing ticket)", len(fake.updateRequests))
	}
	if len(fake.createRequests) != 1 {
		t.Fatalf("tracker saw %d create calls, want 1 (routed to create)", len(fake.createRequests))
	}
	if fake.createRequests[0].AssigneeID != "user-sam" {
		t.Errorf("routed create assignee = %q, want user-sam", fake.createRequests[0].AssigneeID)
	}
}

func TestAssignExistingTicket(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionAssign,
		TicketRef:  "ENG-42",
		Assignee:   "sam",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 1 {
		t.Fatalf("tracker saw %d update calls, want 1", len(fake.updateRequests))
	}
	update := fake.updateRequests[0]
	if update.IssueID != testIssueID {
		t.Errorf("update issue = %v, want %v", update.IssueID, testIssueID)
	}
	if update.Update.AssigneeID == nil || *update.Update.AssigneeID != "user-sam" {
		t.Errorf("update assignee = %v, want user-sam", update.Update.AssigneeID)
	}
	if !strings.Contains(outcome.Text, "Sam Tanaka") {
		t.Errorf("outcome = %q, want the assignee's display name", outcome.Text)
	}
}

func TestAssignRequiresAssignee(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionAssign,
		TicketRef:  "ENG-42",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 0 {
		t.Errorf("tracker saw %d update calls, want 0", len(fake.updateRequests))
	}
	if !strings.Contains(outcome.Text, "assign") {
		t.Errorf("outcome = %q, want an assign usage hint", outcome.Text)
	}
}

func TestStatusResolvesStateCaseInsensitively(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionStatus,
		TicketRef:  "ENG-42",
		NewStatus:  "in progress",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 1 {
		t.Fatalf("tracker saw %d update calls, want 1", len(fake.updateRequests))
	}
	update := fake.updateRequests[0].Update
	if update.StateID == nil || *update.StateID != "state-progress" {
		t.Errorf("update state = %v, want state-progress", update.StateID)
	}
	if !strings.Contains(outcome.Text, "In Progress") {
		t.Errorf("outcome = %q, want the tracker's state name", outcome.Text)
	}
}

func TestStatusUnknownStateRejectedWithZeroMutations(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionStatus,
		TicketRef:  "ENG-42",
		NewStatus:  "Doing",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 0 {
		t.Errorf("tracker saw %d update calls, want 0", len(fake.updateRequests))
	}
	if !strings.Contains(outcome.Text, "not found") {
		t.Errorf("outcome = %q, want a status-not-found rejection", outcome.Text)
	}
	for _, name := range []string{"Todo", "In Progress", "Done"} {
		if !strings.Contains(outcome.Text, name) {
			t.Errorf("outcome = %q, want it to list state %q", outcome.Text, name)
		}
	}
}

func TestEditWithoutFieldOffersMenu(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionEdit,
		TicketRef:  "ENG-42",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 0 {
		t.Errorf("tracker saw %d update calls, want 0 (menu, not mutation)", len(fake.updateRequests))
	}
	if len(outcome.Actions) != 4 {
		t.Fatalf("menu offers %d fields, want 4", len(outcome.Actions))
	}
	wantIDs := []string{"edit|ENG-42|title", "edit|ENG-42|description", "edit|ENG-42|assignee", "edit|ENG-42|status"}
	for i, want := range wantIDs {
		if outcome.Actions[i].ID != want {
			t.Errorf("menu action %d = %q, want %q", i, outcome.Actions[i].ID, want)
		}
	}
}

func TestEditTitleMutatesExactlyOneField(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionEdit,
		TicketRef:  "ENG-42",
		EditField:  command.FieldTitle,
		NewValue:   "Clearer title",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 1 {
		t.Fatalf("tracker saw %d update calls, want 1", len(fake.updateRequests))
	}
	update := fake.updateRequests[0].Update
	if update.Title == nil || *update.Title != "Clearer title" {
		t.Errorf("update title = %v, want the new value", update.Title)
	}
	if update.Description != nil || update.AssigneeID != nil || update.StateID != nil {
		t.Errorf("update touched extra fields: %+v", update)
	}
}

func TestEditUnknownTicketRejected(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionEdit,
		TicketRef:  "ENG-999",
		EditField:  command.FieldTitle,
		NewValue:   "anything",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.updateRequests) != 0 {
		t.Errorf("tracker saw %d update calls, want 0", len(fake.updateRequests))
	}
	if !strings.Contains(outcome.Text, "ENG-999") {
		t.Errorf("outcome = %q, want it to name the unknown ticket", outcome.Text)
	}
}

func TestCancelArchivesAndPurges(t *testing.T) {
	fake := newFakeTracker()
	var forgotten []ref.IssueID
	dispatcher, store := newTestDispatcher(t, fake, func(id ref.IssueID) {
		forgotten = append(forgotten, id)
	})
	ctx := context.Background()

	seedRecord(t, store)

	outcome := dispatcher.Dispatch(ctx, &command.Command{
		Action:     command.ActionCancel,
		TicketRef:  "ENG-42",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.archivedIssues) != 1 || fake.archivedIssues[0] != testIssueID {
		t.Fatalf("archived = %v, want [%v]", fake.archivedIssues, testIssueID)
	}
	if len(fake.deletedIssues) != 0 {
		t.Errorf("cancel performed a permanent delete: %v", fake.deletedIssues)
	}

	stored, err := store.Get(ctx, testIssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != nil {
		t.Error("record still stored after cancel")
	}
	if len(forgotten) != 1 || forgotten[0] != testIssueID {
		t.Errorf("forget hook saw %v, want [%v]", forgotten, testIssueID)
	}
	if !strings.Contains(outcome.Text, "Cancelled") {
		t.Errorf("outcome = %q, want a cancellation confirmation", outcome.Text)
	}
}

func TestDeleteRemovesPermanently(t *testing.T) {
	fake := newFakeTracker()
	dispatcher, store := newTestDispatcher(t, fake, nil)
	ctx := context.Background()
	seedRecord(t, store)

	outcome := dispatcher.Dispatch(ctx, &command.Command{
		Action:     command.ActionDelete,
		TicketRef:  "ENG-42",
		Confidence: 0.9,
	}, testOrigin())

	if len(fake.deletedIssues) != 1 || fake.deletedIssues[0] != testIssueID {
		t.Fatalf("deleted = %v, want [%v]", fake.deletedIssues, testIssueID)
	}
	stored, err := store.Get(ctx, testIssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if stored != nil {
		t.Error("record still stored after delete")
	}
	if !strings.Contains(outcome.Text, "permanently") {
		t.Errorf("outcome = %q, want it to say the deletion is permanent", outcome.Text)
	}
}

func TestTrackerFailureProducesErrorReply(t *testing.T) {
	fake := newFakeTracker()
	fake.failNextMutation = true
	dispatcher, _ := newTestDispatcher(t, fake, nil)

	outcome := dispatcher.Dispatch(context.Background(), &command.Command{
		Action:     command.ActionCreate,
		Title:      "Fix login bug",
		Confidence: 0.9,
	}, testOrigin())

	if !strings.Contains(outcome.Text, "tracker") {
		t.Errorf("outcome = %q, want a tracker failure reply", outcome.Text)
	}
}
