// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/liaisonhq/liaison/lib/ref"
)

func newTestReconciler(t *testing.T) (*Reconciler, *recordingSession) {
	t.Helper()
	store := openTestStore(t)
	seedRecord(t, store)
	session := &recordingSession{}
	return NewReconciler(store, session, discardLogger()), session
}

func TestDuplicateStatusNotifiesOnce(t *testing.T) {
	reconciler, session := newTestReconciler(t)
	ctx := context.Background()

	update := webhookUpdate{IssueID: testIssueID, Status: "In Progress"}
	reconciler.apply(ctx, update)
	reconciler.apply(ctx, update)

	sent := session.sent()
	if len(sent) != 1 {
		t.Fatalf("duplicate status produced %d notifications, want 1", len(sent))
	}
	if sent[0].RoomID != testRoom {
		t.Errorf("notification room = %v, want the record's origin chat", sent[0].RoomID)
	}
	if !strings.Contains(sent[0].Content.Body, "In Progress") {
		t.Errorf("notification = %q, want the new status", sent[0].Content.Body)
	}
}

func TestStatusChangePersistsAndNotifiesEachTransition(t *testing.T) {
	reconciler, session := newTestReconciler(t)
	ctx := context.Background()

	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Status: "In Progress"})
	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Status: "Done"})

	if got := len(session.sent()); got != 2 {
		t.Fatalf("two transitions produced %d notifications, want 2", got)
	}

	record, err := reconciler.store.Get(ctx, testIssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if record.Status != "Done" {
		t.Errorf("stored status = %q, want Done", record.Status)
	}
}

func TestUnknownIssueIsNoOp(t *testing.T) {
	reconciler, session := newTestReconciler(t)

	unknown := ref.MustParseIssueID("99999999-9999-4999-8999-999999999999")
	reconciler.apply(context.Background(), webhookUpdate{IssueID: unknown, Status: "Done"})

	if got := len(session.sent()); got != 0 {
		t.Errorf("unknown issue produced %d notifications, want 0", got)
	}
}

func TestCommentAppendsAndNotifies(t *testing.T) {
	reconciler, session := newTestReconciler(t)
	ctx := context.Background()

	reconciler.apply(ctx, webhookUpdate{
		IssueID:       testIssueID,
		CommentBody:   "root cause is the null check",
		CommentAuthor: "Sam Tanaka",
		CommentAt:     testStart.Add(time.Hour),
	})

	record, err := reconciler.store.Get(ctx, testIssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(record.Comments) != 1 {
		t.Fatalf("record has %d comments, want 1", len(record.Comments))
	}
	if record.Comments[0].Author != "Sam Tanaka" {
		t.Errorf("comment author = %q, want Sam Tanaka", record.Comments[0].Author)
	}

	sent := session.sent()
	if len(sent) != 1 {
		t.Fatalf("comment produced %d notifications, want 1", len(sent))
	}
	if !strings.Contains(sent[0].Content.Body, "root cause is the null check") {
		t.Errorf("notification = %q, want the comment body", sent[0].Content.Body)
	}
}

func TestSeedSuppressesStatusQuoRenotification(t *testing.T) {
	reconciler, session := newTestReconciler(t)
	ctx := context.Background()

	if err := reconciler.Seed(ctx); err != nil {
		t.Fatalf("Seed: %v", err)
	}

	// The stored record's status is Todo: a redelivered webhook for it
	// must be absorbed.
	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Status: "Todo"})
	if got := len(session.sent()); got != 0 {
		t.Errorf("seeded status produced %d notifications, want 0", got)
	}

	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Status: "Done"})
	if got := len(session.sent()); got != 1 {
		t.Errorf("genuine transition after seed produced %d notifications, want 1", got)
	}
}

func TestForgetClearsNotificationMemory(t *testing.T) {
	reconciler, session := newTestReconciler(t)
	ctx := context.Background()

	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Status: "Done"})
	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Forget: true})

	// After forgetting (and with the record re-seeded), the same
	// status notifies again.
	seedRecord(t, reconciler.store)
	reconciler.apply(ctx, webhookUpdate{IssueID: testIssueID, Status: "Done"})

	if got := len(session.sent()); got != 2 {
		t.Errorf("got %d notifications, want 2 (one per side of the forget)", got)
	}
}

func TestEnqueueNeverBlocks(t *testing.T) {
	store := openTestStore(t)
	reconciler := NewReconciler(store, &recordingSession{}, discardLogger())

	for i := 0; i < reconcileQueueSize; i++ {
		if !reconciler.Enqueue(webhookUpdate{IssueID: testIssueID, Status: "Done"}) {
			t.Fatalf("enqueue %d rejected below capacity", i)
		}
	}
	if reconciler.Enqueue(webhookUpdate{IssueID: testIssueID, Status: "Done"}) {
		t.Error("enqueue accepted past capacity instead of reporting a full queue")
	}
}

func TestRunDrainsQueue(t *testing.T) {
	store := openTestStore(t)
	seedRecord(t, store)
	session := &recordingSession{}
	reconciler := NewReconciler(store, session, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		reconciler.Run(ctx)
		close(done)
	}()

	reconciler.Enqueue(webhookUpdate{IssueID: testIssueID, Status: "In Progress"})

	deadline := time.After(5 * time.Second)
	for len(session.sent()) == 0 {
		select {
		case <-deadline:
			t.Fatal("reconciler did not process the queued update")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	<-done
}
