// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/liaisonhq/liaison/lib/issuestore"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/messaging"
)

// reconcileQueueSize bounds the webhook-to-reconciler channel. The
// reconciler drains far faster than the tracker delivers, so the
// buffer only has to absorb bursts.
const reconcileQueueSize = 256

// Reconciler merges externally-pushed tracker state into the issue
// store and replays genuine changes to the originating chat. One
// goroutine owns it: updates arrive through a channel, so the
// last-notified map has a single writer and per-issue processing is
// strictly ordered.
//
// Idempotence lives here, not at the HTTP edge: the webhook handler
// ACKs before any of this work happens, so the tracker's delivery
// retries are expected. A repeated (issue, status) pair is silently
// discarded; exactly one chat notification goes out per genuine
// transition.
type Reconciler struct {
	store   *issuestore.Store
	session messaging.Session
	logger  *slog.Logger

	updates chan webhookUpdate

	// lastNotified maps issue ID to the last status a notification
	// went out for. Only the Run goroutine touches it.
	lastNotified map[ref.IssueID]string
}

// NewReconciler creates a reconciler. Panics on nil dependencies.
func NewReconciler(store *issuestore.Store, session messaging.Session, logger *slog.Logger) *Reconciler {
	if store == nil {
		panic("reconciler: store is required")
	}
	if session == nil {
		panic("reconciler: session is required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{
		store:        store,
		session:      session,
		logger:       logger,
		updates:      make(chan webhookUpdate, reconcileQueueSize),
		lastNotified: make(map[ref.IssueID]string),
	}
}

// Seed primes the last-notified map from stored record statuses so a
// daemon restart does not re-announce the status quo when the tracker
// redelivers pending webhooks.
func (r *Reconciler) Seed(ctx context.Context) error {
	records, err := r.store.All(ctx)
	if err != nil {
		return fmt.Errorf("seeding reconciler: %w", err)
	}
	for _, record := range records {
		if record.Status != "" {
			r.lastNotified[record.IssueID] = record.Status
		}
	}
	r.logger.Info("reconciler seeded", "issues", len(records))
	return nil
}

// Enqueue hands an update to the reconciler goroutine. Returns false
// when the queue is full; the caller logs and drops. Never blocks:
// the webhook handler must ACK promptly no matter what.
func (r *Reconciler) Enqueue(update webhookUpdate) bool {
	select {
	case r.updates <- update:
		return true
	default:
		return false
	}
}

// Forget drops the notification memory of an issue. The dispatcher
// calls it after purging a cancelled or deleted issue.
func (r *Reconciler) Forget(issueID ref.IssueID) {
	r.Enqueue(webhookUpdate{IssueID: issueID, Forget: true})
}

// Run processes updates until ctx is cancelled. Call exactly once.
func (r *Reconciler) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-r.updates:
			r.apply(ctx, update)
		}
	}
}

func (r *Reconciler) apply(ctx context.Context, update webhookUpdate) {
	if update.Forget {
		delete(r.lastNotified, update.IssueID)
		return
	}

	record, err := r.store.Get(ctx, update.IssueID)
	if err != nil {
		r.logger.Error("reconcile: record lookup failed",
			"issue_id", update.IssueID, "error", err)
		return
	}
	if record == nil {
		// Not created through the bridge, or already purged. Nothing
		// to mirror and no chat to notify.
		r.logger.Debug("reconcile: update for unknown issue ignored",
			"issue_id", update.IssueID, "ticket_ref", update.TicketRef)
		return
	}

	switch {
	case update.Status != "":
		r.applyStatus(ctx, record, update.Status)
	case update.CommentBody != "":
		r.applyComment(ctx, record, update)
	}
}

func (r *Reconciler) applyStatus(ctx context.Context, record *issuestore.Record, status string) {
	if r.lastNotified[record.IssueID] == status {
		r.logger.Debug("reconcile: repeated status absorbed",
			"issue_id", record.IssueID, "status", status)
		return
	}

	if err := r.store.UpdateStatus(ctx, record.IssueID, status); err != nil {
		r.logger.Error("reconcile: status persist failed",
			"issue_id", record.IssueID, "status", status, "error", err)
		return
	}
	r.lastNotified[record.IssueID] = status

	r.notify(ctx, record.ChatID,
		fmt.Sprintf("**%s** moved to %s: %s", record.TicketRef, status, record.Title))
}

func (r *Reconciler) applyComment(ctx context.Context, record *issuestore.Record, update webhookUpdate) {
	comment := issuestore.Comment{
		Text:      update.CommentBody,
		Author:    update.CommentAuthor,
		CreatedAt: update.CommentAt,
	}
	if err := r.store.AppendComment(ctx, record.IssueID, comment); err != nil {
		r.logger.Error("reconcile: comment persist failed",
			"issue_id", record.IssueID, "error", err)
		return
	}

	r.notify(ctx, record.ChatID,
		fmt.Sprintf("New comment on **%s** from %s:\n> %s",
			record.TicketRef, update.CommentAuthor, update.CommentBody))
}

func (r *Reconciler) notify(ctx context.Context, chatID ref.RoomID, markdown string) {
	if chatID.IsZero() {
		return
	}
	if _, err := r.session.SendMessage(ctx, chatID, reply(markdown)); err != nil {
		r.logger.Error("reconcile: chat notification failed",
			"room_id", chatID, "error", err)
	}
}
