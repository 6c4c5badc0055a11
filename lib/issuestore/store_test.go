// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package issuestore

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/ref"
)

var testStart = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

func openTestStore(t *testing.T, cfg Config) *Store {
	t.Helper()
	if cfg.Path == "" {
		cfg.Path = filepath.Join(t.TempDir(), "issues.db")
	}
	if cfg.Logger == nil {
		cfg.Logger = testLogger()
	}
	store, err := Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("Close: %v", err)
		}
	})
	return store
}

func testRecord() *Record {
	return &Record{
		ChatID:      ref.MustParseRoomID("!bridge:corp.example.com"),
		Requester:   ref.MustParseUserID("@florent:corp.example.com"),
		Team:        "ENG",
		IssueID:     ref.MustParseIssueID("a3f91c7e-0d42-4b8a-95c1-7e2f08d1b9aa"),
		TicketRef:   ref.MustParseTicketRef("ENG-42"),
		Title:       "Login page 500s on empty password",
		Description: "Repro: submit the form with no password.",
		Status:      "Todo",
		CreatedAt:   testStart,
		UpdatedAt:   testStart,
		Comments: []Comment{
			{Text: "taking a look", Author: "Sam Tanaka", CreatedAt: testStart.Add(time.Minute)},
		},
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	want := testRecord()
	if err := store.Put(ctx, want); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, err := store.Get(ctx, want.IssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil {
		t.Fatal("Get returned nil for a stored issue")
	}

	if got.IssueID != want.IssueID {
		t.Errorf("IssueID = %v, want %v", got.IssueID, want.IssueID)
	}
	if got.ChatID != want.ChatID {
		t.Errorf("ChatID = %v, want %v", got.ChatID, want.ChatID)
	}
	if got.Requester != want.Requester {
		t.Errorf("Requester = %v, want %v", got.Requester, want.Requester)
	}
	if got.Team != want.Team {
		t.Errorf("Team = %q, want %q", got.Team, want.Team)
	}
	if got.TicketRef != want.TicketRef {
		t.Errorf("TicketRef = %v, want %v", got.TicketRef, want.TicketRef)
	}
	if got.Title != want.Title {
		t.Errorf("Title = %q, want %q", got.Title, want.Title)
	}
	if got.Description != want.Description {
		t.Errorf("Description = %q, want %q", got.Description, want.Description)
	}
	if got.Status != want.Status {
		t.Errorf("Status = %q, want %q", got.Status, want.Status)
	}
	if !got.CreatedAt.Equal(want.CreatedAt) {
		t.Errorf("CreatedAt = %v, want %v", got.CreatedAt, want.CreatedAt)
	}
	if !got.UpdatedAt.Equal(want.UpdatedAt) {
		t.Errorf("UpdatedAt = %v, want %v", got.UpdatedAt, want.UpdatedAt)
	}
	if len(got.Comments) != 1 || got.Comments[0].Text != "taking a look" {
		t.Errorf("Comments = %+v, want the stored comment", got.Comments)
	}
}

func TestGetUnknownIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	got, err := store.Get(ctx, ref.MustParseIssueID("00000000-0000-0000-0000-000000000000"))
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %+v, want nil for an unknown issue", got)
	}
}

func TestPutUpserts(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	record := testRecord()
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}

	record.Title = "Login page 500s on empty password field"
	record.Status = "In Progress"
	record.UpdatedAt = testStart.Add(10 * time.Minute)
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("second Put: %v", err)
	}

	got, err := store.Get(ctx, record.IssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Title != record.Title {
		t.Errorf("Title = %q, want the updated title", got.Title)
	}
	if got.Status != "In Progress" {
		t.Errorf("Status = %q, want %q", got.Status, "In Progress")
	}

	records, err := store.ForChat(ctx, record.ChatID)
	if err != nil {
		t.Fatalf("ForChat: %v", err)
	}
	if len(records) != 1 {
		t.Errorf("ForChat returned %d records after upsert, want 1", len(records))
	}
}

func TestPutRequiresIssueID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	record := testRecord()
	record.IssueID = ref.IssueID{}
	err := store.Put(ctx, record)
	if err == nil {
		t.Fatal("Put accepted a record without an issue ID")
	}
	if !strings.Contains(err.Error(), "no issue ID") {
		t.Errorf("error = %q, want mention of the missing issue ID", err)
	}
}

func TestDeletePurgesRecordAndIndex(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	record := testRecord()
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}

	if err := store.Delete(ctx, record.IssueID); err != nil {
		t.Fatalf("Delete: %v", err)
	}

	got, err := store.Get(ctx, record.IssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("Get = %+v after Delete, want nil", got)
	}

	records, err := store.ForChat(ctx, record.ChatID)
	if err != nil {
		t.Fatalf("ForChat: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ForChat returned %d records after Delete, want 0", len(records))
	}

	// A second delete of the same issue is a no-op.
	if err := store.Delete(ctx, record.IssueID); err != nil {
		t.Errorf("repeated Delete: %v", err)
	}
}

func TestForChatOrdersByRecency(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	chatA := ref.MustParseRoomID("!alpha:corp.example.com")
	chatB := ref.MustParseRoomID("!beta:corp.example.com")

	older := testRecord()
	older.ChatID = chatA
	older.IssueID = ref.MustParseIssueID("11111111-1111-1111-1111-111111111111")
	older.TicketRef = ref.MustParseTicketRef("ENG-1")
	older.UpdatedAt = testStart

	newer := testRecord()
	newer.ChatID = chatA
	newer.IssueID = ref.MustParseIssueID("22222222-2222-2222-2222-222222222222")
	newer.TicketRef = ref.MustParseTicketRef("ENG-2")
	newer.UpdatedAt = testStart.Add(time.Hour)

	elsewhere := testRecord()
	elsewhere.ChatID = chatB
	elsewhere.IssueID = ref.MustParseIssueID("33333333-3333-3333-3333-333333333333")
	elsewhere.TicketRef = ref.MustParseTicketRef("OPS-9")

	for _, record := range []*Record{older, newer, elsewhere} {
		if err := store.Put(ctx, record); err != nil {
			t.Fatalf("Put %v: %v", record.TicketRef, err)
		}
	}

	records, err := store.ForChat(ctx, chatA)
	if err != nil {
		t.Fatalf("ForChat: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("ForChat returned %d records, want 2", len(records))
	}
	if records[0].TicketRef != newer.TicketRef || records[1].TicketRef != older.TicketRef {
		t.Errorf("ForChat order = [%v %v], want newest first [%v %v]",
			records[0].TicketRef, records[1].TicketRef, newer.TicketRef, older.TicketRef)
	}

	records, err = store.ForChat(ctx, ref.MustParseRoomID("!empty:corp.example.com"))
	if err != nil {
		t.Fatalf("ForChat on empty chat: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("ForChat on empty chat returned %d records, want 0", len(records))
	}
}

func TestAllSpansChats(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	first := testRecord()
	first.UpdatedAt = testStart

	second := testRecord()
	second.ChatID = ref.MustParseRoomID("!ops:corp.example.com")
	second.IssueID = ref.MustParseIssueID("44444444-4444-4444-4444-444444444444")
	second.TicketRef = ref.MustParseTicketRef("OPS-7")
	second.UpdatedAt = testStart.Add(time.Hour)

	for _, record := range []*Record{first, second} {
		if err := store.Put(ctx, record); err != nil {
			t.Fatalf("Put %v: %v", record.TicketRef, err)
		}
	}

	records, err := store.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("All returned %d records, want 2", len(records))
	}
	if records[0].TicketRef != second.TicketRef || records[1].TicketRef != first.TicketRef {
		t.Errorf("All order = [%v %v], want newest first [%v %v]",
			records[0].TicketRef, records[1].TicketRef, second.TicketRef, first.TicketRef)
	}
}

func TestAppendComment(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := clock.Fake(testStart)
	store := openTestStore(t, Config{Clock: clk})

	record := testRecord()
	record.Comments = nil
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clk.Advance(5 * time.Minute)
	first := Comment{Text: "repro confirmed", Author: "Sam Tanaka", CreatedAt: clk.Now()}
	if err := store.AppendComment(ctx, record.IssueID, first); err != nil {
		t.Fatalf("AppendComment: %v", err)
	}

	clk.Advance(5 * time.Minute)
	second := Comment{Text: "fix is up for review", Author: "Sam Tanaka", CreatedAt: clk.Now()}
	if err := store.AppendComment(ctx, record.IssueID, second); err != nil {
		t.Fatalf("second AppendComment: %v", err)
	}

	got, err := store.Get(ctx, record.IssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if len(got.Comments) != 2 {
		t.Fatalf("record has %d comments, want 2", len(got.Comments))
	}
	if got.Comments[0].Text != first.Text || got.Comments[1].Text != second.Text {
		t.Errorf("comment order = [%q %q], want arrival order [%q %q]",
			got.Comments[0].Text, got.Comments[1].Text, first.Text, second.Text)
	}
	if !got.UpdatedAt.Equal(clk.Now()) {
		t.Errorf("UpdatedAt = %v, want bumped to %v", got.UpdatedAt, clk.Now())
	}
}

func TestAppendCommentUnknownIssue(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	store := openTestStore(t, Config{Clock: clock.Fake(testStart)})

	unknown := ref.MustParseIssueID("99999999-9999-9999-9999-999999999999")
	comment := Comment{Text: "ghost", Author: "Nobody", CreatedAt: testStart}
	if err := store.AppendComment(ctx, unknown, comment); err != nil {
		t.Fatalf("AppendComment on unknown issue: %v", err)
	}

	got, err := store.Get(ctx, unknown)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got != nil {
		t.Errorf("AppendComment created record %+v, want no record", got)
	}
}

func TestUpdateStatus(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := clock.Fake(testStart)
	store := openTestStore(t, Config{Clock: clk})

	record := testRecord()
	if err := store.Put(ctx, record); err != nil {
		t.Fatalf("Put: %v", err)
	}

	clk.Advance(time.Hour)
	if err := store.UpdateStatus(ctx, record.IssueID, "Done"); err != nil {
		t.Fatalf("UpdateStatus: %v", err)
	}

	got, err := store.Get(ctx, record.IssueID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != "Done" {
		t.Errorf("Status = %q, want %q", got.Status, "Done")
	}
	if !got.UpdatedAt.Equal(clk.Now()) {
		t.Errorf("UpdatedAt = %v, want bumped to %v", got.UpdatedAt, clk.Now())
	}

	// Updating an unknown issue must not create one.
	unknown := ref.MustParseIssueID("99999999-9999-9999-9999-999999999999")
	if err := store.UpdateStatus(ctx, unknown, "Done"); err != nil {
		t.Errorf("UpdateStatus on unknown issue: %v", err)
	}
}

func TestHistoryWindowLimit(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := clock.Fake(testStart)
	store := openTestStore(t, Config{Clock: clk, HistoryLimit: 3})

	chat := ref.MustParseRoomID("!bridge:corp.example.com")
	sender := ref.MustParseUserID("@florent:corp.example.com")

	bodies := []string{"one", "two", "three", "four", "five"}
	for _, body := range bodies {
		entry := HistoryEntry{Sender: sender, Body: body, CreatedAt: clk.Now()}
		if err := store.AppendHistory(ctx, chat, entry); err != nil {
			t.Fatalf("AppendHistory(%q): %v", body, err)
		}
		clk.Advance(time.Minute)
	}

	entries, err := store.History(ctx, chat)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("History returned %d entries, want 3", len(entries))
	}
	for i, want := range []string{"three", "four", "five"} {
		if entries[i].Body != want {
			t.Errorf("entry %d = %q, want %q (oldest first)", i, entries[i].Body, want)
		}
	}
	if entries[0].Sender != sender {
		t.Errorf("entry sender = %v, want %v", entries[0].Sender, sender)
	}
}

func TestHistoryExpiry(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := clock.Fake(testStart)
	store := openTestStore(t, Config{Clock: clk, HistoryTTL: time.Hour})

	chat := ref.MustParseRoomID("!bridge:corp.example.com")
	sender := ref.MustParseUserID("@florent:corp.example.com")

	stale := HistoryEntry{Sender: sender, Body: "old news", CreatedAt: clk.Now()}
	if err := store.AppendHistory(ctx, chat, stale); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	// Past the TTL the read path filters the entry out even though no
	// write has trimmed it yet.
	clk.Advance(2 * time.Hour)
	entries, err := store.History(ctx, chat)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("History returned %d entries past the TTL, want 0", len(entries))
	}

	// The next write expires it for good.
	fresh := HistoryEntry{Sender: sender, Body: "still here", CreatedAt: clk.Now()}
	if err := store.AppendHistory(ctx, chat, fresh); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	entries, err = store.History(ctx, chat)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].Body != "still here" {
		t.Errorf("History = %+v, want only the fresh entry", entries)
	}
}

func TestHistoryPerChatIsolation(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	clk := clock.Fake(testStart)
	store := openTestStore(t, Config{Clock: clk})

	chatA := ref.MustParseRoomID("!alpha:corp.example.com")
	chatB := ref.MustParseRoomID("!beta:corp.example.com")
	sender := ref.MustParseUserID("@florent:corp.example.com")

	if err := store.AppendHistory(ctx, chatA, HistoryEntry{Sender: sender, Body: "for alpha"}); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if err := store.AppendHistory(ctx, chatB, HistoryEntry{Sender: sender, Body: "for beta"}); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}

	entries, err := store.History(ctx, chatA)
	if err != nil {
		t.Fatalf("History: %v", err)
	}
	if len(entries) != 1 || entries[0].Body != "for alpha" {
		t.Errorf("chat A history = %+v, want only its own entry", entries)
	}

	// The zero CreatedAt was stamped with the clock's current time.
	if !entries[0].CreatedAt.Equal(clk.Now()) {
		t.Errorf("stamped CreatedAt = %v, want %v", entries[0].CreatedAt, clk.Now())
	}
}

func TestOpenRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := Open(Config{})
	if err == nil {
		t.Fatal("Open accepted an empty path")
	}
	if !strings.Contains(err.Error(), "Path is required") {
		t.Errorf("error = %q, want mention of the missing path", err)
	}
}
