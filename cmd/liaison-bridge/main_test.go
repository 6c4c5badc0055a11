// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/issuestore"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/tracker"
	"github.com/liaisonhq/liaison/messaging"
)

var testStart = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)

var (
	testRoom      = ref.MustParseRoomID("!eng:corp.example.com")
	testRequester = ref.MustParseUserID("@florent:corp.example.com")
	testIssueID   = ref.MustParseIssueID("a3f91c7e-0d42-4b8a-95c1-7e2f08d1b9aa")
	testTicket    = ref.MustParseTicketRef("ENG-42")
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *issuestore.Store {
	t.Helper()
	store, err := issuestore.Open(issuestore.Config{
		Path:   filepath.Join(t.TempDir(), "issues.db"),
		Clock:  clock.Fake(testStart),
		Logger: discardLogger(),
	})
	if err != nil {
		t.Fatalf("opening store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

// fakeTracker records mutations and serves scripted issues and
// workflow states.
type fakeTracker struct {
	issues map[ref.TicketRef]*tracker.Issue
	states []tracker.WorkflowState

	createRequests   []tracker.CreateIssueRequest
	updateRequests   []fakeUpdate
	archivedIssues   []ref.IssueID
	deletedIssues    []ref.IssueID
	createdIssue     *tracker.Issue
	failNextMutation bool
}

type fakeUpdate struct {
	IssueID ref.IssueID
	Update  tracker.IssueUpdate
}

func newFakeTracker() *fakeTracker {
	issue := &tracker.Issue{
		ID:         testIssueID,
		Identifier: testTicket,
		Title:      "Login page 500s on empty password",
		URL:        "https://tracker.example.com/issue/ENG-42",
		State:      tracker.WorkflowState{ID: "state-todo", Name: "Todo"},
	}
	return &fakeTracker{
		issues: map[ref.TicketRef]*tracker.Issue{testTicket: issue},
		states: []tracker.WorkflowState{
			{ID: "state-todo", Name: "Todo"},
			{ID: "state-progress", Name: "In Progress"},
			{ID: "state-done", Name: "Done"},
		},
		createdIssue: &tracker.Issue{
			ID:         ref.MustParseIssueID("b4e82d6f-1e53-4c9b-86d2-8f3e19c2caa1"),
			Identifier: ref.MustParseTicketRef("ENG-43"),
			Title:      "created",
			URL:        "https://tracker.example.com/issue/ENG-43",
			State:      tracker.WorkflowState{ID: "state-todo", Name: "Todo"},
		},
	}
}

func (f *fakeTracker) CreateIssue(ctx context.Context, request tracker.CreateIssueRequest) (*tracker.Issue, error) {
	if f.failNextMutation {
		f.failNextMutation = false
		return nil, fmt.Errorf("tracker unavailable")
	}
	f.createRequests = append(f.createRequests, request)
	issue := *f.createdIssue
	issue.Title = request.Title
	if request.AssigneeID != "" {
		issue.Assignee = &tracker.User{ID: request.AssigneeID, DisplayName: "assigned"}
	}
	return &issue, nil
}

func (f *fakeTracker) UpdateIssue(ctx context.Context, issueID ref.IssueID, update tracker.IssueUpdate) (*tracker.Issue, error) {
	if f.failNextMutation {
		f.failNextMutation = false
		return nil, fmt.Errorf("tracker unavailable")
	}
	f.updateRequests = append(f.updateRequests, fakeUpdate{IssueID: issueID, Update: update})
	for _, issue := range f.issues {
		if issue.ID == issueID {
			updated := *issue
			if update.Title != nil {
				updated.Title = *update.Title
			}
			if update.StateID != nil {
				for _, state := range f.states {
					if state.ID == *update.StateID {
						updated.State = state
					}
				}
			}
			return &updated, nil
		}
	}
	return nil, fmt.Errorf("issue %s not found", issueID)
}

func (f *fakeTracker) ArchiveIssue(ctx context.Context, issueID ref.IssueID) error {
	if f.failNextMutation {
		f.failNextMutation = false
		return fmt.Errorf("tracker unavailable")
	}
	f.archivedIssues = append(f.archivedIssues, issueID)
	return nil
}

func (f *fakeTracker) DeleteIssue(ctx context.Context, issueID ref.IssueID) error {
	if f.failNextMutation {
		f.failNextMutation = false
		return fmt.Errorf("tracker unavailable")
	}
	f.deletedIssues = append(f.deletedIssues, issueID)
	return nil
}

func (f *fakeTracker) IssueByRef(ctx context.Context, ticket ref.TicketRef) (*tracker.Issue, error) {
	issue, ok := f.issues[ticket]
	if !ok {
		return nil, fmt.Errorf("issue %s not found", ticket)
	}
	return issue, nil
}

func (f *fakeTracker) TeamStates(ctx context.Context, teamID string) ([]tracker.WorkflowState, error) {
	return f.states, nil
}

// fakeResolver knows a fixed set of people by normalized name.
type fakeResolver struct {
	users map[string]*tracker.User
}

func newFakeResolver() *fakeResolver {
	return &fakeResolver{users: map[string]*tracker.User{
		"sam":     {ID: "user-sam", Name: "Sam Tanaka", DisplayName: "Sam Tanaka", Email: "sam@corp.example.com"},
		"florent": {ID: "user-florent", Name: "Florent Maurin", DisplayName: "Florent", Email: "florent@corp.example.com"},
	}}
}

func (f *fakeResolver) Resolve(ctx context.Context, rawName string) (*tracker.User, bool) {
	user, ok := f.users[rawName]
	return user, ok
}

// recordingSession captures outbound messages; other Session methods
// return zero values.
type recordingSession struct {
	mu       sync.Mutex
	messages []sentMessage

	sendErr error
}

type sentMessage struct {
	RoomID  ref.RoomID
	Content messaging.MessageContent
}

var _ messaging.Session = (*recordingSession)(nil)

func (s *recordingSession) UserID() ref.UserID {
	return ref.MustParseUserID("@liaison:corp.example.com")
}

func (s *recordingSession) Close() error { return nil }

func (s *recordingSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	return s.UserID(), nil
}

func (s *recordingSession) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	return ref.RoomID{}, nil
}

func (s *recordingSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	return roomID, nil
}

func (s *recordingSession) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	return nil, nil
}

func (s *recordingSession) SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sendErr != nil {
		return ref.EventID{}, s.sendErr
	}
	s.messages = append(s.messages, sentMessage{RoomID: roomID, Content: content})
	return ref.MustParseEventID(fmt.Sprintf("$sent%d:corp.example.com", len(s.messages))), nil
}

func (s *recordingSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	return ref.EventID{}, nil
}

func (s *recordingSession) RoomMessages(ctx context.Context, roomID ref.RoomID, options messaging.RoomMessagesOptions) (*messaging.RoomMessagesResponse, error) {
	return nil, nil
}

func (s *recordingSession) GetDisplayName(ctx context.Context, userID ref.UserID) (string, error) {
	return "", nil
}

func (s *recordingSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	return &messaging.SyncResponse{}, nil
}

func (s *recordingSession) sent() []sentMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]sentMessage(nil), s.messages...)
}

// seedRecord stores the canonical test record for ENG-42.
func seedRecord(t *testing.T, store *issuestore.Store) *issuestore.Record {
	t.Helper()
	record := &issuestore.Record{
		ChatID:      testRoom,
		Requester:   testRequester,
		Team:        "ENG",
		IssueID:     testIssueID,
		TicketRef:   testTicket,
		Title:       "Login page 500s on empty password",
		Description: "Repro: submit the form with no password.",
		Status:      "Todo",
		CreatedAt:   testStart,
		UpdatedAt:   testStart,
	}
	if err := store.Put(context.Background(), record); err != nil {
		t.Fatalf("seeding record: %v", err)
	}
	return record
}

// newTestDispatcher wires a dispatcher over the fakes and a temp
// store.
func newTestDispatcher(t *testing.T, fake *fakeTracker, forget func(ref.IssueID)) (*Dispatcher, *issuestore.Store) {
	t.Helper()
	store := openTestStore(t)
	dispatcher := NewDispatcher(DispatcherConfig{
		Tracker:  fake,
		Resolver: newFakeResolver(),
		Store:    store,
		Team:     tracker.Team{ID: "team-eng", Key: "ENG", Name: "Engineering"},
		Clock:    clock.Fake(testStart),
		Logger:   discardLogger(),
		Forget:   forget,
	})
	return dispatcher, store
}
