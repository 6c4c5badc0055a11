// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/messaging"
)

// fakeSession scripts the two Session methods the sync loop touches;
// the rest return zero values.
type fakeSession struct {
	syncFunc func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error)
	joinFunc func(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error)
}

var _ messaging.Session = (*fakeSession)(nil)

func (s *fakeSession) UserID() ref.UserID {
	return ref.MustParseUserID("@liaison:corp.example.com")
}

func (s *fakeSession) Close() error { return nil }

func (s *fakeSession) WhoAmI(ctx context.Context) (ref.UserID, error) {
	return s.UserID(), nil
}

func (s *fakeSession) ResolveAlias(ctx context.Context, alias ref.RoomAlias) (ref.RoomID, error) {
	return ref.RoomID{}, nil
}

func (s *fakeSession) JoinRoom(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
	if s.joinFunc != nil {
		return s.joinFunc(ctx, roomID)
	}
	return roomID, nil
}

func (s *fakeSession) JoinedRooms(ctx context.Context) ([]ref.RoomID, error) {
	return nil, nil
}

func (s *fakeSession) SendMessage(ctx context.Context, roomID ref.RoomID, content messaging.MessageContent) (ref.EventID, error) {
	return ref.EventID{}, nil
}

func (s *fakeSession) SendEvent(ctx context.Context, roomID ref.RoomID, eventType ref.EventType, content any) (ref.EventID, error) {
	return ref.EventID{}, nil
}

func (s *fakeSession) RoomMessages(ctx context.Context, roomID ref.RoomID, options messaging.RoomMessagesOptions) (*messaging.RoomMessagesResponse, error) {
	return nil, nil
}

func (s *fakeSession) GetDisplayName(ctx context.Context, userID ref.UserID) (string, error) {
	return "", nil
}

func (s *fakeSession) Sync(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
	return s.syncFunc(ctx, options)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInitialSync(t *testing.T) {
	session := &fakeSession{}
	session.syncFunc = func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
		if options.Since != "" {
			t.Errorf("initial sync sent since = %q, want empty", options.Since)
		}
		if options.SetTimeout {
			t.Error("initial sync sent a timeout, want none (immediate snapshot)")
		}
		if options.Filter != `{"room":{}}` {
			t.Errorf("filter = %q, want the configured filter", options.Filter)
		}
		return &messaging.SyncResponse{NextBatch: "s100"}, nil
	}

	token, response, err := InitialSync(context.Background(), session, `{"room":{}}`)
	if err != nil {
		t.Fatalf("InitialSync: %v", err)
	}
	if token != "s100" {
		t.Errorf("token = %q, want %q", token, "s100")
	}
	if response == nil || response.NextBatch != "s100" {
		t.Errorf("response = %+v, want the sync snapshot", response)
	}
}

func TestInitialSyncError(t *testing.T) {
	session := &fakeSession{}
	session.syncFunc = func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
		return nil, fmt.Errorf("connection refused")
	}

	_, _, err := InitialSync(context.Background(), session, "")
	if err == nil {
		t.Fatal("InitialSync returned nil error")
	}
	if !strings.Contains(err.Error(), "initial sync") || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %q, want wrapped sync failure", err)
	}
}

func TestRunSyncLoopRetriesWithBackoff(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	calls := 0
	session := &fakeSession{}
	session.syncFunc = func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
		calls++
		switch calls {
		case 1, 2:
			if options.Since != "s1" {
				t.Errorf("call %d since = %q, want %q (unchanged across failures)", calls, options.Since, "s1")
			}
			return nil, fmt.Errorf("connection reset")
		case 3:
			if !options.SetTimeout || options.Timeout != 30000 {
				t.Errorf("call 3 timeout = %d (set=%v), want default 30000", options.Timeout, options.SetTimeout)
			}
			return &messaging.SyncResponse{NextBatch: "s2"}, nil
		default:
			if options.Since != "s2" {
				t.Errorf("call %d since = %q, want %q (advanced after success)", calls, options.Since, "s2")
			}
			cancel()
			return nil, ctx.Err()
		}
	}

	var handled []*messaging.SyncResponse
	done := make(chan struct{})
	go func() {
		defer close(done)
		RunSyncLoop(ctx, session, SyncConfig{}, "s1", func(ctx context.Context, response *messaging.SyncResponse) {
			handled = append(handled, response)
		}, clk, discardLogger())
	}()

	// First failure: the loop parks on a 1s backoff timer.
	clk.WaitForTimers(1)
	clk.Advance(time.Second)

	// Second failure: backoff doubled to 2s.
	clk.WaitForTimers(1)
	clk.Advance(2 * time.Second)

	select {
	case <-done:
	case <-t.Context().Done():
		t.Fatal("sync loop did not stop before test deadline")
	}

	if calls != 4 {
		t.Errorf("sync called %d times, want 4", calls)
	}
	if len(handled) != 1 || handled[0].NextBatch != "s2" {
		t.Errorf("handler saw %d responses, want exactly the successful one", len(handled))
	}
}

func TestRunSyncLoopStopsOnCancel(t *testing.T) {
	clk := clock.Fake(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	session := &fakeSession{}
	session.syncFunc = func(ctx context.Context, options messaging.SyncOptions) (*messaging.SyncResponse, error) {
		calls++
		return &messaging.SyncResponse{}, nil
	}

	RunSyncLoop(ctx, session, SyncConfig{}, "", func(context.Context, *messaging.SyncResponse) {}, clk, discardLogger())

	if calls != 0 {
		t.Errorf("sync called %d times on a cancelled context, want 0", calls)
	}
}

func TestAcceptInvites(t *testing.T) {
	roomGood := ref.MustParseRoomID("!good:corp.example.com")
	roomBad := ref.MustParseRoomID("!bad:corp.example.com")

	session := &fakeSession{}
	session.joinFunc = func(ctx context.Context, roomID ref.RoomID) (ref.RoomID, error) {
		if roomID == roomBad {
			return ref.RoomID{}, fmt.Errorf("M_FORBIDDEN: not invited")
		}
		return roomID, nil
	}

	invites := map[ref.RoomID]messaging.InvitedRoom{
		roomGood: {},
		roomBad:  {},
	}

	accepted := AcceptInvites(context.Background(), session, invites, discardLogger())
	if len(accepted) != 1 || accepted[0] != roomGood {
		t.Errorf("accepted = %v, want only %v", accepted, roomGood)
	}
}
