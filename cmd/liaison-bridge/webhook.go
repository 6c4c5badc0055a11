// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/hex"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/zeebo/blake3"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/service"
)

// maxWebhookBodySize caps webhook payload reads. Tracker payloads are
// small (an issue plus some metadata); 32 MB is generous headroom.
const maxWebhookBodySize = 32 * 1024 * 1024

// deduplicationWindow is how long delivery IDs are tracked for replay
// protection. The tracker retries undelivered webhooks within minutes,
// so an hour is conservative.
const deduplicationWindow = 1 * time.Hour

// webhookUpdate is one reconcilable event extracted from a webhook
// payload: a status change, a new comment, or a purge request from
// the dispatcher.
type webhookUpdate struct {
	IssueID   ref.IssueID
	TicketRef string

	// Status is the new workflow state name; empty for comment events.
	Status string

	// Comment fields; CommentBody empty for status events.
	CommentBody   string
	CommentAuthor string
	CommentAt     time.Time

	// Forget drops the reconciler's notification memory of the issue.
	// Set by the dispatcher after cancel/delete, never by a payload.
	Forget bool
}

// webhookPayload is the wire shape the tracker POSTs: {action, type?,
// data}. Supported combinations are action="update" carrying
// data.id/identifier/state.name and action="create" with
// type="Comment" carrying data.body/issue.id/user.name/createdAt.
type webhookPayload struct {
	Action string      `json:"action"`
	Type   string      `json:"type"`
	Data   webhookData `json:"data"`
}

type webhookData struct {
	ID         string    `json:"id"`
	Identifier string    `json:"identifier"`
	Body       string    `json:"body"`
	CreatedAt  time.Time `json:"createdAt"`
	State      *struct {
		Name string `json:"name"`
	} `json:"state"`
	Issue *struct {
		ID string `json:"id"`
	} `json:"issue"`
	User *struct {
		Name string `json:"name"`
	} `json:"user"`
}

// WebhookHandler is the authenticated ingress for tracker webhooks.
// It verifies HMAC-SHA256 signatures, deduplicates deliveries,
// extracts the reconcilable update, enqueues it, and ACKs; all
// tracker and chat work happens later on the reconciler goroutine, so
// the tracker's delivery timeout never trips on a slow downstream.
type WebhookHandler struct {
	secret  []byte
	clock   clock.Clock
	logger  *slog.Logger
	enqueue func(webhookUpdate) bool

	deliveries *deliveryLog
}

// NewWebhookHandler creates a handler verifying webhooks with the
// given HMAC secret. Panics if secret or enqueue is missing: an
// unauthenticated or event-discarding webhook endpoint is a wiring
// bug.
func NewWebhookHandler(secret []byte, clk clock.Clock, logger *slog.Logger, enqueue func(webhookUpdate) bool) *WebhookHandler {
	if len(secret) == 0 {
		panic("webhook: secret is required")
	}
	if enqueue == nil {
		panic("webhook: enqueue callback is required")
	}
	if clk == nil {
		clk = clock.Real()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &WebhookHandler{
		secret:     secret,
		clock:      clk,
		logger:     logger,
		enqueue:    enqueue,
		deliveries: newDeliveryLog(clk),
	}
}

// ServeHTTP handles one webhook delivery.
func (h *WebhookHandler) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	if request.Method != http.MethodPost {
		http.Error(writer, "", http.StatusMethodNotAllowed)
		return
	}

	// Raw bytes first: HMAC verification needs them.
	body, err := io.ReadAll(io.LimitReader(request.Body, maxWebhookBodySize))
	if err != nil {
		h.logger.Error("webhook: reading body failed", "error", err)
		http.Error(writer, "", http.StatusInternalServerError)
		return
	}
	if len(body) == 0 {
		http.Error(writer, "", http.StatusBadRequest)
		return
	}

	signature := request.Header.Get("Linear-Signature")
	if err := service.VerifyWebhookHMAC(h.secret, body, signature); err != nil {
		h.logger.Warn("webhook: signature verification failed",
			"error", err,
			"remote_addr", request.RemoteAddr,
		)
		http.Error(writer, "", http.StatusForbidden)
		return
	}

	// Delivery ID for replay protection. When the tracker omits the
	// header, a digest of the body stands in: identical retried bodies
	// deduplicate the same way.
	deliveryID := request.Header.Get("Linear-Delivery")
	if deliveryID == "" {
		digest := blake3.Sum256(body)
		deliveryID = hex.EncodeToString(digest[:])
	}
	if h.deliveries.seen(deliveryID) {
		h.logger.Debug("webhook: duplicate delivery absorbed", "delivery_id", deliveryID)
		writer.WriteHeader(http.StatusOK)
		return
	}

	update, ok := h.translate(body)
	if !ok {
		// Unsupported or incomplete payloads are acknowledged;
		// retrying will not make them processable.
		writer.WriteHeader(http.StatusOK)
		return
	}

	if !h.enqueue(update) {
		h.logger.Error("webhook: reconcile queue full, dropping update",
			"issue_id", update.IssueID, "delivery_id", deliveryID)
	}
	writer.WriteHeader(http.StatusOK)
}

// translate extracts the reconcilable update from a payload. Returns
// false for unsupported action/type combinations and for payloads
// missing their minimum required fields (issue id, state name, body,
// author); those are dropped without notification.
func (h *WebhookHandler) translate(body []byte) (webhookUpdate, bool) {
	var payload webhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		h.logger.Warn("webhook: undecodable payload", "error", err)
		return webhookUpdate{}, false
	}

	switch {
	case payload.Action == "update":
		if payload.Data.ID == "" || payload.Data.State == nil || payload.Data.State.Name == "" {
			h.logger.Debug("webhook: update payload missing id or state name")
			return webhookUpdate{}, false
		}
		issueID, err := ref.ParseIssueID(payload.Data.ID)
		if err != nil {
			h.logger.Warn("webhook: malformed issue id", "raw", payload.Data.ID, "error", err)
			return webhookUpdate{}, false
		}
		return webhookUpdate{
			IssueID:   issueID,
			TicketRef: payload.Data.Identifier,
			Status:    payload.Data.State.Name,
		}, true

	case payload.Action == "create" && payload.Type == "Comment":
		if payload.Data.Body == "" || payload.Data.Issue == nil || payload.Data.Issue.ID == "" ||
			payload.Data.User == nil || payload.Data.User.Name == "" {
			h.logger.Debug("webhook: comment payload missing body, issue, or author")
			return webhookUpdate{}, false
		}
		issueID, err := ref.ParseIssueID(payload.Data.Issue.ID)
		if err != nil {
			h.logger.Warn("webhook: malformed issue id", "raw", payload.Data.Issue.ID, "error", err)
			return webhookUpdate{}, false
		}
		return webhookUpdate{
			IssueID:       issueID,
			CommentBody:   payload.Data.Body,
			CommentAuthor: payload.Data.User.Name,
			CommentAt:     payload.Data.CreatedAt,
		}, true

	default:
		h.logger.Debug("webhook: unsupported payload",
			"action", payload.Action, "type", payload.Type)
		return webhookUpdate{}, false
	}
}

// deliveryLog tracks recently seen delivery IDs. The HTTP server may
// run handlers concurrently, so it locks.
type deliveryLog struct {
	clock clock.Clock

	mu      sync.Mutex
	entries map[string]time.Time
}

func newDeliveryLog(clk clock.Clock) *deliveryLog {
	return &deliveryLog{
		clock:   clk,
		entries: make(map[string]time.Time),
	}
}

// seen checks and records a delivery ID, pruning expired entries as it
// goes. The map stays small: one entry per delivery in the last hour.
func (l *deliveryLog) seen(deliveryID string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.clock.Now()
	for id, receivedAt := range l.entries {
		if now.Sub(receivedAt) > deduplicationWindow {
			delete(l.entries, id)
		}
	}

	if _, exists := l.entries[deliveryID]; exists {
		return true
	}
	l.entries[deliveryID] = now
	return false
}
