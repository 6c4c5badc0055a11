// Copyright 2026 The Liaison Authors
// SPDX-License-Identifier: Apache-2.0

package issuestore

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/liaisonhq/liaison/lib/clock"
	"github.com/liaisonhq/liaison/lib/ref"
	"github.com/liaisonhq/liaison/lib/sqlitepool"
)

// Record is the bridge's stored view of one tracker issue. IssueID is
// the durable key; everything else mirrors tracker state plus the chat
// provenance (which room asked for it, who asked).
type Record struct {
	ChatID      ref.RoomID
	Requester   ref.UserID
	Team        string
	IssueID     ref.IssueID
	TicketRef   ref.TicketRef
	Title       string
	Description string
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	Comments    []Comment
}

// Comment is one tracker comment mirrored onto a record. Comments only
// append; the reconciler never rewrites past entries.
type Comment struct {
	Text      string    `cbor:"text"`
	Author    string    `cbor:"author"`
	CreatedAt time.Time `cbor:"created_at"`
}

// HistoryEntry is one chat message in a room's history window.
type HistoryEntry struct {
	Sender    ref.UserID
	Body      string
	CreatedAt time.Time
}

// Default history window bounds. The window is interpreter context,
// not an archive; it only needs to cover the active conversation.
const (
	defaultHistoryLimit = 50
	defaultHistoryTTL   = 6 * time.Hour
)

// schema is applied to every pool connection on first use. All
// statements are idempotent so reconnects and restarts are safe.
const schema = `
CREATE TABLE IF NOT EXISTS issues (
	issue_id    TEXT PRIMARY KEY,
	chat_id     TEXT NOT NULL,
	requester   TEXT NOT NULL,
	team        TEXT NOT NULL,
	ticket_ref  TEXT NOT NULL,
	title       TEXT NOT NULL,
	description TEXT NOT NULL,
	status      TEXT NOT NULL,
	created_at  INTEGER NOT NULL,
	updated_at  INTEGER NOT NULL,
	comments    BLOB
);

CREATE TABLE IF NOT EXISTS chat_issues (
	chat_id  TEXT NOT NULL,
	issue_id TEXT NOT NULL,
	PRIMARY KEY (chat_id, issue_id)
) WITHOUT ROWID;

CREATE INDEX IF NOT EXISTS idx_chat_issues_issue ON chat_issues(issue_id);

CREATE TABLE IF NOT EXISTS chat_history (
	id         INTEGER PRIMARY KEY,
	chat_id    TEXT NOT NULL,
	sender     TEXT NOT NULL,
	body       TEXT NOT NULL,
	created_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_chat_history_chat ON chat_history(chat_id, id);
`

// Config holds the parameters for opening an issue store.
type Config struct {
	// Path is the filesystem path to the SQLite database file. The
	// parent directory must exist. Required.
	Path string

	// PoolSize is the number of connections in the pool. Defaults to
	// 4 if zero or negative.
	PoolSize int

	// HistoryLimit is the maximum number of messages retained per chat.
	// Defaults to 50.
	HistoryLimit int

	// HistoryTTL is the age past which history entries expire, on both
	// read and write. Defaults to 6 hours.
	HistoryTTL time.Duration

	// Clock provides the current time for history expiry and record
	// update stamps. Defaults to the real clock.
	Clock clock.Clock

	// Logger receives operational messages. Defaults to slog.Default().
	Logger *slog.Logger
}

// Store is the SQLite-backed issue store. Safe for concurrent use;
// each operation borrows its own pooled connection.
type Store struct {
	pool         *sqlitepool.Pool
	clock        clock.Clock
	logger       *slog.Logger
	historyLimit int
	historyTTL   time.Duration
}

// Open creates an issue store backed by SQLite. The database file is
// created if it does not exist, and the schema is applied to every
// connection on first use.
func Open(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("issue store: Path is required")
	}

	clk := cfg.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = defaultHistoryLimit
	}
	historyTTL := cfg.HistoryTTL
	if historyTTL <= 0 {
		historyTTL = defaultHistoryTTL
	}

	poolSize := cfg.PoolSize
	if poolSize <= 0 {
		poolSize = 4
	}

	pool, err := sqlitepool.Open(sqlitepool.Config{
		Path:     cfg.Path,
		PoolSize: poolSize,
		Logger:   logger,
		OnConnect: func(conn *sqlite.Conn) error {
			return sqlitex.ExecuteScript(conn, schema, nil)
		},
	})
	if err != nil {
		return nil, fmt.Errorf("issue store: %w", err)
	}

	return &Store{
		pool:         pool,
		clock:        clk,
		logger:       logger,
		historyLimit: historyLimit,
		historyTTL:   historyTTL,
	}, nil
}

// Close closes the underlying connection pool. Blocks until all
// borrowed connections are returned.
func (s *Store) Close() error {
	return s.pool.Close()
}

// Put upserts a record and adds it to its chat's membership index.
// The record is stored exactly as given; timestamps are the caller's.
func (s *Store) Put(ctx context.Context, record *Record) (err error) {
	if record.IssueID.IsZero() {
		return fmt.Errorf("issue store: record has no issue ID")
	}

	blob, err := encodeComments(record.Comments)
	if err != nil {
		return err
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("issue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		INSERT INTO issues (issue_id, chat_id, requester, team, ticket_ref,
			title, description, status, created_at, updated_at, comments)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (issue_id) DO UPDATE SET
			chat_id     = excluded.chat_id,
			requester   = excluded.requester,
			team        = excluded.team,
			ticket_ref  = excluded.ticket_ref,
			title       = excluded.title,
			description = excluded.description,
			status      = excluded.status,
			created_at  = excluded.created_at,
			updated_at  = excluded.updated_at,
			comments    = excluded.comments`,
		&sqlitex.ExecOptions{Args: []any{
			record.IssueID.String(),
			record.ChatID.String(),
			record.Requester.String(),
			record.Team,
			record.TicketRef.String(),
			record.Title,
			record.Description,
			record.Status,
			record.CreatedAt.UnixNano(),
			record.UpdatedAt.UnixNano(),
			blob,
		}})
	if err != nil {
		return fmt.Errorf("issue store: writing issue %s: %w", record.IssueID, err)
	}

	if !record.ChatID.IsZero() {
		err = sqlitex.Execute(conn,
			`INSERT OR IGNORE INTO chat_issues (chat_id, issue_id) VALUES (?, ?)`,
			&sqlitex.ExecOptions{Args: []any{
				record.ChatID.String(),
				record.IssueID.String(),
			}})
		if err != nil {
			return fmt.Errorf("issue store: indexing issue %s for chat %s: %w",
				record.IssueID, record.ChatID, err)
		}
	}

	return nil
}

// Get returns the record for an issue ID, or (nil, nil) when the issue
// is not stored.
func (s *Store) Get(ctx context.Context, issueID ref.IssueID) (*Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var record *Record
	err = sqlitex.Execute(conn, `
		SELECT issue_id, chat_id, requester, team, ticket_ref,
			title, description, status, created_at, updated_at, comments
		FROM issues WHERE issue_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{issueID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				scanned, scanErr := scanRecord(stmt)
				if scanErr != nil {
					return scanErr
				}
				record = scanned
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("issue store: reading issue %s: %w", issueID, err)
	}
	return record, nil
}

// Delete removes a record and every chat-index entry pointing at it.
// Deleting an issue that is not stored is a no-op.
func (s *Store) Delete(ctx context.Context, issueID ref.IssueID) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("issue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `DELETE FROM issues WHERE issue_id = ?`,
		&sqlitex.ExecOptions{Args: []any{issueID.String()}})
	if err != nil {
		return fmt.Errorf("issue store: deleting issue %s: %w", issueID, err)
	}

	err = sqlitex.Execute(conn, `DELETE FROM chat_issues WHERE issue_id = ?`,
		&sqlitex.ExecOptions{Args: []any{issueID.String()}})
	if err != nil {
		return fmt.Errorf("issue store: unindexing issue %s: %w", issueID, err)
	}

	return nil
}

// ForChat returns every stored record whose issue belongs to the chat's
// membership index, most recently updated first.
func (s *Store) ForChat(ctx context.Context, chatID ref.RoomID) ([]*Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var records []*Record
	err = sqlitex.Execute(conn, `
		SELECT i.issue_id, i.chat_id, i.requester, i.team, i.ticket_ref,
			i.title, i.description, i.status, i.created_at, i.updated_at, i.comments
		FROM chat_issues ci
		JOIN issues i ON i.issue_id = ci.issue_id
		WHERE ci.chat_id = ?
		ORDER BY i.updated_at DESC`,
		&sqlitex.ExecOptions{
			Args: []any{chatID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record, scanErr := scanRecord(stmt)
				if scanErr != nil {
					return scanErr
				}
				records = append(records, record)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("issue store: listing issues for chat %s: %w", chatID, err)
	}
	return records, nil
}

// All returns every stored record, most recently updated first. The
// reconciler seeds its last-notified map from this at daemon start;
// the operator CLI lists it.
func (s *Store) All(ctx context.Context) ([]*Record, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	var records []*Record
	err = sqlitex.Execute(conn, `
		SELECT issue_id, chat_id, requester, team, ticket_ref,
			title, description, status, created_at, updated_at, comments
		FROM issues
		ORDER BY updated_at DESC`,
		&sqlitex.ExecOptions{
			ResultFunc: func(stmt *sqlite.Stmt) error {
				record, scanErr := scanRecord(stmt)
				if scanErr != nil {
					return scanErr
				}
				records = append(records, record)
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("issue store: listing issues: %w", err)
	}
	return records, nil
}

// AppendComment appends one comment to a record's comment list and
// bumps its update stamp. Appending to an issue that is not stored is
// a no-op; the caller decides whether that is worth logging.
func (s *Store) AppendComment(ctx context.Context, issueID ref.IssueID, comment Comment) (err error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("issue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	var blob []byte
	found := false
	err = sqlitex.Execute(conn, `SELECT comments FROM issues WHERE issue_id = ?`,
		&sqlitex.ExecOptions{
			Args: []any{issueID.String()},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				found = true
				blob = columnBlob(stmt, 0)
				return nil
			},
		})
	if err != nil {
		return fmt.Errorf("issue store: reading comments for issue %s: %w", issueID, err)
	}
	if !found {
		return nil
	}

	comments, err := decodeComments(blob)
	if err != nil {
		return err
	}
	comments = append(comments, comment)

	encoded, err := encodeComments(comments)
	if err != nil {
		return err
	}

	err = sqlitex.Execute(conn,
		`UPDATE issues SET comments = ?, updated_at = ? WHERE issue_id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			encoded,
			s.clock.Now().UnixNano(),
			issueID.String(),
		}})
	if err != nil {
		return fmt.Errorf("issue store: appending comment to issue %s: %w", issueID, err)
	}

	return nil
}

// UpdateStatus sets a record's status and bumps its update stamp.
// Updating an issue that is not stored is a no-op.
func (s *Store) UpdateStatus(ctx context.Context, issueID ref.IssueID, status string) error {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	err = sqlitex.Execute(conn,
		`UPDATE issues SET status = ?, updated_at = ? WHERE issue_id = ?`,
		&sqlitex.ExecOptions{Args: []any{
			status,
			s.clock.Now().UnixNano(),
			issueID.String(),
		}})
	if err != nil {
		return fmt.Errorf("issue store: updating status of issue %s: %w", issueID, err)
	}
	return nil
}

// AppendHistory appends one message to a chat's history window, then
// trims the window: entries older than the TTL and entries beyond the
// count limit are deleted. A zero CreatedAt is stamped with the current
// time.
func (s *Store) AppendHistory(ctx context.Context, chatID ref.RoomID, entry HistoryEntry) (err error) {
	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = s.clock.Now()
	}

	conn, err := s.pool.Take(ctx)
	if err != nil {
		return err
	}
	defer s.pool.Put(conn)

	endTransaction, err := sqlitex.ImmediateTransaction(conn)
	if err != nil {
		return fmt.Errorf("issue store: begin transaction: %w", err)
	}
	defer endTransaction(&err)

	err = sqlitex.Execute(conn, `
		INSERT INTO chat_history (chat_id, sender, body, created_at)
		VALUES (?, ?, ?, ?)`,
		&sqlitex.ExecOptions{Args: []any{
			chatID.String(),
			entry.Sender.String(),
			entry.Body,
			createdAt.UnixNano(),
		}})
	if err != nil {
		return fmt.Errorf("issue store: appending history for chat %s: %w", chatID, err)
	}

	cutoff := s.clock.Now().Add(-s.historyTTL).UnixNano()
	err = sqlitex.Execute(conn,
		`DELETE FROM chat_history WHERE chat_id = ? AND created_at < ?`,
		&sqlitex.ExecOptions{Args: []any{chatID.String(), cutoff}})
	if err != nil {
		return fmt.Errorf("issue store: expiring history for chat %s: %w", chatID, err)
	}

	err = sqlitex.Execute(conn, `
		DELETE FROM chat_history WHERE chat_id = ? AND id NOT IN (
			SELECT id FROM chat_history WHERE chat_id = ?
			ORDER BY id DESC LIMIT ?)`,
		&sqlitex.ExecOptions{Args: []any{
			chatID.String(),
			chatID.String(),
			s.historyLimit,
		}})
	if err != nil {
		return fmt.Errorf("issue store: trimming history for chat %s: %w", chatID, err)
	}

	return nil
}

// History returns a chat's history window, oldest first. Entries older
// than the TTL are filtered out even if a write has not yet trimmed
// them.
func (s *Store) History(ctx context.Context, chatID ref.RoomID) ([]HistoryEntry, error) {
	conn, err := s.pool.Take(ctx)
	if err != nil {
		return nil, err
	}
	defer s.pool.Put(conn)

	cutoff := s.clock.Now().Add(-s.historyTTL).UnixNano()

	var entries []HistoryEntry
	err = sqlitex.Execute(conn, `
		SELECT sender, body, created_at FROM chat_history
		WHERE chat_id = ? AND created_at >= ?
		ORDER BY id ASC`,
		&sqlitex.ExecOptions{
			Args: []any{chatID.String(), cutoff},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				var sender ref.UserID
				if text := stmt.ColumnText(0); text != "" {
					var parseErr error
					sender, parseErr = ref.ParseUserID(text)
					if parseErr != nil {
						return fmt.Errorf("stored sender: %w", parseErr)
					}
				}
				entries = append(entries, HistoryEntry{
					Sender:    sender,
					Body:      stmt.ColumnText(1),
					CreatedAt: fromUnixNanos(stmt.ColumnInt64(2)),
				})
				return nil
			},
		})
	if err != nil {
		return nil, fmt.Errorf("issue store: reading history for chat %s: %w", chatID, err)
	}
	return entries, nil
}

// scanRecord converts one row of the issues table (selected in schema
// column order) into a Record. Zero ref values are stored as empty
// strings, so empty columns scan back to zero values rather than parse
// errors.
func scanRecord(stmt *sqlite.Stmt) (*Record, error) {
	issueID, err := ref.ParseIssueID(stmt.ColumnText(0))
	if err != nil {
		return nil, fmt.Errorf("stored issue ID: %w", err)
	}

	var chatID ref.RoomID
	if text := stmt.ColumnText(1); text != "" {
		chatID, err = ref.ParseRoomID(text)
		if err != nil {
			return nil, fmt.Errorf("stored chat ID: %w", err)
		}
	}
	var requester ref.UserID
	if text := stmt.ColumnText(2); text != "" {
		requester, err = ref.ParseUserID(text)
		if err != nil {
			return nil, fmt.Errorf("stored requester: %w", err)
		}
	}
	var ticketRef ref.TicketRef
	if text := stmt.ColumnText(4); text != "" {
		ticketRef, err = ref.ParseTicketRef(text)
		if err != nil {
			return nil, fmt.Errorf("stored ticket ref: %w", err)
		}
	}

	comments, err := decodeComments(columnBlob(stmt, 10))
	if err != nil {
		return nil, err
	}

	return &Record{
		IssueID:     issueID,
		ChatID:      chatID,
		Requester:   requester,
		Team:        stmt.ColumnText(3),
		TicketRef:   ticketRef,
		Title:       stmt.ColumnText(5),
		Description: stmt.ColumnText(6),
		Status:      stmt.ColumnText(7),
		CreatedAt:   fromUnixNanos(stmt.ColumnInt64(8)),
		UpdatedAt:   fromUnixNanos(stmt.ColumnInt64(9)),
		Comments:    comments,
	}, nil
}

// columnBlob copies a BLOB column out of a statement. Returns nil for
// NULL or empty columns.
func columnBlob(stmt *sqlite.Stmt, col int) []byte {
	if stmt.ColumnIsNull(col) {
		return nil
	}
	length := stmt.ColumnLen(col)
	if length == 0 {
		return nil
	}
	blob := make([]byte, length)
	stmt.ColumnBytes(col, blob)
	return blob
}

// fromUnixNanos converts a stored INTEGER timestamp back to a UTC
// time.Time.
func fromUnixNanos(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}
