// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver

	"github.com/jeranaias/tensorchat/internal/model"
)

// archiveSchema stores every message seen by any session. A message is
// identified by its session and message ID so recording is idempotent.
const archiveSchema = `
CREATE TABLE IF NOT EXISTS messages (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    session_id TEXT NOT NULL,
    message_id INTEGER NOT NULL,
    sender TEXT NOT NULL,
    text TEXT NOT NULL,
    created_at INTEGER NOT NULL, -- Unix nanoseconds
    UNIQUE(session_id, message_id)
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
CREATE INDEX IF NOT EXISTS idx_messages_created ON messages(created_at);
`

// DefaultSearchLimit caps Search results when no limit is given.
const DefaultSearchLimit = 50

// ErrArchiveClosed is returned by operations on a closed Archive.
var ErrArchiveClosed = errors.New("archive is closed")

// ArchivedMessage is a message together with the session it came from.
type ArchivedMessage struct {
	SessionID string
	Message   model.Message
}

// Archive is a SQLite-backed log of messages across sessions.
type Archive struct {
	db *sql.DB
}

// OpenArchive opens or creates the archive database at path.
func OpenArchive(path string) (*Archive, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// SQLite allows one writer at a time.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA temp_store=MEMORY",
		"PRAGMA busy_timeout=5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to set pragma: %w", err)
		}
	}

	if _, err := db.Exec(archiveSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Archive{db: db}, nil
}

// Record stores messages for a session. Messages already recorded are
// skipped.
func (a *Archive) Record(ctx context.Context, sessionID string, messages []model.Message) error {
	if a == nil || a.db == nil {
		return ErrArchiveClosed
	}
	if len(messages) == 0 {
		return nil
	}

	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO messages (session_id, message_id, sender, text, created_at)
		 VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range messages {
		if _, err := stmt.ExecContext(ctx, sessionID, m.ID, string(m.Sender), m.Text, m.CreatedAt.UnixNano()); err != nil {
			return fmt.Errorf("failed to record message %d: %w", m.ID, err)
		}
	}
	return tx.Commit()
}

// Search returns messages containing query, case-insensitively for ASCII,
// newest first. A limit of zero or less uses DefaultSearchLimit.
func (a *Archive) Search(ctx context.Context, query string, limit int) ([]ArchivedMessage, error) {
	if a == nil || a.db == nil {
		return nil, ErrArchiveClosed
	}
	if limit <= 0 {
		limit = DefaultSearchLimit
	}

	rows, err := a.db.QueryContext(ctx,
		`SELECT session_id, message_id, sender, text, created_at FROM messages
		 WHERE text LIKE ? ESCAPE '\'
		 ORDER BY created_at DESC, id DESC
		 LIMIT ?`,
		"%"+escapeLike(query)+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	defer rows.Close()

	var results []ArchivedMessage
	for rows.Next() {
		var (
			r       ArchivedMessage
			sender  string
			created int64
		)
		if err := rows.Scan(&r.SessionID, &r.Message.ID, &sender, &r.Message.Text, &created); err != nil {
			return nil, err
		}
		r.Message.Sender = model.Sender(sender)
		r.Message.CreatedAt = time.Unix(0, created)
		r.Message.Timestamp = r.Message.CreatedAt.Format(model.TimestampLayout)
		results = append(results, r)
	}
	return results, rows.Err()
}

// Count returns the number of archived messages.
func (a *Archive) Count(ctx context.Context) (int, error) {
	if a == nil || a.db == nil {
		return 0, ErrArchiveClosed
	}
	var n int
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM messages").Scan(&n)
	return n, err
}

// DeleteSession removes every archived message of a session.
func (a *Archive) DeleteSession(ctx context.Context, sessionID string) error {
	if a == nil || a.db == nil {
		return ErrArchiveClosed
	}
	_, err := a.db.ExecContext(ctx, "DELETE FROM messages WHERE session_id = ?", sessionID)
	return err
}

// Close closes the database.
func (a *Archive) Close() error {
	if a == nil || a.db == nil {
		return nil
	}
	err := a.db.Close()
	a.db = nil
	return err
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
