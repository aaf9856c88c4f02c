// Package sqlite provides a SQLite-backed transcript store.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/d-wern/stella-relay/pkg/transcript"
)

const schema = `
CREATE TABLE IF NOT EXISTS turns (
	id           TEXT PRIMARY KEY,
	session_id   TEXT NOT NULL DEFAULT '',
	message      TEXT NOT NULL,
	response     TEXT NOT NULL,
	streaming    INTEGER NOT NULL,
	failed       INTEGER NOT NULL,
	started_at   TEXT NOT NULL,
	completed_at TEXT NOT NULL,
	duration_ms  INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_turns_completed_at ON turns (completed_at DESC);
`

// Store implements transcript.Store on a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the database at dbPath and ensures the
// schema exists. dbPath may be ":memory:".
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening transcript database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating transcript schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Save inserts a turn.
func (s *Store) Save(ctx context.Context, turn *transcript.Turn) error {
	if turn == nil {
		return transcript.ErrNilTurn
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO turns
		 (id, session_id, message, response, streaming, failed, started_at, completed_at, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		turn.ID,
		turn.SessionID,
		turn.Message,
		turn.Response,
		turn.Streaming,
		turn.Failed,
		turn.StartedAt.UTC().Format(time.RFC3339Nano),
		turn.CompletedAt.UTC().Format(time.RFC3339Nano),
		turn.DurationMs,
	)
	if err != nil {
		return fmt.Errorf("inserting turn: %w", err)
	}

	return nil
}

// Recent returns up to limit turns, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]*transcript.Turn, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, session_id, message, response, streaming, failed, started_at, completed_at, duration_ms
		 FROM turns ORDER BY completed_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying turns: %w", err)
	}
	defer rows.Close()

	var turns []*transcript.Turn
	for rows.Next() {
		var t transcript.Turn
		var startedAt, completedAt string

		if err := rows.Scan(&t.ID, &t.SessionID, &t.Message, &t.Response,
			&t.Streaming, &t.Failed, &startedAt, &completedAt, &t.DurationMs); err != nil {
			return nil, fmt.Errorf("scanning turn: %w", err)
		}

		if t.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
			return nil, fmt.Errorf("parsing started_at: %w", err)
		}
		if t.CompletedAt, err = time.Parse(time.RFC3339Nano, completedAt); err != nil {
			return nil, fmt.Errorf("parsing completed_at: %w", err)
		}

		turns = append(turns, &t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating turns: %w", err)
	}

	return turns, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}
