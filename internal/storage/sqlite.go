package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

type SQLiteStore struct {
	db *sql.DB
}

var _ HistoryStore = (*SQLiteStore)(nil)

// NewSQLiteStore creates or opens a SQLite database.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to init schema: %w", err)
	}

	return s, nil
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) initSchema() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS history (
			id TEXT PRIMARY KEY,
			session TEXT NOT NULL,
			prompt TEXT,
			html TEXT NOT NULL,
			updated_lines JSON,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_history_session ON history(session, created_at);`,
	}

	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

func (s *SQLiteStore) SaveEntry(ctx context.Context, e *HistoryEntry) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	lines, err := json.Marshal(e.UpdatedLines)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO history (id, session, prompt, html, updated_lines, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, e.ID, e.Session, e.Prompt, e.HTML, lines, e.CreatedAt.UnixNano())
	if err != nil {
		return fmt.Errorf("failed to save history entry: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Latest(ctx context.Context, session string) (*HistoryEntry, error) {
	entries, err := s.List(ctx, session, 1)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return nil, ErrNotFound
	}
	return &entries[0], nil
}

func (s *SQLiteStore) List(ctx context.Context, session string, limit int) ([]HistoryEntry, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session, prompt, html, updated_lines, created_at
		FROM history
		WHERE session = ?
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?
	`, session, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var entries []HistoryEntry
	for rows.Next() {
		var e HistoryEntry
		var lines []byte
		var created int64
		if err := rows.Scan(&e.ID, &e.Session, &e.Prompt, &e.HTML, &lines, &created); err != nil {
			return nil, fmt.Errorf("failed to scan history entry: %w", err)
		}
		if len(lines) > 0 {
			if err := json.Unmarshal(lines, &e.UpdatedLines); err != nil {
				return nil, fmt.Errorf("failed to decode updated lines of %s: %w", e.ID, err)
			}
		}
		e.CreatedAt = time.Unix(0, created).UTC()
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// IsNotFound reports whether err means the session has no history.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
