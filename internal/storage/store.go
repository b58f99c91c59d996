package storage

import (
	"context"
	"errors"
	"time"

	"sitedit/internal/patch"
)

// ErrNotFound is returned when a session has no saved versions.
var ErrNotFound = errors.New("history entry not found")

// HistoryEntry is one saved version of a document.
type HistoryEntry struct {
	ID           string        `json:"id"`
	Session      string        `json:"session"`
	Prompt       string        `json:"prompt"`
	HTML         string        `json:"html"`
	UpdatedLines []patch.Range `json:"updatedLines,omitempty"`
	CreatedAt    time.Time     `json:"createdAt"`
}

// HistoryStore defines operations for persisting document versions.
type HistoryStore interface {
	// SaveEntry inserts a version, assigning ID and CreatedAt when unset.
	SaveEntry(ctx context.Context, e *HistoryEntry) error

	// Latest returns the newest version of a session.
	Latest(ctx context.Context, session string) (*HistoryEntry, error)

	// List returns up to limit versions of a session, newest first.
	List(ctx context.Context, session string, limit int) ([]HistoryEntry, error)
}
