// Package store defines the persistence contract of the linker. Adapters live
// in the gormstore (PostgreSQL) and memory subpackages.
package store

import (
	"context"
	"errors"
	"time"

	"trade-journal-linker/internal/models"
)

// ErrNotFound is returned when a lookup matches no record visible to the owner.
var ErrNotFound = errors.New("not found")

// CandidateQuery selects trades that could match an entry.
type CandidateQuery struct {
	OwnerID string
	// Tickers are upper-case symbols compared against the owning thesis ticker.
	Tickers []string
	// OpenedFrom is inclusive and OpenedTo exclusive.
	OpenedFrom time.Time
	OpenedTo   time.Time
	Limit      int
}

// UnlinkedQuery selects entries without a trade link.
type UnlinkedQuery struct {
	OwnerID      string
	CreatedAfter time.Time
	// After resumes listing strictly past this position, for paging.
	After *EntryCursor
	Limit int
}

// EntryCursor is a position in the (created_at, id) ordering of entries.
type EntryCursor struct {
	CreatedAt time.Time
	ID        string
}

// CursorAfter returns the position just past e.
func CursorAfter(e *models.JournalEntry) *EntryCursor {
	return &EntryCursor{CreatedAt: e.CreatedAt, ID: e.ID}
}

// Precedes reports whether e sorts at or before c.
func (c *EntryCursor) Precedes(e *models.JournalEntry) bool {
	if e.CreatedAt.Equal(c.CreatedAt) {
		return e.ID <= c.ID
	}
	return e.CreatedAt.Before(c.CreatedAt)
}

// Store is everything the linker needs from persistence.
type Store interface {
	// FindCandidateTrades returns matching trades with Thesis loaded,
	// ordered by OpenedAt descending and limited to q.Limit.
	FindCandidateTrades(ctx context.Context, q CandidateQuery) ([]*models.Trade, error)

	GetTrade(ctx context.Context, ownerID, tradeID string) (*models.Trade, error)

	// GetEntry returns ErrNotFound for unknown ids and for entries of other owners.
	GetEntry(ctx context.Context, ownerID, entryID string) (*models.JournalEntry, error)

	// LinkEntry sets the entry's trade reference only while it is still null.
	// It reports false when the entry was already linked (or vanished) by the
	// time the update ran.
	LinkEntry(ctx context.Context, ownerID, entryID, tradeID string) (bool, error)

	// ListUnlinkedEntries returns unlinked entries ordered by created_at, then id.
	ListUnlinkedEntries(ctx context.Context, q UnlinkedQuery) ([]*models.JournalEntry, error)

	// ListOwners returns the distinct owners that have at least one entry.
	ListOwners(ctx context.Context) ([]string, error)

	Ping(ctx context.Context) error
}
