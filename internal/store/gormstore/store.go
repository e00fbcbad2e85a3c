package gormstore

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store"
	apperrors "trade-journal-linker/pkg/errors"
)

// Store implements store.Store on PostgreSQL through gorm.
type Store struct {
	db *gorm.DB
}

var _ store.Store = (*Store)(nil)

// New wraps an open gorm handle.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// InTx runs fn in a transaction, rolling back when it returns an error.
func (s *Store) InTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(fn)
}

// FindCandidateTrades joins trades to their theses and filters by owner,
// thesis ticker and opened_at window, newest first.
func (s *Store) FindCandidateTrades(ctx context.Context, q store.CandidateQuery) ([]*models.Trade, error) {
	if s == nil || s.db == nil || len(q.Tickers) == 0 {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.Trade{}).
		Select("trades.*").
		Joins("JOIN theses ON theses.id = trades.thesis_id").
		Preload("Thesis").
		Where("trades.user_id = ?", q.OwnerID).
		Where("UPPER(theses.ticker) IN ?", q.Tickers).
		Where("trades.opened_at >= ? AND trades.opened_at < ?", q.OpenedFrom, q.OpenedTo).
		Order("trades.opened_at DESC").
		Order("trades.id")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var trades []*models.Trade
	if err := query.Find(&trades).Error; err != nil {
		return nil, apperrors.StoreError(apperrors.CodeQueryFailed, "find candidate trades", err)
	}
	return trades, nil
}

// GetTrade returns the owner's trade with Thesis loaded, or store.ErrNotFound.
func (s *Store) GetTrade(ctx context.Context, ownerID, tradeID string) (*models.Trade, error) {
	if s == nil || s.db == nil {
		return nil, store.ErrNotFound
	}
	var trade models.Trade
	err := s.db.WithContext(ctx).
		Preload("Thesis").
		Where("id = ? AND user_id = ?", tradeID, ownerID).
		First(&trade).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeQueryFailed, "get trade", err)
	}
	return &trade, nil
}

// GetEntry returns the owner's entry, or store.ErrNotFound.
func (s *Store) GetEntry(ctx context.Context, ownerID, entryID string) (*models.JournalEntry, error) {
	if s == nil || s.db == nil {
		return nil, store.ErrNotFound
	}
	var entry models.JournalEntry
	err := s.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", entryID, ownerID).
		First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeQueryFailed, "get entry", err)
	}
	return &entry, nil
}

// LinkEntry is a single conditional UPDATE; of two concurrent linkers
// only one sees a row affected.
func (s *Store) LinkEntry(ctx context.Context, ownerID, entryID, tradeID string) (bool, error) {
	if s == nil || s.db == nil {
		return false, nil
	}
	res := s.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("id = ? AND user_id = ? AND trade_id IS NULL", entryID, ownerID).
		Update("trade_id", tradeID)
	if res.Error != nil {
		return false, apperrors.StoreError(apperrors.CodeUpdateFailed, "link entry", res.Error)
	}
	return res.RowsAffected == 1, nil
}

// ListUnlinkedEntries pages unlinked entries in (created_at, id) order.
func (s *Store) ListUnlinkedEntries(ctx context.Context, q store.UnlinkedQuery) ([]*models.JournalEntry, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	query := s.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Where("trade_id IS NULL")
	if q.OwnerID != "" {
		query = query.Where("user_id = ?", q.OwnerID)
	}
	if !q.CreatedAfter.IsZero() {
		query = query.Where("created_at > ?", q.CreatedAfter)
	}
	if q.After != nil {
		query = query.Where("(created_at, id) > (?, ?)", q.After.CreatedAt, q.After.ID)
	}
	query = query.Order("created_at ASC").Order("id")
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}
	var entries []*models.JournalEntry
	if err := query.Find(&entries).Error; err != nil {
		return nil, apperrors.StoreError(apperrors.CodeQueryFailed, "list unlinked entries", err)
	}
	return entries, nil
}

// ListOwners returns the distinct entry owners in ascending order.
func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var owners []string
	err := s.db.WithContext(ctx).
		Model(&models.JournalEntry{}).
		Distinct("user_id").
		Order("user_id").
		Pluck("user_id", &owners).Error
	if err != nil {
		return nil, apperrors.StoreError(apperrors.CodeQueryFailed, "list owners", err)
	}
	return owners, nil
}

// Ping checks the pool can reach the database.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return nil
	}
	sqldb, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqldb.PingContext(ctx)
}
