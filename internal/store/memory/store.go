// Package memory is an in-process implementation of store.Store used by the
// CLI demo mode and by tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store"
)

// Store keeps theses, trades and journal entries in memory. All methods are
// safe for concurrent use; returned records are copies.
type Store struct {
	mu      sync.RWMutex
	theses  map[string]*models.Thesis
	trades  map[string]*models.Trade
	entries map[string]*models.JournalEntry
	order   []string
	index   *TradeIndex
}

var _ store.Store = (*Store)(nil)

// New creates an empty store
func New() *Store {
	return &Store{
		theses:  make(map[string]*models.Thesis),
		trades:  make(map[string]*models.Trade),
		entries: make(map[string]*models.JournalEntry),
		index:   NewTradeIndex(nil),
	}
}

// AddThesis stores a thesis
func (s *Store) AddThesis(th *models.Thesis) error {
	if err := th.Validate(); err != nil {
		return err
	}
	if err := th.BeforeCreate(nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.theses[th.ID]; exists {
		return fmt.Errorf("thesis %s already exists", th.ID)
	}
	cp := *th
	s.theses[th.ID] = &cp
	return nil
}

// AddTrade stores a trade; its thesis must already exist and belong to the same owner
func (s *Store) AddTrade(t *models.Trade) error {
	if err := t.Validate(); err != nil {
		return err
	}
	if err := t.BeforeCreate(nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	th, ok := s.theses[t.ThesisID]
	if !ok {
		return fmt.Errorf("trade %s references unknown thesis %s", t.ID, t.ThesisID)
	}
	if th.UserID != t.UserID {
		return fmt.Errorf("trade %s and thesis %s have different owners", t.ID, t.ThesisID)
	}
	if _, exists := s.trades[t.ID]; exists {
		return fmt.Errorf("trade %s already exists", t.ID)
	}
	cp := *t
	cp.Thesis = th
	s.trades[cp.ID] = &cp
	s.index.Add(&cp)
	return nil
}

// AddEntry stores a journal entry
func (s *Store) AddEntry(e *models.JournalEntry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	if err := e.BeforeCreate(nil); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.entries[e.ID]; exists {
		return fmt.Errorf("entry %s already exists", e.ID)
	}
	if e.IsLinked() {
		if _, ok := s.trades[*e.TradeID]; !ok {
			return fmt.Errorf("entry %s references unknown trade %s", e.ID, *e.TradeID)
		}
	}
	s.entries[e.ID] = cloneEntry(e)
	s.order = append(s.order, e.ID)
	return nil
}

// FindCandidateTrades looks trades up through the ticker index
func (s *Store) FindCandidateTrades(ctx context.Context, q store.CandidateQuery) ([]*models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	found := s.index.GetCandidates(q.OwnerID, q.Tickers, q.OpenedFrom, q.OpenedTo, q.Limit)
	out := make([]*models.Trade, 0, len(found))
	for _, t := range found {
		out = append(out, cloneTrade(t))
	}
	return out, nil
}

// GetTrade returns a copy of the owner's trade
func (s *Store) GetTrade(ctx context.Context, ownerID, tradeID string) (*models.Trade, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, ok := s.trades[tradeID]
	if !ok || t.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return cloneTrade(t), nil
}

// GetEntry returns a copy of the owner's entry
func (s *Store) GetEntry(ctx context.Context, ownerID, entryID string) (*models.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, ok := s.entries[entryID]
	if !ok || e.UserID != ownerID {
		return nil, store.ErrNotFound
	}
	return cloneEntry(e), nil
}

func (s *Store) LinkEntry(ctx context.Context, ownerID, entryID, tradeID string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[entryID]
	if !ok || e.UserID != ownerID || e.IsLinked() {
		return false, nil
	}
	if _, ok := s.trades[tradeID]; !ok {
		return false, fmt.Errorf("trade %s does not exist", tradeID)
	}
	id := tradeID
	e.TradeID = &id
	return true, nil
}

// ListUnlinkedEntries returns copies in (created_at, id) order
func (s *Store) ListUnlinkedEntries(ctx context.Context, q store.UnlinkedQuery) ([]*models.JournalEntry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.JournalEntry
	for _, id := range s.order {
		e := s.entries[id]
		if e.IsLinked() {
			continue
		}
		if q.OwnerID != "" && e.UserID != q.OwnerID {
			continue
		}
		if !q.CreatedAfter.IsZero() && !e.CreatedAt.After(q.CreatedAfter) {
			continue
		}
		if q.After != nil && q.After.Precedes(e) {
			continue
		}
		out = append(out, cloneEntry(e))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out, nil
}

// ListOwners returns the sorted owners of stored entries
func (s *Store) ListOwners(ctx context.Context) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]struct{})
	var owners []string
	for _, id := range s.order {
		owner := s.entries[id].UserID
		if _, ok := seen[owner]; ok {
			continue
		}
		seen[owner] = struct{}{}
		owners = append(owners, owner)
	}
	sort.Strings(owners)
	return owners, nil
}

// Ping only fails when ctx is done
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Stats returns statistics about the indexed trades
func (s *Store) Stats() IndexStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.GetIndexStats()
}

func cloneTrade(t *models.Trade) *models.Trade {
	cp := *t
	if t.Thesis != nil {
		th := *t.Thesis
		cp.Thesis = &th
	}
	if t.ClosedAt != nil {
		closed := *t.ClosedAt
		cp.ClosedAt = &closed
	}
	return &cp
}

func cloneEntry(e *models.JournalEntry) *models.JournalEntry {
	cp := *e
	cp.Tickers = append(cp.Tickers[:0:0], e.Tickers...)
	if e.TradeID != nil {
		id := *e.TradeID
		cp.TradeID = &id
	}
	cp.Trade = nil
	return &cp
}

// Snapshot holds copies of every stored record, theses and trades ordered by
// id and entries in insertion order
type Snapshot struct {
	Theses  []*models.Thesis
	Trades  []*models.Trade
	Entries []*models.JournalEntry
}

// Snapshot copies the store contents, for example to seed another store
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var snap Snapshot
	for _, th := range s.theses {
		cp := *th
		snap.Theses = append(snap.Theses, &cp)
	}
	for _, t := range s.trades {
		snap.Trades = append(snap.Trades, cloneTrade(t))
	}
	for _, id := range s.order {
		snap.Entries = append(snap.Entries, cloneEntry(s.entries[id]))
	}
	sort.Slice(snap.Theses, func(i, j int) bool { return snap.Theses[i].ID < snap.Theses[j].ID })
	sort.Slice(snap.Trades, func(i, j int) bool { return snap.Trades[i].ID < snap.Trades[j].ID })
	return snap
}
