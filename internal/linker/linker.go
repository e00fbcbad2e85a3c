// Package linker applies high-confidence entry-to-trade links in bulk and
// serves the single-entry suggest and confirm paths.
package linker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store"
	"trade-journal-linker/internal/tickers"
	apperrors "trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

// Linker processes journal entries against an owner's trades
type Linker struct {
	store  store.Store
	engine *matcher.Engine
	config *matcher.LinkingConfig
	logger logger.Logger
}

// New creates a linker. The engine decides suggestions and the
// auto-link gate; st is used for entry reads and link writes.
func New(st store.Store, engine *matcher.Engine, log logger.Logger) (*Linker, error) {
	if st == nil {
		return nil, fmt.Errorf("store is required")
	}
	if engine == nil {
		return nil, fmt.Errorf("matching engine is required")
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Linker{
		store:  st,
		engine: engine,
		config: engine.Config(),
		logger: log.WithComponent("linker"),
	}, nil
}

// ValidateBatch rejects empty batches and batches above the configured size
func (l *Linker) ValidateBatch(entryIDs []string) error {
	if len(entryIDs) == 0 {
		return apperrors.InputError(apperrors.CodeMissingField, "entryIds", nil)
	}
	if len(entryIDs) > l.config.MaxBatchSize {
		return apperrors.InputError(apperrors.CodeBatchTooLarge, "entryIds", l.config.MaxBatchSize).
			WithContext("size", len(entryIDs))
	}
	return nil
}

// BulkLink attempts to auto-link every entry in entryIDs, in order. Entries
// that need no work or have no match above the auto-link threshold are
// skipped; a failure on one entry is recorded against its id and does not
// stop the batch. tickerFilter, when non-empty, restricts the run to entries
// mentioning that ticker. Duplicate ids are processed each time they appear.
func (l *Linker) BulkLink(ctx context.Context, ownerID string, entryIDs []string, tickerFilter string) *BatchLinkResult {
	result := NewBatchLinkResult()
	filter := tickers.Normalize(tickerFilter)

	progress := logger.NewProgressTracker(logger.ProgressConfig{
		Operation: "bulk_link",
		Total:     int64(len(entryIDs)),
		Logger:    l.logger,
	})

	for _, entryID := range entryIDs {
		if err := ctx.Err(); err != nil {
			result.Record(Failed(entryID, err.Error()))
			progress.Increment()
			continue
		}
		outcome := l.processEntry(ctx, ownerID, entryID, filter)
		l.logOutcome(outcome)
		result.Record(outcome)
		progress.Increment()
	}

	if err := ctx.Err(); err != nil {
		progress.CompleteWithError(err)
		return result
	}
	progress.Complete(logger.Fields{
		"owner_id": ownerID,
		"linked":   result.Linked,
		"skipped":  result.Skipped,
		"errors":   len(result.Errors),
	})
	return result
}

// processEntry never panics; anything raised while handling the entry
// becomes a Failed outcome.
func (l *Linker) processEntry(ctx context.Context, ownerID, entryID, filter string) (outcome EntryOutcome) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.WithFields(logger.Fields{
				"entry_id": entryID,
				"panic":    r,
			}).Error("Recovered from panic while linking entry")
			outcome = Failed(entryID, fmt.Sprintf("panic: %v", r))
		}
	}()

	entry, err := l.store.GetEntry(ctx, ownerID, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return Failed(entryID, ErrEntryNotFound)
	}
	if err != nil {
		return Failed(entryID, err.Error())
	}
	if entry.IsLinked() {
		return Skipped(entryID, SkipAlreadyLinked)
	}

	mentions := entry.TickerMentions()
	if filter != "" && !tickers.Contains(mentions, filter) {
		return Skipped(entryID, SkipTickerFilter)
	}
	if len(mentions) == 0 {
		return Skipped(entryID, SkipNoTickers)
	}

	suggestions, err := l.engine.Suggest(ctx, ownerID, inputFor(entry, mentions), 1)
	if err != nil {
		return Failed(entryID, err.Error())
	}
	if len(suggestions) == 0 || !l.engine.CanAutoLink(suggestions[0].Score) {
		return Skipped(entryID, SkipNoConfidentMatch)
	}

	top := suggestions[0]
	ok, err := l.store.LinkEntry(ctx, ownerID, entryID, top.TradeID)
	if err != nil {
		return Failed(entryID, err.Error())
	}
	if !ok {
		return Skipped(entryID, SkipLinkedConcurrently)
	}
	return Linked(entryID, top.TradeID, top.Score)
}

func (l *Linker) logOutcome(o EntryOutcome) {
	fields := logger.Fields{
		"entry_id": o.EntryID,
		"outcome":  o.Kind,
	}
	switch o.Kind {
	case OutcomeLinked:
		fields["trade_id"] = o.TradeID
		fields["score"] = *o.Score
		l.logger.WithFields(fields).Debug("Entry linked")
	case OutcomeSkipped:
		fields["reason"] = o.Reason
		l.logger.WithFields(fields).Debug("Entry skipped")
	case OutcomeFailed:
		fields["error"] = o.Error
		l.logger.WithFields(fields).Warn("Entry failed")
	}
}

// Suggest ranks the owner's trades for an ad hoc entry that is not stored
func (l *Linker) Suggest(ctx context.Context, ownerID string, input matcher.MatchInput, max int) ([]matcher.LinkSuggestion, error) {
	if input.Date.IsZero() {
		input.Date = time.Now()
	}
	suggestions, err := l.engine.Suggest(ctx, ownerID, input, max)
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryLinking, apperrors.CodeRetrievalFailed, "candidate retrieval failed")
	}
	return suggestions, nil
}

// SuggestForEntry ranks the owner's trades for a stored entry
func (l *Linker) SuggestForEntry(ctx context.Context, ownerID, entryID string, max int) ([]matcher.LinkSuggestion, error) {
	entry, err := l.loadEntry(ctx, ownerID, entryID)
	if err != nil {
		return nil, err
	}
	suggestions, err := l.engine.Suggest(ctx, ownerID, inputFor(entry, entry.TickerMentions()), max)
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryLinking, apperrors.CodeRetrievalFailed, "candidate retrieval failed").
			WithContext("entry_id", entryID)
	}
	return suggestions, nil
}

// LinkEntry applies a link the owner confirmed by hand. The trade must be
// the owner's and the entry must still be unlinked.
func (l *Linker) LinkEntry(ctx context.Context, ownerID, entryID, tradeID string) (*models.Trade, error) {
	if tradeID == "" {
		return nil, apperrors.InputError(apperrors.CodeMissingField, "tradeId", nil)
	}
	entry, err := l.loadEntry(ctx, ownerID, entryID)
	if err != nil {
		return nil, err
	}
	if entry.IsLinked() {
		return nil, apperrors.LinkingError(apperrors.CodeLinkRejected, entryID, nil).
			WithContext("trade_id", *entry.TradeID)
	}

	trade, err := l.store.GetTrade(ctx, ownerID, tradeID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.LinkingError(apperrors.CodeForeignTrade, entryID, err).
			WithContext("trade_id", tradeID)
	}
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryStore, apperrors.CodeQueryFailed, "load trade")
	}

	ok, err := l.store.LinkEntry(ctx, ownerID, entryID, tradeID)
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryStore, apperrors.CodeUpdateFailed, "link entry")
	}
	if !ok {
		return nil, apperrors.LinkingError(apperrors.CodeLinkRejected, entryID, nil)
	}

	l.logger.WithFields(logger.Fields{
		"owner_id": ownerID,
		"entry_id": entryID,
		"trade_id": tradeID,
	}).Info("Entry linked by owner")
	return trade, nil
}

// Config returns a copy of the linking configuration in use
func (l *Linker) Config() *matcher.LinkingConfig {
	return l.config.Clone()
}

func (l *Linker) loadEntry(ctx context.Context, ownerID, entryID string) (*models.JournalEntry, error) {
	entry, err := l.store.GetEntry(ctx, ownerID, entryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperrors.StoreError(apperrors.CodeNotFound, "load entry", err).
			WithContext("entry_id", entryID)
	}
	if err != nil {
		return nil, apperrors.WrapIfNeeded(err, apperrors.CategoryStore, apperrors.CodeQueryFailed, "load entry")
	}
	return entry, nil
}

func inputFor(entry *models.JournalEntry, mentions []string) matcher.MatchInput {
	return matcher.MatchInput{
		Tickers: mentions,
		Date:    entry.CreatedAt,
		Content: entry.Content,
	}
}
