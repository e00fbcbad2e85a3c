package matcher

import (
	"context"

	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/store"
	"trade-journal-linker/internal/tickers"
	"trade-journal-linker/pkg/logger"
)

// TradeFinder is the read side of the store used for candidate retrieval
type TradeFinder interface {
	FindCandidateTrades(ctx context.Context, q store.CandidateQuery) ([]*models.Trade, error)
}

// Retriever fetches the bounded set of trades that could match an entry
type Retriever struct {
	finder TradeFinder
	config *LinkingConfig
	logger logger.Logger
}

// NewRetriever creates a retriever over finder
func NewRetriever(finder TradeFinder, config *LinkingConfig, log logger.Logger) *Retriever {
	if config == nil {
		config = DefaultLinkingConfig()
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &Retriever{
		finder: finder,
		config: config.Clone(),
		logger: log.WithComponent("retriever"),
	}
}

// Candidates returns the owner's trades whose thesis ticker is among the
// input tickers and which were opened within the date window of input.Date,
// newest first. No tickers means no candidates, without touching the store.
func (r *Retriever) Candidates(ctx context.Context, ownerID string, input MatchInput) ([]*models.Trade, error) {
	symbols := tickers.NormalizeAll(input.Tickers)
	if len(symbols) == 0 {
		return nil, nil
	}

	from, to := r.config.Window(input.Date)
	trades, err := r.finder.FindCandidateTrades(ctx, store.CandidateQuery{
		OwnerID:    ownerID,
		Tickers:    symbols,
		OpenedFrom: from,
		OpenedTo:   to,
		Limit:      r.config.MaxCandidates,
	})
	if err != nil {
		return nil, err
	}

	candidates := make([]*models.Trade, 0, len(trades))
	for _, t := range trades {
		if t == nil || t.Thesis == nil {
			r.logger.WithField("trade_id", tradeID(t)).Warn("Dropping candidate without thesis")
			continue
		}
		if t.UserID != ownerID || !tickers.Contains(symbols, t.Ticker()) {
			continue
		}
		if t.OpenedAt.Before(from) || !t.OpenedAt.Before(to) {
			continue
		}
		candidates = append(candidates, t)
		if len(candidates) == r.config.MaxCandidates {
			break
		}
	}

	r.logger.WithFields(logger.Fields{
		"owner_id":   ownerID,
		"tickers":    symbols,
		"candidates": len(candidates),
	}).Debug("Retrieved candidates")

	return candidates, nil
}

func tradeID(t *models.Trade) string {
	if t == nil {
		return ""
	}
	return t.ID
}
