package matcher

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"trade-journal-linker/pkg/logger"
)

// Engine runs retrieval, scoring and ranking for one entry
type Engine struct {
	config    *LinkingConfig
	retriever *Retriever
	scorer    *Scorer
	minScore  decimal.Decimal
	autoLink  decimal.Decimal
	logger    logger.Logger
}

// NewEngine creates an engine reading trades from finder
func NewEngine(finder TradeFinder, config *LinkingConfig, log logger.Logger) (*Engine, error) {
	if finder == nil {
		return nil, fmt.Errorf("trade finder is required")
	}
	if config == nil {
		config = DefaultLinkingConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid linking configuration: %w", err)
	}
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	return &Engine{
		config:    config.Clone(),
		retriever: NewRetriever(finder, config, log),
		scorer:    NewScorer(config),
		minScore:  decimal.NewFromFloat(config.SuggestionThreshold),
		autoLink:  decimal.NewFromFloat(config.AutoLinkThreshold),
		logger:    log.WithComponent("engine"),
	}, nil
}

// Rank scores every candidate for input and returns those clearing the
// suggestion threshold, best first, at most max of them (clamped to the
// configured bounds).
func (e *Engine) Rank(ctx context.Context, ownerID string, input MatchInput, max int) ([]MatchResult, error) {
	candidates, err := e.retriever.Candidates(ctx, ownerID, input)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return []MatchResult{}, nil
	}

	results := make([]MatchResult, 0, len(candidates))
	for _, trade := range candidates {
		results = append(results, e.scorer.Score(input, trade))
	}

	return RankResults(results, e.minScore, e.config.ClampSuggestions(max)), nil
}

// Suggest is Rank flattened into LinkSuggestions. An empty result means no
// sufficiently confident match and is not an error.
func (e *Engine) Suggest(ctx context.Context, ownerID string, input MatchInput, max int) ([]LinkSuggestion, error) {
	ranked, err := e.Rank(ctx, ownerID, input, max)
	if err != nil {
		return nil, err
	}

	suggestions := make([]LinkSuggestion, 0, len(ranked))
	for _, r := range ranked {
		suggestions = append(suggestions, NewLinkSuggestion(r))
	}
	return suggestions, nil
}

// CanAutoLink reports whether score clears the auto-link threshold
func (e *Engine) CanAutoLink(score decimal.Decimal) bool {
	return score.GreaterThanOrEqual(e.autoLink)
}

// Config returns a copy of the engine configuration
func (e *Engine) Config() *LinkingConfig {
	return e.config.Clone()
}
