package linker

import (
	"github.com/shopspring/decimal"
)

// OutcomeKind tags the result of processing one entry
type OutcomeKind string

const (
	OutcomeLinked  OutcomeKind = "linked"
	OutcomeSkipped OutcomeKind = "skipped"
	OutcomeFailed  OutcomeKind = "failed"
)

// SkipReason explains why an entry was left unlinked without an error
type SkipReason string

const (
	SkipAlreadyLinked      SkipReason = "already linked"
	SkipTickerFilter       SkipReason = "ticker filter not mentioned"
	SkipNoTickers          SkipReason = "no ticker mentions"
	SkipNoConfidentMatch   SkipReason = "no confident match"
	SkipLinkedConcurrently SkipReason = "linked concurrently"
)

// ErrEntryNotFound is the message recorded for ids that are unknown or
// belong to another owner
const ErrEntryNotFound = "entry not found"

// EntryOutcome is exactly one of Linked, Skipped or Failed for one entry id
type EntryOutcome struct {
	EntryID string      `json:"entryId"`
	Kind    OutcomeKind `json:"outcome"`
	Reason  SkipReason  `json:"reason,omitempty"`
	TradeID string      `json:"tradeId,omitempty"`
	Score   *float64    `json:"score,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Linked records a link applied to tradeID
func Linked(entryID, tradeID string, score decimal.Decimal) EntryOutcome {
	f := score.InexactFloat64()
	return EntryOutcome{EntryID: entryID, Kind: OutcomeLinked, TradeID: tradeID, Score: &f}
}

// Skipped records an entry that needed no work or had no confident match
func Skipped(entryID string, reason SkipReason) EntryOutcome {
	return EntryOutcome{EntryID: entryID, Kind: OutcomeSkipped, Reason: reason}
}

// Failed records an entry whose processing hit an anomaly
func Failed(entryID string, message string) EntryOutcome {
	return EntryOutcome{EntryID: entryID, Kind: OutcomeFailed, Error: message}
}

// EntryError is one failed entry in a batch
type EntryError struct {
	EntryID string `json:"entryId"`
	Error   string `json:"error"`
}

// BatchLinkResult summarizes a bulk-link run. It is built while the batch is
// processed and returned once at the end.
type BatchLinkResult struct {
	Linked   int            `json:"linked"`
	Skipped  int            `json:"skipped"`
	Errors   []EntryError   `json:"errors"`
	Outcomes []EntryOutcome `json:"outcomes"`
}

// NewBatchLinkResult creates an empty result
func NewBatchLinkResult() *BatchLinkResult {
	return &BatchLinkResult{
		Errors:   []EntryError{},
		Outcomes: []EntryOutcome{},
	}
}

// Record folds one outcome into the counters
func (r *BatchLinkResult) Record(o EntryOutcome) {
	switch o.Kind {
	case OutcomeLinked:
		r.Linked++
	case OutcomeSkipped:
		r.Skipped++
	case OutcomeFailed:
		r.Errors = append(r.Errors, EntryError{EntryID: o.EntryID, Error: o.Error})
	}
	r.Outcomes = append(r.Outcomes, o)
}

// Processed returns the number of entry ids handled
func (r *BatchLinkResult) Processed() int {
	return r.Linked + r.Skipped + len(r.Errors)
}

// Merge adds other's counters and outcomes to r
func (r *BatchLinkResult) Merge(other *BatchLinkResult) {
	if other == nil {
		return
	}
	for _, o := range other.Outcomes {
		r.Record(o)
	}
}
