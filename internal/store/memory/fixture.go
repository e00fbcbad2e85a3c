package memory

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"trade-journal-linker/internal/models"
	apperrors "trade-journal-linker/pkg/errors"
)

// Fixture is the YAML document accepted by LoadFixture
type Fixture struct {
	Theses  []yaml.Node `yaml:"theses"`
	Trades  []yaml.Node `yaml:"trades"`
	Entries []yaml.Node `yaml:"entries"`
}

type thesisRecord struct {
	ID        string `yaml:"id"`
	UserID    string `yaml:"user_id"`
	Ticker    string `yaml:"ticker"`
	Direction string `yaml:"direction"`
	Name      string `yaml:"name"`
}

type tradeRecord struct {
	ID          string `yaml:"id"`
	UserID      string `yaml:"user_id"`
	ThesisID    string `yaml:"thesis_id"`
	Strategy    string `yaml:"strategy"`
	Status      string `yaml:"status"`
	Description string `yaml:"description"`
	Quantity    int    `yaml:"quantity"`
	NetPremium  string `yaml:"net_premium"`
	OpenedAt    string `yaml:"opened_at"`
	ClosedAt    string `yaml:"closed_at"`
}

type entryRecord struct {
	ID        string   `yaml:"id"`
	UserID    string   `yaml:"user_id"`
	Content   string   `yaml:"content"`
	Tickers   []string `yaml:"tickers"`
	CreatedAt string   `yaml:"created_at"`
	TradeID   string   `yaml:"trade_id"`
}

var dateExamples = []string{"2025-03-14", "2025-03-14T15:30:00Z"}

// LoadFixtureFile reads a YAML fixture from path into a new store
func LoadFixtureFile(path string) (*Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, apperrors.UnreadableFixtureError(path, err)
	}
	defer f.Close()
	return LoadFixture(path, f)
}

// LoadFixture decodes a YAML fixture into a new store. name is used in
// error locations only. All record problems are collected before returning.
func LoadFixture(name string, r io.Reader) (*Store, error) {
	var doc Fixture
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil && err != io.EOF {
		return nil, apperrors.UnreadableFixtureError(name, err)
	}

	s := New()
	collector := apperrors.NewFixtureErrorCollector(25, true)
	l := &fixtureLoader{name: name, store: s, errs: collector}

	for i := range doc.Theses {
		if !l.thesis(i, &doc.Theses[i]) {
			return nil, collector.Err()
		}
	}
	for i := range doc.Trades {
		if !l.trade(i, &doc.Trades[i]) {
			return nil, collector.Err()
		}
	}
	for i := range doc.Entries {
		if !l.entry(i, &doc.Entries[i]) {
			return nil, collector.Err()
		}
	}

	if err := collector.Err(); err != nil {
		return nil, err
	}
	return s, nil
}

type fixtureLoader struct {
	name  string
	store *Store
	errs  *apperrors.FixtureErrorCollector
}

func (l *fixtureLoader) fail(node *yaml.Node, err *apperrors.FixtureError) bool {
	if err.Location != nil {
		err.Location.Line = node.Line
	}
	return l.errs.Add(err)
}

func (l *fixtureLoader) decode(section string, i int, node *yaml.Node, out interface{}) (bool, bool) {
	if err := node.Decode(out); err != nil {
		ferr := apperrors.NewFixtureError(apperrors.CodeFixtureMalformed,
			&apperrors.FixtureContext{File: l.name, Section: section, Record: i}, "fixture record does not decode", err)
		return false, l.fail(node, ferr)
	}
	return true, true
}

func (l *fixtureLoader) thesis(i int, node *yaml.Node) bool {
	var rec thesisRecord
	if ok, cont := l.decode("theses", i, node, &rec); !ok {
		return cont
	}
	if strings.TrimSpace(rec.ID) == "" {
		return l.fail(node, apperrors.MissingFixtureFieldError(l.name, "theses", i, "id"))
	}
	direction := models.Direction(strings.ToUpper(strings.TrimSpace(rec.Direction)))
	if direction == "" {
		direction = models.DirectionNeutral
	}
	if !direction.IsValid() {
		return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "theses", i, "direction", rec.Direction,
			"one of BULLISH, BEARISH, NEUTRAL, VOLATILE"))
	}
	th := &models.Thesis{
		ID:        rec.ID,
		UserID:    rec.UserID,
		Ticker:    rec.Ticker,
		Direction: direction,
		Name:      rec.Name,
	}
	if err := l.store.AddThesis(th); err != nil {
		return l.fail(node, apperrors.NewFixtureError(apperrors.CodeFixtureMalformed,
			&apperrors.FixtureContext{File: l.name, Section: "theses", Record: i}, err.Error(), nil))
	}
	return true
}

func (l *fixtureLoader) trade(i int, node *yaml.Node) bool {
	var rec tradeRecord
	if ok, cont := l.decode("trades", i, node, &rec); !ok {
		return cont
	}
	if strings.TrimSpace(rec.ID) == "" {
		return l.fail(node, apperrors.MissingFixtureFieldError(l.name, "trades", i, "id"))
	}

	l.store.mu.RLock()
	_, thesisKnown := l.store.theses[rec.ThesisID]
	l.store.mu.RUnlock()
	if !thesisKnown {
		return l.fail(node, apperrors.DanglingReferenceError(l.name, "trades", i, "thesis_id", rec.ThesisID))
	}

	strategy, err := models.ParseStrategy(rec.Strategy)
	if err != nil {
		return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "trades", i, "strategy", rec.Strategy,
			"a strategy name", "IRON_CONDOR", "covered call"))
	}
	status := models.TradeStatusOpen
	if rec.Status != "" {
		if status, err = models.ParseTradeStatus(rec.Status); err != nil {
			return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "trades", i, "status", rec.Status,
				"one of OPEN, CLOSED, EXPIRED, ASSIGNED"))
		}
	}
	openedAt, err := models.ParseTimeWithFormats(rec.OpenedAt)
	if err != nil {
		return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "trades", i, "opened_at", rec.OpenedAt,
			"a date or RFC3339 timestamp", dateExamples...))
	}
	premium := decimal.Zero
	if rec.NetPremium != "" {
		if premium, err = decimal.NewFromString(rec.NetPremium); err != nil {
			return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "trades", i, "net_premium", rec.NetPremium,
				"a decimal number", "1.25", "-0.80"))
		}
	}
	quantity := rec.Quantity
	if quantity == 0 {
		quantity = 1
	}

	trade := &models.Trade{
		ID:          rec.ID,
		UserID:      rec.UserID,
		ThesisID:    rec.ThesisID,
		Strategy:    strategy,
		Status:      status,
		Description: rec.Description,
		Quantity:    quantity,
		NetPremium:  premium,
		OpenedAt:    openedAt,
	}
	if rec.ClosedAt != "" {
		closedAt, err := models.ParseTimeWithFormats(rec.ClosedAt)
		if err != nil {
			return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "trades", i, "closed_at", rec.ClosedAt,
				"a date or RFC3339 timestamp", dateExamples...))
		}
		trade.ClosedAt = &closedAt
	}

	if err := l.store.AddTrade(trade); err != nil {
		return l.fail(node, apperrors.NewFixtureError(apperrors.CodeFixtureMalformed,
			&apperrors.FixtureContext{File: l.name, Section: "trades", Record: i}, err.Error(), nil))
	}
	return true
}

func (l *fixtureLoader) entry(i int, node *yaml.Node) bool {
	var rec entryRecord
	if ok, cont := l.decode("entries", i, node, &rec); !ok {
		return cont
	}
	if strings.TrimSpace(rec.ID) == "" {
		return l.fail(node, apperrors.MissingFixtureFieldError(l.name, "entries", i, "id"))
	}
	createdAt, err := models.ParseTimeWithFormats(rec.CreatedAt)
	if err != nil {
		return l.fail(node, apperrors.InvalidFixtureValueError(l.name, "entries", i, "created_at", rec.CreatedAt,
			"a date or RFC3339 timestamp", dateExamples...))
	}

	e := models.NewJournalEntry(rec.ID, rec.UserID, rec.Content, createdAt, rec.Tickers...)
	if rec.TradeID != "" {
		l.store.mu.RLock()
		_, known := l.store.trades[rec.TradeID]
		l.store.mu.RUnlock()
		if !known {
			return l.fail(node, apperrors.DanglingReferenceError(l.name, "entries", i, "trade_id", rec.TradeID))
		}
		tradeID := rec.TradeID
		e.TradeID = &tradeID
	}

	if err := l.store.AddEntry(e); err != nil {
		return l.fail(node, apperrors.NewFixtureError(apperrors.CodeFixtureMalformed,
			&apperrors.FixtureContext{File: l.name, Section: "entries", Record: i}, fmt.Sprintf("entry rejected: %v", err), nil))
	}
	return true
}
