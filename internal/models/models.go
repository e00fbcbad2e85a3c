package models

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"trade-journal-linker/internal/tickers"
)

// Thesis is a directional view on one ticker that aggregates trades
type Thesis struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string    `gorm:"type:varchar(64);not null;index" json:"userId"`
	Ticker    string    `gorm:"type:varchar(16);not null;index" json:"ticker"`
	Direction Direction `gorm:"type:varchar(16);not null" json:"direction"`
	Name      string    `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

// TableName sets the gorm table name
func (Thesis) TableName() string {
	return "theses"
}

// BeforeCreate assigns an id and stores the ticker upper-cased
func (t *Thesis) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	t.Ticker = tickers.Normalize(t.Ticker)
	return nil
}

// Validate performs basic validation on the Thesis
func (t *Thesis) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("thesis owner cannot be empty")
	}
	if tickers.Normalize(t.Ticker) == "" {
		return fmt.Errorf("thesis ticker cannot be empty")
	}
	if t.Direction != "" && !t.Direction.IsValid() {
		return fmt.Errorf("invalid thesis direction: %s", t.Direction)
	}
	return nil
}

// Trade is one execution record belonging to a thesis
type Trade struct {
	ID          string          `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID      string          `gorm:"type:varchar(64);not null;index:idx_trades_owner_opened,priority:1" json:"userId"`
	ThesisID    string          `gorm:"type:varchar(36);not null;index" json:"thesisId"`
	Thesis      *Thesis         `gorm:"foreignKey:ThesisID;constraint:OnDelete:CASCADE" json:"thesis,omitempty"`
	Strategy    Strategy        `gorm:"type:varchar(32)" json:"strategy,omitempty"`
	Status      TradeStatus     `gorm:"type:varchar(16);not null;default:OPEN" json:"status"`
	Description string          `gorm:"type:text" json:"description,omitempty"`
	Quantity    int             `gorm:"not null;default:1" json:"quantity"`
	NetPremium  decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0" json:"netPremium"`
	OpenedAt    time.Time       `gorm:"type:timestamptz;not null;index:idx_trades_owner_opened,priority:2" json:"openedAt"`
	ClosedAt    *time.Time      `gorm:"type:timestamptz" json:"closedAt,omitempty"`
	CreatedAt   time.Time       `gorm:"type:timestamptz;autoCreateTime" json:"createdAt"`
	UpdatedAt   time.Time       `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

// TableName sets the gorm table name
func (Trade) TableName() string {
	return "trades"
}

// BeforeCreate assigns an id when the caller did not
func (t *Trade) BeforeCreate(*gorm.DB) error {
	if t.ID == "" {
		t.ID = uuid.NewString()
	}
	return nil
}

// Ticker returns the owning thesis ticker, or "" when the thesis is not loaded
func (t *Trade) Ticker() string {
	if t.Thesis == nil {
		return ""
	}
	return tickers.Normalize(t.Thesis.Ticker)
}

// IsOpen returns true if the trade is still open
func (t *Trade) IsOpen() bool {
	return t.Status == TradeStatusOpen
}

// Validate performs basic validation on the Trade
func (t *Trade) Validate() error {
	if strings.TrimSpace(t.UserID) == "" {
		return fmt.Errorf("trade owner cannot be empty")
	}
	if strings.TrimSpace(t.ThesisID) == "" {
		return fmt.Errorf("trade thesis cannot be empty")
	}
	if !t.Strategy.IsValid() {
		return fmt.Errorf("invalid trade strategy: %s", t.Strategy)
	}
	if !t.Status.IsValid() {
		return fmt.Errorf("invalid trade status: %s", t.Status)
	}
	if t.OpenedAt.IsZero() {
		return fmt.Errorf("trade opened time cannot be zero")
	}
	if t.ClosedAt != nil && t.ClosedAt.Before(t.OpenedAt) {
		return fmt.Errorf("trade closed before it was opened")
	}
	return nil
}

// String returns a string representation of the Trade
func (t *Trade) String() string {
	return fmt.Sprintf("Trade{ID: %s, Ticker: %s, Strategy: %s, Status: %s, Opened: %s}",
		t.ID, t.Ticker(), t.Strategy, t.Status, t.OpenedAt.Format(time.RFC3339))
}

// JournalEntry is a free-text journal note with its extracted ticker mentions
type JournalEntry struct {
	ID        string         `gorm:"primaryKey;type:varchar(36)" json:"id"`
	UserID    string         `gorm:"type:varchar(64);not null;index" json:"userId"`
	Content   string         `gorm:"type:text" json:"content"`
	Tickers   datatypes.JSON `gorm:"type:jsonb" json:"tickers"`
	TradeID   *string        `gorm:"type:varchar(36);index" json:"tradeId,omitempty"`
	Trade     *Trade         `gorm:"foreignKey:TradeID;constraint:OnDelete:SET NULL" json:"-"`
	CreatedAt time.Time      `gorm:"type:timestamptz;index" json:"createdAt"`
	UpdatedAt time.Time      `gorm:"type:timestamptz;autoUpdateTime" json:"updatedAt"`
}

// TableName sets the gorm table name
func (JournalEntry) TableName() string {
	return "journal_entries"
}

// NewJournalEntry creates an unlinked entry with the given ticker mentions
func NewJournalEntry(id, userID, content string, createdAt time.Time, mentions ...string) *JournalEntry {
	e := &JournalEntry{
		ID:        id,
		UserID:    userID,
		Content:   content,
		CreatedAt: createdAt,
	}
	e.SetTickerMentions(mentions)
	return e
}

// BeforeCreate assigns an id and creation time when the caller did not
func (e *JournalEntry) BeforeCreate(*gorm.DB) error {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now().UTC()
	}
	return nil
}

// IsLinked reports whether the entry already references a trade
func (e *JournalEntry) IsLinked() bool {
	return e.TradeID != nil && *e.TradeID != ""
}

// TickerMentions decodes the stored mentions, normalized and de-duplicated.
// Unreadable JSON yields no mentions.
func (e *JournalEntry) TickerMentions() []string {
	if len(e.Tickers) == 0 {
		return nil
	}
	var raw []string
	if err := json.Unmarshal(e.Tickers, &raw); err != nil {
		return nil
	}
	return tickers.NormalizeAll(raw)
}

// SetTickerMentions replaces the stored mentions
func (e *JournalEntry) SetTickerMentions(mentions []string) {
	normalized := tickers.NormalizeAll(mentions)
	if normalized == nil {
		normalized = []string{}
	}
	b, _ := json.Marshal(normalized)
	e.Tickers = datatypes.JSON(b)
}

// Validate performs basic validation on the JournalEntry
func (e *JournalEntry) Validate() error {
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("entry owner cannot be empty")
	}
	if len(e.Tickers) > 0 {
		var raw []string
		if err := json.Unmarshal(e.Tickers, &raw); err != nil {
			return fmt.Errorf("entry tickers must be a JSON array of strings: %w", err)
		}
	}
	return nil
}

// ParseTimeWithFormats attempts to parse time from string using the formats
// accepted by the API and the CLI
func ParseTimeWithFormats(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("time string cannot be empty")
	}

	formats := []string{
		time.RFC3339,
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
		"2006-01-02",
		"01/02/2006",
		"2006/01/02",
	}

	var lastErr error
	for _, format := range formats {
		t, err := time.Parse(format, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	return time.Time{}, fmt.Errorf("unable to parse time '%s': %w", s, lastErr)
}
