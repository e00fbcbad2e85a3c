// Package reporter renders bulk-link results and link suggestions for the CLI.
//
// Supported output formats:
//   - Console: human-readable tables for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: one row per entry outcome or per suggestion
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(&reporter.ReportConfig{Format: reporter.FormatJSON})
//	if err != nil {
//		return err
//	}
//	err = generator.GenerateReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"trade-journal-linker/internal/linker"
	"trade-journal-linker/internal/matcher"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format"`

	// IncludeOutcomes lists every entry of a batch, not only the counters and errors
	IncludeOutcomes bool `json:"include_outcomes"`
	// IncludeBreakdown adds per-signal contributions to suggestion output
	IncludeBreakdown bool `json:"include_breakdown"`

	TableMaxWidth int `json:"table_max_width"`

	CSVDelimiter rune `json:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeOutcomes:  true,
		IncludeBreakdown: false,
		TableMaxWidth:    120,
		CSVDelimiter:     ',',
		CSVHeaders:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}

	if c.TableMaxWidth < 50 {
		return fmt.Errorf("table max width must be at least 50 characters, got %d", c.TableMaxWidth)
	}

	return nil
}

// SuggestionReport is the suggestions computed for one entry or ad hoc input
type SuggestionReport struct {
	OwnerID     string                   `json:"ownerId"`
	EntryID     string                   `json:"entryId,omitempty"`
	Suggestions []matcher.LinkSuggestion `json:"suggestions"`
}

// ReportGenerator writes reports in the configured format
type ReportGenerator struct {
	config *ReportConfig
	now    func() time.Time
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}

	return &ReportGenerator{
		config: config,
		now:    time.Now,
	}, nil
}

// GenerateReport writes a *linker.BatchLinkResult or *SuggestionReport
func (rg *ReportGenerator) GenerateReport(report interface{}, writer io.Writer) error {
	switch r := report.(type) {
	case *linker.BatchLinkResult:
		return rg.GenerateBatchReport(r, writer)
	case *SuggestionReport:
		return rg.GenerateSuggestionReport(r, writer)
	default:
		return fmt.Errorf("unsupported report type %T", report)
	}
}

// GenerateBatchReport writes a bulk-link result
func (rg *ReportGenerator) GenerateBatchReport(result *linker.BatchLinkResult, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("batch result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.batchConsole(result, writer)
	case FormatJSON:
		out := *result
		if !rg.config.IncludeOutcomes {
			out.Outcomes = nil
		}
		return writeJSON(&out, writer)
	case FormatCSV:
		return rg.batchCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateSuggestionReport writes ranked suggestions
func (rg *ReportGenerator) GenerateSuggestionReport(report *SuggestionReport, writer io.Writer) error {
	if report == nil {
		return fmt.Errorf("suggestion report cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.suggestionConsole(report, writer)
	case FormatJSON:
		out := *report
		if out.Suggestions == nil {
			out.Suggestions = []matcher.LinkSuggestion{}
		}
		return writeJSON(&out, writer)
	case FormatCSV:
		return rg.suggestionCSV(report, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func writeJSON(v interface{}, writer io.Writer) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func (rg *ReportGenerator) batchConsole(result *linker.BatchLinkResult, writer io.Writer) error {
	processed := result.Processed()
	w := &consoleWriter{w: writer}

	w.printf("BULK LINK REPORT\n")
	w.printf("Generated: %s\n\n", rg.now().Format(time.RFC3339))

	w.printf("=== SUMMARY ===\n")
	w.printf("Entries processed: %d\n", processed)
	w.printf("  Linked:  %d (%.1f%%)\n", result.Linked, percentage(result.Linked, processed))
	w.printf("  Skipped: %d (%.1f%%)\n", result.Skipped, percentage(result.Skipped, processed))
	w.printf("  Errors:  %d (%.1f%%)\n\n", len(result.Errors), percentage(len(result.Errors), processed))

	if rg.config.IncludeOutcomes && len(result.Outcomes) > 0 {
		w.printf("=== OUTCOMES ===\n")
		w.printf("%-38s %-8s %-38s %-6s %s\n", "ENTRY", "OUTCOME", "TRADE", "SCORE", "DETAIL")
		w.printf("%s\n", strings.Repeat("-", rg.config.TableMaxWidth))
		for _, o := range result.Outcomes {
			score := ""
			if o.Score != nil {
				score = fmt.Sprintf("%.2f", *o.Score)
			}
			detail := string(o.Reason)
			if o.Kind == linker.OutcomeFailed {
				detail = o.Error
			}
			w.printf("%-38s %-8s %-38s %-6s %s\n",
				truncate(o.EntryID, 38), o.Kind, truncate(o.TradeID, 38), score, detail)
		}
		w.printf("\n")
	}

	if len(result.Errors) > 0 {
		w.printf("=== ERRORS ===\n")
		for _, e := range result.Errors {
			w.printf("  %s: %s\n", e.EntryID, e.Error)
		}
	}

	return w.err
}

func (rg *ReportGenerator) batchCSV(result *linker.BatchLinkResult, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		headers := []string{"Entry_ID", "Outcome", "Trade_ID", "Score", "Reason", "Error"}
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, o := range result.Outcomes {
		score := ""
		if o.Score != nil {
			score = strconv.FormatFloat(*o.Score, 'f', 2, 64)
		}
		record := []string{o.EntryID, string(o.Kind), o.TradeID, score, string(o.Reason), o.Error}
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write outcome record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

func (rg *ReportGenerator) suggestionConsole(report *SuggestionReport, writer io.Writer) error {
	w := &consoleWriter{w: writer}
	w.printf("LINK SUGGESTIONS\n")
	if report.EntryID != "" {
		w.printf("Entry: %s\n", report.EntryID)
	}
	w.printf("Owner: %s\n\n", report.OwnerID)

	if len(report.Suggestions) == 0 {
		w.printf("No trade matches with enough confidence.\n")
		return w.err
	}

	for i, s := range report.Suggestions {
		w.printf("%d. %s %s (%s) score %s\n", i+1, s.Ticker, strategyLabel(s), s.Status, s.Score.StringFixed(2))
		w.printf("   Trade:   %s, opened %s\n", s.TradeID, s.OpenedAt.Format("2006-01-02"))
		if s.ThesisName != "" {
			w.printf("   Thesis:  %s\n", s.ThesisName)
		}
		w.printf("   Reasons: %s\n", strings.Join(s.Reasons, ", "))
		if rg.config.IncludeBreakdown {
			w.printf("   Signals: ticker %s, date %s, strategy %s, status %s\n",
				s.Breakdown.Ticker.StringFixed(2), s.Breakdown.Date.StringFixed(2),
				s.Breakdown.Strategy.StringFixed(2), s.Breakdown.Status.StringFixed(2))
		}
	}
	return w.err
}

func (rg *ReportGenerator) suggestionCSV(report *SuggestionReport, writer io.Writer) error {
	csvWriter := csv.NewWriter(writer)
	csvWriter.Comma = rg.config.CSVDelimiter

	if rg.config.CSVHeaders {
		headers := []string{"Rank", "Trade_ID", "Ticker", "Strategy", "Status", "Opened_At", "Score"}
		if rg.config.IncludeBreakdown {
			headers = append(headers, "Ticker_Score", "Date_Score", "Strategy_Score", "Status_Score")
		}
		headers = append(headers, "Reasons")
		if err := csvWriter.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for i, s := range report.Suggestions {
		record := []string{
			strconv.Itoa(i + 1),
			s.TradeID,
			s.Ticker,
			string(s.Strategy),
			s.Status,
			s.OpenedAt.Format(time.RFC3339),
			s.Score.StringFixed(2),
		}
		if rg.config.IncludeBreakdown {
			record = append(record,
				s.Breakdown.Ticker.StringFixed(2),
				s.Breakdown.Date.StringFixed(2),
				s.Breakdown.Strategy.StringFixed(2),
				s.Breakdown.Status.StringFixed(2),
			)
		}
		record = append(record, strings.Join(s.Reasons, "; "))
		if err := csvWriter.Write(record); err != nil {
			return fmt.Errorf("failed to write suggestion record: %w", err)
		}
	}

	csvWriter.Flush()
	return csvWriter.Error()
}

// consoleWriter keeps the first write error so table output can be
// written line by line and checked once
type consoleWriter struct {
	w   io.Writer
	err error
}

func (c *consoleWriter) printf(format string, args ...interface{}) {
	if c.err != nil {
		return
	}
	_, c.err = fmt.Fprintf(c.w, format, args...)
}

func strategyLabel(s matcher.LinkSuggestion) string {
	if s.Strategy == "" {
		return "trade"
	}
	return strings.ToLower(strings.ReplaceAll(string(s.Strategy), "_", " "))
}

func percentage(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func truncate(s string, width int) string {
	if len(s) <= width {
		return s
	}
	return s[:width-1] + "…"
}

// UpdateConfiguration replaces the configuration after validating it
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
