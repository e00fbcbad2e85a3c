package cmd

import (
	"strings"
	"time"

	"github.com/spf13/cobra"

	"trade-journal-linker/internal/matcher"
	"trade-journal-linker/internal/models"
	"trade-journal-linker/internal/reporter"
	"trade-journal-linker/pkg/errors"
)

type suggestOptions struct {
	owner   string
	tickers []string
	date    string
	content string
	limit   int
	output  outputFlags
}

func newSuggestCmd(opts *rootOptions) *cobra.Command {
	so := &suggestOptions{}

	cmd := &cobra.Command{
		Use:   "suggest [entry-id]",
		Short: "Rank the trades a journal entry most plausibly refers to",
		Long: `Suggest scores candidate trades for a stored journal entry, or for ad hoc
input given with --tickers, --date and --content when no entry id is passed.
Only trades at or above the suggestion threshold are listed.

Examples:
  linker suggest en-42 --owner u1
  linker suggest --owner u1 --tickers AAPL,MSFT --date 2025-03-14 --content "rolled the covered call"
  linker suggest en-42 --owner u1 --output-format json --limit 3`,
		Args: cobra.MaximumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return so.validate(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return so.run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&so.owner, "owner", "", "owner (user) id whose trades are searched (required)")
	cmd.Flags().StringSliceVarP(&so.tickers, "tickers", "t", nil, "comma-separated ticker mentions for ad hoc input")
	cmd.Flags().StringVarP(&so.date, "date", "d", "", "entry date for ad hoc input, YYYY-MM-DD or RFC3339 (default: now)")
	cmd.Flags().StringVarP(&so.content, "content", "c", "", "entry text for ad hoc input")
	cmd.Flags().IntVarP(&so.limit, "limit", "n", 0, "number of suggestions (default from linking.default_suggestions)")
	so.output.register(cmd)

	return cmd
}

func (so *suggestOptions) validate(args []string) error {
	if strings.TrimSpace(so.owner) == "" {
		return errors.InputError(errors.CodeMissingOwner, "owner", nil).
			WithSuggestion("Pass --owner with the id of the journal owner")
	}
	if len(args) == 1 && (len(so.tickers) > 0 || so.content != "" || so.date != "") {
		return errors.InputError(errors.CodeInvalidValue, "entry-id", args[0]).
			WithSuggestion("Pass either an entry id or ad hoc --tickers/--date/--content, not both")
	}
	if so.date != "" {
		if _, err := models.ParseTimeWithFormats(so.date); err != nil {
			return errors.InputError(errors.CodeInvalidDate, "date", so.date)
		}
	}
	if so.limit < 0 {
		return errors.InputError(errors.CodeInvalidValue, "limit", so.limit)
	}
	return so.output.validate()
}

func (so *suggestOptions) run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	report := &reporter.SuggestionReport{OwnerID: so.owner}

	if len(args) == 1 {
		report.EntryID = args[0]
		report.Suggestions, err = a.linker.SuggestForEntry(ctx, so.owner, args[0], so.limit)
	} else {
		date := time.Now().UTC()
		if so.date != "" {
			date, _ = models.ParseTimeWithFormats(so.date)
		}
		report.Suggestions, err = a.linker.Suggest(ctx, so.owner, matcher.MatchInput{
			Tickers: so.tickers,
			Date:    date,
			Content: so.content,
		}, so.limit)
	}
	if err != nil {
		return err
	}

	return so.output.write(cmd, opts, report)
}
