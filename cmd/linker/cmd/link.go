package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"trade-journal-linker/pkg/errors"
)

type linkOptions struct {
	owner  string
	ticker string
	trade  string
	output outputFlags
}

func newLinkCmd(opts *rootOptions) *cobra.Command {
	lo := &linkOptions{}

	cmd := &cobra.Command{
		Use:   "link entry-id [entry-id...]",
		Short: "Auto-link journal entries to their best matching trade",
		Long: `Link processes each entry id independently: already linked entries and
entries without a confident match are skipped, missing entries are reported
as errors and never stop the batch. With --trade, the single given entry is
linked to that trade without scoring.

Examples:
  linker link en-1 en-2 en-3 --owner u1
  linker link en-1 en-2 --owner u1 --ticker AAPL
  linker link en-1 --owner u1 --trade tr-7`,
		Args: cobra.MinimumNArgs(1),
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return lo.validate(args)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return lo.run(cmd, opts, args)
		},
	}

	cmd.Flags().StringVar(&lo.owner, "owner", "", "owner (user) id of the entries (required)")
	cmd.Flags().StringVar(&lo.ticker, "ticker", "", "only auto-link entries that mention this ticker")
	cmd.Flags().StringVar(&lo.trade, "trade", "", "link the single entry to this trade id")
	lo.output.register(cmd)

	return cmd
}

func (lo *linkOptions) validate(args []string) error {
	if strings.TrimSpace(lo.owner) == "" {
		return errors.InputError(errors.CodeMissingOwner, "owner", nil).
			WithSuggestion("Pass --owner with the id of the journal owner")
	}
	if lo.trade != "" {
		if len(args) != 1 {
			return errors.InputError(errors.CodeInvalidValue, "entry-id", strings.Join(args, ",")).
				WithSuggestion("--trade links exactly one entry")
		}
		if lo.ticker != "" {
			return errors.ConfigurationError(errors.CodeConfigConflict, "ticker", lo.ticker, nil).
				WithSuggestion("--ticker filters auto-linking and cannot be combined with --trade")
		}
	}
	return lo.output.validate()
}

func (lo *linkOptions) run(cmd *cobra.Command, opts *rootOptions, args []string) error {
	ctx := cmd.Context()

	a, err := newApp(ctx, opts)
	if err != nil {
		return err
	}
	defer a.Close()

	if lo.trade != "" {
		trade, err := a.linker.LinkEntry(ctx, lo.owner, args[0], strings.TrimSpace(lo.trade))
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Linked entry %s to trade %s (%s)\n", args[0], trade.ID, trade.Ticker())
		return nil
	}

	if err := a.linker.ValidateBatch(args); err != nil {
		return err
	}
	result := a.linker.BulkLink(ctx, lo.owner, args, lo.ticker)
	return lo.output.write(cmd, opts, result)
}
