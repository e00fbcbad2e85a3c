package cmd

import (
	"time"

	"github.com/spf13/cobra"

	"trade-journal-linker/internal/linker"
	"trade-journal-linker/internal/sweep"
	"trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

type sweepOptions struct {
	lookback time.Duration
	output   outputFlags
}

func newSweepCmd(opts *rootOptions) *cobra.Command {
	so := &sweepOptions{}

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Auto-link recent unlinked entries of every owner once",
		Long: `Sweep runs the scheduled auto-link job a single time, whether or not
sweep.enabled is set, and prints the combined result.`,
		Args: cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if so.lookback < 0 {
				return errors.InputError(errors.CodeInvalidValue, "lookback", so.lookback.String())
			}
			return so.output.validate()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			a, err := newApp(ctx, opts)
			if err != nil {
				return err
			}
			defer a.Close()

			cfg := a.cfg.Sweep
			if cmd.Flags().Changed("lookback") {
				cfg.Lookback = so.lookback
			}
			var result *linker.BatchLinkResult
			err = logger.TimedOperation("sweep", a.log, func() error {
				var runErr error
				result, runErr = sweep.New(a.store, a.linker, cfg, a.log).Run(ctx)
				return runErr
			})
			if err != nil {
				return errors.StoreError(errors.CodeQueryFailed, "sweep", err)
			}
			return so.output.write(cmd, opts, result)
		},
	}

	cmd.Flags().DurationVar(&so.lookback, "lookback", 0, "only sweep entries created within this duration, 0 for all (default from sweep.lookback)")
	so.output.register(cmd)

	return cmd
}
