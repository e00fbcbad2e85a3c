package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"trade-journal-linker/cmd/linker/config"
	"trade-journal-linker/internal/store/gormstore"
	"trade-journal-linker/internal/store/memory"
	"trade-journal-linker/pkg/errors"
	"trade-journal-linker/pkg/logger"
)

func newMigrateCmd(opts *rootOptions) *cobra.Command {
	var seed string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Long: `Migrate creates the theses, trades and journal_entries tables in the
configured PostgreSQL database. With --seed, the records of a YAML fixture are
inserted as well. Records whose id already exists are left untouched.

Examples:
  LINKER_DB_DSN=postgres://linker@localhost/linker linker migrate
  linker migrate --seed testdata/fixtures/demo.yaml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.cfg.Store.Driver != config.DriverPostgres {
				return errors.ConfigurationError(errors.CodeConfigConflict, "store.driver", opts.cfg.Store.Driver, nil).
					WithSuggestion("Migrations only apply to the postgres driver")
			}
			ctx := cmd.Context()
			op := logger.NewOperationLogger("migrate", opts.log).WithField("seed", seed)

			db, err := openDB(ctx, opts.cfg)
			if err != nil {
				op.Error(err, "Migration aborted")
				return err
			}
			defer closeDB(db, opts.log)

			op.Step("auto_migrate")
			if err := gormstore.AutoMigrate(ctx, db); err != nil {
				op.Error(err, "Migration failed")
				return errors.StoreError(errors.CodeMigrateFailed, "auto_migrate", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Schema is up to date")

			if seed == "" {
				op.Success("Schema is up to date")
				return nil
			}

			op.Step("seed")
			fixture, err := memory.LoadFixtureFile(seed)
			if err != nil {
				op.Error(err, "Seeding failed")
				return errors.WrapIfNeeded(err, errors.CategoryFixture, errors.CodeFixtureMalformed,
					"failed to load fixture "+seed)
			}
			res, err := gormstore.New(db.Gorm).Seed(ctx, fixture.Snapshot())
			if err != nil {
				op.Error(err, "Seeding failed")
				return errors.StoreError(errors.CodeUpdateFailed, "seed", err)
			}
			op.WithField("entries", res.Entries).Success("Schema migrated and seeded")
			fmt.Fprintf(cmd.OutOrStdout(), "Seeded %d theses, %d trades, %d entries from %s\n",
				res.Theses, res.Trades, res.Entries, seed)
			return nil
		},
	}

	cmd.Flags().StringVar(&seed, "seed", "", "YAML fixture whose records are inserted after migrating")

	return cmd
}
