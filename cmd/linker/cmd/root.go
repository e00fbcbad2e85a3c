package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"trade-journal-linker/cmd/linker/config"
	"trade-journal-linker/pkg/logger"
)

var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// rootOptions carries the global flags and the configuration loaded from
// them to every subcommand
type rootOptions struct {
	cfgFile string
	verbose bool
	driver  string
	fixture string

	cfg *config.Config
	log logger.Logger
}

// NewRootCommand builds the command tree
func NewRootCommand() *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:   "linker",
		Short: "Link trade-journal entries to the trades they describe",
		Long: `Linker scores the trades of a journal owner against each journal entry
and links the entry to its best match when the match is confident enough.

Examples:
  linker serve --config linker.yaml
  linker suggest en-42 --owner u1
  linker suggest --owner u1 --tickers AAPL --date 2025-03-14 --content "closed the iron condor"
  linker link en-42 en-43 --owner u1
  linker link en-42 --owner u1 --trade tr-7
  linker migrate --seed testdata/fixtures/demo.yaml`,
		Version:       getVersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return opts.load()
		},
	}

	root.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (optional)")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "verbose output")
	root.PersistentFlags().StringVar(&opts.driver, "store", "", "store driver override: postgres or memory")
	root.PersistentFlags().StringVar(&opts.fixture, "fixture", "", "YAML fixture to load into the memory store")

	root.AddCommand(
		newServeCmd(opts),
		newSuggestCmd(opts),
		newLinkCmd(opts),
		newSweepCmd(opts),
		newMigrateCmd(opts),
		newVersionCmd(),
	)

	return root
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	return ExecuteContext(context.Background(), os.Args[1:], os.Stdout, os.Stderr)
}

// ExecuteContext runs the CLI with explicit arguments and streams
func ExecuteContext(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	root := NewRootCommand()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	verbose, _ := root.PersistentFlags().GetBool("verbose")
	return NewCLIErrorHandler(stderr, verbose).HandleError(err)
}

// load reads the configuration, applies flag overrides and installs the
// global logger
func (o *rootOptions) load() error {
	cfg, err := config.Load(o.cfgFile)
	if err != nil {
		return err
	}

	if o.fixture != "" {
		cfg.Store.Fixture = o.fixture
		if o.driver == "" {
			cfg.Store.Driver = config.DriverMemory
		}
	}
	if o.driver != "" {
		cfg.Store.Driver = strings.ToLower(strings.TrimSpace(o.driver))
	}
	if o.verbose {
		cfg.Log.Level = logger.DebugLevel
	}

	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)

	o.cfg = cfg
	o.log = log
	if o.verbose && o.cfgFile != "" {
		o.log.Debugf("Using config file: %s", o.cfgFile)
	}
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
