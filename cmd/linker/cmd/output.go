package cmd

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"trade-journal-linker/internal/reporter"
	"trade-journal-linker/pkg/errors"
)

// outputFlags are shared by the commands that print a report
type outputFlags struct {
	format string
	file   string
}

func (f *outputFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.format, "output-format", "f", "", "output format: console, json, csv (default from report.format)")
	cmd.Flags().StringVarP(&f.file, "output-file", "o", "", "output file path (default: stdout)")
}

func (f *outputFlags) validate() error {
	if f.format != "" && !reporter.OutputFormat(f.format).IsValid() {
		return errors.InputError(errors.CodeInvalidValue, "output-format", f.format).
			WithSuggestion("Use one of: console, json, csv")
	}
	if f.file != "" {
		dir := filepath.Dir(f.file)
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			return errors.InputError(errors.CodeInvalidValue, "output-file", f.file).
				WithSuggestion("Create the output directory first")
		}
	}
	return nil
}

func (f *outputFlags) write(cmd *cobra.Command, opts *rootOptions, report interface{}) error {
	generator, err := reporter.NewSafeReportGenerator(opts.cfg.CreateReportConfig(f.format), opts.log)
	if err != nil {
		return err
	}

	var w io.Writer = cmd.OutOrStdout()
	if f.file != "" {
		file, err := os.Create(f.file)
		if err != nil {
			return errors.InputError(errors.CodeInvalidValue, "output-file", f.file).
				WithSuggestion("Check that the output location is writable")
		}
		defer file.Close()
		w = file
	}

	return generator.GenerateReportSafely(report, w)
}
