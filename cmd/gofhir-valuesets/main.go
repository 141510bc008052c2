// Package main implements the gofhir-valuesets CLI tool.
//
// It scans a directory of FHIR JSON documents, groups every coding by code
// system and location, and writes one CodeSystem and one ValueSet per group
// together with a markdown index.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	valuesets "github.com/gofhir/valuesets"
	"github.com/gofhir/valuesets/pkg/extractor"
	"github.com/gofhir/valuesets/pkg/logger"
)

// envLogLevel selects the log level (debug, info, warn, error, none).
const envLogLevel = "GOFHIR_VALUESETS_LOG_LEVEL"

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(os.Stdout, os.Stderr).ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	var cfg extractor.Config

	cmd := &cobra.Command{
		Use:           "gofhir-valuesets",
		Short:         "Generate CodeSystems and ValueSets from the codings found in FHIR documents",
		Version:       valuesets.Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			err := run(cmd.Context(), cfg, stdout, stderr)
			if err != nil {
				fmt.Fprintf(stderr, "%s %v\n", color.RedString("Error:"), err)
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.SourceDir, "input-dir", "", "Directory containing FHIR JSON documents")
	flags.StringVar(&cfg.OutputDir, "output-dir", "", "Directory to write CodeSystem and ValueSet files to")
	flags.StringVar(&cfg.ReportFile, "markdown-file", "", "Path of the markdown report")
	for _, name := range []string{"input-dir", "output-dir", "markdown-file"} {
		_ = cmd.MarkFlagRequired(name)
	}

	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		fmt.Fprintf(stderr, "%s %v\n\n%s", color.RedString("Error:"), err, c.UsageString())
		return err
	})

	return cmd
}

func run(ctx context.Context, cfg extractor.Config, stdout, stderr io.Writer) error {
	level, err := logger.ParseLevel(os.Getenv(envLogLevel))
	if err != nil {
		return err
	}
	logger.SetDefault(logger.New(stderr, level))

	ex, err := extractor.New(extractor.WithRelocate(level == logger.LevelDebug))
	if err != nil {
		return err
	}

	summary, err := ex.Run(ctx, cfg)
	if err != nil {
		return err
	}

	printSummary(stdout, cfg, summary)
	return nil
}

func printSummary(w io.Writer, cfg extractor.Config, s *extractor.Summary) {
	status := color.GreenString("Done")
	if s.Failed > 0 || s.Issues.WarningCount() > 0 {
		status = color.YellowString("Done with problems")
	}

	fmt.Fprintf(w, "%s: %d value sets written to %s\n", status, len(s.Infos), cfg.OutputDir)
	fmt.Fprintf(w, "  Documents: %d found, %d processed, %d failed, %d duplicates\n",
		s.Documents, s.Processed, s.Failed, s.Duplicates)
	fmt.Fprintf(w, "  Codings:   %d found, %d distinct codes in %d groups\n",
		s.Matches, s.Codes, s.Groups)
	fmt.Fprintf(w, "  Warnings:  %d\n", s.Issues.WarningCount())
	fmt.Fprintf(w, "  Report:    %s\n", cfg.ReportFile)
	fmt.Fprintf(w, "  Duration:  %s\n", s.Duration.Round(time.Millisecond))
}
