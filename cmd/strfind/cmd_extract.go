package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"slices"
	"syscall"

	"stringfinder/internal/config"
	"stringfinder/internal/extract"
	"stringfinder/internal/output"
	"stringfinder/internal/source"
	"stringfinder/internal/store"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// extractCmd is the explicit form of the root command
var extractCmd = &cobra.Command{
	Use:   "extract [file...]",
	Short: "Extract literals from files or standard input",
	Long: `Reads each file (or standard input when none, or for "-") and prints the
literals found, in order. Several files are read in parallel; their output
still follows the order given on the command line.

Examples:
  strfind extract notes.txt
  cat log | strfind extract --format json
  strfind extract -j 8 --db runs.db src/*.txt`,
	RunE: runExtract,
}

func runExtract(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	delims, err := cfg.Delimiters()
	if err != nil {
		return err
	}

	out, err := newOutput(cfg, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	inputs := make([]extract.Input, 0, max(len(args), 1))
	for _, arg := range args {
		if arg == source.Stdin {
			inputs = append(inputs, extract.ReaderInput(source.DisplayName(arg), cmd.InOrStdin()))
			continue
		}
		inputs = append(inputs, extract.FileInput(arg))
	}
	if len(inputs) == 0 {
		inputs = append(inputs, extract.ReaderInput(source.DisplayName(""), cmd.InOrStdin()))
	}

	runner := extract.NewRunner(delims, cfg.Concurrency)
	var report *extract.Report

	// Standard input is streamed so literals appear as soon as they close.
	streaming := len(args) == 0 || slices.Contains(args, source.Stdin) || cfg.Concurrency == 1
	if streaming {
		logger.Debug("Streaming extraction", zap.Int("inputs", len(inputs)))
		report, err = runner.RunStream(ctx, inputs, func(src string, idx int, lit string) error {
			return out.Write(output.Record{Source: src, Index: idx, Literal: lit})
		})
		if err != nil {
			return err
		}
	} else {
		logger.Debug("Parallel extraction", zap.Int("inputs", len(inputs)), zap.Int("concurrency", cfg.Concurrency))
		report, err = runner.Run(ctx, inputs)
		if err != nil {
			return err
		}
		if err := writeReport(out, report); err != nil {
			return err
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	for _, res := range report.Results {
		if res.Dangling {
			logger.Warn("Input ended inside an open literal",
				zap.String("source", res.Source),
				zap.Int("dropped_runes", res.DanglingRunes))
		}
	}
	logger.Info("Extraction finished",
		zap.String("run", report.RunID),
		zap.Int("literals", report.LiteralCount()),
		zap.Duration("elapsed", report.Duration))

	return recordRun(ctx, cfg, report)
}

func newOutput(cfg *config.Config, w io.Writer) (output.Writer, error) {
	return output.New(cfg.Output.Format, w, output.Options{
		NullSeparated: cfg.Output.Separator == "null",
		Render:        cfg.Output.Render,
	})
}

func writeReport(out output.Writer, report *extract.Report) error {
	for _, res := range report.Results {
		for i, lit := range res.Literals {
			if err := out.Write(output.Record{Source: res.Source, Index: i, Literal: lit}); err != nil {
				return fmt.Errorf("failed to write output: %w", err)
			}
		}
	}
	return nil
}

// recordRun saves the report when a history database is configured.
func recordRun(ctx context.Context, cfg *config.Config, report *extract.Report) error {
	if !cfg.IsStoreEnabled() {
		return nil
	}
	s, err := store.Open(cfg.Store.Path, cfg.Store.Driver)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.RecordRun(ctx, report); err != nil {
		return err
	}
	logger.Debug("Run recorded", zap.String("run", report.RunID), zap.String("db", cfg.Store.Path))
	return nil
}
