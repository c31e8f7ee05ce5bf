package main

import (
	"context"
	"fmt"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"stringfinder/internal/extract"
	"stringfinder/internal/output"
	"stringfinder/internal/watch"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// watchCmd re-extracts files as they change
var watchCmd = &cobra.Command{
	Use:   "watch file...",
	Short: "Print literals again whenever a file changes",
	Long: `Extracts each file once, then watches them and extracts a file again every
time it is written. Rapid successive saves are coalesced (watch.debounce in the
config, 200ms by default). Stop with Ctrl-C.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runWatch,
}

func runWatch(cmd *cobra.Command, args []string) error {
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
	runner := extract.NewRunner(delims, 1)

	// Passes run on the watcher goroutine after the initial one; mu keeps
	// output from two passes from interleaving.
	var mu sync.Mutex
	pass := func(ctx context.Context, path string) error {
		mu.Lock()
		defer mu.Unlock()

		out, err := newOutput(cfg, cmd.OutOrStdout())
		if err != nil {
			return err
		}
		report, err := runner.RunStream(ctx, []extract.Input{extract.FileInput(path)}, func(src string, idx int, lit string) error {
			return out.Write(output.Record{Source: src, Index: idx, Literal: lit})
		})
		if err != nil {
			return err
		}
		if err := out.Close(); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
		logger.Info("Extracted", zap.String("file", path), zap.Int("literals", report.LiteralCount()))
		return recordRun(ctx, cfg, report)
	}

	for _, path := range args {
		if err := pass(ctx, path); err != nil {
			return err
		}
	}

	labels, err := watchLabels(args)
	if err != nil {
		return err
	}
	// The watcher reports absolute paths; passes keep the name as typed.
	handler := func(ctx context.Context, path string) error {
		if label, ok := labels[filepath.Clean(path)]; ok {
			path = label
		}
		return pass(ctx, path)
	}

	w, err := watch.New(args, cfg.GetDebounce(), handler)
	if err != nil {
		return err
	}
	defer w.Stop()
	if err := w.Start(ctx); err != nil {
		return err
	}
	logger.Info("Watching for changes", zap.Strings("files", args))

	<-ctx.Done()
	stats := w.Stats()
	logger.Info("Watch stopped",
		zap.Int("events", stats.Events),
		zap.Int("extractions", stats.Extractions),
		zap.Int("errors", stats.Errors))
	return nil
}

// watchLabels maps the absolute form of each argument to the argument itself.
func watchLabels(args []string) (map[string]string, error) {
	labels := make(map[string]string, len(args))
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve %s: %w", arg, err)
		}
		labels[filepath.Clean(abs)] = arg
	}
	return labels, nil
}
