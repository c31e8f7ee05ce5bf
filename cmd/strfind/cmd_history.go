package main

import (
	"context"
	"fmt"
	"strings"

	"stringfinder/internal/store"

	"github.com/spf13/cobra"
)

var historyLimit int

// historyCmd inspects runs recorded with --db
var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "List recorded runs or print the literals of one",
	Long: `Without arguments, lists the runs recorded in the history database, newest
first. With a run ID, prints that run's literals again using the selected
output format.

The database comes from --db, store.path in the config or STRFIND_DB.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 20, "Number of runs to list (0 for all)")
}

func runHistory(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.IsStoreEnabled() {
		return fmt.Errorf("no history database configured; pass --db or set store.path")
	}

	s, err := store.Open(cfg.Store.Path, cfg.Store.Driver)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := context.Background()
	w := cmd.OutOrStdout()

	if len(args) == 0 {
		runs, err := s.ListRuns(ctx, historyLimit)
		if err != nil {
			return err
		}
		if len(runs) == 0 {
			fmt.Fprintln(w, "No recorded runs.")
			return nil
		}
		fmt.Fprintf(w, "%-36s  %-19s  %7s  %8s  %s\n", "RUN", "STARTED", "SOURCES", "LITERALS", "DURATION")
		fmt.Fprintln(w, strings.Repeat("─", 90))
		for _, r := range runs {
			fmt.Fprintf(w, "%-36s  %-19s  %7d  %8d  %v\n",
				r.ID, r.StartedAt.Local().Format("2006-01-02 15:04:05"), r.Sources, r.LiteralCount, r.Duration)
		}
		return nil
	}

	records, err := s.Literals(ctx, args[0])
	if err != nil {
		return err
	}
	sources, err := s.Sources(ctx, args[0])
	if err != nil {
		return err
	}
	for _, src := range sources {
		if src.Dangling {
			fmt.Fprintf(cmd.ErrOrStderr(), "%s: input ended inside an open literal (%d rune(s) dropped)\n", src.Source, src.DanglingRunes)
		}
	}

	out, err := newOutput(cfg, w)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := out.Write(rec); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return out.Close()
}
