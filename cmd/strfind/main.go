package main

import (
	"fmt"
	"os"

	"stringfinder/internal/config"
	"stringfinder/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	// Global flags
	verbose     bool
	configPath  string
	format      string
	nullSep     bool
	render      bool
	quote       string
	escape      string
	dbPath      string
	concurrency int

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "strfind [file...]",
	Short: "Extract fenced string literals from text",
	Long: `strfind prints every quoted string literal found in its input.

A literal opens with a run of one or more quote characters and closes at the
next run of exactly the same length, so shorter runs inside it are kept:

  echo 'a """triple "super" test""" b' | strfind
  triple "super" test

A backslash before a quote outside a literal keeps it from opening one.
Inside a literal the backslash and the character after it are kept as is.

With no files, standard input is read. Literals may span lines.`,
	// Without this cobra treats the first file as an unknown subcommand.
	Args:         cobra.ArbitraryArgs,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zc := zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		if verbose {
			zc.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zc.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.CloseAll()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: runExtract,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultPath, "Config file")
	rootCmd.PersistentFlags().StringVarP(&format, "format", "f", "", "Output format: text, json, yaml, mangle, markdown, styled")
	rootCmd.PersistentFlags().BoolVarP(&nullSep, "null", "z", false, "End text output records with NUL instead of newline")
	rootCmd.PersistentFlags().BoolVar(&render, "render", false, "Render markdown output for the terminal")
	rootCmd.PersistentFlags().StringVar(&quote, "quote", "", `Quote character (default "\"")`)
	rootCmd.PersistentFlags().StringVar(&escape, "escape", "", `Escape character (default "\\")`)
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Record runs in this SQLite history database")
	rootCmd.PersistentFlags().IntVarP(&concurrency, "concurrency", "j", 0, "Files extracted in parallel")

	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadConfig reads the config file and applies command-line overrides.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	// Flags left at their zero value defer to the config file.
	if format != "" {
		cfg.Output.Format = format
	}
	if nullSep {
		cfg.Output.Separator = "null"
	}
	if render {
		cfg.Output.Render = true
	}
	if quote != "" {
		cfg.Quote = quote
	}
	if escape != "" {
		cfg.Escape = escape
	}
	if dbPath != "" {
		cfg.Store.Path = dbPath
	}
	if concurrency > 0 {
		cfg.Concurrency = concurrency
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	if err := logging.Initialize(cfg.Logging); err != nil {
		logger.Warn("File logging disabled", zap.Error(err))
	}
	logging.Boot("Config resolved from %s: format=%s quote=%q escape=%q", configPath, cfg.Output.Format, cfg.Quote, cfg.Escape)
	return cfg, nil
}
