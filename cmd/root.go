// Package cmd implements the encore CLI command tree.
// This file defines the root command and registers all global persistent flags.
package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/derickschaefer/encore/internal/app"
	"github.com/derickschaefer/encore/internal/config"
)

// globalFlags holds the parsed values of all persistent (global) flags.
// Commands read from this struct via the deps they receive.
var globalFlags struct {
	BaseURL string
	DBPath  string
	Locale  string
	Format  string
	Out     string
	Timeout string
	Rate    float64
	Quiet   bool
	Verbose bool
	Debug   bool
}

// rootCmd is the base command. Running `encore` with no subcommand
// prints help.
var rootCmd = &cobra.Command{
	Use:   "encore",
	Short: "encore: concert listings from the venue, in your terminal",
	Long: `encore lists upcoming concerts at the venue, keeps a local list of
favourites and a copy of the latest listing for offline use.

Quick start:
  encore config init           # create a config.json with defaults
  encore events list           # everything from today to the end of the year
  encore events today          # tonight's shows
  encore favorites toggle 123  # star an event`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		setupLogging()
	},
}

// Execute is the entry point called by main.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// setupLogging installs a text handler on stderr. Warnings always show;
// --verbose adds info and --debug adds request tracing.
func setupLogging() {
	level := slog.LevelWarn
	switch {
	case globalFlags.Debug:
		level = slog.LevelDebug
	case globalFlags.Verbose:
		level = slog.LevelInfo
	case globalFlags.Quiet:
		level = slog.LevelError
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}

// buildDeps resolves config and constructs the dependency container.
// Called at the start of each command's RunE.
func buildDeps() (*app.Deps, error) {
	cfg, err := config.Load(config.Overrides{
		BaseURL: globalFlags.BaseURL,
		DBPath:  globalFlags.DBPath,
		Locale:  globalFlags.Locale,
	})
	if err != nil {
		return nil, err
	}

	// Apply CLI flag overrides
	cfg.Quiet = globalFlags.Quiet
	cfg.Verbose = globalFlags.Verbose
	cfg.Debug = globalFlags.Debug

	if globalFlags.Format != "" {
		cfg.Format = globalFlags.Format
	}
	if globalFlags.Timeout != "" {
		d, err := time.ParseDuration(globalFlags.Timeout)
		if err != nil {
			return nil, fmt.Errorf("--timeout: %w", err)
		}
		cfg.Timeout = d
	}
	if globalFlags.Rate > 0 {
		cfg.Rate = globalFlags.Rate
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return app.New(cfg, slog.Default())
}

func init() {
	pf := rootCmd.PersistentFlags()

	pf.StringVar(&globalFlags.BaseURL, "base-url", "",
		"events endpoint (overrides env ENCORE_BASE_URL and config.json)")
	pf.StringVar(&globalFlags.DBPath, "db", "",
		"path to the local database (overrides env ENCORE_DB_PATH)")
	pf.StringVar(&globalFlags.Locale, "locale", "",
		"display language: sv|en (overrides env ENCORE_LOCALE)")
	pf.StringVar(&globalFlags.Format, "format", "",
		"output format: table|json|jsonl|csv|tsv|md|yaml (default: table)")
	pf.StringVar(&globalFlags.Out, "out", "",
		"write output to file instead of stdout")
	pf.StringVar(&globalFlags.Timeout, "timeout", "",
		"HTTP request timeout (e.g. 5s, 1m)")
	pf.Float64Var(&globalFlags.Rate, "rate", 0,
		"max API requests per second (default: 2.0)")
	pf.BoolVar(&globalFlags.Quiet, "quiet", false,
		"suppress all non-error output")
	pf.BoolVar(&globalFlags.Verbose, "verbose", false,
		"show cache/timing stats after output")
	pf.BoolVar(&globalFlags.Debug, "debug", false,
		"log HTTP requests and responses")
}
