package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	cfgpkg "github.com/KaramelBytes/vidstats-cli/internal/config"
	"github.com/KaramelBytes/vidstats-cli/internal/logging"
)

var (
	// Global flags
	cfgFile   string
	debug     bool
	logFormat string

	// Loaded configuration and the logger built from it
	cfg    *cfgpkg.Global
	logger *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "vidstats",
	Short: "vidstats: exploratory statistics for video metadata tables",
	Long: `vidstats loads a CSV or XLSX table of video metadata, drops rows with missing
likes, comments or views, derives per-1k engagement ratios, title length and
publication year, aggregates by (publication_year, keyword) and renders charts.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if cmd.Root().PersistentFlags().Changed("log-format") {
			if _, err := logging.ParseFormat(logFormat); err != nil {
				return err
			}
		}
		return nil
	},
}

// Execute is the entry point called by main.main()
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(loadConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.vidstats/config.yaml)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "log format: text|json (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: fall back to defaults so `config set` can repair a bad file
		fmt.Fprintf(rootCmd.ErrOrStderr(), "⚠ Warning: failed to load config: %v\n", err)
		c = cfgpkg.Defaults()
	}
	cfg = c

	level := logging.ParseLevel(cfg.LogLevel)
	if debug {
		level = slog.LevelDebug
	}
	format := cfg.LogFormat
	if rootCmd.PersistentFlags().Changed("log-format") {
		if f, err := logging.ParseFormat(logFormat); err == nil {
			format = f
		}
	}
	logger = logging.New(logging.Config{Writer: rootCmd.ErrOrStderr(), Format: format, Level: level})
	logger.Debug("config loaded", "file", cfgFile, "zero_views", cfg.ZeroViews, "chart_format", cfg.ChartFormat)
}

// currentLogger returns the configured logger, or a silent one before
// initialization.
func currentLogger() *slog.Logger {
	if logger == nil {
		return logging.Discard()
	}
	return logger
}
