package cmd

import (
	"fmt"
	"os"

	cfgpkg "github.com/edpulse/edpulse-cli/internal/config"
	"github.com/spf13/cobra"
)

var (
	// Global flags (wired to config/viper)
	cfgFile string

	// Flags overriding config if set
	flagSourceURL      string
	flagSynonymsFile   string
	flagTrendWindow    int
	flagHTTPTimeoutSec int
	flagRetryMax       int

	// Loaded configuration
	cfg *cfgpkg.Global
)

var rootCmd = &cobra.Command{
	Use:   "edpulse",
	Short: "edpulse: summarize emergency department CSV exports",
	Long:  `edpulse ingests periodically published ED activity exports (per-visit or department-state CSVs with arbitrary header spellings), classifies the schema, and derives the statistics the dashboard shows.`,
}

// Execute is the entry point called by main.main()
func Execute() {
	cobra.OnInitialize(loadConfig)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "✗ Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ~/.edpulse/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&flagSourceURL, "source", "", "CSV source URL (overrides config)")
	rootCmd.PersistentFlags().StringVar(&flagSynonymsFile, "synonyms", "", "extra header-synonym YAML file (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagTrendWindow, "window", 0, "fast/slow trend window in days (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagHTTPTimeoutSec, "http-timeout", 0, "HTTP client timeout in seconds (overrides config)")
	rootCmd.PersistentFlags().IntVar(&flagRetryMax, "retry-max", 0, "max retrieval attempts (overrides config)")
}

func loadConfig() {
	c, err := cfgpkg.Load(cfgFile)
	if err != nil {
		// Non-fatal: allow running commands that don't need config
		fmt.Fprintf(os.Stderr, "⚠ Warning: failed to load config: %v\n", err)
		return
	}
	if flagSourceURL != "" {
		c.SourceURL = flagSourceURL
	}
	if flagSynonymsFile != "" {
		c.SynonymsFile = flagSynonymsFile
	}
	if flagTrendWindow > 0 {
		c.TrendWindowDays = flagTrendWindow
	}
	if flagHTTPTimeoutSec > 0 {
		c.HTTPTimeoutSec = flagHTTPTimeoutSec
	}
	if flagRetryMax > 0 {
		c.RetryMaxAttempts = flagRetryMax
	}
	cfg = c
}
