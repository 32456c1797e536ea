package cmd

import (
	"fmt"
	"strconv"

	cfgpkg "github.com/edpulse/edpulse-cli/internal/config"
	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or set edpulse configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show effective configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if cfg == nil {
			fmt.Println("No config loaded")
			return nil
		}
		fmt.Printf("source_url: %s\n", cfg.SourceURL)
		if cfg.SynonymsFile != "" {
			fmt.Printf("synonyms_file: %s\n", cfg.SynonymsFile)
		}
		fmt.Printf("trend_window_days: %d\n", cfg.TrendWindowDays)
		fmt.Printf("http_timeout_sec: %d\n", cfg.HTTPTimeoutSec)
		fmt.Printf("retry_max_attempts: %d\n", cfg.RetryMaxAttempts)
		fmt.Printf("retry_base_delay_ms: %d\n", cfg.RetryBaseDelayMs)
		fmt.Printf("retry_max_delay_ms: %d\n", cfg.RetryMaxDelayMs)
		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a config value and save to disk",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, val := args[0], args[1]
		if cfg == nil {
			c, err := cfgpkg.Load(cfgFile)
			if err != nil {
				return err
			}
			cfg = c
		}
		switch key {
		case "source_url":
			cfg.SourceURL = val
		case "synonyms_file":
			cfg.SynonymsFile = val
		case "trend_window_days":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid trend_window_days: %s", val)
			}
			cfg.TrendWindowDays = n
		case "http_timeout_sec":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid http_timeout_sec: %s", val)
			}
			cfg.HTTPTimeoutSec = n
		case "retry_max_attempts":
			n, err := strconv.Atoi(val)
			if err != nil || n < 1 {
				return fmt.Errorf("invalid retry_max_attempts: %s", val)
			}
			cfg.RetryMaxAttempts = n
		case "retry_base_delay_ms":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid retry_base_delay_ms: %s", val)
			}
			cfg.RetryBaseDelayMs = n
		case "retry_max_delay_ms":
			n, err := strconv.Atoi(val)
			if err != nil || n < 0 {
				return fmt.Errorf("invalid retry_max_delay_ms: %s", val)
			}
			cfg.RetryMaxDelayMs = n
		default:
			return fmt.Errorf("unknown config key: %s", key)
		}
		if err := cfgpkg.Save(cfg, cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Saved")
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}
