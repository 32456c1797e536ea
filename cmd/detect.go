package cmd

import (
	"fmt"
	"os"
	"sort"

	"github.com/edpulse/edpulse-cli/internal/columns"
	"github.com/edpulse/edpulse-cli/internal/schema"
	"github.com/spf13/cobra"
)

var detectCmd = &cobra.Command{
	Use:   "detect <file>",
	Short: "Show how an export's headers resolve onto canonical fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		synonymsFile := ""
		if cfg != nil {
			synonymsFile = cfg.SynonymsFile
		}
		tables, err := columns.LoadTables(synonymsFile)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(args[0])
		if err != nil {
			return fmt.Errorf("read export: %w", err)
		}
		ds, _, err := schema.Parse(data, tables, 0)
		if err != nil {
			return err
		}

		fmt.Printf("mode: %s\nrecords: %d\n\n", ds.Mode, len(ds.Records))
		printMapping("legacy", ds.Layout.Legacy, ds.Layout.Headers)
		printMapping("snapshot", ds.Layout.Snapshot, ds.Layout.Headers)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(detectCmd)
}

func printMapping(name string, fields map[string]int, headers []columns.Header) {
	keys := make([]string, 0, len(fields))
	for field := range fields {
		keys = append(keys, field)
	}
	sort.Strings(keys)

	fmt.Printf("[%s]\n", name)
	for _, field := range keys {
		idx := fields[field]
		if idx < 0 {
			fmt.Printf("  %-18s → (not found)\n", field)
			continue
		}
		fmt.Printf("  %-18s → column %d %q\n", field, idx, headers[idx].Original)
	}
	fmt.Println()
}
