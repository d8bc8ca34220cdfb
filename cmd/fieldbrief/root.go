package main

import (
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fieldbrief",
	Short: "Season summaries for scouted fields",
	Long: `Fieldbrief reads a CSV export of per-field mission recommendations,
groups the passes for each field, and asks Claude for one season-level
summary per field. The result is written back out as a CSV with one row
per field and a field_summary column.

Typical use:
  fieldbrief summarize --input missions.csv
  fieldbrief watch --input missions.csv
  fieldbrief history`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(summarizeCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(versionCmd)
}
