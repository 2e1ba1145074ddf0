package main

import (
	"github.com/spf13/cobra"

	"auction-analytics/internal/report"
)

var showJSON string

// showCmd prints a previously written JSON report
var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the summary of a saved JSON report",
	RunE: func(cmd *cobra.Command, args []string) error {
		rec, err := report.ReadJSON(showJSON)
		if err != nil {
			return err
		}
		return report.WriteText(cmd.OutOrStdout(), rec)
	},
}

func init() {
	showCmd.Flags().StringVar(&showJSON, "json", "", "JSON report path (required)")
	_ = showCmd.MarkFlagRequired("json")
}
