package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"auction-analytics/internal/logging"
)

var (
	logLevel  string
	logFormat string
)

// rootCmd is the base command of the analytics CLI
var rootCmd = &cobra.Command{
	Use:   "cli",
	Short: "Market quality analytics for continuous double auction experiments",
	Long: `Computes equilibria, allocative efficiency, trade ratios and Smith's alpha
for simulated double auction runs, and aggregates them across runs and days.

Example usage:
  cli analyze --config examples/experiment.yaml
  cli single --dir results/runs__0 --per-day 6
  cli equilibrium --asks 9,10,11 --bids 12,11,10
  cli rank --config examples/experiment.yaml --fitness alpha
  cli show --json results/summary.json`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return logging.Setup(logLevel, logFormat)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "console", "Log format: console or json")

	rootCmd.AddCommand(analyzeCmd, singleCmd, equilibriumCmd, rankCmd, showCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
