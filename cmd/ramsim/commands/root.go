// Package commands implements the ramsim CLI.
package commands

import (
	"github.com/spf13/cobra"
)

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "ramsim",
	Short: "Cycle-accurate DDR5 pseudo-channel / NDP memory-subsystem simulator",
	Long: `ramsim simulates a DDR5 memory subsystem extended with pseudo-channel
partitioning behind a data buffer and per-pseudo-channel near-data
processing, at DRAM clock granularity: JEDEC timing constraints, refresh
maintenance, row-buffer policies, and the PRE/POST data-buffer staging
protocol.

It consumes load/store traces and NDP launch programs and emits a
statistics report at the end of the run.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the CLI. Called once from main.
func Execute() error {
	return rootCmd.Execute()
}

// PrintErr prints an error message to stderr.
func PrintErr(format string, args ...any) {
	rootCmd.PrintErrf(format+"\n", args...)
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML)")
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(validateCmd)
}
