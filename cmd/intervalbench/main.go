// Package main provides the entry point for the intervalbench CLI tool.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/Sumatoshi-tech/intervaltree/cmd/intervalbench/commands"
	"github.com/Sumatoshi-tech/intervaltree/pkg/version"
)

func main() {
	version.InitBinaryVersion()

	err := newRootCommand().Execute()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "intervalbench",
		Short: "Benchmark and verify the interval index algorithms",
		Long: `intervalbench exercises the interval index algorithms.

Commands:
  bench     Load and query throughput per algorithm
  verify    Randomized cross-check against the linear reference
  memtest   Heap cost of built trees under a memory budget
  config    Write the default configuration file`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(commands.NewBenchCommand())
	rootCmd.AddCommand(commands.NewVerifyCommand())
	rootCmd.AddCommand(commands.NewMemtestCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewVersionCommand())

	return rootCmd
}
