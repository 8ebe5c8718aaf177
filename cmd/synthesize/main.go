// Package main is the entry point for the synthesize CLI. It runs the
// summarize pipeline locally and renders the result, without the HTTP
// server or Kafka.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version is set at build time via ldflags.
var version = "dev"

// rootCmd is the base command for the synthesize CLI.
var rootCmd = &cobra.Command{
	Use:   "synthesize",
	Short: "Generate and score structured literature reviews",
	Long: `synthesize retrieves papers for a query, asks the configured model for a
structured literature review, validates the reply and scores it.

Configuration is read the same way as the server: config.yaml in ., ./config
or /etc/review-synthesis, overridden by SYNTHESIS_* environment variables.`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version)
	},
}

func init() {
	rootCmd.PersistentFlags().StringP("output", "o", "", "write output to this file instead of stdout")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "log pipeline progress to stderr")

	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
