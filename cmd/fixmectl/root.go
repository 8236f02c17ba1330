package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "fixmectl",
	Short: "FixMe AI repair diagnosis from the command line",
	Long: `fixmectl runs the FixMe repair diagnosis against the configured
OpenAI account, or starts the HTTP API.

Configuration is read from the environment, .env and CONFIG_FILE.`,
	SilenceUsage: true,
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(diagnoseCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}
