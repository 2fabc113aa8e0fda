package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stats-engine",
	Short: "Offline-capable habit statistics engine",
	Long: `stats-engine keeps a locally cached copy of one user's habit data,
reconciles it with the habit platform API, and serves computed
statistics over a local HTTP bridge, online or offline.`,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
