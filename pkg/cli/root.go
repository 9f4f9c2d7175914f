// Package cli implements the gridsync command-line client.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := newRootCmd()
	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		return 1
	}
	return 0
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "gridsync",
		Short:         "Run ad-hoc SQL and inspect query history via the gridsync server",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().String("server", envOr("GRIDSYNC_SERVER", "http://localhost:8080"),
		"Base URL of the gridsync server")
	cmd.PersistentFlags().String("output", "table", "Output format: table or json")

	cmd.AddCommand(newQueryCmd())
	cmd.AddCommand(newHistoryCmd())

	return cmd
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func serverURL(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("server")
	return v
}

func outputFormat(cmd *cobra.Command) string {
	v, _ := cmd.Flags().GetString("output")
	return v
}
