package main

import (
	"github.com/spf13/cobra"

	"github.com/retrodraw/retrodraw/internal/server/endpoints"
)

var serverURL string

var apiCmd = &cobra.Command{
	Use:   "api",
	Short: "Commands that call the running server",
	Long: `API commands call the running Retrodraw server via HTTP.

These commands require a running server (retrodraw serve).
Use --server to specify a custom server URL.

Examples:
  retrodraw api health                # Check server health
  retrodraw api process drawing.pdf   # Extract text from a document
  retrodraw api analyze drawing.png   # Extract structured drawing data`,
}

// getServerURL returns the server URL at runtime (after flag parsing).
func getServerURL() string {
	return serverURL
}

func init() {
	// Add --server flag to api command (persistent so all subcommands inherit it)
	apiCmd.PersistentFlags().StringVar(
		&serverURL, "server", "http://localhost:5000", "Server URL",
	)

	for _, ep := range endpoints.All() {
		if cmd := ep.Command(getServerURL); cmd != nil {
			apiCmd.AddCommand(cmd)
		}
	}

	rootCmd.AddCommand(apiCmd)
}
