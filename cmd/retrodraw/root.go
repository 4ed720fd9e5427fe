package main

import (
	"github.com/spf13/cobra"

	"github.com/retrodraw/retrodraw/internal/api"
	"github.com/retrodraw/retrodraw/version"
)

var (
	cfgFile      string
	homeDir      string
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "retrodraw",
	Short: "Text recognition service for scanned engineering drawings",
	Long: `Retrodraw extracts text and structured data from legacy engineering
drawings: scanned paper sheets, photographed blueprints and vector PDFs.

Each document is classified first, then routed to the cheapest method
likely to work:
  - Embedded text layer extraction for vector PDFs
  - Local Tesseract OCR with preprocessing retries
  - Remote vision models with a tiered fallback cascade`,
	Version: version.GitRelease,
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile, "config", "", "config file (default: ./config.yaml or ~/.retrodraw/config.yaml)",
	)
	rootCmd.PersistentFlags().StringVar(
		&homeDir, "home", "", "retrodraw home directory (default: ~/.retrodraw)",
	)
	rootCmd.PersistentFlags().StringVarP(
		&outputFormat, "output", "o", "yaml", "output format: yaml or json",
	)

	// Set output format before any command runs
	rootCmd.PersistentPreRun = func(cmd *cobra.Command, args []string) {
		api.SetOutputFormat(outputFormat)
	}

	rootCmd.AddCommand(versionCmd)
}
