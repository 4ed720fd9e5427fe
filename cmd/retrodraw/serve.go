package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/retrodraw/retrodraw/internal/config"
	"github.com/retrodraw/retrodraw/internal/home"
	"github.com/retrodraw/retrodraw/internal/server"
)

var (
	serveHost string
	servePort string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Retrodraw server",
	Long: `Start the Retrodraw HTTP server.

The server classifies uploaded documents and extracts their text
through a fallback chain of recognition methods. Configuration is
hot-reloaded: edits to the config file rewire providers and the
recognition pipeline without a restart.

The server provides:
  - /health               - Basic server health check
  - /status               - Backend and provider status
  - /api/ocr/process      - Text extraction from PDFs and images
  - /api/ocr/methods      - Available recognition methods
  - /api/drawings/analyze - Structured drawing analysis

Examples:
  retrodraw serve                # Start on default port 5000
  retrodraw serve --port 3000    # Start on custom port
  retrodraw serve --host 0.0.0.0 # Bind to all interfaces`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		// Set up logger
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		}))

		// Get home directory
		h, err := home.New(homeDir)
		if err != nil {
			return err
		}
		if err := h.EnsureExists(); err != nil {
			return err
		}

		// Load config with hot reload
		cm, err := config.NewManager(cfgFile)
		if err != nil {
			return err
		}
		cm.WatchConfig()

		cfg := cm.Get()
		host := serveHost
		if !cmd.Flags().Changed("host") && cfg.Server.Host != "" {
			host = cfg.Server.Host
		}
		port := servePort
		if !cmd.Flags().Changed("port") && cfg.Server.Port != 0 {
			port = fmt.Sprintf("%d", cfg.Server.Port)
		}

		// Create server
		srv, err := server.New(server.Config{
			Host:          host,
			Port:          port,
			Home:          h,
			ConfigManager: cm,
			Logger:        logger,
		})
		if err != nil {
			return err
		}

		// Start server (blocks until shutdown)
		return srv.Start(ctx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveHost, "host", "0.0.0.0", "Host to bind to")
	serveCmd.Flags().StringVar(&servePort, "port", "5000", "Port to listen on")

	rootCmd.AddCommand(serveCmd)
}
