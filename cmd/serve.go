package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/mohawk-valley-archives/curator/internal/catalog"
	"github.com/mohawk-valley-archives/curator/internal/config"
	"github.com/mohawk-valley-archives/curator/internal/handlers"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var configPath string
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start a read-only API over recorded pipeline runs",
		Long: `Starts an HTTP API over the catalog database.

The API exposes recorded runs, their resolved artifacts, and their review
queues. It is read-only; runs are recorded by 'curator archive run'.`,
		Example: `  # Serve on the configured bind address
  curator serve

  # Serve on a custom address
  curator serve --bind 0.0.0.0:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if bind == "" {
				bind = cfg.Paths.APIBind
			}

			store, err := catalog.Open(cfg.Paths.Catalog)
			if err != nil {
				return err
			}
			defer store.Close()

			handler := handlers.New(store)

			// Set up routes
			mux := http.NewServeMux()
			mux.HandleFunc("/api/runs", handler.HandleRuns)
			mux.HandleFunc("/api/artifacts", handler.HandleArtifacts)
			mux.HandleFunc("/api/artifacts/", handler.HandleArtifacts)
			mux.HandleFunc("/api/review", handler.HandleReview)
			mux.HandleFunc("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
				if _, err := w.Write([]byte("OK")); err != nil {
					slog.Error("Unable to write healthcheck", "err", err)
				}
			})

			server := &http.Server{
				Addr:    bind,
				Handler: mux,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Curator API available", "addr", bind)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				// Give server 5 seconds to shut down gracefully
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVar(&configPath, "config", "", "Config file (defaults to curator.toml if present)")
	cmd.Flags().StringVar(&bind, "bind", "", "Bind address (defaults to config)")

	return cmd
}
