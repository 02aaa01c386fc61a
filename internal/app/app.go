// Package app provides application lifecycle management for the ballpark server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/stacklok/ballpark/internal/config"
)

// BallparkApp encapsulates all components needed to run the dashboard API server
// It provides lifecycle management and graceful shutdown capabilities
type BallparkApp struct {
	config     *config.Config
	components *AppComponents
	httpServer *http.Server

	// Lifecycle management
	ctx        context.Context
	cancelFunc context.CancelFunc
}

// Start warms the dataset cache in the background and serves HTTP.
// This method blocks until the HTTP server stops or encounters an error
func (app *BallparkApp) Start() error {
	go func() {
		if err := app.components.Datasets.Preload(app.ctx); err != nil {
			slog.Error("Dataset preload failed", "error", err)
		}
	}()

	// Start HTTP server (blocks until stopped)
	slog.Info("Server listening", "address", app.httpServer.Addr)
	if err := app.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("HTTP server failed: %w", err)
	}

	return nil
}

// Stop gracefully stops the application with the given timeout
// It cancels any pending preload and then shuts down the HTTP server
func (app *BallparkApp) Stop(timeout time.Duration) error {
	slog.Info("Shutting down server...")

	if app.cancelFunc != nil {
		app.cancelFunc()
	}

	// Graceful HTTP server shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := app.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	slog.Info("Server shutdown complete")
	return nil
}

// GetConfig returns the application configuration
func (app *BallparkApp) GetConfig() *config.Config {
	return app.config
}

// GetHTTPServer returns the HTTP server (useful for testing to get the actual port)
func (app *BallparkApp) GetHTTPServer() *http.Server {
	return app.httpServer
}
