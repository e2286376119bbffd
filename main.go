package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"solarguardian/internal/config"
	"solarguardian/internal/logger"
	"solarguardian/internal/server"
)

func main() {
	ctx := context.Background()

	// Load configuration
	cfg, err := config.Load(ctx)
	if err != nil {
		logger.NewDefault().Fatal("Failed to load configuration", err)
	}

	log := logger.NewFromStrings(cfg.LogLevel, cfg.LogFormat, os.Stdout).WithComponent("main")

	log.Info("Starting "+cfg.AppName, logger.Fields{
		"version":          config.GetVersion(),
		"environment":      cfg.Environment,
		"addr":             cfg.Addr(),
		"cache_seconds":    cfg.CacheDuration,
		"flare_row_policy": cfg.FlareRowPolicy,
		"mockup_mode":      cfg.MockupMode,
	})

	// Create server
	srv, err := server.NewServer(cfg, log)
	if err != nil {
		log.Fatal("Failed to create server", err)
	}
	defer srv.Close()

	if err := srv.Start(); err != nil {
		log.Fatal("Failed to start background jobs", err)
	}

	httpServer := newHTTPServer(cfg, srv.Handler())

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		log.Info("Server listening", logger.Fields{"addr": httpServer.Addr})
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	// Wait for interrupt signal or a listener failure
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case sig := <-sigChan:
		log.Info("Shutting down server...", logger.Fields{"signal": sig.String()})
	case err, ok := <-serverErr:
		if ok {
			srv.Close()
			log.Fatal("HTTP server error", err)
		}
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", err)
	}

	log.Info("Server stopped")
}

// newHTTPServer builds the listener. The write timeout covers a full cold
// report, which is bounded by the upstream client timeout.
func newHTTPServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      cfg.HTTPTimeout + 30*time.Second,
		IdleTimeout:       60 * time.Second,
	}
}
