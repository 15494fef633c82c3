// StripeMeta Proxy - attaches configured WooCommerce order metadata to
// Stripe payment intents. Designed for Cloud Run deployment.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stripemeta-proxy/internal/auth"
	"stripemeta-proxy/internal/catalog"
	"stripemeta-proxy/internal/config"
	"stripemeta-proxy/internal/handler"
	"stripemeta-proxy/internal/metadata"
	"stripemeta-proxy/internal/middleware"
	"stripemeta-proxy/internal/settings"
	"stripemeta-proxy/internal/stripegw"
	"stripemeta-proxy/internal/subscriptions"
	"stripemeta-proxy/internal/woocommerce"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Initialize structured logger
	logger := initLogger()

	// Load configuration
	ctx := context.Background()
	cfg, err := config.Load(ctx)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger.Info("configuration loaded",
		slog.String("site_id", cfg.SiteID),
		slog.String("environment", cfg.Environment),
		slog.String("store_url", cfg.Site.StoreURL),
	)

	// WooCommerce REST client
	store, err := woocommerce.New(woocommerce.Config{
		StoreURL:       cfg.Site.StoreURL,
		ConsumerKey:    cfg.Site.ConsumerKey,
		ConsumerSecret: cfg.Site.ConsumerSecret,
		MinVersion:     cfg.Site.MinStoreVersion,
	}, logger)
	if err != nil {
		return fmt.Errorf("creating store client: %w", err)
	}

	// Refuse to start against a store we cannot work with.
	version, err := store.CheckCompatibility(ctx)
	if err != nil {
		return fmt.Errorf("store compatibility: %w", err)
	}
	logger.Info("store reachable", slog.String("woocommerce_version", version))

	// Settings persistence
	settingsStore, err := settings.NewSQLiteStore(cfg.DataDir)
	if err != nil {
		return fmt.Errorf("opening settings store: %w", err)
	}
	defer settingsStore.Close()

	// Subscriptions are optional; the detector degrades when absent.
	detector := subscriptions.NewDetector(woocommerce.NewSubscriptionsProvider(store, logger))

	// Field catalog, metadata pipeline, Stripe gateway
	cat := catalog.New(store, store, detector)
	assembler := metadata.NewAssembler(detector)
	gateway := stripegw.New(cfg.Site.StripeKey, store, settingsStore, assembler, logger)

	// Admin auth
	verifier := auth.NewVerifier(cfg.Site.AdminToken, []byte(cfg.Site.NonceSecret), 0)

	// Handler and routes
	h := handler.New(settingsStore, cat, gateway, verifier, logger)
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)

	// Apply middleware chain: recovery → logging → handler
	// Recovery must be outermost to catch panics from logging middleware
	httpHandler := middleware.Chain(
		middleware.Recovery(logger),
		middleware.Logging(logger),
	)(mux)

	// Create HTTP server with timeouts
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      httpHandler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Channel for shutdown signals
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Channel for server errors
	serverErr := make(chan error, 1)

	// Start server in goroutine
	go func() {
		logger.Info("server starting",
			slog.String("port", cfg.Port),
			slog.String("addr", server.Addr),
		)
		serverErr <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-serverErr:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-shutdown:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		// Give outstanding requests time to complete
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			// Force close if graceful shutdown fails
			server.Close()
			return fmt.Errorf("shutdown error: %w", err)
		}
	}

	logger.Info("server stopped")
	return nil
}

// initLogger creates a structured logger configured for the environment.
// Production uses JSON format for GCP Cloud Logging compatibility.
// Development uses text format for readability.
func initLogger() *slog.Logger {
	level := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
		// Add source location in debug mode
		AddSource: level == slog.LevelDebug,
	}

	// JSON for production (Cloud Logging compatible), text for development
	if os.Getenv("ENVIRONMENT") == "production" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}
