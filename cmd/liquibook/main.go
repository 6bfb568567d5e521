package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"

	"github.com/Ahrvo-Trading-Systems/liquibook/internal/config"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/exchange"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/feed"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/handler"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/metrics"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/service"
	"github.com/Ahrvo-Trading-Systems/liquibook/internal/store"
)

func main() {
	healthcheck := flag.Bool("healthcheck", false, "Run health check against running server")
	flag.Parse()

	// Handle -healthcheck flag: HTTP GET to localhost:PORT/healthz, exit 0/1.
	if *healthcheck {
		port := os.Getenv("PORT")
		if port == "" {
			port = "8080"
		}
		resp, err := http.Get(fmt.Sprintf("http://localhost:%s/healthz", port))
		if err != nil || resp.StatusCode != http.StatusOK {
			os.Exit(1)
		}
		os.Exit(0)
	}

	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Set up slog logger with configured level.
	var logLevel slog.Level
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	reg := metrics.Init()

	// Core wiring: fill log, registry, feed hub.
	fills := store.NewFillStore()
	registry := exchange.NewRegistry(fills)
	hub := feed.NewHub(logger, cfg.FeedSendBuffer)

	orderSvc := service.NewOrderService(registry)
	marketSvc := service.NewMarketService(registry, fills, logger, hub)

	// Symbols known at boot; more can be registered over the API.
	for _, symbol := range cfg.Symbols {
		if err := marketSvc.RegisterSymbol(symbol); err != nil {
			logger.Error("failed to register symbol",
				slog.String("symbol", symbol), slog.String("error", err.Error()))
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)
	go marketSvc.StartSnapshots(ctx, cfg.SnapshotInterval)

	wsHandler := func(w http.ResponseWriter, r *http.Request) {
		symbol := chi.URLParam(r, "symbol")
		feed.ServeWS(hub, marketSvc.Depth, symbol, w, r)
	}

	router := handler.NewRouter(orderSvc, marketSvc, wsHandler, metrics.Handler(reg), logger)

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	go func() {
		logger.Info("server starting", slog.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", slog.String("error", err.Error()))
			os.Exit(1)
		}
	}()

	// Wait for SIGINT/SIGTERM.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	logger.Info("shutdown signal received", slog.String("signal", sig.String()))

	// Graceful shutdown: stop HTTP server, cancel context (stops the hub
	// and the snapshot job).
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", slog.String("error", err.Error()))
	}
	cancel()

	logger.Info("server stopped")
}
