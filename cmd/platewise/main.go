package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/platewise/platewise/mealstore"
	"github.com/platewise/platewise/tracker"
)

func main() {
	configPath := env("CONFIG", "platewise.yaml")
	logLevel := env("LOG_LEVEL", "info")
	mcpTransport := env("MCP_TRANSPORT", "")

	// Logging.
	var lvl slog.Level
	switch logLevel {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)

	// Signal context.
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cfg, err := tracker.LoadConfig(configPath)
	if err != nil {
		slog.Error("config", "error", err)
		os.Exit(1)
	}
	if addr := os.Getenv("LISTEN_ADDR"); addr != "" {
		cfg.ListenAddr = addr
	}
	if path := os.Getenv("DB_PATH"); path != "" {
		cfg.DBPath = path
	}

	// Meal store.
	store, err := mealstore.Open(cfg.DBPath, mealstore.WithMkdirAll(), mealstore.WithLogger(logger))
	if err != nil {
		slog.Error("meal store", "error", err)
		os.Exit(1)
	}
	defer store.Close()

	svc := tracker.New(cfg, store, tracker.WithLogger(logger))

	// Warm the caches: stored data within the startup window, reference
	// table in the background.
	meals, _ := svc.Startup(ctx)
	slog.Info("startup complete", "meals", len(meals))
	go func() {
		if _, err := svc.Reference(ctx); err != nil && ctx.Err() == nil {
			slog.Warn("reference preload", "error", err)
		}
	}()

	// Optional MCP over stdio. The transport owns stdout, so logs move to
	// stderr.
	if mcpTransport == "stdio" {
		logger = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
		slog.SetDefault(logger)
		mcpSrv := mcp.NewServer(&mcp.Implementation{
			Name:    "platewise",
			Version: "1.0.0",
		}, nil)
		svc.RegisterMCP(mcpSrv)
		slog.Info("MCP stdio starting")
		if err := mcpSrv.Run(ctx, &mcp.StdioTransport{}); err != nil && ctx.Err() == nil {
			slog.Error("MCP stdio", "error", err)
			os.Exit(1)
		}
		return
	}

	// HTTP server.
	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           svc.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		slog.Info("server starting", "addr", cfg.ListenAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("shutdown", "error", err)
	}
	slog.Info("server stopped")
}

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
