package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/extractd/extractd/internal/config"
	"github.com/extractd/extractd/internal/convert"
	"github.com/extractd/extractd/internal/mcptool"
	"github.com/extractd/extractd/internal/server"
	"github.com/extractd/extractd/internal/vision"
)

func main() {
	// Optional .env file; real environment variables win.
	_ = godotenv.Load()

	cfg := config.Load()
	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	if cfg.Mode == "mcp" {
		if err := runMCP(cfg, logger); err != nil {
			logger.Error("mcp server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := server.Run(ctx, cfg, logger); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// runMCP serves the converter over stdio. Logging goes to stderr so it never
// corrupts the protocol stream.
func runMCP(cfg *config.Config, logger *slog.Logger) error {
	opts := []convert.Option{convert.WithMaxFileBytes(cfg.MaxFileSizeBytes)}
	if cfg.Vision.Enabled() {
		client, err := vision.New(vision.Config{
			Provider: vision.Provider(cfg.Vision.Provider),
			BaseURL:  cfg.Vision.BaseURL,
			APIKey:   cfg.Vision.APIKey,
			Model:    cfg.Vision.Model,
			Prompt:   cfg.Vision.Prompt,
			Timeout:  cfg.Vision.Timeout,
			Logger:   logger,
		})
		if err != nil {
			return err
		}
		opts = append(opts, convert.WithDescriber(client))
	}
	return mcptool.Serve(convert.New(opts...))
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	switch strings.ToLower(level) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
