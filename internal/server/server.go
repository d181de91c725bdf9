// Package server assembles the HTTP service: storage, converter, vision
// backend, handlers and router.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/extractd/extractd/internal/config"
	"github.com/extractd/extractd/internal/convert"
	"github.com/extractd/extractd/internal/pdfocr"
	"github.com/extractd/extractd/internal/server/handler"
	"github.com/extractd/extractd/internal/server/router"
	"github.com/extractd/extractd/internal/server/service"
	"github.com/extractd/extractd/internal/storage"
	"github.com/extractd/extractd/internal/vision"
)

const (
	sweepInterval   = time.Minute
	shutdownTimeout = 10 * time.Second
)

// Run starts the HTTP server and blocks until the context is cancelled or
// the listener fails.
func Run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if cfg.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	store, err := storage.Open(cfg.StateDB, cfg.UploadDir, cfg.DeleteDelay, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	go store.RunSweeper(ctx, sweepInterval)

	convOpts := []convert.Option{convert.WithMaxFileBytes(cfg.MaxFileSizeBytes)}
	pdfOpts := []pdfocr.Option{
		pdfocr.WithConcurrency(cfg.PDF.ConcurrentLimit),
		pdfocr.WithBatchSize(cfg.PDF.BatchSize),
		pdfocr.WithLogger(logger),
	}

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
		convOpts = append(convOpts, convert.WithDescriber(client))
		pdfOpts = append(pdfOpts, pdfocr.WithDescriber(client))
		logger.Info("vision backend configured",
			"provider", cfg.Vision.Provider, "model", cfg.Vision.Model)
	} else {
		logger.Info("no vision backend configured, image text extraction uses tesseract when available")
	}

	// Build dependency chain
	converter := convert.New(convOpts...)
	svc := service.NewConvertService(converter, pdfocr.New(pdfOpts...), store, logger)
	h := handler.NewConvertHandler(svc, cfg.MaxFileSizeBytes, logger)
	r := router.New(cfg.APIKey, h)

	srv := &http.Server{Addr: ":" + cfg.Port, Handler: r}
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()
	logger.Info("listening", "addr", srv.Addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down")
		shutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutCtx)
	}
}
