package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/extractd/extractd/internal/pdfocr"
	"github.com/extractd/extractd/internal/storage"
)

// Converter defines the document conversion dependency.
type Converter interface {
	ConvertFile(ctx context.Context, path string) (string, error)
	CanConvert(path string) bool
	SupportedFormats() []string
}

// PDFProcessor defines the per-page OCR fallback dependency.
type PDFProcessor interface {
	Process(ctx context.Context, path string) (*pdfocr.Result, error)
}

// Store defines the upload persistence dependency.
type Store interface {
	Save(filename string, r io.Reader) (string, error)
	ScheduleDelete(path string)
	RecordConversion(ev storage.ConversionEvent)
}

// ConvertService orchestrates upload persistence, conversion and cleanup.
type ConvertService struct {
	converter Converter
	pdf       PDFProcessor
	store     Store
	logger    *slog.Logger
}

// NewConvertService creates ConvertService.
func NewConvertService(conv Converter, pdf PDFProcessor, store Store, logger *slog.Logger) *ConvertService {
	if logger == nil {
		logger = slog.Default()
	}
	return &ConvertService{converter: conv, pdf: pdf, store: store, logger: logger}
}

// CanConvert reports whether the filename's extension is supported.
func (s *ConvertService) CanConvert(filename string) bool {
	return s.converter.CanConvert(filename)
}

// SupportedFormats lists supported extensions.
func (s *ConvertService) SupportedFormats() []string {
	return s.converter.SupportedFormats()
}

// Process persists the upload under a generated name, converts it to
// Markdown, and schedules the stored file for delayed deletion. PDFs whose
// text layer yields nothing fall back to per-page OCR.
func (s *ConvertService) Process(ctx context.Context, file multipart.File, header *multipart.FileHeader) (string, error) {
	start := time.Now()

	path, err := s.store.Save(header.Filename, file)
	if err != nil {
		return "", fmt.Errorf("persist upload (%s): %w", header.Filename, err)
	}
	// Deletion is scheduled only once conversion is done; a zero delay is
	// valid configuration and must not destroy the file mid-conversion.
	// The deferred call covers the error path so failed conversions don't
	// leak files either.
	defer s.store.ScheduleDelete(path)

	ext := strings.ToLower(filepath.Ext(header.Filename))
	ocrUsed := false

	text, convErr := s.converter.ConvertFile(ctx, path)
	if ext == ".pdf" && s.pdf != nil && (convErr != nil || strings.TrimSpace(text) == "") {
		res, perr := s.pdf.Process(ctx, path)
		if perr != nil {
			s.logger.Warn("pdf ocr fallback failed", "filename", header.Filename, "error", perr)
		} else {
			text, convErr = res.Text, nil
			ocrUsed = res.OCRPages > 0
		}
	}

	msg := "ok"
	if convErr != nil {
		msg = convErr.Error()
	}
	s.store.RecordConversion(storage.ConversionEvent{
		Filename:  header.Filename,
		Format:    ext,
		SizeBytes: header.Size,
		Duration:  time.Since(start),
		OCRUsed:   ocrUsed,
		Success:   convErr == nil,
		Message:   msg,
	})

	if convErr != nil {
		return "", convErr
	}
	s.logger.Info("conversion done",
		"filename", header.Filename,
		"format", ext,
		"bytes", header.Size,
		"ocr", ocrUsed,
		"duration", time.Since(start))
	return text, nil
}
