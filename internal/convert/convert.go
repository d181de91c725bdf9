// Package convert turns documents and images into Markdown.
//
// Office formats (.docx, .pptx) are parsed with streaming OOXML state
// machines, spreadsheets via excelize, PDF text layers via ledongthuc/pdf,
// and HTML through html-to-markdown with a goquery cleanup pre-pass.
// Image text extraction is delegated to an optional Describer (a remote
// vision model) with a local Tesseract fallback.
package convert

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"
)

// Describer extracts text from a single image. Implementations are expected
// to be safe for concurrent use.
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}

// Converter converts local files and URLs to Markdown.
type Converter struct {
	htmlConverter *md.Converter
	describer     Describer // nil when no vision backend is configured
	maxFileBytes  int64     // 0 disables the size check
}

// Option configures a Converter.
type Option func(*Converter)

// WithDescriber wires a vision backend for image text extraction.
func WithDescriber(d Describer) Option {
	return func(c *Converter) { c.describer = d }
}

// WithMaxFileBytes caps the size of files accepted by ConvertFile.
func WithMaxFileBytes(n int64) Option {
	return func(c *Converter) { c.maxFileBytes = n }
}

// New creates a Converter.
func New(opts ...Option) *Converter {
	c := &Converter{
		htmlConverter: md.NewConverter("", true, nil),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CanConvert returns true when the file extension is supported.
func (c *Converter) CanConvert(filePath string) bool {
	return formatExts[normalizeExt(filePath)]
}

// SupportedFormats returns supported extensions without the leading dot,
// sorted alphabetically.
func (c *Converter) SupportedFormats() []string {
	out := make([]string, 0, len(formatExts))
	for ext := range formatExts {
		out = append(out, strings.TrimPrefix(ext, "."))
	}
	sort.Strings(out)
	return out
}

// ConvertFile converts a local file path to Markdown.
func (c *Converter) ConvertFile(ctx context.Context, filePath string) (string, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return "", fmt.Errorf("file not found: %s", filePath)
	}
	if c.maxFileBytes > 0 && info.Size() > c.maxFileBytes {
		return "", fmt.Errorf("file too large: %d bytes (max %d)", info.Size(), c.maxFileBytes)
	}
	if !c.CanConvert(filePath) {
		return "", fmt.Errorf("unsupported format: %s", filePath)
	}
	return c.convertByExt(ctx, filePath)
}

// ConvertURI converts a URI to Markdown.
// Supported schemes: file://, http://, https://
func (c *Converter) ConvertURI(ctx context.Context, uri string) (string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return "", fmt.Errorf("invalid URI: %s", uri)
	}

	switch u.Scheme {
	case "file":
		return c.ConvertFile(ctx, u.Path)
	case "http", "https":
		return c.convertURL(ctx, uri)
	default:
		return "", fmt.Errorf("unsupported URI scheme: %q (expected file, http, or https)", u.Scheme)
	}
}

// Info returns a Markdown summary of supported formats and configuration.
func (c *Converter) Info() string {
	ocr := "tesseract (if installed)"
	if c.describer != nil {
		ocr = "remote vision model, tesseract fallback"
	}
	return fmt.Sprintf(`# Conversion Info

## Supported Formats
%s

## Configuration
- Max file size: %d MB
- Image text extraction: %s`,
		"- "+strings.Join(c.SupportedFormats(), "\n- "),
		c.maxFileBytes>>20,
		ocr,
	)
}
