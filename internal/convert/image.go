package convert

// image.go — image → text.
//
// Preference order: remote vision model when configured, then local
// Tesseract. A describer failure falls through to Tesseract so a flaky
// vision endpoint does not take image support down with it.

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// convertImage handles .png/.jpg/.jpeg/.webp files.
func (c *Converter) convertImage(ctx context.Context, filePath string) (string, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", filePath, err)
	}
	ext := normalizeExt(filePath)

	if c.describer != nil {
		text, derr := c.describer.Describe(ctx, data, imageMIMETypes[ext])
		if derr == nil && text != "" {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
	}

	if !ocrAvailable() {
		if c.describer != nil {
			// Vision failed and there is no local fallback: empty result,
			// matching the behavior for unreadable pages.
			return "", nil
		}
		return "", fmt.Errorf("no vision backend configured and tesseract is not on PATH; cannot extract text from %s", filepath.Base(filePath))
	}
	return ocrImageData(data, ext)
}

// describeImageData runs raw image bytes through the describer-or-tesseract
// path. Used by the PPTX embedded-image pass where images come from a ZIP
// rather than the filesystem.
func (c *Converter) describeImageData(ctx context.Context, data []byte, ext string) string {
	if len(data) == 0 {
		return ""
	}
	if c.describer != nil {
		if text, err := c.describer.Describe(ctx, data, imageMIMETypes[ext]); err == nil && text != "" {
			return text
		}
	}
	text, _ := ocrImageData(data, ext)
	return text
}
