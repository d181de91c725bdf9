package convert

// tesseract.go — local OCR via the Tesseract CLI.
//
// ocrAvailable() probes for the "tesseract" binary at call time using
// exec.LookPath, so the service degrades gracefully when Tesseract is absent.

import (
	"fmt"
	"os"
	"os/exec"
	"strings"
)

// lookPath is the exec.LookPath implementation used by ocrAvailable.
// Tests may replace it to simulate a missing Tesseract binary.
var lookPath = exec.LookPath

// ocrAvailable returns true when the "tesseract" binary is on PATH.
func ocrAvailable() bool {
	_, err := lookPath("tesseract")
	return err == nil
}

// ocrImageData runs Tesseract on raw image bytes.
// The suffix is the file extension (e.g. ".png") used when naming the temp
// file so Tesseract can detect the image format.
// If Tesseract is absent it returns ("", nil) — callers that want a hard
// error should call ocrAvailable() first.
func ocrImageData(data []byte, suffix string) (string, error) {
	if !ocrAvailable() {
		return "", nil
	}

	tmp, err := os.CreateTemp("", "extractd-ocr-*"+suffix)
	if err != nil {
		return "", fmt.Errorf("create temp file for OCR: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() { _ = os.Remove(tmpPath) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return "", fmt.Errorf("write temp file for OCR: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close temp file for OCR: %w", err)
	}

	out, err := exec.Command("tesseract", tmpPath, "stdout").Output()
	if err != nil {
		return "", fmt.Errorf("tesseract: %w", err)
	}
	return strings.TrimSpace(string(out)), nil
}
