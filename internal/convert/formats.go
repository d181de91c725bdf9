package convert

// formats.go — extension registry and per-format dispatch.

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
)

// formatExts lists every extension the converter accepts.
var formatExts = map[string]bool{
	".html": true,
	".htm":  true,
	".csv":  true,
	".json": true,
	".xml":  true,
	".txt":  true,
	".md":   true,
	".docx": true,
	".xlsx": true,
	".xls":  true,
	".pptx": true,
	".pdf":  true,
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".webp": true,
}

// imageMIMETypes maps image extensions to the media type sent to the vision
// backend.
var imageMIMETypes = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".webp": "image/webp",
}

func normalizeExt(filePath string) string {
	return strings.ToLower(filepath.Ext(filePath))
}

// convertByExt routes the file to its format handler. Callers have already
// checked CanConvert.
func (c *Converter) convertByExt(ctx context.Context, filePath string) (string, error) {
	ext := normalizeExt(filePath)

	switch ext {
	case ".docx":
		return convertDOCX(filePath)
	case ".xlsx", ".xls":
		return convertXLSX(filePath)
	case ".pptx":
		return c.convertPPTX(ctx, filePath)
	case ".pdf":
		return convertPDF(filePath)
	case ".png", ".jpg", ".jpeg", ".webp":
		return c.convertImage(ctx, filePath)
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		return "", fmt.Errorf("read file: %w", err)
	}

	switch ext {
	case ".html", ".htm":
		return c.convertHTML(string(data))
	case ".csv":
		return convertCSV(data)
	case ".json":
		return convertJSON(data)
	case ".xml":
		return convertXML(string(data))
	case ".txt", ".md":
		return string(data), nil
	default:
		return "", fmt.Errorf("unhandled extension: %s", ext)
	}
}

// convertURL fetches an HTTP/HTTPS URL and converts the response body.
func (c *Converter) convertURL(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("build request for %s: %w", url, err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return "", fmt.Errorf("HTTP %d fetching %s", resp.StatusCode, url)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}

	ct := resp.Header.Get("Content-Type")
	if strings.Contains(ct, "text/html") || ct == "" {
		return c.convertHTML(string(body))
	}
	// Plain text / markdown served over HTTP.
	return string(body), nil
}

// --- trivial text formats ----------------------------------------------------

func convertCSV(data []byte) (string, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.FieldsPerRecord = -1
	records, err := r.ReadAll()
	if err != nil {
		return fmt.Sprintf("```csv\n%s\n```", string(data)), nil
	}
	if len(records) == 0 {
		return "", nil
	}
	return renderMarkdownTable(records), nil
}

func convertJSON(data []byte) (string, error) {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Sprintf("```json\n%s\n```", string(data)), nil
	}
	pretty, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("```json\n%s\n```", string(data)), nil
	}
	return fmt.Sprintf("```json\n%s\n```", string(pretty)), nil
}

func convertXML(xml string) (string, error) {
	return fmt.Sprintf("```xml\n%s\n```", xml), nil
}
