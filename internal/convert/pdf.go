package convert

// pdf.go — PDF text-layer extraction via ledongthuc/pdf.
//
// Returns the embedded text layer only. An empty result is not an error:
// scanned documents legitimately have none, and the caller decides whether
// to fall back to per-page image OCR.

import (
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pdfPageSeparator delimits pages in the joined output.
const pdfPageSeparator = "\n\n---\n\n"

func convertPDF(filePath string) (string, error) {
	f, r, err := pdf.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("open pdf %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	// Font map is shared across pages; GetPlainText needs it to decode
	// per-font character encodings.
	fonts := make(map[string]*pdf.Font)
	var pages []string

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		for _, name := range p.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := p.Font(name)
				fonts[name] = &font
			}
		}

		text, err := p.GetPlainText(fonts)
		if err != nil {
			return "", fmt.Errorf("read pdf page %d: %w", i, err)
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	return strings.Join(pages, pdfPageSeparator), nil
}
