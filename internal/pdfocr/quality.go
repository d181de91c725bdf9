package pdfocr

// quality.go — extraction quality scoring for PDF text layers.

import (
	"strings"
	"unicode"
)

// Quality captures metrics about a PDF's extracted text layer. They decide
// whether the document should fall back to per-page image OCR.
type Quality struct {
	PageCount      int
	CharsPerPage   float64
	PrintableRatio float64
	WordlikeRatio  float64
	HasImages      bool
}

// NeedsOCR reports whether the text layer is too thin or too garbled to be
// trusted. A low printable ratio indicates broken font encodings. For
// image-bearing documents, almost no text is the scanned-document case, and
// text that is mostly non-word tokens is extraction noise around the images.
func (q Quality) NeedsOCR() bool {
	if q.PrintableRatio < 0.85 {
		return true
	}
	if !q.HasImages {
		return false
	}
	return q.CharsPerPage < 50 || q.WordlikeRatio < 0.3
}

// printableRatio returns the fraction of characters that are printable text.
// Private Use Area runes, U+FFFD, and non-whitespace control characters count
// as garbage.
func printableRatio(text string) float64 {
	if text == "" {
		return 1.0
	}
	total, printable := 0, 0
	for _, r := range text {
		total++
		if garbageRune(r) {
			continue
		}
		if unicode.IsPrint(r) || r == '\n' || r == '\r' || r == '\t' {
			printable++
		}
	}
	return float64(printable) / float64(total)
}

func garbageRune(r rune) bool {
	if r >= 0xE000 && r <= 0xF8FF {
		return true
	}
	if r == 0xFFFD {
		return true
	}
	return r < 0x0020 && r != '\n' && r != '\r' && r != '\t'
}

// wordlikeRatio returns the fraction of whitespace-separated tokens whose
// length falls in the 2..15 range typical of real words.
func wordlikeRatio(text string) float64 {
	fields := strings.Fields(text)
	if len(fields) == 0 {
		return 0
	}
	wordlike := 0
	for _, f := range fields {
		if n := len([]rune(f)); n >= 2 && n <= 15 {
			wordlike++
		}
	}
	return float64(wordlike) / float64(len(fields))
}
