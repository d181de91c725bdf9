// Package pdfocr recovers text from PDFs whose text layer is missing or
// unusable. It scores the extractable text layer first and only falls back
// to per-page image OCR through a vision backend when the score says the
// document is effectively scanned.
package pdfocr

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Describer extracts text from a single image. Implementations must be safe
// for concurrent use; pages are described in parallel.
type Describer interface {
	Describe(ctx context.Context, image []byte, mimeType string) (string, error)
}

const (
	defaultConcurrency = 5
	defaultBatchSize   = 10
)

// Processor runs the text-layer-or-OCR pipeline over a PDF document.
type Processor struct {
	describer   Describer
	concurrency int
	batchSize   int
	logger      *slog.Logger
}

// Option configures a Processor.
type Option func(*Processor)

// WithDescriber wires the vision backend used for page image OCR. Without
// one the processor still extracts the text layer but never OCRs.
func WithDescriber(d Describer) Option {
	return func(p *Processor) { p.describer = d }
}

// WithConcurrency bounds the number of pages described in parallel.
func WithConcurrency(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.concurrency = n
		}
	}
}

// WithBatchSize sets how many completed pages elapse between progress logs.
func WithBatchSize(n int) Option {
	return func(p *Processor) {
		if n > 0 {
			p.batchSize = n
		}
	}
}

// WithLogger sets the structured logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(p *Processor) {
		if l != nil {
			p.logger = l
		}
	}
}

// New creates a Processor.
func New(opts ...Option) *Processor {
	p := &Processor{
		concurrency: defaultConcurrency,
		batchSize:   defaultBatchSize,
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Result is the outcome of processing one document.
type Result struct {
	Text     string
	Quality  Quality
	OCRPages int // pages whose text came from the vision backend
}

// page holds the per-page state gathered during the serial read pass.
type page struct {
	nr        int
	text      string
	hasImages bool
	images    []pageImage // populated only for pages queued for OCR
}

type pageImage struct {
	data     []byte
	mimeType string
}

// Process extracts text from the PDF at path. Pages keep their text-layer
// content when it is usable; otherwise their embedded images are sent to the
// describer. Page order is preserved in the output regardless of worker
// completion order. Individual page failures are logged and skipped.
func (p *Processor) Process(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	pdfCtx, err := api.ReadValidateAndOptimize(f, model.NewDefaultConfiguration())
	if err != nil {
		return nil, fmt.Errorf("read pdf: %w", err)
	}

	pages, quality := p.readPages(pdfCtx)

	res := &Result{Quality: quality}
	if !quality.NeedsOCR() {
		res.Text = joinPages(pages)
		return res, nil
	}

	if p.describer == nil {
		p.logger.Warn("pdf needs ocr but no vision backend is configured",
			"path", path,
			"chars_per_page", quality.CharsPerPage,
			"pages", quality.PageCount)
		res.Text = joinPages(pages)
		return res, nil
	}

	// Image extraction walks shared pdfcpu state, so it stays on this
	// goroutine; only the describer calls fan out.
	var todo []*page
	for i := range pages {
		pg := &pages[i]
		if !pg.needsOCR() {
			continue
		}
		pg.images = extractPageImages(pdfCtx, pg.nr)
		if len(pg.images) > 0 {
			todo = append(todo, pg)
		}
	}
	if len(todo) == 0 {
		res.Text = joinPages(pages)
		return res, nil
	}

	res.OCRPages = p.describePages(ctx, todo)
	res.Text = joinPages(pages)
	return res, nil
}

// readPages extracts the text layer of every page and aggregates quality
// metrics over the whole document.
func (p *Processor) readPages(pdfCtx *model.Context) ([]page, Quality) {
	pages := make([]page, 0, pdfCtx.PageCount)
	var all strings.Builder
	totalChars := 0

	for nr := 1; nr <= pdfCtx.PageCount; nr++ {
		pg := page{nr: nr, hasImages: len(pdfcpu.ImageObjNrs(pdfCtx, nr)) > 0}
		if r, err := pdfcpu.ExtractPageContent(pdfCtx, nr); err == nil {
			if data, err := io.ReadAll(r); err == nil && len(data) > 0 {
				pg.text = textFromContentStream(data)
			}
		}
		totalChars += len([]rune(pg.text))
		if pg.text != "" {
			all.WriteString(pg.text)
			all.WriteByte('\n')
		}
		pages = append(pages, pg)
	}

	q := Quality{PageCount: pdfCtx.PageCount}
	if q.PageCount > 0 {
		q.CharsPerPage = float64(totalChars) / float64(q.PageCount)
	}
	q.PrintableRatio = printableRatio(all.String())
	q.WordlikeRatio = wordlikeRatio(all.String())
	for _, pg := range pages {
		if pg.hasImages {
			q.HasImages = true
			break
		}
	}
	return pages, q
}

func (pg *page) needsOCR() bool {
	if !pg.hasImages {
		return false
	}
	return len([]rune(pg.text)) < 50 ||
		printableRatio(pg.text) < 0.85 ||
		wordlikeRatio(pg.text) < 0.3
}

// describePages fans page OCR jobs out over a bounded worker pool and writes
// results back into the page slice. Returns the number of pages whose text
// was replaced by OCR output.
func (p *Processor) describePages(ctx context.Context, todo []*page) int {
	jobs := make(chan *page)
	var done atomic.Int64
	var replaced atomic.Int64
	total := len(todo)

	var wg sync.WaitGroup
	for w := 0; w < p.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for pg := range jobs {
				if text := p.describePage(ctx, pg); text != "" {
					pg.text = text
					replaced.Add(1)
				}
				n := int(done.Add(1))
				if n%p.batchSize == 0 || n == total {
					p.logger.Info("pdf ocr progress", "pages_done", n, "pages_total", total)
				}
			}
		}()
	}

	for _, pg := range todo {
		jobs <- pg
	}
	close(jobs)
	wg.Wait()

	return int(replaced.Load())
}

// describePage sends every image on the page to the describer and joins the
// non-empty answers. Failures are logged and the page is left unchanged.
func (p *Processor) describePage(ctx context.Context, pg *page) string {
	var parts []string
	for _, img := range pg.images {
		if ctx.Err() != nil {
			return ""
		}
		text, err := p.describer.Describe(ctx, img.data, img.mimeType)
		if err != nil {
			p.logger.Warn("page ocr failed", "page", pg.nr, "error", err)
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// extractPageImages pulls the image XObjects referenced by one page.
func extractPageImages(pdfCtx *model.Context, pageNr int) []pageImage {
	imgs, err := pdfcpu.ExtractPageImages(pdfCtx, pageNr, false)
	if err != nil {
		return nil
	}

	// Stable order: the map is keyed by object number.
	objNrs := make([]int, 0, len(imgs))
	for nr := range imgs {
		objNrs = append(objNrs, nr)
	}
	sort.Ints(objNrs)

	var out []pageImage
	for _, nr := range objNrs {
		img := imgs[nr]
		data, err := io.ReadAll(img)
		if err != nil || len(data) == 0 {
			continue
		}
		out = append(out, pageImage{data: data, mimeType: mimeForFileType(img.FileType)})
	}
	return out
}

func mimeForFileType(fileType string) string {
	switch strings.ToLower(fileType) {
	case "jpg", "jpeg":
		return "image/jpeg"
	case "tif", "tiff":
		return "image/tiff"
	case "webp":
		return "image/webp"
	default:
		return "image/png"
	}
}

func joinPages(pages []page) string {
	var parts []string
	for _, pg := range pages {
		if t := strings.TrimSpace(pg.text); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, "\n\n")
}
