package convert

// Shared test helpers for the convert package.

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"
)

// ---- assertion helpers -----------------------------------------------------

func assertNoErr(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func assertErr(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error, got nil")
	}
}

func assertContains(t *testing.T, got, want string) {
	t.Helper()
	if !strings.Contains(got, want) {
		t.Errorf("expected output to contain %q\ngot: %s", want, got)
	}
}

func assertNotEmpty(t *testing.T, got string) {
	t.Helper()
	if strings.TrimSpace(got) == "" {
		t.Error("expected non-empty output, got empty string")
	}
}

// ---- file factories --------------------------------------------------------

// writeTempFile writes content to a temp file with the given name and returns
// its path. The file is cleaned up automatically when the test ends.
func writeTempFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("writeTempFile: %v", err)
	}
	return path
}

// makeDocx builds a minimal .docx file containing the given OOXML body
// fragment and returns its path.
func makeDocx(t *testing.T, bodyXML string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.docx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("makeDocx create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	w, err := zw.Create("word/document.xml")
	if err != nil {
		t.Fatalf("makeDocx zip entry: %v", err)
	}

	const ns = `xmlns:w="http://schemas.openxmlformats.org/wordprocessingml/2006/main"`
	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<w:document ` + ns + `><w:body>` + bodyXML + `</w:body></w:document>`

	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("makeDocx write: %v", err)
	}
	return path
}

// pptxTestSlide describes one slide for makePPTX: raw OOXML fragments for the
// title paragraph and body paragraph.
type pptxTestSlide struct {
	titleXML string
	bodyXML  string
}

const pptxSlideNS = `xmlns:p="http://schemas.openxmlformats.org/presentationml/2006/main" ` +
	`xmlns:a="http://schemas.openxmlformats.org/drawingml/2006/main"`

// makePPTX builds a minimal .pptx file with the given slides and returns its
// path.
func makePPTX(t *testing.T, slides []pptxTestSlide) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("makePPTX create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	for i, s := range slides {
		var sb strings.Builder
		sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>`)
		sb.WriteString(`<p:sld ` + pptxSlideNS + `><p:cSld><p:spTree>`)
		if s.titleXML != "" {
			sb.WriteString(`<p:sp><p:nvSpPr><p:nvPr><p:ph type="title"/></p:nvPr></p:nvSpPr>`)
			sb.WriteString(`<p:txBody><a:p>` + s.titleXML + `</a:p></p:txBody></p:sp>`)
		}
		if s.bodyXML != "" {
			sb.WriteString(`<p:sp><p:nvSpPr><p:nvPr><p:ph type="body"/></p:nvPr></p:nvSpPr>`)
			sb.WriteString(`<p:txBody><a:p>` + s.bodyXML + `</a:p></p:txBody></p:sp>`)
		}
		sb.WriteString(`</p:spTree></p:cSld></p:sld>`)

		w, err := zw.Create(fmt.Sprintf("ppt/slides/slide%d.xml", i+1))
		if err != nil {
			t.Fatalf("makePPTX zip entry: %v", err)
		}
		if _, err := w.Write([]byte(sb.String())); err != nil {
			t.Fatalf("makePPTX write: %v", err)
		}
	}
	return path
}

// makePPTXRaw builds a .pptx whose slide1.xml spTree contains the given raw
// XML. An empty string produces a valid ZIP with no slide entries at all.
func makePPTXRaw(t *testing.T, rawXML string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("makePPTXRaw create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	if rawXML == "" {
		// Keep the archive non-empty without any slides.
		w, err := zw.Create("ppt/presentation.xml")
		if err != nil {
			t.Fatalf("makePPTXRaw zip entry: %v", err)
		}
		_, _ = w.Write([]byte(`<p:presentation ` + pptxSlideNS + `/>`))
		return path
	}

	doc := `<?xml version="1.0" encoding="UTF-8"?>` +
		`<p:sld ` + pptxSlideNS + `><p:cSld><p:spTree>` + rawXML + `</p:spTree></p:cSld></p:sld>`
	w, err := zw.Create("ppt/slides/slide1.xml")
	if err != nil {
		t.Fatalf("makePPTXRaw zip entry: %v", err)
	}
	if _, err := w.Write([]byte(doc)); err != nil {
		t.Fatalf("makePPTXRaw write: %v", err)
	}
	return path
}

// makePPTXWithImage builds a .pptx whose only slide references a single
// embedded image with the given bytes.
func makePPTXWithImage(t *testing.T, imageData []byte) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "test.pptx")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("makePPTXWithImage create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	entries := map[string]string{
		"ppt/slides/slide1.xml": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<p:sld ` + pptxSlideNS + ` xmlns:r="http://schemas.openxmlformats.org/officeDocument/2006/relationships">` +
			`<p:cSld><p:spTree>` +
			`<p:pic><p:blipFill><a:blip r:embed="rId2"/></p:blipFill></p:pic>` +
			`</p:spTree></p:cSld></p:sld>`,
		"ppt/slides/_rels/slide1.xml.rels": `<?xml version="1.0" encoding="UTF-8"?>` +
			`<Relationships xmlns="http://schemas.openxmlformats.org/package/2006/relationships">` +
			`<Relationship Id="rId2" Type="image" Target="../media/image1.png"/>` +
			`</Relationships>`,
		"ppt/media/image1.png": string(imageData),
	}
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("makePPTXWithImage zip entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("makePPTXWithImage write %s: %v", name, err)
		}
	}
	return path
}

// openZip opens a ZIP archive, failing the test on error.
func openZip(t *testing.T, path string) *zip.ReadCloser {
	t.Helper()
	zr, err := zip.OpenReader(path)
	if err != nil {
		t.Fatalf("openZip %s: %v", path, err)
	}
	return zr
}

// makePDF builds a single-page PDF showing the given text and returns its
// path. Object offsets for the xref table are computed while writing so the
// file is valid for strict parsers.
func makePDF(t *testing.T, text string) string {
	t.Helper()

	content := "BT /F1 12 Tf 72 720 Td (" + text + ") Tj ET"
	objects := []string{
		"<< /Type /Catalog /Pages 2 0 R >>",
		"<< /Type /Pages /Kids [3 0 R] /Count 1 >>",
		"<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] " +
			"/Resources << /Font << /F1 5 0 R >> >> /Contents 4 0 R >>",
		fmt.Sprintf("<< /Length %d >>\nstream\n%s\nendstream", len(content), content),
		"<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica >>",
	}

	var sb strings.Builder
	sb.WriteString("%PDF-1.4\n")
	offsets := make([]int, len(objects))
	for i, obj := range objects {
		offsets[i] = sb.Len()
		fmt.Fprintf(&sb, "%d 0 obj\n%s\nendobj\n", i+1, obj)
	}

	xrefPos := sb.Len()
	fmt.Fprintf(&sb, "xref\n0 %d\n", len(objects)+1)
	sb.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&sb, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&sb, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n",
		len(objects)+1, xrefPos)

	return writeTempFile(t, "test.pdf", sb.String())
}

// makeXLSX builds a minimal .xlsx file with one sheet and returns its path.
func makeXLSX(t *testing.T, sheet string, rows [][]string) string {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	// Rename the default sheet first so SetCellValue writes to the right name.
	if sheet != "Sheet1" {
		f.SetSheetName("Sheet1", sheet)
	}

	for r, row := range rows {
		for c, val := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			f.SetCellValue(sheet, cell, val)
		}
	}

	path := filepath.Join(t.TempDir(), "test.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("makeXLSX SaveAs: %v", err)
	}
	return path
}
