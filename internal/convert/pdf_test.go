package convert

import (
	"testing"
)

func TestConvertPDF_BasicText(t *testing.T) {
	path := makePDF(t, "Hello PDF")
	out, err := convertPDF(path)
	assertNoErr(t, err)
	assertContains(t, out, "Hello PDF")
}

func TestConvertPDF_FileNotFound(t *testing.T) {
	_, err := convertPDF("/no/such/file.pdf")
	assertErr(t, err)
}

func TestConvertPDF_NotAPDF(t *testing.T) {
	path := writeTempFile(t, "fake.pdf", "this is not a PDF")
	_, err := convertPDF(path)
	assertErr(t, err)
}
