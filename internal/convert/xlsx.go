package convert

// xlsx.go — spreadsheets → Markdown via excelize.
// One level-2 heading per sheet, each followed by a Markdown table.

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

func convertXLSX(filePath string) (string, error) {
	f, err := excelize.OpenFile(filePath)
	if err != nil {
		return "", fmt.Errorf("open spreadsheet %s: %w", filePath, err)
	}
	defer func() { _ = f.Close() }()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return sb.String(), fmt.Errorf("read sheet %q in %s: %w", sheet, filePath, err)
		}
		if len(rows) == 0 {
			continue
		}
		sb.WriteString("## " + sheet + "\n\n")
		sb.WriteString(renderMarkdownTable(rows))
		sb.WriteByte('\n')
	}
	return sb.String(), nil
}
