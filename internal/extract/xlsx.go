package extract

import (
	"bytes"
	"strings"

	"github.com/xuri/excelize/v2"

	"answerpath-backend/internal/documents"
)

// extractXLSX emits the rows of every sheet as tab-separated lines. Position
// is the 1-based sheet index; large sheets are split into row groups that all
// share the sheet position.
func extractXLSX(data []byte, rowGroupSize int) ([]Segment, error) {
	if len(data) == 0 {
		return nil, corrupt(documents.FileTypeXLSX, "empty file")
	}
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, corrupt(documents.FileTypeXLSX, "%v", err)
	}
	defer f.Close()

	out := []Segment{}
	for i, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, corrupt(documents.FileTypeXLSX, "sheet %q: %v", sheet, err)
		}

		lines := make([]string, 0, len(rows))
		for _, row := range rows {
			if line := renderRow(row); line != "" {
				lines = append(lines, line)
			}
		}

		for start := 0; start < len(lines); start += rowGroupSize {
			end := start + rowGroupSize
			if end > len(lines) {
				end = len(lines)
			}
			out = append(out, Segment{
				Text:     strings.Join(lines[start:end], "\n"),
				Position: position(i + 1),
				Kind:     KindSheet,
			})
		}
	}
	return out, nil
}

func renderRow(row []string) string {
	cells := make([]string, len(row))
	last := -1
	for i, cell := range row {
		cells[i] = strings.TrimSpace(strings.ReplaceAll(cell, "\n", " "))
		if cells[i] != "" {
			last = i
		}
	}
	if last < 0 {
		return ""
	}
	return strings.Join(cells[:last+1], "\t")
}
