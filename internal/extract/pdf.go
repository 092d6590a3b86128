package extract

import (
	"bytes"
	"strings"

	"github.com/ledongthuc/pdf"

	"answerpath-backend/internal/documents"
)

// extractPDF emits one segment per non-blank page, positioned by page number.
func extractPDF(data []byte) (segments []Segment, err error) {
	// The PDF reader panics on some malformed cross-reference tables.
	defer func() {
		if rec := recover(); rec != nil {
			segments = nil
			err = corrupt(documents.FileTypePDF, "parser panic: %v", rec)
		}
	}()

	if len(data) == 0 {
		return nil, corrupt(documents.FileTypePDF, "empty file")
	}
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, corrupt(documents.FileTypePDF, "%v", err)
	}

	out := []Segment{}
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			return nil, corrupt(documents.FileTypePDF, "page %d: %v", i, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		out = append(out, Segment{Text: text, Position: position(i), Kind: KindPage})
	}
	return out, nil
}
