package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"answerpath-backend/internal/documents"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// extractText returns the whole file as one unpositioned segment. Form feeds
// are treated as page breaks; when present every page becomes its own segment.
func extractText(data []byte) ([]Segment, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if !utf8.Valid(data) {
		return nil, corrupt(documents.FileTypeTXT, "invalid utf-8")
	}
	text := strings.ReplaceAll(string(data), "\r\n", "\n")

	if !strings.Contains(text, "\f") {
		if strings.TrimSpace(text) == "" {
			return []Segment{}, nil
		}
		return []Segment{{Text: text, Kind: KindNone}}, nil
	}

	out := []Segment{}
	for i, page := range strings.Split(text, "\f") {
		if strings.TrimSpace(page) == "" {
			continue
		}
		out = append(out, Segment{Text: page, Position: position(i + 1), Kind: KindPage})
	}
	return out, nil
}
