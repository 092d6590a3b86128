package questions

import (
	"strconv"
	"strings"
	"time"
	"unicode"

	"answerpath-backend/internal/shared/util"
)

// Question is one extracted question or requirement, bound to its source document.
type Question struct {
	ID              string
	DocumentID      string
	Text            string
	Context         string
	PageNumber      *int
	ConfidenceScore float64
	ChunkIndex      int
	DedupKey        string
	CreatedAt       time.Time
}

// StatusUpdate is the terminal status write performed when a processing run finalizes.
type StatusUpdate struct {
	DocumentID  string
	Status      string
	Detail      string
	Metadata    map[string]any
	ProcessedAt time.Time
}

// DedupKey derives the idempotency key for a question: identical text at the
// same position of the same document always maps to the same key.
func DedupKey(documentID string, position *int, text string) string {
	pos := "none"
	if position != nil {
		pos = strconv.Itoa(*position)
	}
	return util.HashParts(documentID, pos, NormalizeText(text))
}

// NormalizeText lower-cases text and collapses runs of whitespace.
func NormalizeText(text string) string {
	fields := strings.FieldsFunc(strings.ToLower(text), unicode.IsSpace)
	return strings.Join(fields, " ")
}
