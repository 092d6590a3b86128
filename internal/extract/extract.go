package extract

import (
	"context"
	"errors"
	"fmt"

	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/shared/storage/object"
)

// PositionKind tells what a segment position counts.
type PositionKind string

const (
	KindNone  PositionKind = "none"
	KindPage  PositionKind = "page"
	KindSheet PositionKind = "sheet"
)

// Segment is a contiguous run of text with its position in the source.
// Position is 1-based and nil when the format has no meaningful position.
type Segment struct {
	Text     string
	Position *int
	Kind     PositionKind
}

const (
	defaultMaxBytes     = 32 << 20
	defaultRowGroupSize = 200
)

// Option configures an Extractor.
type Option func(*Extractor)

// WithMaxBytes caps how much of a stored file is read.
func WithMaxBytes(n int64) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.maxBytes = n
		}
	}
}

// WithRowGroupSize sets how many spreadsheet rows go into one segment.
func WithRowGroupSize(n int) Option {
	return func(e *Extractor) {
		if n > 0 {
			e.rowGroupSize = n
		}
	}
}

// Extractor turns stored documents into ordered text segments.
type Extractor struct {
	store        object.Store
	maxBytes     int64
	rowGroupSize int
}

// New constructs an Extractor reading files from store.
func New(store object.Store, opts ...Option) *Extractor {
	e := &Extractor{
		store:        store,
		maxBytes:     defaultMaxBytes,
		rowGroupSize: defaultRowGroupSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract reads the file at path and returns its segments in source order.
// Zero segments is a valid result for an empty document.
func (e *Extractor) Extract(ctx context.Context, path string, fileType documents.FileType) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if !supported(fileType) {
		return nil, fmt.Errorf("%w: %q path=%s", ErrUnsupportedType, fileType, path)
	}

	data, err := object.ReadAll(ctx, e.store, path, e.maxBytes)
	if err != nil {
		switch {
		case errors.Is(err, object.ErrNotFound):
			return nil, fmt.Errorf("%w: path=%s", ErrFileNotFound, path)
		case errors.Is(err, object.ErrTooLarge):
			return nil, fmt.Errorf("%w: path=%s exceeds %d bytes", ErrCorruptDocument, path, e.maxBytes)
		default:
			return nil, fmt.Errorf("read document path=%s: %w", path, err)
		}
	}

	segments, err := e.ExtractBytes(ctx, data, fileType)
	if err != nil {
		return nil, fmt.Errorf("extract path=%s: %w", path, err)
	}
	return segments, nil
}

// ExtractBytes extracts segments from an in-memory payload.
func (e *Extractor) ExtractBytes(ctx context.Context, data []byte, fileType documents.FileType) ([]Segment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch fileType {
	case documents.FileTypePDF:
		return extractPDF(data)
	case documents.FileTypeDOCX:
		return extractDOCX(data)
	case documents.FileTypeXLSX:
		return extractXLSX(data, e.rowGroupSize)
	case documents.FileTypeTXT:
		return extractText(data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedType, fileType)
	}
}

func supported(fileType documents.FileType) bool {
	switch fileType {
	case documents.FileTypePDF, documents.FileTypeDOCX, documents.FileTypeXLSX, documents.FileTypeTXT:
		return true
	default:
		return false
	}
}

func position(n int) *int {
	return &n
}
