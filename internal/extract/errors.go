package extract

import (
	"errors"
	"fmt"

	"answerpath-backend/internal/documents"
)

var (
	ErrUnsupportedType = errors.New("unsupported document type")
	ErrFileNotFound    = errors.New("document file not found")
	ErrCorruptDocument = errors.New("corrupt document")
)

func corrupt(fileType documents.FileType, format string, args ...any) error {
	return fmt.Errorf("%w: %s: %s", ErrCorruptDocument, fileType, fmt.Sprintf(format, args...))
}
