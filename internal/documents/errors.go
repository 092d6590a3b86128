package documents

import "errors"

var (
	ErrNotFound        = errors.New("document not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrUnsupportedType = errors.New("unsupported file type")
	// ErrEnqueue means the document row exists but its processing job was not dispatched.
	ErrEnqueue = errors.New("failed to enqueue document for processing")
)
