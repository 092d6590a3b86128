package extraction

import (
	"errors"
	"fmt"
)

var (
	// ErrExtractionUnavailable means the model could not be reached in time.
	ErrExtractionUnavailable = errors.New("question extraction unavailable")
	// ErrMalformedResponse means the model replied with something that does not
	// match the expected question schema.
	ErrMalformedResponse = errors.New("malformed model response")
)

// Failure kinds recorded in processing reports.
const (
	KindUnavailable = "unavailable"
	KindMalformed   = "malformed"
)

// ChunkError is returned by Engine.Extract. It matches ErrExtractionUnavailable
// or ErrMalformedResponse under errors.Is depending on Kind.
type ChunkError struct {
	Kind string
	Err  error
}

func (e *ChunkError) Error() string {
	return fmt.Sprintf("extraction %s: %v", e.Kind, e.Err)
}

func (e *ChunkError) Unwrap() error { return e.Err }

// Is reports the sentinel matching Kind.
func (e *ChunkError) Is(target error) bool {
	switch target {
	case ErrExtractionUnavailable:
		return e.Kind == KindUnavailable
	case ErrMalformedResponse:
		return e.Kind == KindMalformed
	}
	return false
}

func unavailable(err error) error {
	return &ChunkError{Kind: KindUnavailable, Err: err}
}

func malformed(format string, args ...any) error {
	return &ChunkError{Kind: KindMalformed, Err: fmt.Errorf(format, args...)}
}

// Kind classifies err for reporting. Unknown errors report as "other".
func Kind(err error) string {
	var ce *ChunkError
	if errors.As(err, &ce) {
		return ce.Kind
	}
	return "other"
}
