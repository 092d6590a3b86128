package object

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotFound is returned when a storage key has no stored object.
var ErrNotFound = errors.New("object not found")

// ErrTooLarge is returned by ReadAll when the object exceeds the limit.
var ErrTooLarge = errors.New("object too large")

// Object describes a stored blob.
type Object struct {
	Key      string
	Size     int64
	MimeType string
}

// Store defines the contract for saving and retrieving uploaded documents.
type Store interface {
	Save(ctx context.Context, ownerID string, fileName string, r io.Reader) (Object, error)
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
	Delete(ctx context.Context, storageKey string) error
}

// ReadAll opens storageKey and reads at most limit bytes. limit <= 0 disables the cap.
func ReadAll(ctx context.Context, store Store, storageKey string, limit int64) ([]byte, error) {
	rc, err := store.Open(ctx, storageKey)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	var r io.Reader = rc
	if limit > 0 {
		r = io.LimitReader(rc, limit+1)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read object %s: %w", storageKey, err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, ErrTooLarge
	}
	return data, nil
}
