package documents

import (
	"context"
	"time"
)

// Repo defines persistence operations for documents.
type Repo interface {
	Create(ctx context.Context, doc Document) error
	// GetByID is unscoped; workers use it to load the document of a job.
	GetByID(ctx context.Context, id string) (Document, error)
	GetForUser(ctx context.Context, userID, id string) (Document, error)
	ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error)
	// SetStatus overwrites status and detail. A nil metadata keeps the stored value.
	SetStatus(ctx context.Context, id string, status Status, detail string, metadata map[string]any, at *time.Time) error
}

func clampPage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
