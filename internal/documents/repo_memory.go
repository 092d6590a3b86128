package documents

import (
	"context"
	"sort"
	"sync"
	"time"

	"answerpath-backend/internal/questions"
)

// MemoryRepo is an in-memory implementation of Repo.
type MemoryRepo struct {
	mu   sync.RWMutex
	data map[string]Document // id -> document
}

// NewMemoryRepo constructs a MemoryRepo.
func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{
		data: make(map[string]Document),
	}
}

// Create stores a new document.
func (r *MemoryRepo) Create(ctx context.Context, doc Document) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.Status == "" {
		doc.Status = StatusPending
	}
	doc.Metadata = copyMetadata(doc.Metadata)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data[doc.ID] = doc
	return nil
}

// GetByID returns a document regardless of owner.
func (r *MemoryRepo) GetByID(ctx context.Context, id string) (Document, error) {
	if err := ctx.Err(); err != nil {
		return Document{}, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	doc, ok := r.data[id]
	if !ok {
		return Document{}, ErrNotFound
	}
	doc.Metadata = copyMetadata(doc.Metadata)
	return doc, nil
}

// GetForUser returns a document by ID for its owner.
func (r *MemoryRepo) GetForUser(ctx context.Context, userID, id string) (Document, error) {
	doc, err := r.GetByID(ctx, id)
	if err != nil {
		return Document{}, err
	}
	if doc.UserID != userID {
		return Document{}, ErrNotFound
	}
	return doc, nil
}

// ListByUser returns documents for a user, newest first, honoring limit/offset.
func (r *MemoryRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	limit, offset = clampPage(limit, offset)

	r.mu.RLock()
	docs := make([]Document, 0)
	for _, doc := range r.data {
		if doc.UserID == userID {
			docs = append(docs, doc)
		}
	}
	r.mu.RUnlock()

	sort.Slice(docs, func(i, j int) bool {
		if docs[i].UploadedAt.Equal(docs[j].UploadedAt) {
			return docs[i].ID > docs[j].ID
		}
		return docs[i].UploadedAt.After(docs[j].UploadedAt)
	})

	if offset >= len(docs) {
		return []Document{}, nil
	}
	end := len(docs)
	if offset+limit < end {
		end = offset + limit
	}
	return docs[offset:end], nil
}

// SetStatus updates the processing status of a document.
func (r *MemoryRepo) SetStatus(ctx context.Context, id string, status Status, detail string, metadata map[string]any, at *time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	doc, ok := r.data[id]
	if !ok {
		return ErrNotFound
	}
	doc.Status = status
	doc.StatusDetail = detail
	if metadata != nil {
		doc.Metadata = copyMetadata(metadata)
	}
	if at != nil {
		t := *at
		doc.ProcessedAt = &t
	} else {
		doc.ProcessedAt = nil
	}
	r.data[id] = doc
	return nil
}

// ApplyStatus lets the in-memory question store write finalize results here.
func (r *MemoryRepo) ApplyStatus(ctx context.Context, update questions.StatusUpdate) error {
	at := update.ProcessedAt
	return r.SetStatus(ctx, update.DocumentID, Status(update.Status), update.Detail, update.Metadata, &at)
}

func copyMetadata(in map[string]any) map[string]any {
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

var (
	_ Repo                   = (*MemoryRepo)(nil)
	_ questions.StatusWriter = (*MemoryRepo)(nil)
)
