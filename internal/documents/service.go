package documents

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"

	"answerpath-backend/internal/questions"
	"answerpath-backend/internal/queue"
	"answerpath-backend/internal/shared/storage/object"
	"answerpath-backend/internal/shared/telemetry"
)

// QuestionLister reads the persisted questions of a document.
type QuestionLister interface {
	ListByDocument(ctx context.Context, documentID string) ([]questions.Question, error)
}

// Service contains business logic for documents.
type Service struct {
	Store     object.Store
	Repo      Repo
	Queue     queue.Client
	Questions QuestionLister
	Now       func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Upload saves the file, records the document as pending and dispatches its
// processing job. It does not wait for processing.
func (s *Service) Upload(ctx context.Context, userID, fileName, contentType string, r io.Reader) (Document, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(fileName) == "" {
		return Document{}, ErrInvalidInput
	}
	fileType, err := FileTypeFromUpload(contentType, fileName)
	if err != nil {
		return Document{}, err
	}

	obj, err := s.Store.Save(ctx, userID, fileName, r)
	if err != nil {
		return Document{}, fmt.Errorf("save upload: %w", err)
	}

	doc := Document{
		ID:          uuid.NewString(),
		UserID:      userID,
		Title:       strings.TrimSpace(fileName),
		StoragePath: obj.Key,
		FileType:    fileType,
		SizeBytes:   obj.Size,
		Status:      StatusPending,
		Metadata: map[string]any{
			"contentType":  contentType,
			"detectedMime": obj.MimeType,
		},
		UploadedAt: s.now(),
	}

	if err := s.Repo.Create(ctx, doc); err != nil {
		if delErr := s.Store.Delete(ctx, obj.Key); delErr != nil {
			telemetry.Warn("documents.upload.cleanup_failed", map[string]any{
				"storage_path": obj.Key,
				"error":        delErr,
			})
		}
		return Document{}, fmt.Errorf("create document: %w", err)
	}

	telemetry.Info("documents.uploaded", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
		"file_type":   string(fileType),
		"size_bytes":  doc.SizeBytes,
	})

	if err := s.dispatch(ctx, doc.ID); err != nil {
		return doc, err
	}
	return doc, nil
}

// Get returns a document owned by userID.
func (s *Service) Get(ctx context.Context, userID, id string) (Document, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(id) == "" {
		return Document{}, ErrInvalidInput
	}
	return s.Repo.GetForUser(ctx, userID, id)
}

// ListQuestions returns the questions of a document in creation order.
func (s *Service) ListQuestions(ctx context.Context, documentID string) ([]questions.Question, error) {
	if s.Questions == nil {
		return []questions.Question{}, nil
	}
	return s.Questions.ListByDocument(ctx, documentID)
}

// List returns the documents of a user, newest first.
func (s *Service) List(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrInvalidInput
	}
	return s.Repo.ListByUser(ctx, userID, limit, offset)
}

// Reprocess resets a document to pending and dispatches a new processing job.
// Questions already stored are kept; the pipeline skips duplicates.
func (s *Service) Reprocess(ctx context.Context, userID, id string) (Document, error) {
	doc, err := s.Get(ctx, userID, id)
	if err != nil {
		return Document{}, err
	}
	if err := s.Repo.SetStatus(ctx, doc.ID, StatusPending, "", nil, nil); err != nil {
		return Document{}, fmt.Errorf("reset status: %w", err)
	}
	doc.Status = StatusPending
	doc.StatusDetail = ""
	doc.ProcessedAt = nil

	telemetry.Info("documents.reprocess", map[string]any{
		"document_id": doc.ID,
		"user_id":     userID,
	})
	if err := s.dispatch(ctx, doc.ID); err != nil {
		return doc, err
	}
	return doc, nil
}

func (s *Service) dispatch(ctx context.Context, documentID string) error {
	if s.Queue == nil {
		return fmt.Errorf("%w: no queue configured", ErrEnqueue)
	}
	requestID := queue.RequestIDFromContext(ctx)
	if err := s.Queue.Send(ctx, queue.NewMessage(documentID, requestID)); err != nil {
		telemetry.Error("documents.enqueue.failed", map[string]any{
			"document_id": documentID,
			"request_id":  requestID,
			"error":       err,
		})
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}
	telemetry.Info("documents.enqueued", map[string]any{
		"document_id": documentID,
		"request_id":  requestID,
	})
	return nil
}
