package documents

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const selectColumns = `id, user_id, title, storage_path, file_type, size_bytes, status, status_detail, metadata, uploaded_at, processed_at`

// Create inserts a new document.
func (r *PGRepo) Create(ctx context.Context, doc Document) error {
	const query = `
INSERT INTO documents (
    id,
    user_id,
    title,
    storage_path,
    file_type,
    size_bytes,
    status,
    metadata,
    uploaded_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb, $9)`

	status := doc.Status
	if status == "" {
		status = StatusPending
	}
	meta, err := encodeMetadata(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = r.DB.ExecContext(
		ctx,
		query,
		doc.ID,
		doc.UserID,
		doc.Title,
		doc.StoragePath,
		string(doc.FileType),
		doc.SizeBytes,
		string(status),
		meta,
		doc.UploadedAt,
	)
	return err
}

// GetByID fetches a document regardless of owner.
func (r *PGRepo) GetByID(ctx context.Context, id string) (Document, error) {
	query := `SELECT ` + selectColumns + ` FROM documents WHERE id = $1`
	return scanDocument(r.DB.QueryRowContext(ctx, query, id))
}

// GetForUser fetches a document by ID for its owner.
func (r *PGRepo) GetForUser(ctx context.Context, userID, id string) (Document, error) {
	query := `SELECT ` + selectColumns + ` FROM documents WHERE user_id = $1 AND id = $2`
	return scanDocument(r.DB.QueryRowContext(ctx, query, userID, id))
}

// ListByUser lists documents ordered newest-first.
func (r *PGRepo) ListByUser(ctx context.Context, userID string, limit, offset int) ([]Document, error) {
	limit, offset = clampPage(limit, offset)
	query := `SELECT ` + selectColumns + `
FROM documents
WHERE user_id = $1
ORDER BY uploaded_at DESC, id DESC
LIMIT $2 OFFSET $3`

	rows, err := r.DB.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// SetStatus updates the processing status of a document.
func (r *PGRepo) SetStatus(ctx context.Context, id string, status Status, detail string, metadata map[string]any, at *time.Time) error {
	const query = `
UPDATE documents
SET status = $1,
    status_detail = NULLIF($2, ''),
    metadata = COALESCE($3::jsonb, metadata),
    processed_at = $4
WHERE id = $5`

	var meta sql.NullString
	if metadata != nil {
		raw, err := encodeMetadata(metadata)
		if err != nil {
			return err
		}
		meta = sql.NullString{String: raw, Valid: true}
	}
	var processedAt sql.NullTime
	if at != nil {
		processedAt = sql.NullTime{Time: *at, Valid: true}
	}

	res, err := r.DB.ExecContext(ctx, query, string(status), detail, meta, processedAt, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner) (Document, error) {
	var doc Document
	var fileType string
	var status string
	var detail sql.NullString
	var rawMeta []byte
	var processedAt sql.NullTime
	err := row.Scan(
		&doc.ID,
		&doc.UserID,
		&doc.Title,
		&doc.StoragePath,
		&fileType,
		&doc.SizeBytes,
		&status,
		&detail,
		&rawMeta,
		&doc.UploadedAt,
		&processedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Document{}, ErrNotFound
		}
		return Document{}, err
	}
	doc.FileType = FileType(fileType)
	doc.Status = Status(status)
	if detail.Valid {
		doc.StatusDetail = detail.String
	}
	if processedAt.Valid {
		t := processedAt.Time
		doc.ProcessedAt = &t
	}
	doc.Metadata = map[string]any{}
	if len(rawMeta) > 0 {
		if err := json.Unmarshal(rawMeta, &doc.Metadata); err != nil {
			return Document{}, fmt.Errorf("decode metadata document_id=%s: %w", doc.ID, err)
		}
	}
	return doc, nil
}

func encodeMetadata(metadata map[string]any) (string, error) {
	if metadata == nil {
		metadata = map[string]any{}
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(raw), nil
}

var _ Repo = (*PGRepo)(nil)
