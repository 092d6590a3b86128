package questions

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PGStore implements Store using Postgres.
type PGStore struct {
	DB *sql.DB
}

// NewPGStore constructs a PGStore.
func NewPGStore(db *sql.DB) *PGStore {
	return &PGStore{DB: db}
}

// Begin starts a database transaction.
func (s *PGStore) Begin(ctx context.Context) (Tx, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, persistenceErr("begin", err)
	}
	return &pgTx{tx: tx}, nil
}

// ListByDocument returns the questions of a document in insertion order.
// seq is assigned by the database on insert, so rows sharing a timestamp keep
// the order they were written in.
func (s *PGStore) ListByDocument(ctx context.Context, documentID string) ([]Question, error) {
	const query = `
SELECT id, document_id, text, context, page_number, confidence_score, chunk_index, dedup_key, created_at
FROM questions
WHERE document_id = $1
ORDER BY seq ASC`

	rows, err := s.DB.QueryContext(ctx, query, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Question{}
	for rows.Next() {
		var q Question
		var page sql.NullInt64
		if err := rows.Scan(
			&q.ID,
			&q.DocumentID,
			&q.Text,
			&q.Context,
			&page,
			&q.ConfidenceScore,
			&q.ChunkIndex,
			&q.DedupKey,
			&q.CreatedAt,
		); err != nil {
			return nil, err
		}
		if page.Valid {
			p := int(page.Int64)
			q.PageNumber = &p
		}
		out = append(out, q)
	}
	return out, rows.Err()
}

type pgTx struct {
	tx *sql.Tx
}

func (t *pgTx) InsertQuestions(ctx context.Context, qs []Question) (int, error) {
	const query = `
INSERT INTO questions (
    id,
    document_id,
    text,
    context,
    page_number,
    confidence_score,
    chunk_index,
    dedup_key,
    created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (document_id, dedup_key) DO NOTHING`

	inserted := 0
	for _, q := range qs {
		q = withDefaults(q, time.Now().UTC())
		var page sql.NullInt64
		if q.PageNumber != nil {
			page = sql.NullInt64{Int64: int64(*q.PageNumber), Valid: true}
		}
		res, err := t.tx.ExecContext(
			ctx,
			query,
			q.ID,
			q.DocumentID,
			q.Text,
			q.Context,
			page,
			q.ConfidenceScore,
			q.ChunkIndex,
			q.DedupKey,
			q.CreatedAt,
		)
		if err != nil {
			return inserted, persistenceErr("insert question", err)
		}
		if n, err := res.RowsAffected(); err == nil {
			inserted += int(n)
		}
	}
	return inserted, nil
}

func (t *pgTx) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM questions WHERE document_id = $1`, documentID)
	if err != nil {
		return 0, persistenceErr("delete questions", err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

func (t *pgTx) UpdateDocumentStatus(ctx context.Context, update StatusUpdate) error {
	const query = `
UPDATE documents
SET status = $1, status_detail = NULLIF($2, ''), metadata = $3::jsonb, processed_at = $4
WHERE id = $5`

	meta := update.Metadata
	if meta == nil {
		meta = map[string]any{}
	}
	rawMeta, err := json.Marshal(meta)
	if err != nil {
		return persistenceErr("encode metadata", err)
	}
	res, err := t.tx.ExecContext(ctx, query, update.Status, update.Detail, string(rawMeta), update.ProcessedAt, update.DocumentID)
	if err != nil {
		return persistenceErr("update document status", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return persistenceErr("update document status", fmt.Errorf("document %s: %w", update.DocumentID, sql.ErrNoRows))
	}
	return nil
}

func (t *pgTx) Commit() error {
	if err := t.tx.Commit(); err != nil {
		if errors.Is(err, sql.ErrTxDone) {
			return ErrTxDone
		}
		return persistenceErr("commit", err)
	}
	return nil
}

func (t *pgTx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && !errors.Is(err, sql.ErrTxDone) {
		return persistenceErr("rollback", err)
	}
	return nil
}

func withDefaults(q Question, now time.Time) Question {
	if q.ID == "" {
		q.ID = uuid.NewString()
	}
	if q.CreatedAt.IsZero() {
		q.CreatedAt = now
	}
	if q.DedupKey == "" {
		q.DedupKey = DedupKey(q.DocumentID, q.PageNumber, q.Text)
	}
	return q
}

var _ Store = (*PGStore)(nil)
