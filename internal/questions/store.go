package questions

import "context"

// Store is the transactional storage boundary for extracted questions.
type Store interface {
	Begin(ctx context.Context) (Tx, error)
	ListByDocument(ctx context.Context, documentID string) ([]Question, error)
}

// Tx groups the writes of one chunk (or one finalize step) so they land together or not at all.
type Tx interface {
	// InsertQuestions stores questions and reports how many were new.
	// Rows whose (document, dedup key) already exist are skipped.
	InsertQuestions(ctx context.Context, qs []Question) (int, error)
	DeleteByDocument(ctx context.Context, documentID string) (int, error)
	UpdateDocumentStatus(ctx context.Context, update StatusUpdate) error
	Commit() error
	Rollback() error
}

// RunInTx begins a transaction, runs fn and commits. Any error rolls back.
func RunInTx(ctx context.Context, store Store, fn func(Tx) error) error {
	tx, err := store.Begin(ctx)
	if err != nil {
		return err
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	return tx.Commit()
}
