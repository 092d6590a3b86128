package questions

import (
	"context"
	"errors"
	"testing"
)

type recordingStatusWriter struct {
	updates []StatusUpdate
	err     error
}

func (w *recordingStatusWriter) ApplyStatus(ctx context.Context, update StatusUpdate) error {
	if w.err != nil {
		return w.err
	}
	w.updates = append(w.updates, update)
	return nil
}

func newQuestion(docID string, page int, text string) Question {
	return Question{
		DocumentID:      docID,
		Text:            text,
		PageNumber:      intPtr(page),
		ConfidenceScore: 0.9,
		DedupKey:        DedupKey(docID, intPtr(page), text),
	}
}

func TestMemoryStoreInsertSkipsDuplicates(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	insert := func(qs ...Question) int {
		t.Helper()
		var n int
		err := RunInTx(ctx, store, func(tx Tx) error {
			var err error
			n, err = tx.InsertQuestions(ctx, qs)
			return err
		})
		if err != nil {
			t.Fatalf("insert: %v", err)
		}
		return n
	}

	if n := insert(newQuestion("doc-1", 1, "Q1?"), newQuestion("doc-1", 1, "q1?")); n != 1 {
		t.Fatalf("expected in-batch duplicate to be skipped, inserted=%d", n)
	}
	if n := insert(newQuestion("doc-1", 1, "Q1?"), newQuestion("doc-1", 2, "Q2?")); n != 1 {
		t.Fatalf("expected existing row to be skipped, inserted=%d", n)
	}

	got, err := store.ListByDocument(ctx, "doc-1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got))
	}
	if got[0].Text != "Q1?" || got[1].Text != "Q2?" {
		t.Fatalf("unexpected order: %q, %q", got[0].Text, got[1].Text)
	}
	if got[0].ID == "" || got[0].CreatedAt.IsZero() {
		t.Fatalf("expected defaults to be assigned")
	}
}

func TestMemoryStoreRollbackDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	tx, err := store.Begin(ctx)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if _, err := tx.InsertQuestions(ctx, []Question{newQuestion("doc-1", 1, "Q1?")}); err != nil {
		t.Fatalf("insert: %v", err)
	}
	if err := tx.Rollback(); err != nil {
		t.Fatalf("rollback: %v", err)
	}
	if err := tx.Commit(); !errors.Is(err, ErrTxDone) {
		t.Fatalf("expected ErrTxDone after rollback, got %v", err)
	}

	got, _ := store.ListByDocument(ctx, "doc-1")
	if len(got) != 0 {
		t.Fatalf("expected no rows after rollback, got %d", len(got))
	}
}

func TestMemoryStoreDeleteThenInsertInSameTx(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(nil)

	if err := RunInTx(ctx, store, func(tx Tx) error {
		_, err := tx.InsertQuestions(ctx, []Question{newQuestion("doc-1", 1, "Old?"), newQuestion("doc-2", 1, "Other?")})
		return err
	}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	err := RunInTx(ctx, store, func(tx Tx) error {
		deleted, err := tx.DeleteByDocument(ctx, "doc-1")
		if err != nil {
			return err
		}
		if deleted != 1 {
			t.Fatalf("expected 1 deleted, got %d", deleted)
		}
		n, err := tx.InsertQuestions(ctx, []Question{newQuestion("doc-1", 1, "Old?")})
		if n != 1 {
			t.Fatalf("expected re-insert after delete, got %d", n)
		}
		return err
	})
	if err != nil {
		t.Fatalf("replace: %v", err)
	}

	got, _ := store.ListByDocument(ctx, "doc-1")
	if len(got) != 1 {
		t.Fatalf("expected 1 row for doc-1, got %d", len(got))
	}
	other, _ := store.ListByDocument(ctx, "doc-2")
	if len(other) != 1 {
		t.Fatalf("expected doc-2 untouched, got %d", len(other))
	}
}

func TestMemoryStoreStatusWriteFailureKeepsRowsUnchanged(t *testing.T) {
	ctx := context.Background()
	writer := &recordingStatusWriter{err: errors.New("document gone")}
	store := NewMemoryStore(writer)

	err := RunInTx(ctx, store, func(tx Tx) error {
		if _, err := tx.InsertQuestions(ctx, []Question{newQuestion("doc-1", 1, "Q?")}); err != nil {
			return err
		}
		return tx.UpdateDocumentStatus(ctx, StatusUpdate{DocumentID: "doc-1", Status: "succeeded"})
	})
	if !errors.Is(err, ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}
	got, _ := store.ListByDocument(ctx, "doc-1")
	if len(got) != 0 {
		t.Fatalf("expected no rows after failed commit, got %d", len(got))
	}
}

func TestMemoryStoreAppliesStatusOnCommit(t *testing.T) {
	ctx := context.Background()
	writer := &recordingStatusWriter{}
	store := NewMemoryStore(writer)

	err := RunInTx(ctx, store, func(tx Tx) error {
		return tx.UpdateDocumentStatus(ctx, StatusUpdate{DocumentID: "doc-1", Status: "partially_succeeded", Detail: "1 of 3 chunks failed"})
	})
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if len(writer.updates) != 1 || writer.updates[0].Status != "partially_succeeded" {
		t.Fatalf("unexpected updates: %+v", writer.updates)
	}
}
