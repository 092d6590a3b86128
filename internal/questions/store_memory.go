package questions

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// StatusWriter applies a finalize status write. The documents memory repo implements it.
type StatusWriter interface {
	ApplyStatus(ctx context.Context, update StatusUpdate) error
}

// MemoryStore is an in-memory Store. Writes are buffered per transaction and
// applied under the store lock on commit.
type MemoryStore struct {
	mu     sync.RWMutex
	rows   map[string][]Question // documentID -> questions in insertion order
	status StatusWriter
	now    func() time.Time
}

// NewMemoryStore constructs a MemoryStore. status may be nil when no status writes are expected.
func NewMemoryStore(status StatusWriter) *MemoryStore {
	return &MemoryStore{
		rows:   make(map[string][]Question),
		status: status,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Begin starts a buffered transaction.
func (s *MemoryStore) Begin(ctx context.Context) (Tx, error) {
	if err := ctx.Err(); err != nil {
		return nil, persistenceErr("begin", err)
	}
	return &memoryTx{store: s, ctx: ctx}, nil
}

// ListByDocument returns the questions of a document in creation order.
func (s *MemoryStore) ListByDocument(ctx context.Context, documentID string) ([]Question, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Question, len(s.rows[documentID]))
	copy(out, s.rows[documentID])
	return out, nil
}

type memoryTx struct {
	store   *MemoryStore
	ctx     context.Context
	done    bool
	deletes []string
	inserts []Question
	updates []StatusUpdate
}

func (t *memoryTx) InsertQuestions(ctx context.Context, qs []Question) (int, error) {
	if t.done {
		return 0, ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return 0, persistenceErr("insert question", err)
	}

	t.store.mu.RLock()
	defer t.store.mu.RUnlock()

	inserted := 0
	for _, q := range qs {
		q = withDefaults(q, t.store.now())
		if t.exists(q.DocumentID, q.DedupKey) {
			continue
		}
		t.inserts = append(t.inserts, q)
		inserted++
	}
	return inserted, nil
}

// exists reports whether the key is visible to this transaction. Caller holds the read lock.
func (t *memoryTx) exists(documentID, key string) bool {
	for _, q := range t.inserts {
		if q.DocumentID == documentID && q.DedupKey == key {
			return true
		}
	}
	for _, id := range t.deletes {
		if id == documentID {
			return false
		}
	}
	for _, q := range t.store.rows[documentID] {
		if q.DedupKey == key {
			return true
		}
	}
	return false
}

func (t *memoryTx) DeleteByDocument(ctx context.Context, documentID string) (int, error) {
	if t.done {
		return 0, ErrTxDone
	}
	if err := ctx.Err(); err != nil {
		return 0, persistenceErr("delete questions", err)
	}
	t.store.mu.RLock()
	n := len(t.store.rows[documentID])
	t.store.mu.RUnlock()

	kept := t.inserts[:0]
	for _, q := range t.inserts {
		if q.DocumentID == documentID {
			n++
			continue
		}
		kept = append(kept, q)
	}
	t.inserts = kept
	t.deletes = append(t.deletes, documentID)
	return n, nil
}

func (t *memoryTx) UpdateDocumentStatus(ctx context.Context, update StatusUpdate) error {
	if t.done {
		return ErrTxDone
	}
	if t.store.status == nil {
		return persistenceErr("update document status", fmt.Errorf("no status writer configured"))
	}
	t.updates = append(t.updates, update)
	return nil
}

func (t *memoryTx) Commit() error {
	if t.done {
		return ErrTxDone
	}
	t.done = true

	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, u := range t.updates {
		if err := s.status.ApplyStatus(t.ctx, u); err != nil {
			return persistenceErr("update document status", err)
		}
	}
	for _, id := range t.deletes {
		delete(s.rows, id)
	}
	for _, q := range t.inserts {
		dup := false
		for _, existing := range s.rows[q.DocumentID] {
			if existing.DedupKey == q.DedupKey {
				dup = true
				break
			}
		}
		if !dup {
			s.rows[q.DocumentID] = append(s.rows[q.DocumentID], q)
		}
	}
	return nil
}

func (t *memoryTx) Rollback() error {
	t.done = true
	t.deletes = nil
	t.inserts = nil
	t.updates = nil
	return nil
}

var _ Store = (*MemoryStore)(nil)
