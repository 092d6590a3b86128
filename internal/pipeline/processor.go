package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"answerpath-backend/internal/chunker"
	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/extract"
	"answerpath-backend/internal/extraction"
	"answerpath-backend/internal/questions"
	"answerpath-backend/internal/queue"
	"answerpath-backend/internal/shared/metrics"
	"answerpath-backend/internal/shared/telemetry"
)

// DocumentLoader loads the document a job refers to.
type DocumentLoader interface {
	GetByID(ctx context.Context, id string) (documents.Document, error)
}

// ContentExtractor turns a stored file into ordered segments.
type ContentExtractor interface {
	Extract(ctx context.Context, path string, fileType documents.FileType) ([]extract.Segment, error)
}

// Splitter windows segments into chunks.
type Splitter interface {
	Split(segments []extract.Segment) ([]chunker.Chunk, error)
}

// QuestionExtractor asks the model for the questions in one chunk.
type QuestionExtractor interface {
	Extract(ctx context.Context, chunkText string) ([]extraction.Candidate, error)
}

// ChunkFailure records a chunk whose questions could not be stored.
type ChunkFailure struct {
	Index    int
	Position *int
	Kind     string
	Err      error
}

// Result describes the outcome of one ProcessDocument call.
type Result struct {
	DocumentID   string
	State        State
	Chunks       int
	FailedChunks int
	Questions    int
	Failures     []ChunkFailure
	// Cancelled is set when the job was cancelled with ErrJobCancelled or the
	// document disappeared mid-run.
	Cancelled bool
	// Interrupted is set when the worker stopped between chunks. The document
	// stays pending and the job is expected to be redelivered.
	Interrupted bool
	// Skipped is set when the document was already terminal and nothing ran.
	Skipped bool
}

// Option tweaks a single ProcessDocument call.
type Option func(*runOptions)

type runOptions struct {
	force bool
}

// Force processes the document even when it already reached a terminal status.
func Force() Option {
	return func(o *runOptions) { o.force = true }
}

// DefaultChunkTimeout bounds the model call and commit of one chunk once it
// has started.
const DefaultChunkTimeout = extraction.DefaultTimeout + 30*time.Second

// Processor drives one document from pending to a terminal status. Chunks are
// processed sequentially; each chunk's questions are committed in their own
// transaction so a failure never loses the work of other chunks.
//
// A started chunk always runs to its commit, even when ctx is cancelled.
// Cancellation is observed between chunks: a cause of ErrJobCancelled
// finalizes the document as partially succeeded, any other cause leaves it
// pending and returns ErrInterrupted so the job is redelivered.
type Processor struct {
	Documents    DocumentLoader
	Questions    questions.Store
	Extractor    ContentExtractor
	Chunker      Splitter
	Engine       QuestionExtractor
	Policy       RetryPolicy
	ChunkTimeout time.Duration
	Now          func() time.Time
}

// ProcessDocument runs the pipeline for documentID. A missing document
// returns ErrDocumentNotFound. Extraction failures that can never succeed
// mark the document failed and return a nil error; other errors are returned
// unmarked so the job can be retried.
func (p *Processor) ProcessDocument(ctx context.Context, documentID string, opts ...Option) (Result, error) {
	res := Result{DocumentID: documentID, State: StatePending}
	if p == nil || p.Documents == nil || p.Questions == nil || p.Extractor == nil || p.Chunker == nil || p.Engine == nil {
		return res, ErrNotConfigured
	}
	var ro runOptions
	for _, opt := range opts {
		opt(&ro)
	}

	doc, err := p.Documents.GetByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			res.State = StateFailed
			telemetry.Warn("pipeline.document.missing", map[string]any{"document_id": documentID})
			return res, fmt.Errorf("%w: %s", ErrDocumentNotFound, documentID)
		}
		return res, fmt.Errorf("load document %s: %w", documentID, err)
	}
	if doc.Status.Terminal() && !ro.force {
		res.State = State(doc.Status)
		res.Skipped = true
		telemetry.Info("pipeline.document.skipped", map[string]any{
			"document_id": documentID,
			"status":      string(doc.Status),
		})
		return res, nil
	}

	r := &run{p: p, doc: doc, res: &res, start: p.now()}
	metrics.IncDocumentStarted()
	return r.execute(ctx)
}

func (p *Processor) now() time.Time {
	if p.Now != nil {
		return p.Now().UTC()
	}
	return time.Now().UTC()
}

func (p *Processor) chunkTimeout() time.Duration {
	if p.ChunkTimeout > 0 {
		return p.ChunkTimeout
	}
	return DefaultChunkTimeout
}

func (p *Processor) policy() RetryPolicy {
	if p.Policy == "" {
		return RetryPolicyDedup
	}
	return p.Policy
}

func (p *Processor) promptVersion() string {
	if v, ok := p.Engine.(interface{ PromptVersion() string }); ok {
		return v.PromptVersion()
	}
	return ""
}

// run carries the state of a single ProcessDocument call.
type run struct {
	p       *Processor
	doc     documents.Document
	res     *Result
	start   time.Time
	cleared bool
	kinds   map[string]int
}

func (r *run) transition(state State, fields map[string]any) {
	r.res.State = state
	if fields == nil {
		fields = map[string]any{}
	}
	fields["document_id"] = r.doc.ID
	fields["state"] = string(state)
	telemetry.Info("pipeline.state", fields)
}

func (r *run) execute(ctx context.Context) (Result, error) {
	r.transition(StateExtracting, map[string]any{"file_type": string(r.doc.FileType)})
	segments, err := r.p.Extractor.Extract(ctx, r.doc.StoragePath, r.doc.FileType)
	if err != nil {
		if permanentExtractError(err) {
			telemetry.Warn("pipeline.extract.failed", map[string]any{
				"document_id": r.doc.ID,
				"error":       err.Error(),
			})
			return r.finalize(ctx, StateFailed, err.Error())
		}
		return *r.res, fmt.Errorf("extract document %s: %w", r.doc.ID, err)
	}

	r.transition(StateChunking, map[string]any{"segments": len(segments)})
	chunks, err := r.p.Chunker.Split(segments)
	if err != nil {
		return r.finalize(ctx, StateFailed, err.Error())
	}
	r.res.Chunks = len(chunks)

	for i, chunk := range chunks {
		if stop, err := r.boundary(ctx, i); stop {
			if err != nil {
				return *r.res, err
			}
			break
		}
		r.transition(StateQuestioning, map[string]any{"chunk_index": chunk.Index})
		r.processChunk(ctx, chunk)
	}

	state, detail := r.outcome()
	return r.finalize(ctx, state, detail)
}

// boundary runs before chunk i and reports whether the run must stop. A
// cancelled job stops with Cancelled set and is finalized by the caller. A
// shutdown stops with ErrInterrupted and the document left pending. A
// document deleted since the run started stops with nothing left to write.
func (r *run) boundary(ctx context.Context, i int) (bool, error) {
	fields := map[string]any{
		"document_id": r.doc.ID,
		"done":        i,
		"remaining":   r.res.Chunks - i,
	}
	if ctx.Err() != nil {
		if errors.Is(context.Cause(ctx), ErrJobCancelled) {
			r.res.Cancelled = true
			telemetry.Warn("pipeline.cancelled", fields)
			return true, nil
		}
		r.res.Interrupted = true
		r.res.State = StatePending
		telemetry.Warn("pipeline.interrupted", fields)
		return true, fmt.Errorf("%w: document %s after %d of %d chunks: %w", ErrInterrupted, r.doc.ID, i, r.res.Chunks, ctx.Err())
	}
	if i == 0 {
		return false, nil
	}

	if _, err := r.p.Documents.GetByID(ctx, r.doc.ID); err != nil {
		if errors.Is(err, documents.ErrNotFound) {
			r.res.Cancelled = true
			r.res.State = StateFailed
			telemetry.Warn("pipeline.document.deleted", fields)
			return true, fmt.Errorf("%w: %s", ErrDocumentNotFound, r.doc.ID)
		}
		fields["error"] = err.Error()
		telemetry.Warn("pipeline.document.recheck_failed", fields)
	}
	return false, nil
}

// processChunk runs one chunk to its commit on a context that ignores the
// caller's cancellation, bounded by the chunk timeout.
func (r *run) processChunk(parent context.Context, chunk chunker.Chunk) {
	ctx, cancel := context.WithTimeout(queue.Detach(parent), r.p.chunkTimeout())
	defer cancel()

	candidates, err := r.p.Engine.Extract(ctx, chunk.Text)
	if err != nil {
		r.fail(chunk, extraction.Kind(err), err)
		return
	}

	qs := make([]questions.Question, 0, len(candidates))
	for _, c := range candidates {
		qs = append(qs, questions.Question{
			DocumentID:      r.doc.ID,
			Text:            c.Text,
			Context:         c.Context,
			PageNumber:      copyInt(chunk.Position),
			ConfidenceScore: c.ConfidenceScore,
			ChunkIndex:      chunk.Index,
			DedupKey:        questions.DedupKey(r.doc.ID, chunk.Position, c.Text),
			CreatedAt:       r.p.now(),
		})
	}

	inserted := 0
	err = questions.RunInTx(ctx, r.p.Questions, func(tx questions.Tx) error {
		if err := r.clearPrevious(ctx, tx); err != nil {
			return err
		}
		n, err := tx.InsertQuestions(ctx, qs)
		inserted = n
		return err
	})
	if err != nil {
		r.fail(chunk, KindPersistence, err)
		return
	}
	r.cleared = r.cleared || r.p.policy() == RetryPolicyReplace

	r.res.Questions += inserted
	metrics.IncChunkProcessed()
	metrics.AddQuestionsPersisted(inserted)
	telemetry.Info("pipeline.chunk.completed", map[string]any{
		"document_id": r.doc.ID,
		"chunk_index": chunk.Index,
		"candidates":  len(candidates),
		"inserted":    inserted,
	})
}

func (r *run) clearPrevious(ctx context.Context, tx questions.Tx) error {
	if r.cleared || r.p.policy() != RetryPolicyReplace {
		return nil
	}
	n, err := tx.DeleteByDocument(ctx, r.doc.ID)
	if err != nil {
		return err
	}
	if n > 0 {
		telemetry.Info("pipeline.questions.replaced", map[string]any{
			"document_id": r.doc.ID,
			"deleted":     n,
		})
	}
	return nil
}

func (r *run) fail(chunk chunker.Chunk, kind string, err error) {
	r.res.FailedChunks++
	r.res.Failures = append(r.res.Failures, ChunkFailure{
		Index:    chunk.Index,
		Position: copyInt(chunk.Position),
		Kind:     kind,
		Err:      err,
	})
	if r.kinds == nil {
		r.kinds = map[string]int{}
	}
	r.kinds[kind]++
	metrics.IncChunkFailed()
	telemetry.Warn("pipeline.chunk.failed", map[string]any{
		"document_id": r.doc.ID,
		"chunk_index": chunk.Index,
		"kind":        kind,
		"error":       err.Error(),
	})
}

func (r *run) outcome() (State, string) {
	total, failed := r.res.Chunks, r.res.FailedChunks
	switch {
	case r.res.Cancelled:
		return StatePartiallySucceeded, fmt.Sprintf("cancelled; %d of %d chunks failed", failed, total)
	case failed == 0:
		return StateSucceeded, ""
	case failed == total:
		return StateFailed, fmt.Sprintf("all %d chunks failed", total)
	default:
		return StatePartiallySucceeded, fmt.Sprintf("%d of %d chunks failed", failed, total)
	}
}

// finalize writes the terminal status and report. A cancelled job still
// finalizes, on a context detached from the cancelled one.
func (r *run) finalize(ctx context.Context, state State, detail string) (Result, error) {
	r.transition(StateFinalizing, nil)
	if r.res.Cancelled || ctx.Err() != nil {
		ctx = queue.Detach(ctx)
	}

	finished := r.p.now()
	report := documents.ProcessingReport{
		TotalChunks:       r.res.Chunks,
		FailedChunks:      r.res.FailedChunks,
		FailuresByKind:    r.kinds,
		QuestionsInserted: r.res.Questions,
		Cancelled:         r.res.Cancelled,
		PromptVersion:     r.p.promptVersion(),
		RetryPolicy:       string(r.p.policy()),
		DurationMs:        finished.Sub(r.start).Milliseconds(),
		FinishedAt:        finished,
	}
	update := questions.StatusUpdate{
		DocumentID:  r.doc.ID,
		Status:      string(state),
		Detail:      detail,
		Metadata:    documents.WithReport(r.doc.Metadata, report),
		ProcessedAt: finished,
	}
	err := questions.RunInTx(ctx, r.p.Questions, func(tx questions.Tx) error {
		if err := r.clearPrevious(ctx, tx); err != nil {
			return err
		}
		return tx.UpdateDocumentStatus(ctx, update)
	})
	if err != nil {
		telemetry.Error("pipeline.finalize.failed", map[string]any{
			"document_id": r.doc.ID,
			"state":       string(state),
			"error":       err.Error(),
		})
		return *r.res, fmt.Errorf("finalize document %s: %w", r.doc.ID, err)
	}

	r.res.State = state
	metrics.IncDocumentOutcome(string(state))
	metrics.ObserveProcessingDurationMs(float64(report.DurationMs))
	telemetry.Info("pipeline.document.completed", map[string]any{
		"document_id":   r.doc.ID,
		"state":         string(state),
		"chunks":        r.res.Chunks,
		"failed_chunks": r.res.FailedChunks,
		"questions":     r.res.Questions,
		"cancelled":     r.res.Cancelled,
		"duration_ms":   report.DurationMs,
	})
	return *r.res, nil
}

func permanentExtractError(err error) bool {
	return errors.Is(err, extract.ErrUnsupportedType) ||
		errors.Is(err, extract.ErrFileNotFound) ||
		errors.Is(err, extract.ErrCorruptDocument)
}

func copyInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
