package pipeline

import (
	"errors"
	"strings"
)

// State is the in-memory orchestrator state of one processing run. Only the
// terminal states are ever persisted.
type State string

const (
	StatePending            State = "pending"
	StateExtracting         State = "extracting"
	StateChunking           State = "chunking"
	StateQuestioning        State = "questioning_chunk"
	StateFinalizing         State = "finalizing"
	StateSucceeded          State = "succeeded"
	StatePartiallySucceeded State = "partially_succeeded"
	StateFailed             State = "failed"
)

// RetryPolicy decides what happens to questions of an earlier run.
type RetryPolicy string

const (
	// RetryPolicyDedup keeps earlier rows and relies on the dedup key.
	RetryPolicyDedup RetryPolicy = "dedup"
	// RetryPolicyReplace deletes earlier rows in the first transaction of the run.
	RetryPolicyReplace RetryPolicy = "replace"
)

// ParseRetryPolicy maps a config value to a policy. Unknown values fall back to dedup.
func ParseRetryPolicy(raw string) RetryPolicy {
	if strings.EqualFold(strings.TrimSpace(raw), string(RetryPolicyReplace)) {
		return RetryPolicyReplace
	}
	return RetryPolicyDedup
}

// Failure kinds beyond the extraction ones.
const (
	KindPersistence = "persistence"
)

var (
	// ErrDocumentNotFound means the job references a document that does not exist.
	ErrDocumentNotFound = errors.New("document not found")
	// ErrNotConfigured means the processor is missing a collaborator.
	ErrNotConfigured = errors.New("processor not configured")
	// ErrInterrupted means the run stopped between chunks because its context
	// ended. The document is still pending.
	ErrInterrupted = errors.New("processing interrupted")
	// ErrJobCancelled is the cancellation cause that stops a job for good.
	// Use it with context.WithCancelCause.
	ErrJobCancelled = errors.New("job cancelled")
)
