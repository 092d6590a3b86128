package documents

import "time"

// FileType is the closed set of document formats the pipeline accepts.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeDOCX FileType = "docx"
	FileTypeXLSX FileType = "xlsx"
	FileTypeTXT  FileType = "txt"
)

// Status is the persisted processing status of a document.
type Status string

const (
	StatusPending            Status = "pending"
	StatusSucceeded          Status = "succeeded"
	StatusPartiallySucceeded Status = "partially_succeeded"
	StatusFailed             Status = "failed"
)

// Terminal reports whether a processing run has finished for the document.
func (s Status) Terminal() bool {
	switch s {
	case StatusSucceeded, StatusPartiallySucceeded, StatusFailed:
		return true
	default:
		return false
	}
}

// Processed reports whether at least some questions were extracted successfully.
func (s Status) Processed() bool {
	return s == StatusSucceeded || s == StatusPartiallySucceeded
}

// MetadataProcessingKey holds the ProcessingReport of the latest run.
const MetadataProcessingKey = "processing"

// Document represents an uploaded RFI document owned by a user.
type Document struct {
	ID           string
	UserID       string
	Title        string
	StoragePath  string
	FileType     FileType
	SizeBytes    int64
	Status       Status
	StatusDetail string
	Metadata     map[string]any
	UploadedAt   time.Time
	ProcessedAt  *time.Time
}

// ProcessingReport summarizes one processing run.
type ProcessingReport struct {
	TotalChunks       int            `json:"totalChunks"`
	FailedChunks      int            `json:"failedChunks"`
	FailuresByKind    map[string]int `json:"failuresByKind,omitempty"`
	QuestionsInserted int            `json:"questionsInserted"`
	Cancelled         bool           `json:"cancelled,omitempty"`
	PromptVersion     string         `json:"promptVersion,omitempty"`
	RetryPolicy       string         `json:"retryPolicy,omitempty"`
	DurationMs        int64          `json:"durationMs"`
	FinishedAt        time.Time      `json:"finishedAt"`
}

// WithReport returns a copy of metadata with report stored under MetadataProcessingKey.
func WithReport(metadata map[string]any, report ProcessingReport) map[string]any {
	out := make(map[string]any, len(metadata)+1)
	for k, v := range metadata {
		out[k] = v
	}
	out[MetadataProcessingKey] = report
	return out
}
