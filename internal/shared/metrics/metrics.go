package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	documentsStartedTotal            atomic.Uint64
	documentsSucceededTotal          atomic.Uint64
	documentsPartiallySucceededTotal atomic.Uint64
	documentsFailedTotal             atomic.Uint64
	chunksProcessedTotal             atomic.Uint64
	chunksFailedTotal                atomic.Uint64
	questionsPersistedTotal          atomic.Uint64

	jobsReceivedTotal             atomic.Uint64
	jobsCompletedTotal            atomic.Uint64
	jobsFailedTotal               atomic.Uint64
	jobsDeletedUnrecoverableTotal atomic.Uint64

	processingDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 300000})
)

// IncDocumentStarted increments the started counter.
func IncDocumentStarted() { documentsStartedTotal.Add(1) }

// IncDocumentOutcome increments the counter for a terminal document state.
func IncDocumentOutcome(state string) {
	switch state {
	case "succeeded":
		documentsSucceededTotal.Add(1)
	case "partially_succeeded":
		documentsPartiallySucceededTotal.Add(1)
	default:
		documentsFailedTotal.Add(1)
	}
}

// IncChunkProcessed increments the processed chunk counter.
func IncChunkProcessed() { chunksProcessedTotal.Add(1) }

// IncChunkFailed increments the failed chunk counter.
func IncChunkFailed() { chunksFailedTotal.Add(1) }

// AddQuestionsPersisted adds n persisted questions.
func AddQuestionsPersisted(n int) {
	if n > 0 {
		questionsPersistedTotal.Add(uint64(n))
	}
}

// IncJobsReceived increments the worker received counter.
func IncJobsReceived() { jobsReceivedTotal.Add(1) }

// IncJobsCompleted increments the worker completed counter.
func IncJobsCompleted() { jobsCompletedTotal.Add(1) }

// IncJobsFailed increments the worker failed counter.
func IncJobsFailed() { jobsFailedTotal.Add(1) }

// IncJobsDeletedUnrecoverable counts messages dropped because they can never succeed.
func IncJobsDeletedUnrecoverable() { jobsDeletedUnrecoverableTotal.Add(1) }

// ObserveProcessingDurationMs records a document processing duration in milliseconds.
func ObserveProcessingDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	processingDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "documents_started_total", "Total documents picked up for processing", documentsStartedTotal.Load())
	writeCounter(&buf, "documents_succeeded_total", "Total documents processed without chunk failures", documentsSucceededTotal.Load())
	writeCounter(&buf, "documents_partially_succeeded_total", "Total documents processed with some chunk failures", documentsPartiallySucceededTotal.Load())
	writeCounter(&buf, "documents_failed_total", "Total documents that failed processing", documentsFailedTotal.Load())
	writeCounter(&buf, "chunks_processed_total", "Total chunks sent to the extraction engine", chunksProcessedTotal.Load())
	writeCounter(&buf, "chunks_failed_total", "Total chunks that failed extraction or persistence", chunksFailedTotal.Load())
	writeCounter(&buf, "questions_persisted_total", "Total question rows persisted", questionsPersistedTotal.Load())
	writeCounter(&buf, "worker_jobs_received_total", "Total jobs received by workers", jobsReceivedTotal.Load())
	writeCounter(&buf, "worker_jobs_completed_total", "Total jobs completed by workers", jobsCompletedTotal.Load())
	writeCounter(&buf, "worker_jobs_failed_total", "Total jobs that failed in workers", jobsFailedTotal.Load())
	writeCounter(&buf, "worker_jobs_deleted_unrecoverable_total", "Total jobs dropped as unrecoverable", jobsDeletedUnrecoverableTotal.Load())
	writeHistogram(&buf, "document_processing_duration_ms", "Document processing duration in milliseconds", processingDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe counts value in the first bucket whose bound contains it;
// cumulative counts are produced at render time.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// SinceMillis returns the elapsed time since start in milliseconds.
func SinceMillis(start time.Time) float64 {
	return float64(time.Since(start).Microseconds()) / 1000.0
}
