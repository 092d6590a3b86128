package metrics

import (
	"strings"
	"testing"
)

func TestRenderIncludesCountersAndHistogram(t *testing.T) {
	IncDocumentStarted()
	IncDocumentOutcome("partially_succeeded")
	IncChunkFailed()
	AddQuestionsPersisted(3)
	ObserveProcessingDurationMs(150)

	out := Render()
	for _, want := range []string{
		"# TYPE documents_started_total counter",
		"documents_partially_succeeded_total ",
		"chunks_failed_total ",
		"questions_persisted_total ",
		"document_processing_duration_ms_bucket{le=\"250\"}",
		"document_processing_duration_ms_bucket{le=\"+Inf\"}",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected output to contain %q\n%s", want, out)
		}
	}
}

func TestHistogramCumulativeBuckets(t *testing.T) {
	h := newHistogram([]float64{10, 100})
	h.Observe(5)
	h.Observe(50)
	h.Observe(500)

	snap := h.Snapshot()
	if snap.count != 3 {
		t.Fatalf("expected count 3, got %d", snap.count)
	}
	if snap.counts[0] != 1 || snap.counts[1] != 1 {
		t.Fatalf("unexpected bucket counts: %v", snap.counts)
	}
}
