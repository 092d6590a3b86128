package documents_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"answerpath-backend/internal/documents"
	"answerpath-backend/internal/questions"
	"answerpath-backend/internal/queue"
	"answerpath-backend/internal/shared/server/middleware"
	"answerpath-backend/internal/shared/storage/object/local"
)

type fakeQueue struct {
	mu   sync.Mutex
	sent []queue.Message
	err  error
}

func (q *fakeQueue) Send(ctx context.Context, msg queue.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, msg)
	return nil
}

type harness struct {
	router *gin.Engine
	repo   *documents.MemoryRepo
	store  *questions.MemoryStore
	queue  *fakeQueue
}

func newHarness(t *testing.T) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := documents.NewMemoryRepo()
	qs := questions.NewMemoryStore(repo)
	q := &fakeQueue{}
	svc := &documents.Service{
		Store:     local.New(t.TempDir()),
		Repo:      repo,
		Queue:     q,
		Questions: qs,
	}

	r := gin.New()
	r.Use(middleware.RequestID())
	api := r.Group("/api/v1", middleware.Identity("dev"))
	documents.NewHandler(svc).RegisterRoutes(api)
	return harness{router: r, repo: repo, store: qs, queue: q}
}

func uploadRequest(t *testing.T, fileName, contentType string, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="file"; filename="` + fileName + `"`}
	header["Content-Type"] = []string{contentType}
	part, err := writer.CreatePart(header)
	if err != nil {
		t.Fatalf("create part: %v", err)
	}
	if _, err := part.Write(content); err != nil {
		t.Fatalf("write part: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set(middleware.UserIDHeader, "user-1")
	return req
}

func (h harness) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

func TestUploadReturnsPendingAndDispatches(t *testing.T) {
	h := newHarness(t)

	resp := h.do(uploadRequest(t, "rfi.pdf", "application/pdf", []byte("%PDF-1.4 fake")))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}

	var created documents.DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if created.DocumentID == "" || created.Status != "pending" || created.FileType != "pdf" {
		t.Fatalf("unexpected response %+v", created)
	}
	if len(h.queue.sent) != 1 || h.queue.sent[0].DocumentID != created.DocumentID {
		t.Fatalf("expected one job for %s, got %+v", created.DocumentID, h.queue.sent)
	}
	if h.queue.sent[0].RequestID == "" {
		t.Fatalf("expected request id to be propagated")
	}
}

func TestUploadRejectsUnsupportedType(t *testing.T) {
	h := newHarness(t)

	resp := h.do(uploadRequest(t, "diagram.png", "image/png", []byte{0x89, 'P', 'N', 'G'}))
	if resp.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("expected 415, got %d", resp.Code)
	}
	if len(h.queue.sent) != 0 {
		t.Fatalf("unsupported upload must not be dispatched")
	}
}

func TestUploadFallsBackToExtension(t *testing.T) {
	h := newHarness(t)

	resp := h.do(uploadRequest(t, "notes.txt", "application/octet-stream", []byte("Is there an SLA?")))
	if resp.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUploadMissingFile(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents", nil)
	resp := h.do(req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.Code)
	}
}

func TestUploadEnqueueFailureKeepsPendingRow(t *testing.T) {
	h := newHarness(t)
	h.queue.err = errors.New("sqs down")

	resp := h.do(uploadRequest(t, "rfi.txt", "text/plain", []byte("Question?")))
	if resp.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", resp.Code)
	}

	var body struct {
		Error struct {
			Code    string            `json:"code"`
			Details map[string]string `json:"details"`
		} `json:"error"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != "enqueue_failed" || body.Error.Details["documentId"] == "" {
		t.Fatalf("unexpected error body %+v", body)
	}
	doc, err := h.repo.GetByID(context.Background(), body.Error.Details["documentId"])
	if err != nil {
		t.Fatalf("document should exist: %v", err)
	}
	if doc.Status != documents.StatusPending {
		t.Fatalf("expected pending, got %s", doc.Status)
	}
}

func TestGetIncludesQuestionsAndIsOwnerScoped(t *testing.T) {
	h := newHarness(t)
	resp := h.do(uploadRequest(t, "rfi.txt", "text/plain", []byte("Question?")))
	var created documents.DocumentResponse
	_ = json.NewDecoder(resp.Body).Decode(&created)

	page := 1
	err := questions.RunInTx(context.Background(), h.store, func(tx questions.Tx) error {
		_, err := tx.InsertQuestions(context.Background(), []questions.Question{{
			DocumentID:      created.DocumentID,
			Text:            "Question?",
			PageNumber:      &page,
			ConfidenceScore: 0.9,
			DedupKey:        questions.DedupKey(created.DocumentID, &page, "Question?"),
		}})
		return err
	})
	if err != nil {
		t.Fatalf("seed questions: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	got := h.do(req)
	if got.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", got.Code)
	}
	var detail documents.DocumentDetailResponse
	if err := json.NewDecoder(got.Body).Decode(&detail); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(detail.Questions) != 1 || detail.Questions[0].Text != "Question?" || *detail.Questions[0].PageNumber != 1 {
		t.Fatalf("unexpected questions %+v", detail.Questions)
	}

	other := httptest.NewRequest(http.MethodGet, "/api/v1/documents/"+created.DocumentID, nil)
	other.Header.Set(middleware.UserIDHeader, "user-2")
	if code := h.do(other).Code; code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user, got %d", code)
	}
}

func TestListNewestFirst(t *testing.T) {
	h := newHarness(t)
	for _, name := range []string{"a.txt", "b.txt"} {
		if code := h.do(uploadRequest(t, name, "text/plain", []byte("x"))).Code; code != http.StatusAccepted {
			t.Fatalf("upload %s: %d", name, code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/documents?limit=1", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	resp := h.do(req)
	if resp.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.Code)
	}
	var list []documents.DocumentResponse
	if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(list))
	}
}

func TestReprocessResetsStatusAndDispatches(t *testing.T) {
	h := newHarness(t)
	resp := h.do(uploadRequest(t, "rfi.txt", "text/plain", []byte("Question?")))
	var created documents.DocumentResponse
	_ = json.NewDecoder(resp.Body).Decode(&created)
	if err := h.repo.SetStatus(context.Background(), created.DocumentID, documents.StatusFailed, "boom", nil, nil); err != nil {
		t.Fatalf("set status: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/"+created.DocumentID+"/reprocess", nil)
	req.Header.Set(middleware.UserIDHeader, "user-1")
	got := h.do(req)
	if got.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", got.Code)
	}
	doc, _ := h.repo.GetByID(context.Background(), created.DocumentID)
	if doc.Status != documents.StatusPending || doc.StatusDetail != "" {
		t.Fatalf("expected reset to pending, got %s %q", doc.Status, doc.StatusDetail)
	}
	if len(h.queue.sent) != 2 {
		t.Fatalf("expected a second job, got %d", len(h.queue.sent))
	}
}

func TestReprocessUnknownDocument(t *testing.T) {
	h := newHarness(t)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/documents/missing/reprocess", nil)
	if code := h.do(req).Code; code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}
