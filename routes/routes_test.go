package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"document-query-bot/internal/config"
	"document-query-bot/internal/extract"
	"document-query-bot/internal/index"
	"document-query-bot/models"
	"document-query-bot/services"
)

// fakeEmbedder fails the test if a malformed credential ever reaches it.
type fakeEmbedder struct {
	t     *testing.T
	calls int
}

func fakeVector(text string) []float32 {
	v := make([]float32, 4)
	for i, r := range text {
		v[(i+int(r))%4] += float32(int(r)%7) + 1
	}
	v[0]++
	return v
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string, apiKey string) ([][]float32, error) {
	f.calls++
	if !strings.HasPrefix(apiKey, "AIza") {
		f.t.Fatalf("malformed key %q reached the embedder", apiKey)
	}
	vectors := make([][]float32, len(texts))
	for i, text := range texts {
		vectors[i] = fakeVector(text)
	}
	return vectors, nil
}

func (f *fakeEmbedder) EmbedQuery(_ context.Context, text string, apiKey string) ([]float32, error) {
	f.calls++
	if !strings.HasPrefix(apiKey, "AIza") {
		f.t.Fatalf("malformed key %q reached the embedder", apiKey)
	}
	return fakeVector(text), nil
}

type fakeGenerator struct {
	answer string
}

func (f *fakeGenerator) Generate(_ context.Context, _ string, _ []string, _ string, _ float64, _ string) (string, error) {
	return f.answer, nil
}

type testEnv struct {
	router   *gin.Engine
	cfg      *config.Config
	idx      *index.MemoryStore
	usage    *services.UsageGuard
	embedder *fakeEmbedder
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{
		GeminiAPIKey:     "AIza-host-key",
		EnableHostAPIKey: true,
		HostUsageCap:     50,
		MaxChunkSize:     1000,
		ChunkOverlap:     200,
		TopK:             4,
		MaxFileSize:      1 << 20,
	}

	idx := index.NewMemoryStore()
	usage := services.NewUsageGuard(cfg.GeminiAPIKey, cfg.HostUsageCap)
	embedder := &fakeEmbedder{t: t}
	chunker := services.NewChunker(cfg.MaxChunkSize, cfg.ChunkOverlap)
	ingest := services.NewIngestionService(extract.NewRegistry(), chunker, embedder, idx, usage)
	chain := services.NewRetrievalChain(embedder, idx, &fakeGenerator{answer: "the answer"}, cfg.TopK)

	router := gin.New()
	SetupDocumentRoutes(router, cfg, ingest, idx, usage, nil)
	SetupQueryRoutes(router, cfg, chain, nil)

	return &testEnv{router: router, cfg: cfg, idx: idx, usage: usage, embedder: embedder}
}

func (e *testEnv) postJSON(t *testing.T, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func multipartUpload(t *testing.T, apiKey string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	if apiKey != "" {
		if err := w.WriteField("api_key", apiKey); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, apiKey string, files map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartUpload(t, apiKey, files)
	req := httptest.NewRequest(http.MethodPost, "/documents/upload", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func TestQueryRejectsMalformedKeyBeforeEmbedding(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/query", gin.H{"question": "hello", "api_key": "bad-key"})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401: %s", w.Code, w.Body.String())
	}
	if env.embedder.calls != 0 {
		t.Errorf("embedder called %d times for a malformed key", env.embedder.calls)
	}
}

func TestQueryNoKeyAndHostDisabled(t *testing.T) {
	env := newTestEnv(t)
	env.cfg.EnableHostAPIKey = false

	w := env.postJSON(t, "/query", gin.H{"question": "hello"})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401: %s", w.Code, w.Body.String())
	}
}

func TestQueryMissingQuestion(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/query", gin.H{"api_key": "AIza-user-key"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestQueryRejectsUnknownMode(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/query", gin.H{"question": "q", "mode": "Creative"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestQueryRejectsUnknownSource(t *testing.T) {
	env := newTestEnv(t)

	w := env.postJSON(t, "/query", gin.H{"question": "q", "source": "web"})

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestQueryRejectsOutOfRangeTemperature(t *testing.T) {
	env := newTestEnv(t)

	for _, temp := range []float64{-0.1, 1.5} {
		w := env.postJSON(t, "/query", gin.H{"question": "q", "temperature": temp})
		if w.Code != http.StatusBadRequest {
			t.Errorf("temperature %v: status = %d, want 400", temp, w.Code)
		}
	}
}

func TestUploadThenQueryEndToEnd(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "AIza-user-key", map[string]string{
		"report.txt": "Revenue grew 10% in Q1.",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", w.Code, w.Body.String())
	}

	var uploadResp struct {
		DocumentNames []string           `json:"document_names"`
		ChunkCount    int                `json:"chunk_count"`
		Errors        []models.FileError `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &uploadResp); err != nil {
		t.Fatalf("unmarshal upload response: %v", err)
	}
	if len(uploadResp.DocumentNames) != 1 || uploadResp.DocumentNames[0] != "report.txt" {
		t.Errorf("document_names = %v", uploadResp.DocumentNames)
	}
	if uploadResp.ChunkCount != 1 {
		t.Errorf("chunk_count = %d, want 1", uploadResp.ChunkCount)
	}

	w = env.postJSON(t, "/query", gin.H{
		"question": "Revenue grew 10% in Q1.",
		"mode":     models.ModeGrounded,
		"api_key":  "AIza-user-key",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("query status = %d: %s", w.Code, w.Body.String())
	}

	var queryResp models.QueryResponse
	if err := json.Unmarshal(w.Body.Bytes(), &queryResp); err != nil {
		t.Fatalf("unmarshal query response: %v", err)
	}
	if queryResp.Answer != "the answer" {
		t.Errorf("answer = %q", queryResp.Answer)
	}
	if len(queryResp.Sources) != 1 || queryResp.Sources[0].Source != "report.txt" {
		t.Errorf("sources = %+v", queryResp.Sources)
	}
}

func TestUploadReportsPerFileErrors(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "AIza-user-key", map[string]string{
		"good.txt":  "fine content",
		"weird.xyz": "unsupported",
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}

	var resp struct {
		DocumentNames []string           `json:"document_names"`
		Errors        []models.FileError `json:"errors"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(resp.Errors) != 1 || resp.Errors[0].File != "weird.xyz" {
		t.Errorf("errors = %v", resp.Errors)
	}
	if len(resp.DocumentNames) != 1 || resp.DocumentNames[0] != "good.txt" {
		t.Errorf("document_names = %v", resp.DocumentNames)
	}
}

func TestUploadNoFiles(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "AIza-user-key", nil)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400: %s", w.Code, w.Body.String())
	}
}

func TestUploadRejectsMalformedKeyBeforeEmbedding(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "sk-openai-style", map[string]string{"a.txt": "content"})

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401: %s", w.Code, w.Body.String())
	}
	if env.embedder.calls != 0 {
		t.Errorf("embedder called %d times for a malformed key", env.embedder.calls)
	}
}

func TestUploadHostKeyCapBlocks(t *testing.T) {
	env := newTestEnv(t)
	for i := 0; i < 50; i++ {
		env.usage.Charge(env.cfg.GeminiAPIKey, 1)
	}

	// Host key (implicit, no api_key field) is blocked at the cap.
	w := env.upload(t, "", map[string]string{"a.txt": "content"})
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403: %s", w.Code, w.Body.String())
	}

	// A caller-supplied key is not subject to the host cap.
	w = env.upload(t, "AIza-user-key", map[string]string{"a.txt": "content"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
}

func TestUploadWithHostKeyChargesUsage(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "", map[string]string{"a.txt": "content"})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	if got := env.usage.Count(); got != 1 {
		t.Errorf("usage count = %d, want 1", got)
	}
}

func TestListDocumentsEmpty(t *testing.T) {
	env := newTestEnv(t)

	req := httptest.NewRequest(http.MethodGet, "/documents", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		DocumentNames []string `json:"document_names"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DocumentNames == nil || len(resp.DocumentNames) != 0 {
		t.Errorf("document_names = %v, want empty list", resp.DocumentNames)
	}
}

func TestUsageEndpoint(t *testing.T) {
	env := newTestEnv(t)
	env.usage.Charge(env.cfg.GeminiAPIKey, 3)

	req := httptest.NewRequest(http.MethodGet, "/usage", nil)
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", w.Code, w.Body.String())
	}
	var resp struct {
		DocumentsEmbedded int64 `json:"documents_embedded"`
		Cap               int64 `json:"cap"`
		HostKeyEnabled    bool  `json:"host_key_enabled"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if resp.DocumentsEmbedded != 3 || resp.Cap != 50 || !resp.HostKeyEnabled {
		t.Errorf("usage response = %+v", resp)
	}
}
