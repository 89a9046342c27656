package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dgallion1/docseg/internal/chunker"
	"github.com/dgallion1/docseg/internal/config"
	"github.com/dgallion1/docseg/internal/loader"
	"github.com/dgallion1/docseg/internal/markdown"
	"github.com/dgallion1/docseg/internal/metrics"
	"github.com/dgallion1/docseg/internal/pagemodel"
	"github.com/dgallion1/docseg/internal/parsing"
	"github.com/dgallion1/docseg/internal/pipeline"
	"github.com/dgallion1/docseg/internal/store"
)

const (
	testKey = "secret"
	doc     = "# TITLE\n\nSome opening text.\n\n| A | B |\n| - | - |\n| 1 | 2 |\n"
)

func newTestServer(t *testing.T) (*Server, *pipeline.Orchestrator) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.Default()
	cfg.APIKey = testKey

	st := store.New(afero.NewMemMapFs(), "data")
	m := metrics.New()
	worker := pipeline.NewWorker(pipeline.WorkerDeps{
		Loader:  loader.New(loader.Options{}),
		Chunker: chunker.NewEngine(log),
		Parser: parsing.NewEngine(parsing.Deps{
			Renderer:    markdown.NewRenderer(),
			Partitioner: markdown.NewPartitioner(),
		}, log),
		Store:   st,
		Metrics: m,
		Defaults: pipeline.Defaults{
			PDFLoader:      cfg.PDFLoader,
			MarkdownLoader: cfg.MarkdownLoader,
			ChunkSize:      cfg.DefaultChunkSize,
		},
	}, log)
	orch := pipeline.NewOrchestrator(worker, 1, 10, time.Hour, m, log)
	orch.Start(context.Background())
	t.Cleanup(orch.Stop)
	return NewServer(orch, st, m, log, cfg), orch
}

func multipartRequest(t *testing.T, path, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, path, &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func authed(method, path string) *http.Request {
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Authorization", "Bearer "+testKey)
	return req
}

func serve(s *Server, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func TestHealthIsPublic(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuthRequired(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, httptest.NewRequest(http.MethodGet, "/api/strategies", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	rec = serve(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "invalid api key")
}

func TestStrategies(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, authed(http.MethodGet, "/api/strategies"))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Chunking []string            `json:"chunking"`
		Parsing  []string            `json:"parsing"`
		Loading  map[string][]string `json:"loading"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"by_pages", "by_paragraphs", "by_sentences", "fixed_size"}, body.Chunking)
	assert.Equal(t, []string{"all_text", "by_pages", "by_titles", "full_parse", "text_and_tables"}, body.Parsing)
	assert.Equal(t, []string{"plain", "structured"}, body.Loading["markdown"])
}

func TestChunkSync(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/chunk", "notes.md", []byte(doc), map[string]string{
		"strategy":   "fixed_size",
		"chunk_size": "500",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got pagemodel.ChunkedDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "notes.md", got.Filename)
	assert.Equal(t, "fixed_size", got.ChunkingMethod)
	require.NotNil(t, got.ChunkSize)
	assert.Equal(t, 500, *got.ChunkSize)
	assert.Equal(t, 3, got.TotalChunks)
}

func TestParseSyncAndSave(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/parse", "notes.md", []byte(doc), map[string]string{
		"strategy": "text_and_tables",
		"save":     "true",
	}))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	name := rec.Header().Get("X-Docseg-Record")
	require.NotEmpty(t, name)

	var got pagemodel.ParsedDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.NotEmpty(t, got.Content)
	assert.Equal(t, pagemodel.ElementTable, got.Content[0].Type)
	assert.Equal(t, "| A | B |\n| --- | --- |\n| 1 | 2 |", got.Content[0].Content)

	rec = serve(s, authed(http.MethodGet, "/api/documents/parsed-docs"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), name)

	rec = serve(s, authed(http.MethodGet, "/api/documents/parsed-docs/"+name))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"parsing_method":"text_and_tables"`)
}

func TestSyncErrors(t *testing.T) {
	s, _ := newTestServer(t)

	rec := serve(s, multipartRequest(t, "/api/chunk", "notes.md", []byte(doc), map[string]string{"strategy": "semantic"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/parse", "notes.docx", []byte(doc), map[string]string{"strategy": "all_text"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/chunk", "notes.md", []byte(doc), map[string]string{"strategy": "by_pages", "chunk_size": "-4"}))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, multipartRequest(t, "/api/parse", "fake.pdf", []byte(doc), map[string]string{"strategy": "all_text"}))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
}

func TestJobLifecycle(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, multipartRequest(t, "/api/jobs", "notes.md", []byte(doc), map[string]string{
		"mode":     "chunk",
		"strategy": "by_paragraphs",
	}))
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	var accepted struct {
		JobID   string `json:"job_id"`
		PollURL string `json:"poll_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &accepted))
	require.NotEmpty(t, accepted.JobID)

	require.Eventually(t, func() bool {
		rec := serve(s, authed(http.MethodGet, accepted.PollURL))
		var snap pipeline.JobSnapshot
		return json.Unmarshal(rec.Body.Bytes(), &snap) == nil && snap.Status == pipeline.StatusCompleted
	}, 5*time.Second, 10*time.Millisecond)

	rec = serve(s, authed(http.MethodGet, accepted.PollURL+"/result"))
	require.Equal(t, http.StatusOK, rec.Code)
	var got pagemodel.ChunkedDocument
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "by_paragraphs", got.ChunkingMethod)
	assert.Positive(t, got.TotalChunks)
}

func TestJobNotFound(t *testing.T) {
	s, _ := newTestServer(t)
	assert.Equal(t, http.StatusNotFound, serve(s, authed(http.MethodGet, "/api/jobs/nope")).Code)
	assert.Equal(t, http.StatusNotFound, serve(s, authed(http.MethodGet, "/api/jobs/nope/result")).Code)
}

func TestDocumentsUnknownKind(t *testing.T) {
	s, _ := newTestServer(t)
	rec := serve(s, authed(http.MethodGet, "/api/documents/secrets"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(s, authed(http.MethodGet, "/api/documents/chunked-docs/missing.json"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestProcessingStatsAndMetrics(t *testing.T) {
	s, _ := newTestServer(t)
	serve(s, multipartRequest(t, "/api/chunk", "notes.md", []byte(doc), map[string]string{"strategy": "by_pages"}))

	rec := serve(s, authed(http.MethodGet, "/api/stats/processing"))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"load"`)
	assert.Contains(t, rec.Body.String(), `"chunk"`)

	rec = serve(s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "docseg_documents_total")
}

func TestCheckContent(t *testing.T) {
	assert.NoError(t, checkContent("a.md", []byte("# hi\n")))
	assert.NoError(t, checkContent("a.pdf", []byte("%PDF-1.4\n%âãÏÓ\n")))
	assert.ErrorIs(t, checkContent("a.pdf", []byte("# hi\n")), errContentMismatch)
}

func TestSanitizeFilename(t *testing.T) {
	assert.Equal(t, "passwd", sanitizeFilename("../../etc/passwd"))
	assert.Equal(t, "unnamed", sanitizeFilename(""))
	assert.Equal(t, "a.md", sanitizeFilename("dir/a.md"))
}

func TestRequestLoggerRecordsStatus(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(slog.NewJSONHandler(&buf, nil))
	h := RequestLogger(log)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		jsonError(w, "boom", http.StatusInternalServerError)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/x", nil))

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, float64(http.StatusInternalServerError), entry["status"])
	assert.Equal(t, "/x", entry["path"])
	assert.Positive(t, entry["bytes"])
}

func TestAuthMissingBearer(t *testing.T) {
	s, _ := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/api/strategies", nil)
	req.Header.Set("Authorization", "Basic "+testKey)
	rec := serve(s, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing authorization")
}
