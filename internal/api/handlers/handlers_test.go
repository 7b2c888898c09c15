package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/core/affiliate"
	"github.com/markdave123-py/Fixpress/internal/core/batch"
	"github.com/markdave123-py/Fixpress/internal/core/searchconsole"
	"github.com/markdave123-py/Fixpress/internal/models"
	"github.com/markdave123-py/Fixpress/internal/services"
)

type fakeIngestor struct {
	res      *models.IngestResult
	err      error
	sources  []string
	uploaded string
}

func (f *fakeIngestor) Ingest(_ context.Context, source string) (*models.IngestResult, error) {
	f.sources = append(f.sources, source)
	return f.res, f.err
}

func (f *fakeIngestor) IngestReader(_ context.Context, name string, r io.Reader) (*models.IngestResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	f.sources = append(f.sources, name)
	f.uploaded = string(b)
	return f.res, f.err
}

type fakeGenerator struct {
	article   *models.GeneratedArticle
	err       error
	gotErrs   []string
	gotStatus string
	published []models.GeneratedArticle
}

func (f *fakeGenerator) GenerateForManual(_ context.Context, source, model string, errorDescs []string, status string) *models.BatchRunReport {
	f.gotErrs, f.gotStatus = errorDescs, status
	return &models.BatchRunReport{Total: len(errorDescs), Successful: len(errorDescs), Articles: []models.GeneratedArticle{}, ErrorsLog: []models.RunLogEntry{}}
}

func (f *fakeGenerator) GenerateOne(_ context.Context, chunks []models.TextChunk, errorDesc, model, status string) (*models.GeneratedArticle, error) {
	f.gotStatus = status
	return f.article, f.err
}

func (f *fakeGenerator) PublishAll(_ context.Context, target batch.Publisher, articles []models.GeneratedArticle) *models.PublishRunReport {
	f.published = articles
	return &models.PublishRunReport{Total: len(articles), Successful: len(articles)}
}

type fakePublisher struct {
	req models.PublishRequest
	res *models.PublishResult
	err error
}

func (f *fakePublisher) Publish(_ context.Context, req models.PublishRequest) (*models.PublishResult, error) {
	f.req = req
	return f.res, f.err
}

func sampleIngest() *models.IngestResult {
	return &models.IngestResult{
		Success:    true,
		FullText:   "\n--- Página 1 ---\nReinicie el dispositivo.",
		Chunks:     []models.TextChunk{{ID: "chunk_0", Text: "Reinicie el dispositivo."}},
		ChunkCount: 1,
		TextLength: 42,
	}
}

func sampleArticle() *models.GeneratedArticle {
	return &models.GeneratedArticle{
		Error:          "Luz roja",
		Title:          "Cómo solucionar la luz roja",
		AffiliateLinks: []models.AnnotatedProduct{{Name: "Cable USB", AffiliateLink: "https://www.amazon.es/s?k=Cable%20USB&tag=t-21"}},
		Metadata:       models.ArticleMetadata{Model: "Echo Dot", Error: "Luz roja", GeneratedAt: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)},
		Status:         models.StatusDraft,
	}
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func detail(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body["detail"]
}

func TestArticleHandler_GenerateArticle(t *testing.T) {
	ing := &fakeIngestor{res: sampleIngest()}
	gen := &fakeGenerator{article: sampleArticle()}
	h := NewArticleHandler(ing, gen, nil, services.NewArticleService(nil, nil))

	rec := postJSON(t, h.GenerateArticle, `{"pdf_url":"https://x.test/echo.pdf","error":"Luz roja","model":"Echo Dot"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Cómo solucionar la luz roja", resp.Article.Title)
	assert.Len(t, resp.AffiliateLinks, 1)
	assert.Equal(t, 1, resp.Metadata.PDFChunks)
	assert.Equal(t, 42, resp.Metadata.TextLength)
	assert.Equal(t, []string{"https://x.test/echo.pdf"}, ing.sources)
	assert.Equal(t, models.StatusDraft, gen.gotStatus)
}

type textSynth string

func (s textSynth) Synthesize(context.Context, []models.TextChunk, string, string) (string, error) {
	return string(s), nil
}

func TestArticleHandler_GenerateArticleUnparseableOutput(t *testing.T) {
	ing := &fakeIngestor{res: sampleIngest()}
	gen := batch.NewOrchestrator(ing, textSynth("Lo siento, no puedo generar JSON."), affiliate.NewLinker("", "t-21"), batch.NoPacer{}, batch.NoPacer{})
	h := NewArticleHandler(ing, gen, nil, services.NewArticleService(nil, nil))

	rec := postJSON(t, h.GenerateArticle, `{"pdf_url":"https://x.test/echo.pdf","error":"Luz roja","model":"Echo Dot"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp generateResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "Error en el formato de respuesta", resp.Article.Title)
	assert.Equal(t, "Lo siento, no puedo generar JSON.", resp.Article.RawOutput)
	assert.NotEmpty(t, resp.Article.ParseError)
	assert.Empty(t, resp.AffiliateLinks)
}

func TestArticleHandler_GenerateArticleErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		ingErr error
		genErr error
		code   int
	}{
		{name: "missing error", body: `{"pdf_url":"https://x.test/a.pdf","model":"Echo"}`, code: http.StatusBadRequest},
		{name: "bad json", body: `{`, code: http.StatusBadRequest},
		{name: "bad status", body: `{"pdf_url":"u","error":"e","model":"m","status":"future"}`, code: http.StatusBadRequest},
		{name: "fetch failure", body: `{"pdf_url":"u","error":"e","model":"m"}`,
			ingErr: &core.FetchError{URL: "u", StatusCode: 404}, code: http.StatusUnprocessableEntity},
		{name: "extraction failure", body: `{"pdf_url":"u","error":"e","model":"m"}`,
			ingErr: &core.ExtractionError{Source: "u", Err: errors.New("bad xref")}, code: http.StatusUnprocessableEntity},
		{name: "synthesis failure", body: `{"pdf_url":"u","error":"e","model":"m"}`,
			genErr: core.ErrSynthesisFailed, code: http.StatusBadGateway},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ing := &fakeIngestor{res: sampleIngest(), err: tt.ingErr}
			gen := &fakeGenerator{article: sampleArticle(), err: tt.genErr}
			h := NewArticleHandler(ing, gen, nil, nil)

			rec := postJSON(t, h.GenerateArticle, tt.body)
			assert.Equal(t, tt.code, rec.Code)
			assert.NotEmpty(t, detail(t, rec))
		})
	}
}

func TestArticleHandler_UploadPDF(t *testing.T) {
	ing := &fakeIngestor{res: sampleIngest()}
	h := NewArticleHandler(ing, &fakeGenerator{}, nil, services.NewArticleService(nil, nil))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "manual echo.pdf")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("%PDF-1.4 body"))
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	rec := httptest.NewRecorder()
	h.UploadPDF(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "manual echo.pdf", resp.Filename)
	assert.Equal(t, 1, resp.Chunks)
	assert.Equal(t, "--- Página 1 ---\nReinicie el dispositivo.", resp.Preview)
	assert.Empty(t, resp.ArchiveURL)
	assert.Equal(t, "%PDF-1.4 body", ing.uploaded)
}

func TestArticleHandler_UploadPDFWithoutFile(t *testing.T) {
	h := NewArticleHandler(&fakeIngestor{}, &fakeGenerator{}, nil, nil)
	req := httptest.NewRequest(http.MethodPost, "/upload_pdf", strings.NewReader("plain"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.UploadPDF(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestArticleHandler_PublishToWordPress(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		h := NewArticleHandler(&fakeIngestor{}, &fakeGenerator{}, nil, nil)
		rec := postJSON(t, h.PublishToWordPress, `{"title":"x"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("published", func(t *testing.T) {
		pub := &fakePublisher{res: &models.PublishResult{Success: true, PostID: 12, URL: "https://blog.test/?p=12", Status: "publish"}}
		h := NewArticleHandler(&fakeIngestor{}, &fakeGenerator{}, pub, nil)

		rec := postJSON(t, h.PublishToWordPress,
			`{"title":"T","content":{"introduction":"i"},"error":"Luz roja","model":"Echo","status":"publish","post_id":12}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, int64(12), pub.req.PostID)
		assert.Equal(t, models.StatusPublish, pub.req.Status)
		assert.Equal(t, "i", pub.req.Content.Introduction)

		var res models.PublishResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
		assert.Equal(t, "https://blog.test/?p=12", res.URL)
	})

	t.Run("default draft", func(t *testing.T) {
		pub := &fakePublisher{res: &models.PublishResult{Success: true}}
		h := NewArticleHandler(&fakeIngestor{}, &fakeGenerator{}, pub, nil)
		rec := postJSON(t, h.PublishToWordPress, `{"title":"T"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, models.StatusDraft, pub.req.Status)
	})

	t.Run("rejected", func(t *testing.T) {
		pub := &fakePublisher{err: &core.PublishError{Title: "T", Err: errors.New("status 403")}}
		h := NewArticleHandler(&fakeIngestor{}, &fakeGenerator{}, pub, nil)
		rec := postJSON(t, h.PublishToWordPress, `{"title":"T"}`)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Contains(t, detail(t, rec), "403")
	})

	t.Run("missing title", func(t *testing.T) {
		h := NewArticleHandler(&fakeIngestor{}, &fakeGenerator{}, &fakePublisher{}, nil)
		rec := postJSON(t, h.PublishToWordPress, `{"title":"  "}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestBatchHandler_BatchGenerate(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		code     int
		wantErrs int
	}{
		{name: "explicit errors", body: `{"pdf_url":"u","model":"m","errors":["a"," ","b"]}`, code: http.StatusOK, wantErrs: 2},
		{name: "common errors", body: `{"pdf_url":"u","model":"m","device_type":"alexa","use_common_errors":true,"errors":["ignored"]}`, code: http.StatusOK, wantErrs: 10},
		{name: "device type only", body: `{"pdf_url":"u","model":"m","device_type":"router"}`, code: http.StatusOK, wantErrs: 10},
		{name: "unknown device", body: `{"pdf_url":"u","model":"m","device_type":"toaster","use_common_errors":true}`, code: http.StatusBadRequest},
		{name: "no errors", body: `{"pdf_url":"u","model":"m","errors":[]}`, code: http.StatusBadRequest},
		{name: "missing model", body: `{"pdf_url":"u","errors":["a"]}`, code: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gen := &fakeGenerator{}
			h := NewBatchHandler(gen, nil, services.NewArticleService(nil, nil))

			rec := postJSON(t, h.BatchGenerate, tt.body)
			require.Equal(t, tt.code, rec.Code)
			if tt.code != http.StatusOK {
				return
			}
			assert.Len(t, gen.gotErrs, tt.wantErrs)

			var resp map[string]any
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.EqualValues(t, tt.wantErrs, resp["total"])
			assert.NotContains(t, resp, "run_id")
		})
	}
}

func TestBatchHandler_BatchPublish(t *testing.T) {
	t.Run("unconfigured", func(t *testing.T) {
		h := NewBatchHandler(&fakeGenerator{}, nil, nil)
		rec := postJSON(t, h.BatchPublish, `[{"title":"a"}]`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("empty", func(t *testing.T) {
		h := NewBatchHandler(&fakeGenerator{}, &fakePublisher{}, nil)
		rec := postJSON(t, h.BatchPublish, `[]`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("ok", func(t *testing.T) {
		gen := &fakeGenerator{}
		h := NewBatchHandler(gen, &fakePublisher{}, nil)
		rec := postJSON(t, h.BatchPublish, `[{"title":"a"},{"title":"b"}]`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.Len(t, gen.published, 2)
		assert.Equal(t, "b", gen.published[1].Title)

		var report models.PublishRunReport
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, 2, report.Total)
	})
}

func TestBatchHandler_DeviceTypes(t *testing.T) {
	h := NewBatchHandler(&fakeGenerator{}, nil, nil)
	rec := httptest.NewRecorder()
	h.DeviceTypes(rec, httptest.NewRequest(http.MethodGet, "/device_types", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		DeviceTypes []string            `json:"device_types"`
		Errors      map[string][]string `json:"errors"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []string{"alexa", "router", "smart_tv", "smart_home"}, resp.DeviceTypes)
	assert.Len(t, resp.Errors["smart_tv"], 10)
}

func TestBatchHandler_RunArticlesWithoutStorage(t *testing.T) {
	h := NewBatchHandler(&fakeGenerator{}, nil, services.NewArticleService(nil, nil))
	r := chi.NewRouter()
	r.Get("/runs/{id}/articles", h.RunArticles)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/runs/abc/articles", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsHandler_Unconfigured(t *testing.T) {
	var client *searchconsole.Client
	h := NewMetricsHandler(client)

	rec := httptest.NewRecorder()
	h.Site(rec, httptest.NewRequest(http.MethodGet, "/metrics/site?days=7", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.TopQueries(rec, httptest.NewRequest(http.MethodGet, "/metrics/queries", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/metrics/page?url=https://blog.test/a", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var page searchconsole.PagePerformance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &page))
	assert.True(t, page.IsMock)
	assert.Equal(t, "https://blog.test/a", page.URL)

	rec = httptest.NewRecorder()
	h.Page(rec, httptest.NewRequest(http.MethodGet, "/metrics/page", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Articles, `{"urls":["https://blog.test/a","https://blog.test/b"]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var perf searchconsole.ArticlesPerformance
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &perf))
	assert.Equal(t, 2, perf.TotalArticles)
}

func TestHealthHandler(t *testing.T) {
	var checkCalls atomic.Int32
	h := NewHealthHandler(map[string]HealthCheck{
		"llm":       func(context.Context) error { checkCalls.Add(1); return nil },
		"wordpress": nil,
		"database":  func(context.Context) error { checkCalls.Add(1); return errors.New("connection refused") },
	})

	rec := httptest.NewRecorder()
	h.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var resp healthResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "degraded", resp.Status)
	assert.Equal(t, "ok", resp.Checks["llm"])
	assert.Equal(t, "not configured", resp.Checks["wordpress"])
	assert.Equal(t, "error: connection refused", resp.Checks["database"])
	assert.Equal(t, int32(2), checkCalls.Load())

	healthy := NewHealthHandler(map[string]HealthCheck{"llm": func(context.Context) error { return nil }, "search_console": nil})
	rec = httptest.NewRecorder()
	healthy.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "healthy", resp.Status)
}

func TestAuthHandler_Login(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("operador"), bcrypt.MinCost)
	require.NoError(t, err)
	h := NewAuthHandler("s3cret", string(hash))

	rec := postJSON(t, h.Login, `{"password":"wrong"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = postJSON(t, h.Login, `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = postJSON(t, h.Login, `{"password":"operador"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	claims := jwt.MapClaims{}
	tok, err := jwt.ParseWithClaims(resp["token"], claims, func(*jwt.Token) (any, error) { return []byte("s3cret"), nil })
	require.NoError(t, err)
	assert.True(t, tok.Valid)
	sub, _ := claims.GetSubject()
	assert.Equal(t, "operator", sub)

	rec = postJSON(t, NewAuthHandler("", "").Login, `{"password":"x"}`)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestPreviewAndIntParam(t *testing.T) {
	assert.Equal(t, "abc", preview("  abc ", 5))
	assert.Equal(t, "ab...", preview("abcdef", 2))

	req := httptest.NewRequest(http.MethodGet, "/?days=9000&bad=x", nil)
	assert.Equal(t, 480, intParam(req, "days", 30, 480))
	assert.Equal(t, 30, intParam(req, "bad", 30, 480))
	assert.Equal(t, 30, intParam(req, "missing", 30, 480))
}

func TestProductsHandler(t *testing.T) {
	h := NewProductsHandler(affiliate.NewLinker("", "t-21"))
	r := chi.NewRouter()
	r.Get("/products", h.Categories)
	r.Get("/products/{category}", h.Recommendations)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var cats map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cats))
	assert.Contains(t, cats["categories"], "herramientas")

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/Herramientas", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Category string                    `json:"category"`
		Products []models.AnnotatedProduct `json:"products"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "herramientas", resp.Category)
	require.Len(t, resp.Products, 3)
	assert.Equal(t, "https://www.amazon.es/s?k=Mult%C3%ADmetro%20digital%20herramienta%20diagn%C3%B3stico&tag=t-21", resp.Products[0].AffiliateLink)

	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/products/repuestos", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, detail(t, rec), "repuestos")
}
