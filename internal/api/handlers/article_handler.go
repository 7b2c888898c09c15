package handlers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/core/batch"
	"github.com/markdave123-py/Fixpress/internal/core/ingestion_engine"
	"github.com/markdave123-py/Fixpress/internal/models"
	"github.com/markdave123-py/Fixpress/internal/services"
)

// Generator is the part of the batch orchestrator the handlers drive.
type Generator interface {
	GenerateForManual(ctx context.Context, source, model string, errorDescs []string, status string) *models.BatchRunReport
	GenerateOne(ctx context.Context, chunks []models.TextChunk, errorDesc, model, status string) (*models.GeneratedArticle, error)
	PublishAll(ctx context.Context, target batch.Publisher, articles []models.GeneratedArticle) *models.PublishRunReport
}

const previewRunes = 500

// ArticleHandler serves single-article generation, manual uploads and single publication.
// publisher is nil when no publication target is configured.
type ArticleHandler struct {
	ingestor  ingestion_engine.Ingestor
	gen       Generator
	publisher batch.Publisher
	store     *services.ArticleService
	maxUpload int64
}

func NewArticleHandler(ing ingestion_engine.Ingestor, gen Generator, publisher batch.Publisher, store *services.ArticleService) *ArticleHandler {
	return &ArticleHandler{ingestor: ing, gen: gen, publisher: publisher, store: store, maxUpload: 50 << 20}
}

type generateRequest struct {
	PDFURL string `json:"pdf_url"`
	Error  string `json:"error"`
	Model  string `json:"model"`
	Status string `json:"status"`
}

type generateMetadata struct {
	Model       string    `json:"model"`
	Error       string    `json:"error"`
	PDFChunks   int       `json:"pdf_chunks"`
	TextLength  int       `json:"text_length"`
	GeneratedAt time.Time `json:"generated_at"`
}

type generateResponse struct {
	Success        bool                      `json:"success"`
	Article        *models.GeneratedArticle  `json:"article"`
	AffiliateLinks []models.AnnotatedProduct `json:"affiliate_links"`
	Metadata       generateMetadata          `json:"metadata"`
}

// GenerateArticle ingests one manual and writes one article for one error.
func (h *ArticleHandler) GenerateArticle(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.PDFURL, req.Error, req.Model = strings.TrimSpace(req.PDFURL), strings.TrimSpace(req.Error), strings.TrimSpace(req.Model)
	if req.PDFURL == "" || req.Error == "" || req.Model == "" {
		renderError(w, http.StatusBadRequest, "pdf_url, error and model are required")
		return
	}
	status, ok := normalizeStatus(req.Status)
	if !ok {
		renderError(w, http.StatusBadRequest, "status must be draft or publish")
		return
	}

	ingested, err := h.ingestor.Ingest(r.Context(), req.PDFURL)
	if err != nil {
		renderIngestError(w, err)
		return
	}

	article, err := h.gen.GenerateOne(r.Context(), ingested.Chunks, req.Error, req.Model, status)
	if err != nil {
		log.Printf("[WARN] generate article for %q: %v", req.Error, err)
		renderError(w, http.StatusBadGateway, fmt.Sprintf("Error generando artículo: %v", err))
		return
	}
	h.store.SaveArticle(r.Context(), *article)

	renderJSON(w, http.StatusOK, generateResponse{
		Success:        true,
		Article:        article,
		AffiliateLinks: article.AffiliateLinks,
		Metadata: generateMetadata{
			Model:       req.Model,
			Error:       req.Error,
			PDFChunks:   ingested.ChunkCount,
			TextLength:  ingested.TextLength,
			GeneratedAt: article.Metadata.GeneratedAt,
		},
	})
}

type uploadResponse struct {
	Success    bool   `json:"success"`
	Filename   string `json:"filename"`
	Chunks     int    `json:"chunks"`
	TextLength int    `json:"text_length"`
	Preview    string `json:"preview"`
	ArchiveURL string `json:"archive_url,omitempty"`
}

// UploadPDF ingests a multipart "file" upload and archives it when object storage is configured.
func (h *ArticleHandler) UploadPDF(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		renderError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		renderError(w, http.StatusBadRequest, "invalid file")
		return
	}
	defer file.Close()

	name := filepath.Base(header.Filename)
	body, err := io.ReadAll(file)
	if err != nil {
		renderError(w, http.StatusBadRequest, "could not read file")
		return
	}

	ingested, err := h.ingestor.IngestReader(r.Context(), name, bytes.NewReader(body))
	if err != nil {
		renderIngestError(w, err)
		return
	}
	archived := h.store.ArchiveManual(r.Context(), name, bytes.NewReader(body))

	renderJSON(w, http.StatusOK, uploadResponse{
		Success:    true,
		Filename:   name,
		Chunks:     ingested.ChunkCount,
		TextLength: ingested.TextLength,
		Preview:    preview(ingested.FullText, previewRunes),
		ArchiveURL: archived,
	})
}

type publishRequest struct {
	Title          string                    `json:"title"`
	Content        models.ArticleContent     `json:"content"`
	AffiliateLinks []models.AnnotatedProduct `json:"affiliate_links"`
	Error          string                    `json:"error"`
	Model          string                    `json:"model"`
	Status         string                    `json:"status"`
	PostID         int64                     `json:"post_id"`
}

// PublishToWordPress publishes one article. It answers 503 without a publication target.
func (h *ArticleHandler) PublishToWordPress(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		renderError(w, http.StatusServiceUnavailable, "WordPress no está configurado")
		return
	}

	var req publishRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		renderError(w, http.StatusBadRequest, "title is required")
		return
	}
	status, ok := normalizeStatus(req.Status)
	if !ok {
		renderError(w, http.StatusBadRequest, "status must be draft or publish")
		return
	}

	res, err := h.publisher.Publish(r.Context(), models.PublishRequest{
		Title:          req.Title,
		Content:        req.Content,
		AffiliateLinks: req.AffiliateLinks,
		Error:          req.Error,
		Model:          req.Model,
		Status:         status,
		PostID:         req.PostID,
	})
	if err != nil {
		log.Printf("[WARN] publish %q: %v", req.Title, err)
		renderError(w, http.StatusBadGateway, err.Error())
		return
	}
	renderJSON(w, http.StatusOK, res)
}

func renderIngestError(w http.ResponseWriter, err error) {
	if core.IsIngestError(err) {
		renderError(w, http.StatusUnprocessableEntity, "No se pudo procesar el PDF: "+err.Error())
		return
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		renderError(w, http.StatusGatewayTimeout, err.Error())
		return
	}
	renderError(w, http.StatusInternalServerError, err.Error())
}

func normalizeStatus(s string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", models.StatusDraft:
		return models.StatusDraft, true
	case models.StatusPublish:
		return models.StatusPublish, true
	default:
		return "", false
	}
}

func preview(text string, n int) string {
	runes := []rune(strings.TrimSpace(text))
	if len(runes) <= n {
		return string(runes)
	}
	return string(runes[:n]) + "..."
}
