package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Fixpress/internal/core/batch"
	"github.com/markdave123-py/Fixpress/internal/models"
	"github.com/markdave123-py/Fixpress/internal/services"
)

// BatchHandler runs generation and publication batches.
type BatchHandler struct {
	gen       Generator
	publisher batch.Publisher
	store     *services.ArticleService
}

func NewBatchHandler(gen Generator, publisher batch.Publisher, store *services.ArticleService) *BatchHandler {
	return &BatchHandler{gen: gen, publisher: publisher, store: store}
}

type batchGenerateRequest struct {
	PDFURL          string   `json:"pdf_url"`
	Model           string   `json:"model"`
	DeviceType      string   `json:"device_type"`
	UseCommonErrors bool     `json:"use_common_errors"`
	Errors          []string `json:"errors"`
	Status          string   `json:"status"`
}

type batchGenerateResponse struct {
	*models.BatchRunReport
	RunID string `json:"run_id,omitempty"`
}

// BatchGenerate ingests the manual once and writes one article per error.
// The report is returned as is; an aborted run still answers 200.
func (h *BatchHandler) BatchGenerate(w http.ResponseWriter, r *http.Request) {
	var req batchGenerateRequest
	if err := decodeJSON(r, &req); err != nil {
		renderError(w, http.StatusBadRequest, "invalid body")
		return
	}
	req.PDFURL, req.Model = strings.TrimSpace(req.PDFURL), strings.TrimSpace(req.Model)
	if req.PDFURL == "" || req.Model == "" {
		renderError(w, http.StatusBadRequest, "pdf_url and model are required")
		return
	}
	status, ok := normalizeStatus(req.Status)
	if !ok {
		renderError(w, http.StatusBadRequest, "status must be draft or publish")
		return
	}

	errs := make([]string, 0, len(req.Errors))
	for _, e := range req.Errors {
		if e = strings.TrimSpace(e); e != "" {
			errs = append(errs, e)
		}
	}
	if req.UseCommonErrors || (len(errs) == 0 && req.DeviceType != "") {
		errs = batch.CommonErrors(req.DeviceType)
		if errs == nil {
			renderError(w, http.StatusBadRequest, "unknown device_type "+req.DeviceType)
			return
		}
	}
	if len(errs) == 0 {
		renderError(w, http.StatusBadRequest, "Debes especificar al menos un error o seleccionar errores comunes")
		return
	}

	report := h.gen.GenerateForManual(r.Context(), req.PDFURL, req.Model, errs, status)

	resp := batchGenerateResponse{BatchRunReport: report}
	if run := h.store.SaveRun(r.Context(), req.PDFURL, req.Model, report); run != nil {
		resp.RunID = run.ID
	}
	renderJSON(w, http.StatusOK, resp)
}

// BatchPublish publishes every posted article in order.
func (h *BatchHandler) BatchPublish(w http.ResponseWriter, r *http.Request) {
	if h.publisher == nil {
		renderError(w, http.StatusServiceUnavailable, "WordPress no está configurado")
		return
	}

	var articles []models.GeneratedArticle
	if err := decodeJSON(r, &articles); err != nil {
		renderError(w, http.StatusBadRequest, "invalid body")
		return
	}
	if len(articles) == 0 {
		renderError(w, http.StatusBadRequest, "no articles to publish")
		return
	}

	renderJSON(w, http.StatusOK, h.gen.PublishAll(r.Context(), h.publisher, articles))
}

// DeviceTypes lists the device catalogue with its common errors.
func (h *BatchHandler) DeviceTypes(w http.ResponseWriter, r *http.Request) {
	types := batch.DeviceTypes()
	errs := make(map[string][]string, len(types))
	for _, t := range types {
		errs[t] = batch.CommonErrors(t)
	}
	renderJSON(w, http.StatusOK, map[string]any{"device_types": types, "errors": errs})
}

// RunArticles lists the stored articles of one batch run.
func (h *BatchHandler) RunArticles(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	records, err := h.store.RunArticles(r.Context(), id)
	if errors.Is(err, services.ErrStorageDisabled) {
		renderError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	if err != nil {
		renderError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []models.ArticleRecord{}
	}
	renderJSON(w, http.StatusOK, map[string]any{"run_id": id, "articles": records})
}
