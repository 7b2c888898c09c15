package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	sc "google.golang.org/api/searchconsole/v1"

	"github.com/markdave123-py/Fixpress/internal/core/searchconsole"
)

// MetricsSource reads search performance. A nil *searchconsole.Client satisfies it.
type MetricsSource interface {
	SiteMetrics(ctx context.Context, days int, dimensions []string) (*searchconsole.SiteMetrics, error)
	PagePerformance(ctx context.Context, pageURL string, days int) (*searchconsole.PagePerformance, error)
	TopQueries(ctx context.Context, limit int) ([]*sc.ApiDataRow, error)
	ArticlesPerformance(ctx context.Context, urls []string) *searchconsole.ArticlesPerformance
}

type MetricsHandler struct {
	source MetricsSource
}

func NewMetricsHandler(source MetricsSource) *MetricsHandler {
	return &MetricsHandler{source: source}
}

func (h *MetricsHandler) Site(w http.ResponseWriter, r *http.Request) {
	days := intParam(r, "days", 30, 480)
	var dims []string
	if v := r.URL.Query().Get("dimensions"); v != "" {
		dims = strings.Split(v, ",")
	}

	m, err := h.source.SiteMetrics(r.Context(), days, dims)
	if err != nil {
		renderMetricsError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, m)
}

func (h *MetricsHandler) Page(w http.ResponseWriter, r *http.Request) {
	pageURL := strings.TrimSpace(r.URL.Query().Get("url"))
	if pageURL == "" {
		renderError(w, http.StatusBadRequest, "url is required")
		return
	}
	days := intParam(r, "days", 30, 480)

	p, err := h.source.PagePerformance(r.Context(), pageURL, days)
	if err != nil {
		renderMetricsError(w, err)
		return
	}
	renderJSON(w, http.StatusOK, p)
}

func (h *MetricsHandler) TopQueries(w http.ResponseWriter, r *http.Request) {
	rows, err := h.source.TopQueries(r.Context(), intParam(r, "limit", 20, 1000))
	if err != nil {
		renderMetricsError(w, err)
		return
	}
	if rows == nil {
		rows = []*sc.ApiDataRow{}
	}
	renderJSON(w, http.StatusOK, map[string]any{"queries": rows})
}

type articlesRequest struct {
	URLs []string `json:"urls"`
}

// Articles summarises the performance of published article urls.
func (h *MetricsHandler) Articles(w http.ResponseWriter, r *http.Request) {
	var req articlesRequest
	if err := decodeJSON(r, &req); err != nil || len(req.URLs) == 0 {
		renderError(w, http.StatusBadRequest, "urls are required")
		return
	}
	renderJSON(w, http.StatusOK, h.source.ArticlesPerformance(r.Context(), req.URLs))
}

func renderMetricsError(w http.ResponseWriter, err error) {
	if errors.Is(err, searchconsole.ErrNotConfigured) {
		renderError(w, http.StatusServiceUnavailable, "Search Console no está configurado")
		return
	}
	renderError(w, http.StatusBadGateway, err.Error())
}
