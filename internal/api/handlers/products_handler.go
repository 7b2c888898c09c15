package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/markdave123-py/Fixpress/internal/models"
)

// Recommender exposes the stock product catalogue with affiliate links.
type Recommender interface {
	Categories() []string
	CategoryRecommendations(category string) []models.AnnotatedProduct
}

type ProductsHandler struct {
	rec Recommender
}

func NewProductsHandler(rec Recommender) *ProductsHandler {
	return &ProductsHandler{rec: rec}
}

// Categories lists the product categories.
func (h *ProductsHandler) Categories(w http.ResponseWriter, r *http.Request) {
	renderJSON(w, http.StatusOK, map[string][]string{"categories": h.rec.Categories()})
}

// Recommendations returns the linked products of one category, 404 for unknown ones.
func (h *ProductsHandler) Recommendations(w http.ResponseWriter, r *http.Request) {
	category := strings.TrimSpace(chi.URLParam(r, "category"))
	products := h.rec.CategoryRecommendations(category)
	if len(products) == 0 {
		renderError(w, http.StatusNotFound, "unknown category: "+category)
		return
	}
	renderJSON(w, http.StatusOK, map[string]any{"category": strings.ToLower(category), "products": products})
}
