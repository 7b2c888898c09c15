package affiliate

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/markdave123-py/Fixpress/internal/models"
)

const defaultBaseURL = "https://www.amazon.es"

// Linker builds tagged marketplace links. It makes no network calls and holds
// no state beyond its configuration, so the same input always gives the same link.
type Linker struct {
	baseURL string
	tag     string
}

func NewLinker(baseURL, tag string) *Linker {
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Linker{baseURL: strings.TrimRight(baseURL, "/"), tag: tag}
}

// Annotate attaches a search term and affiliate link to every product, keeping order.
func (l *Linker) Annotate(products []models.ProductStub) []models.AnnotatedProduct {
	out := make([]models.AnnotatedProduct, 0, len(products))
	for _, p := range products {
		term := strings.TrimSpace(p.Name + " " + p.Type)
		out = append(out, models.AnnotatedProduct{
			Name:          p.Name,
			Type:          p.Type,
			Reason:        p.Reason,
			AffiliateLink: l.SearchLink(p.Name, term),
			SearchTerm:    term,
		})
	}
	return out
}

// SearchLink links to a marketplace search for searchTerm, or for name when the term is empty.
func (l *Linker) SearchLink(name, searchTerm string) string {
	q := searchTerm
	if q == "" {
		q = name
	}
	return fmt.Sprintf("%s/s?k=%s&tag=%s", l.baseURL, quote(q), l.tag)
}

// ProductLink links straight to a catalogue item by ASIN.
func (l *Linker) ProductLink(asin string) string {
	return fmt.Sprintf("%s/dp/%s?tag=%s", l.baseURL, asin, l.tag)
}

// CategoryRecommendations returns the annotated stock products of a category,
// or an empty list for unknown categories.
func (l *Linker) CategoryRecommendations(category string) []models.AnnotatedProduct {
	return l.Annotate(catalogue[strings.ToLower(category)])
}

// Categories lists the stock product categories in sorted order.
func (l *Linker) Categories() []string {
	names := make([]string, 0, len(catalogue))
	for name := range catalogue {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// quote percent-encodes s with %20 for spaces and keeps '/' as is.
func quote(s string) string {
	q := url.QueryEscape(s)
	q = strings.ReplaceAll(q, "+", "%20")
	return strings.ReplaceAll(q, "%2F", "/")
}

var catalogue = map[string][]models.ProductStub{
	"herramientas": {
		{Name: "Multímetro digital", Type: "herramienta diagnóstico"},
		{Name: "Destornillador de precisión", Type: "kit herramientas"},
		{Name: "Alicate pelacables", Type: "herramienta"},
	},
	"cables": {
		{Name: "Cable HDMI 2.1", Type: "cable"},
		{Name: "Cable Ethernet Cat 6", Type: "cable red"},
		{Name: "Cable USB-C", Type: "cable carga"},
	},
	"domotica": {
		{Name: "Hub Zigbee", Type: "controlador"},
		{Name: "Sensor temperatura", Type: "sensor"},
		{Name: "Enchufe inteligente", Type: "actuador"},
	},
}
