package synthesis

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/markdave123-py/Fixpress/internal/models"
)

// jsonBlock spans the first '{' to the last '}'.
var jsonBlock = regexp.MustCompile(`(?s)\{.*\}`)

// ParseArticle decodes model output into an ArticlePayload. Absent or
// mistyped fields become empty values. Output without a decodable JSON object
// yields a placeholder payload with Malformed() true.
func ParseArticle(raw string) models.ArticlePayload {
	block := jsonBlock.FindString(raw)
	if block == "" {
		return models.ArticlePayload{
			Title:               "Error en el formato de respuesta",
			SolutionSteps:       []string{},
			CommonFailures:      []string{},
			RecommendedProducts: []models.ProductStub{},
			Raw:                 raw,
			ParseError:          "No se pudo parsear la respuesta como JSON",
		}
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(block), &fields); err != nil {
		return models.ArticlePayload{
			Title:               "Error al parsear respuesta",
			SolutionSteps:       []string{},
			CommonFailures:      []string{},
			RecommendedProducts: []models.ProductStub{},
			Raw:                 raw,
			ParseError:          fmt.Sprintf("Error de JSON: %v", err),
		}
	}

	return models.ArticlePayload{
		Title:               str(fields["title"]),
		Introduction:        str(fields["introduction"]),
		ErrorMeaning:        str(fields["error_meaning"]),
		Diagnosis:           str(fields["diagnosis"]),
		SolutionSteps:       strList(fields["solution_steps"]),
		CommonFailures:      strList(fields["common_failures"]),
		RecommendedProducts: products(fields["recommended_products"]),
	}
}

func str(raw json.RawMessage) string {
	var s string
	if len(raw) == 0 || json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

// strList accepts a list of strings or a single string.
func strList(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		if s := strings.TrimSpace(str(raw)); s != "" {
			out = append(out, s)
		}
		return out
	}
	for _, it := range items {
		if s := str(it); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func products(raw json.RawMessage) []models.ProductStub {
	out := []models.ProductStub{}
	var items []map[string]json.RawMessage
	if len(raw) == 0 || json.Unmarshal(raw, &items) != nil {
		return out
	}
	for _, it := range items {
		p := models.ProductStub{Name: str(it["name"]), Type: str(it["type"]), Reason: str(it["reason"])}
		if p.Name == "" && p.Type == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
