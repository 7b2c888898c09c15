package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	md "github.com/JohannesKaufmann/html-to-markdown"

	"github.com/markdave123-py/Fixpress/internal/core/wordpress"
	"github.com/markdave123-py/Fixpress/internal/models"
)

var slugStrip = regexp.MustCompile(`[^a-z0-9]+`)

// exportMarkdown writes one markdown file per article into dir and returns the paths.
func exportMarkdown(dir string, articles []models.GeneratedArticle) ([]string, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	converter := md.NewConverter("", true, nil)
	paths := make([]string, 0, len(articles))
	for i, a := range articles {
		html := wordpress.FormatHTML(a.Title, a.Content, a.AffiliateLinks)
		markdown, err := converter.ConvertString(html)
		if err != nil {
			return paths, fmt.Errorf("convert %q: %w", a.Title, err)
		}

		path := filepath.Join(dir, fmt.Sprintf("%02d-%s.md", i+1, slug(a.Error)))
		if err := os.WriteFile(path, []byte(markdown+"\n"), 0o600); err != nil {
			return paths, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// runReport is the JSON document written by --report.
type runReport struct {
	Job         *Job                     `json:"job"`
	RunID       string                   `json:"run_id,omitempty"`
	Generation  *models.BatchRunReport   `json:"generation"`
	Publication *models.PublishRunReport `json:"publication,omitempty"`
}

func writeReport(path string, rep runReport) error {
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}

// slug folds an error description into a file name fragment.
func slug(s string) string {
	r := strings.NewReplacer("á", "a", "é", "e", "í", "i", "ó", "o", "ú", "u", "ñ", "n", "ü", "u")
	out := strings.Trim(slugStrip.ReplaceAllString(r.Replace(strings.ToLower(s)), "-"), "-")
	if out == "" {
		return "article"
	}
	if len(out) > 60 {
		out = strings.TrimRight(out[:60], "-")
	}
	return out
}
