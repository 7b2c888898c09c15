package wordpress

import (
	"fmt"
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"github.com/markdave123-py/Fixpress/internal/models"
)

const excerptLen = 160

// model output is plain text; any markup in it is stripped and escaped
var textPolicy = bluemonday.StrictPolicy()

// FormatHTML renders an article as WordPress post HTML. Empty sections are skipped.
func FormatHTML(title string, content models.ArticleContent, links []models.AnnotatedProduct) string {
	var b strings.Builder

	fmt.Fprintf(&b, "<h1>%s</h1>\n\n", clean(title))

	if content.Introduction != "" {
		fmt.Fprintf(&b, "<p><strong>%s</strong></p>\n\n", clean(content.Introduction))
	}
	if content.ErrorMeaning != "" {
		b.WriteString("<h2>¿Qué significa este error?</h2>\n")
		fmt.Fprintf(&b, "<p>%s</p>\n\n", clean(content.ErrorMeaning))
	}
	if content.Diagnosis != "" {
		b.WriteString("<h2>Diagnóstico</h2>\n")
		fmt.Fprintf(&b, "<p>%s</p>\n\n", clean(content.Diagnosis))
	}
	if len(content.SolutionSteps) > 0 {
		b.WriteString("<h2>Solución paso a paso</h2>\n<ol>\n")
		writeItems(&b, content.SolutionSteps)
		b.WriteString("</ol>\n\n")
	}
	if len(content.CommonFailures) > 0 {
		b.WriteString("<h2>Fallos comunes relacionados</h2>\n<ul>\n")
		writeItems(&b, content.CommonFailures)
		b.WriteString("</ul>\n\n")
	}

	if len(links) > 0 {
		b.WriteString("<h2>Productos recomendados</h2>\n")
		b.WriteString("<div style='display: grid; grid-template-columns: repeat(auto-fit, minmax(280px, 1fr)); gap: 1.5rem;'>\n")
		for _, p := range links {
			writeProductCard(&b, p)
		}
		b.WriteString("</div>\n")
	}

	return b.String()
}

func writeItems(b *strings.Builder, items []string) {
	for _, it := range items {
		fmt.Fprintf(b, "<li>%s</li>\n", clean(it))
	}
}

func writeProductCard(b *strings.Builder, p models.AnnotatedProduct) {
	name := p.Name
	if name == "" {
		name = "Producto"
	}
	b.WriteString("<div style='padding: 1.5rem; border: 2px solid #e0e0e0; border-radius: 8px;'>\n")
	fmt.Fprintf(b, "<h3>%s</h3>\n", clean(name))
	fmt.Fprintf(b, "<p style='color: #666; font-size: 0.9rem;'>%s</p>\n", clean(p.Type))
	fmt.Fprintf(b, "<p>%s</p>\n", clean(p.Reason))
	fmt.Fprintf(b, "<a href=\"%s\" target=\"_blank\" rel=\"sponsored noopener noreferrer\" "+
		"style='display: inline-block; padding: 0.75rem 1.5rem; background: #f39c12; color: white; "+
		"text-decoration: none; border-radius: 6px; font-weight: bold;'>Ver en Amazon →</a>\n", safeHref(p.AffiliateLink))
	b.WriteString("</div>\n")
}

// Excerpt is the first 160 characters of the introduction.
func Excerpt(intro string) string {
	r := []rune(intro)
	if len(r) <= excerptLen {
		return intro
	}
	return string(r[:excerptLen])
}

func clean(s string) string {
	return textPolicy.Sanitize(s)
}

func safeHref(u string) string {
	if !strings.HasPrefix(u, "https://") && !strings.HasPrefix(u, "http://") {
		return "#"
	}
	return html.EscapeString(u)
}
