package wordpress

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/markdave123-py/Fixpress/internal/models"
)

func TestFormatHTML(t *testing.T) {
	out := FormatHTML("Error E01", models.ArticleContent{
		Introduction:   "Intro",
		ErrorMeaning:   "Significa",
		Diagnosis:      "Diagnóstico <b>rápido</b>",
		SolutionSteps:  []string{"uno", "dos"},
		CommonFailures: []string{"fallo"},
	}, []models.AnnotatedProduct{{Name: "Multímetro", Type: "herramienta", Reason: "medir", AffiliateLink: "https://www.amazon.es/s?k=M&tag=t-21"}})

	assert.True(t, strings.HasPrefix(out, "<h1>Error E01</h1>"))
	assert.Contains(t, out, "<p><strong>Intro</strong></p>")
	assert.Contains(t, out, "<h2>¿Qué significa este error?</h2>\n<p>Significa</p>")
	assert.Contains(t, out, "<p>Diagnóstico rápido</p>")
	assert.Contains(t, out, "<ol>\n<li>uno</li>\n<li>dos</li>\n</ol>")
	assert.Contains(t, out, "<h2>Fallos comunes relacionados</h2>\n<ul>\n<li>fallo</li>\n</ul>")
	assert.Contains(t, out, "<h2>Productos recomendados</h2>")
	assert.Contains(t, out, `href="https://www.amazon.es/s?k=M&amp;tag=t-21"`)
	assert.Contains(t, out, "Ver en Amazon →")
}

func TestFormatHTML_SkipsEmptySections(t *testing.T) {
	out := FormatHTML("T", models.ArticleContent{}, nil)
	assert.Equal(t, "<h1>T</h1>\n\n", out)
}

func TestFormatHTML_UnsafeLink(t *testing.T) {
	out := FormatHTML("T", models.ArticleContent{}, []models.AnnotatedProduct{{AffiliateLink: "javascript:alert(1)"}})
	assert.Contains(t, out, `href="#"`)
	assert.Contains(t, out, "<h3>Producto</h3>")
}

func TestExcerpt(t *testing.T) {
	assert.Equal(t, "corto", Excerpt("corto"))
	long := strings.Repeat("ñ", 200)
	assert.Equal(t, strings.Repeat("ñ", 160), Excerpt(long))
}
