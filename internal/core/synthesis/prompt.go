package synthesis

import "strings"

const articlePrompt = `Actúa como un técnico experto en domótica y productos electrónicos.

Contexto del manual técnico:
{{.context}}

Error reportado: {{.error}}
Modelo del producto: {{.model}}

Tu tarea es crear un artículo técnico completo que incluya:

1. **Título**: Un título claro y descriptivo (máximo 80 caracteres)
2. **Introducción**: Breve explicación del error y su impacto
3. **Significado del error**: Qué significa técnicamente este error
4. **Diagnóstico**: Cómo identificar la causa del problema
5. **Solución paso a paso**: Instrucciones claras y numeradas para resolver el error
6. **Fallos comunes**: Otros problemas relacionados que suelen ocurrir
7. **Productos recomendados**: Lista de 2-3 productos que pueden ayudar a resolver el problema (herramientas, repuestos, etc.)

IMPORTANTE:
- Sé específico y técnico pero comprensible
- Usa información del manual técnico proporcionado
- Para los productos, menciona nombre genérico y tipo (ej: "Multímetro digital", "Cable HDMI 2.1", "Kit de herramientas")
- NO inventes información que no esté en el contexto

Responde SOLO en formato JSON con esta estructura:
{
  "title": "título del artículo",
  "introduction": "introducción",
  "error_meaning": "significado del error",
  "diagnosis": "cómo diagnosticar",
  "solution_steps": ["paso 1", "paso 2", "paso 3"],
  "common_failures": ["fallo 1", "fallo 2"],
  "recommended_products": [
    {"name": "nombre producto 1", "type": "tipo", "reason": "por qué es útil"},
    {"name": "nombre producto 2", "type": "tipo", "reason": "por qué es útil"}
  ]
}

Pregunta: {{.question}}
`

const questionTemplate = "Genera un artículo técnico completo sobre cómo solucionar el error '{{.error}}' en el modelo '{{.model}}'."

// renderPrompt fills the {{.name}} placeholders of tmpl.
func renderPrompt(tmpl string, vars map[string]string) string {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{."+k+"}}", v)
	}
	return strings.NewReplacer(pairs...).Replace(tmpl)
}
