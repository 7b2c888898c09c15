package synthesis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"

	"github.com/invopop/jsonschema"

	"github.com/markdave123-py/Fixpress/internal/core"
	"github.com/markdave123-py/Fixpress/internal/core/retrieval"
	"github.com/markdave123-py/Fixpress/internal/models"
)

const schemaName = "troubleshooting_article"

// Synthesizer turns manual chunks and an error description into raw model output.
type Synthesizer struct {
	llm       core.LLMProvider
	retriever retrieval.Retriever
	topK      int
	schema    []byte
}

func NewSynthesizer(llm core.LLMProvider, retriever retrieval.Retriever, topK int) (*Synthesizer, error) {
	if llm == nil {
		return nil, &core.ConfigurationError{Component: "synthesizer", Reason: "no LLM provider"}
	}
	if retriever == nil {
		retriever = retrieval.LeadRetriever{}
	}
	if topK <= 0 {
		topK = 3
	}

	schema, err := ArticleSchema()
	if err != nil {
		return nil, err
	}
	return &Synthesizer{llm: llm, retriever: retriever, topK: topK, schema: schema}, nil
}

// ArticleSchema is the JSON schema of the article payload sent to providers that support structured output.
func ArticleSchema() ([]byte, error) {
	r := &jsonschema.Reflector{DoNotReference: true}
	s := r.Reflect(&models.ArticlePayload{})
	s.Version = ""
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("article schema: %w", err)
	}
	return b, nil
}

// Synthesize retrieves the most relevant chunks, prompts the model and returns its raw text.
// Every failure wraps core.ErrSynthesisFailed.
func (s *Synthesizer) Synthesize(ctx context.Context, chunks []models.TextChunk, errorDesc, model string) (string, error) {
	vars := map[string]string{"error": errorDesc, "model": model}
	question := renderPrompt(questionTemplate, vars)

	picked, err := s.retriever.Retrieve(ctx, chunks, question, s.topK)
	if err != nil {
		return "", fmt.Errorf("%w: retrieve context: %w", core.ErrSynthesisFailed, err)
	}

	texts := make([]string, len(picked))
	for i, c := range picked {
		texts[i] = c.Text
	}
	vars["context"] = strings.Join(texts, "\n\n")
	vars["question"] = question
	prompt := renderPrompt(articlePrompt, vars)

	var raw string
	if sp, ok := s.llm.(core.SchemaLLMProvider); ok {
		raw, err = sp.GenerateJSON(ctx, "", prompt, schemaName, s.schema)
	} else {
		raw, err = s.llm.Generate(ctx, "", prompt)
	}
	if err != nil {
		return "", fmt.Errorf("%w: %w", core.ErrSynthesisFailed, err)
	}
	if strings.TrimSpace(raw) == "" {
		return "", fmt.Errorf("%w: empty model output", core.ErrSynthesisFailed)
	}

	log.Printf("[DEBUG] synthesized %q for %q from %d chunks", errorDesc, model, len(picked))
	return raw, nil
}
