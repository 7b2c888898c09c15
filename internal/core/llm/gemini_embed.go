package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/markdave123-py/Fixpress/internal/core"
)

// geminiBatchLimit is the most texts BatchEmbedContents accepts per call.
const geminiBatchLimit = 100

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)

// GeminiEmbedder embeds manual chunks and error queries with a Gemini embedding model.
type GeminiEmbedder struct {
	client *genai.Client
	model  *genai.EmbeddingModel
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, &core.ConfigurationError{Component: "gemini embeddings", Reason: "GEMINI_API_KEY not set"}
	}
	if modelName == "" {
		modelName = "gemini-embedding-001"
	}

	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	em := cl.EmbeddingModel(modelName)
	em.TaskType = genai.TaskTypeRetrievalDocument
	return &GeminiEmbedder{client: cl, model: em}, nil
}

func (g *GeminiEmbedder) Close() error {
	return g.client.Close()
}

// EmbedTexts returns one vector per text, in order, splitting into API-sized batches.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += geminiBatchLimit {
		part := texts[start:min(start+geminiBatchLimit, len(texts))]

		batch := g.model.NewBatch()
		for _, t := range part {
			batch.AddContent(genai.Text(t))
		}

		resp, err := g.model.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("gemini embed batch at %d: %w", start, err)
		}
		if len(resp.Embeddings) != len(part) {
			return nil, fmt.Errorf("gemini embed batch at %d: %d vectors for %d texts", start, len(resp.Embeddings), len(part))
		}
		for i, e := range resp.Embeddings {
			if e == nil || len(e.Values) == 0 {
				return nil, fmt.Errorf("gemini embed: empty vector for text %d", start+i)
			}
			out = append(out, e.Values)
		}
	}
	return out, nil
}
