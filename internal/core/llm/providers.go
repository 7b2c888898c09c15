package llm

import (
	"context"
	"log"

	"github.com/markdave123-py/Fixpress/internal/config"
	"github.com/markdave123-py/Fixpress/internal/core"
)

// Providers bundles the chat model and, when one can be built, an embedder.
// Embedder is nil when no embedding-capable key is configured.
type Providers struct {
	LLM      core.LLMProvider
	Embedder core.EmbeddingProvider
	closers  []func() error
}

// NewProviders builds the chat provider named by LLM_PROVIDER and picks an
// embedder: Gemini first when a Gemini key is set, then OpenAI.
func NewProviders(ctx context.Context, cfg *config.Config) (*Providers, error) {
	p := &Providers{}

	switch cfg.LLMProvider {
	case config.ProviderGemini:
		g, err := NewGeminiLLM(ctx, cfg.AIAPIKey, cfg.GenModel, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		p.LLM = g
		p.closers = append(p.closers, g.Close)
	case config.ProviderAnthropic:
		a, err := NewAnthropicLLM(cfg.AnthropicKey, cfg.AnthropicModel, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		p.LLM = a
	default:
		o, err := NewOpenAILLM(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.OpenAIModel, cfg.Temperature)
		if err != nil {
			return nil, err
		}
		p.LLM = o
	}

	switch {
	case cfg.AIAPIKey != "":
		e, err := NewGeminiEmbedder(ctx, cfg.AIAPIKey, cfg.EmbedModel)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Embedder = e
		p.closers = append(p.closers, e.Close)
	case cfg.OpenAIKey != "":
		e, err := NewOpenAIEmbedder(cfg.OpenAIKey, cfg.OpenAIBaseURL, cfg.EmbedModel)
		if err != nil {
			p.Close()
			return nil, err
		}
		p.Embedder = e
	default:
		log.Printf("[WARN] no embedding provider configured, retrieval falls back to leading chunks")
	}

	return p, nil
}

func (p *Providers) Close() {
	for _, c := range p.closers {
		if err := c(); err != nil {
			log.Printf("[WARN] close llm client: %v", err)
		}
	}
}
