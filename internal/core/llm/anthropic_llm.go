package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/aktagon/llmkit/anthropic"
	"github.com/aktagon/llmkit/anthropic/types"

	"github.com/markdave123-py/Fixpress/internal/core"
)

const anthropicMaxTokens = 4000

// AnthropicLLM calls Claude through llmkit. llmkit has no context support, so
// calls run in a goroutine and the caller stops waiting on cancellation.
type AnthropicLLM struct {
	apiKey   string
	settings types.RequestSettings
}

func NewAnthropicLLM(apiKey, model string, temperature float64) (*AnthropicLLM, error) {
	if apiKey == "" {
		return nil, &core.ConfigurationError{Component: "anthropic", Reason: "ANTHROPIC_API_KEY not set"}
	}
	return &AnthropicLLM{
		apiKey: apiKey,
		settings: types.RequestSettings{
			Model:       model,
			MaxTokens:   anthropicMaxTokens,
			Temperature: temperature,
		},
	}, nil
}

func (a *AnthropicLLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return a.prompt(ctx, systemPrompt, userPrompt, "")
}

func (a *AnthropicLLM) GenerateJSON(ctx context.Context, systemPrompt, userPrompt, _ string, schema []byte) (string, error) {
	return a.prompt(ctx, systemPrompt, userPrompt, string(schema))
}

func (a *AnthropicLLM) prompt(ctx context.Context, systemPrompt, userPrompt, schema string) (string, error) {
	type reply struct {
		text string
		err  error
	}
	done := make(chan reply, 1)

	go func() {
		response, err := anthropic.PromptWithSettings(systemPrompt, userPrompt, schema, a.apiKey, a.settings)
		if err != nil {
			done <- reply{err: fmt.Errorf("anthropic prompt: %w", err)}
			return
		}
		if len(response.Content) == 0 {
			done <- reply{err: errors.New("no content in response")}
			return
		}
		done <- reply{text: response.Content[0].Text}
	}()

	select {
	case r := <-done:
		return r.text, r.err
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

var _ core.SchemaLLMProvider = (*AnthropicLLM)(nil)
