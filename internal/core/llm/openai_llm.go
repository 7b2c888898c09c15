package llm

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/markdave123-py/Fixpress/internal/core"
)

// OpenAILLM talks to the chat completions API (or any compatible endpoint).
type OpenAILLM struct {
	client      *openai.Client
	model       string
	temperature float32
}

func NewOpenAILLM(apiKey, baseURL, model string, temperature float64) (*OpenAILLM, error) {
	if apiKey == "" {
		return nil, &core.ConfigurationError{Component: "openai", Reason: "OPENAI_API_KEY not set"}
	}
	if model == "" {
		model = openai.GPT4o
	}
	return &OpenAILLM{
		client:      openai.NewClientWithConfig(clientConfig(apiKey, baseURL)),
		model:       model,
		temperature: float32(temperature),
	}, nil
}

func clientConfig(apiKey, baseURL string) openai.ClientConfig {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return cfg
}

func (o *OpenAILLM) Generate(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return o.complete(ctx, o.request(systemPrompt, userPrompt))
}

// GenerateJSON constrains the reply to the given JSON schema (structured outputs).
func (o *OpenAILLM) GenerateJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema []byte) (string, error) {
	req := o.request(systemPrompt, userPrompt)
	req.ResponseFormat = &openai.ChatCompletionResponseFormat{
		Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
		JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
			Name:   schemaName,
			Schema: json.RawMessage(schema),
		},
	}
	return o.complete(ctx, req)
}

func (o *OpenAILLM) request(systemPrompt, userPrompt string) openai.ChatCompletionRequest {
	var msgs []openai.ChatCompletionMessage
	if systemPrompt != "" {
		msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: systemPrompt})
	}
	msgs = append(msgs, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: userPrompt})

	return openai.ChatCompletionRequest{
		Model:       o.model,
		Messages:    msgs,
		Temperature: o.temperature,
	}
}

func (o *OpenAILLM) complete(ctx context.Context, req openai.ChatCompletionRequest) (string, error) {
	resp, err := o.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("no response from llm")
	}
	return resp.Choices[0].Message.Content, nil
}

var _ core.SchemaLLMProvider = (*OpenAILLM)(nil)
