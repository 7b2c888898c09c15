package core

import "context"

type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string) ([][]float32, error)
}

type LLMProvider interface {
	Generate(ctx context.Context, systemPrompt string, userPrompt string) (string, error)
}

// SchemaLLMProvider is an LLMProvider that can constrain output to a JSON schema.
type SchemaLLMProvider interface {
	LLMProvider
	GenerateJSON(ctx context.Context, systemPrompt, userPrompt, schemaName string, schema []byte) (string, error)
}
