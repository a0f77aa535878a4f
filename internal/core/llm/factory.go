package llm

import (
	"context"

	"github.com/orgmind-ai/orgmind/internal/core"
)

var _ core.AIProviderFactory = (*GeminiFactory)(nil)

// GeminiFactory builds Gemini providers bound to a resolved API key.
// Tenants can override the process-wide key, so clients are constructed per
// operation instead of once at startup.
type GeminiFactory struct {
	embedModel string
	genModel   string
	batchSize  int
}

func NewGeminiFactory(embedModel, genModel string, batchSize int) *GeminiFactory {
	return &GeminiFactory{embedModel: embedModel, genModel: genModel, batchSize: batchSize}
}

func (f *GeminiFactory) Embedder(ctx context.Context, apiKey string) (core.EmbeddingProvider, error) {
	return NewGeminiEmbedder(ctx, apiKey, f.embedModel, f.batchSize)
}

func (f *GeminiFactory) Generator(ctx context.Context, apiKey string) (core.StreamingLLM, error) {
	return NewGeminiLLM(ctx, apiKey, f.genModel)
}
