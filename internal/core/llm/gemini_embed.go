package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
)

// DefaultEmbedBatchSize respects the provider's per-request content limit.
const DefaultEmbedBatchSize = 100

var _ core.EmbeddingProvider = (*GeminiEmbedder)(nil)

type GeminiEmbedder struct {
	client    *genai.Client
	modelName string
	batchSize int
}

func NewGeminiEmbedder(ctx context.Context, apiKey, modelName string, batchSize int) (*GeminiEmbedder, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", errs.ErrConfiguration)
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "text-embedding-004"
	}
	if batchSize <= 0 {
		batchSize = DefaultEmbedBatchSize
	}
	return &GeminiEmbedder{client: cl, modelName: modelName, batchSize: batchSize}, nil
}

func (g *GeminiEmbedder) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// EmbedTexts returns one vector per input text, order-preserving. Requests
// are batched; any batch failure aborts the whole call rather than
// returning a partial result.
func (g *GeminiEmbedder) EmbedTexts(ctx context.Context, texts []string, mode core.EmbedMode) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	em := g.client.EmbeddingModel(g.modelName)
	if mode == core.EmbedModeQuery {
		em.TaskType = genai.TaskTypeRetrievalQuery
	} else {
		em.TaskType = genai.TaskTypeRetrievalDocument
	}

	out := make([][]float32, 0, len(texts))
	for _, group := range BatchTexts(texts, g.batchSize) {
		batch := em.NewBatch()
		for _, t := range group {
			batch.AddContent(genai.Text(t))
		}

		resp, err := em.BatchEmbedContents(ctx, batch)
		if err != nil {
			return nil, fmt.Errorf("%w: gemini batch embed: %v", errs.ErrProvider, err)
		}
		for _, e := range resp.Embeddings {
			out = append(out, e.Values)
		}
	}

	if len(out) != len(texts) {
		return nil, fmt.Errorf("%w: embedding count mismatch: got %d for %d texts", errs.ErrProvider, len(out), len(texts))
	}
	return out, nil
}

// BatchTexts partitions texts into groups of at most size, preserving order.
func BatchTexts(texts []string, size int) [][]string {
	if size <= 0 {
		size = DefaultEmbedBatchSize
	}
	var groups [][]string
	for start := 0; start < len(texts); start += size {
		end := start + size
		if end > len(texts) {
			end = len(texts)
		}
		groups = append(groups, texts[start:end])
	}
	return groups
}
