package llm

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
)

var _ core.StreamingLLM = (*GeminiLLM)(nil)

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("%w: gemini api key is empty", errs.ErrConfiguration)
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// StreamChat sends prompt with the normalized prior turns and invokes
// onFragment for every non-empty fragment as it arrives.
func (g *GeminiLLM) StreamChat(ctx context.Context, prompt string, history []core.ChatTurn, onFragment func(fragment string) error) error {
	m := g.client.GenerativeModel(g.modelName)
	m.SetTemperature(0.7)
	m.SetMaxOutputTokens(4096)

	cs := m.StartChat()
	cs.History = NormalizeHistory(history)

	iter := cs.SendMessageStream(ctx, genai.Text(prompt))
	for {
		resp, err := iter.Next()
		if err == iterator.Done {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: gemini stream: %v", errs.ErrProvider, err)
		}
		for _, cand := range resp.Candidates {
			if cand.Content == nil {
				continue
			}
			for _, part := range cand.Content.Parts {
				t, ok := part.(genai.Text)
				if !ok || t == "" {
					continue
				}
				if err := onFragment(string(t)); err != nil {
					return err
				}
			}
		}
	}
}

// NormalizeHistory converts client turns to the provider's alternating-role
// shape. The provider requires the first turn to be user-authored, so any
// leading assistant turns are discarded before submission.
func NormalizeHistory(history []core.ChatTurn) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, h := range history {
		role := "user"
		if h.Role == core.RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{
			Role:  role,
			Parts: []genai.Part{genai.Text(h.Content)},
		})
	}
	for len(out) > 0 && out[0].Role == "model" {
		out = out[1:]
	}
	return out
}
