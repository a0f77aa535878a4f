package core

import "context"

// EmbedMode selects the vector space the embedding provider optimises for.
// Document mode is for content being indexed, query mode for the text doing
// the retrieving. Swapping them degrades retrieval silently, so every call
// site names its mode explicitly.
type EmbedMode string

const (
	EmbedModeDocument EmbedMode = "document"
	EmbedModeQuery    EmbedMode = "query"
)

// Chat roles as they arrive from clients.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatTurn is one prior turn of a conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// EmbeddingProvider converts texts into fixed-dimension vectors,
// order-preserving, batched internally. Providers hold a live connection;
// callers own the handle and must Close it when done.
type EmbeddingProvider interface {
	EmbedTexts(ctx context.Context, texts []string, mode EmbedMode) ([][]float32, error)
	Close() error
}

// StreamingLLM generates a response to prompt given prior turns, invoking
// onFragment for every fragment as it arrives. A non-nil error from
// onFragment stops the stream. Callers must Close the handle when done.
type StreamingLLM interface {
	StreamChat(ctx context.Context, prompt string, history []ChatTurn, onFragment func(fragment string) error) error
	Close() error
}

// AIProviderFactory builds providers bound to a resolved API credential.
// Tenants may carry their own key, so providers are constructed per
// operation rather than once per process.
type AIProviderFactory interface {
	Embedder(ctx context.Context, apiKey string) (EmbeddingProvider, error)
	Generator(ctx context.Context, apiKey string) (StreamingLLM, error)
}
