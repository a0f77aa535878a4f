package chat_engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// DefaultSystemPrompt is used when a tenant has no custom instructions.
// {{orgName}} is substituted with the tenant's display name.
const DefaultSystemPrompt = "You are a helpful AI assistant for {{orgName}}. Use the provided context to answer the user's question. If the answer is not available in the context, politely state that you do not have that information in your knowledge base."

// ChatEngine orchestrates query embedding, similarity search, context
// assembly, streamed generation, source attribution and chat logging.
type ChatEngine struct {
	db         core.DbClient
	index      core.VectorIndex
	providers  core.AIProviderFactory
	processKey string
	logger     *zap.Logger
	now        func() time.Time
}

func NewChatEngine(db core.DbClient, index core.VectorIndex, providers core.AIProviderFactory, processKey string, logger *zap.Logger) *ChatEngine {
	return &ChatEngine{
		db:         db,
		index:      index,
		providers:  providers,
		processKey: processKey,
		logger:     logger,
		now:        time.Now,
	}
}

// Chat answers message for tenant, grounded in the tenant's indexed
// content, writing the outcome to stream.
//
// Failures before stream.Begin are returned to the caller, which still owns
// the response status. After Begin every outcome — fragments, sources,
// mid-stream errors, the terminal sentinel — is a stream event and the
// returned error is nil.
func (e *ChatEngine) Chat(ctx context.Context, tenant *models.Tenant, message string, history []core.ChatTurn, stream *EventStream) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("%w: message is required", errs.ErrValidation)
	}

	apiKey, err := core.ResolveAPIKey(tenant, e.processKey)
	if err != nil {
		return err
	}

	embedder, err := e.providers.Embedder(ctx, apiKey)
	if err != nil {
		return err
	}
	defer embedder.Close()
	queryVecs, err := embedder.EmbedTexts(ctx, []string{message}, core.EmbedModeQuery)
	if err != nil {
		return fmt.Errorf("embed query: %w", err)
	}
	if len(queryVecs) == 0 {
		return fmt.Errorf("%w: embedding provider returned no vector", errs.ErrProvider)
	}

	matches, err := e.index.Query(ctx, tenant.ID, queryVecs[0], core.DefaultTopK)
	if err != nil {
		return fmt.Errorf("query index: %w", err)
	}

	prompt := e.buildPrompt(tenant, matches, message)

	generator, err := e.providers.Generator(ctx, apiKey)
	if err != nil {
		return err
	}
	defer generator.Close()

	// Header-sent boundary: from here on, outcomes are stream events.
	stream.Begin()

	var full strings.Builder
	streamErr := generator.StreamChat(ctx, prompt, history, func(fragment string) error {
		full.WriteString(fragment)
		return stream.Fragment(fragment)
	})
	if streamErr != nil {
		e.logger.Error("streaming failed",
			zap.String("tenant_id", tenant.ID), zap.Error(streamErr))
		_ = stream.Error(streamErr.Error(), "Internal Server Error")
		_ = stream.End()
		return nil
	}

	_ = stream.Sources(e.buildSources(ctx, matches))
	_ = stream.End()

	// Chat log persistence stays off the response's critical path.
	e.logExchange(tenant.ID, message, full.String(), matches)
	return nil
}

// buildPrompt assembles the generation prompt from the tenant's system
// instructions, the retrieved context in return order, and the message.
func (e *ChatEngine) buildPrompt(tenant *models.Tenant, matches []models.QueryMatch, message string) string {
	instructions := tenant.SystemInstructions
	if instructions == "" {
		instructions = DefaultSystemPrompt
	}
	instructions = strings.ReplaceAll(instructions, "{{orgName}}", tenant.Name)

	texts := make([]string, 0, len(matches))
	for _, m := range matches {
		texts = append(texts, m.Metadata.Text)
	}

	return fmt.Sprintf("%s\n\nContext:\n%s\n\nUser: %s", instructions, strings.Join(texts, "\n\n"), message)
}

// logExchange persists the chat log on a detached goroutine. Its failure is
// logged and never propagates to the response.
func (e *ChatEngine) logExchange(tenantID, question, answer string, matches []models.QueryMatch) {
	retrieved := make([]models.VectorMetadata, 0, len(matches))
	for _, m := range matches {
		retrieved = append(retrieved, m.Metadata)
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		entry := &models.ChatLog{
			ID:              uuid.NewString(),
			TenantID:        tenantID,
			UserQuestion:    question,
			BotResponse:     answer,
			RetrievedChunks: retrieved,
			CreatedAt:       e.now(),
		}
		if err := e.db.CreateChatLog(ctx, entry); err != nil {
			e.logger.Error("failed to save chat log",
				zap.String("tenant_id", tenantID), zap.Error(err))
		}
	}()
}
