package chat_engine

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// FeedbackID derives the time-addressed id of a feedback vector.
func FeedbackID(tenantID string, t time.Time) string {
	return fmt.Sprintf("feedback_%s_%d", tenantID, t.UnixMilli())
}

// SaveFeedback indexes a human-corrected (question, answer) pair so future
// queries can retrieve it. The question is embedded in query mode — the
// correction is matched against incoming queries, not against documents.
// Repeated corrections for the same question coexist as separate vectors.
func (e *ChatEngine) SaveFeedback(ctx context.Context, tenant *models.Tenant, question, answer string) (string, error) {
	if strings.TrimSpace(question) == "" || strings.TrimSpace(answer) == "" {
		return "", fmt.Errorf("%w: question and corrected answer are required", errs.ErrValidation)
	}

	apiKey, err := core.ResolveAPIKey(tenant, e.processKey)
	if err != nil {
		return "", err
	}
	embedder, err := e.providers.Embedder(ctx, apiKey)
	if err != nil {
		return "", err
	}
	defer embedder.Close()
	vecs, err := embedder.EmbedTexts(ctx, []string{question}, core.EmbedModeQuery)
	if err != nil {
		return "", fmt.Errorf("embed feedback question: %w", err)
	}
	if len(vecs) == 0 {
		return "", fmt.Errorf("%w: embedding provider returned no vector", errs.ErrProvider)
	}

	now := e.now()
	id := FeedbackID(tenant.ID, now)
	vector := models.Vector{
		ID:     id,
		Values: vecs[0],
		Metadata: models.VectorMetadata{
			Type:      "feedback",
			Question:  question,
			Answer:    answer,
			TenantID:  tenant.ID,
			Text:      fmt.Sprintf("Q: %s\nA: %s", question, answer), // combined for better retrieval
			Timestamp: now.UnixMilli(),
		},
	}

	if err := e.index.Upsert(ctx, tenant.ID, []models.Vector{vector}); err != nil {
		return "", fmt.Errorf("upsert feedback vector: %w", err)
	}
	return id, nil
}
