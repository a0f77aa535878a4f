package core

import (
	"fmt"

	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

// ResolveAPIKey returns the generation/embedding credential for a tenant:
// the tenant's own key when set, else the process-wide default. Absence is a
// configuration error, not a runtime fault of the pipeline.
func ResolveAPIKey(tenant *models.Tenant, processKey string) (string, error) {
	if tenant != nil && tenant.GeminiAPIKey != "" {
		return tenant.GeminiAPIKey, nil
	}
	if processKey != "" {
		return processKey, nil
	}
	return "", fmt.Errorf("%w: no Gemini API key configured for tenant", errs.ErrConfiguration)
}
