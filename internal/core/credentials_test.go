package core

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/orgmind-ai/orgmind/internal/core/errs"
	"github.com/orgmind-ai/orgmind/internal/models"
)

func TestResolveAPIKeyTenantOverrideWins(t *testing.T) {
	tenant := &models.Tenant{ID: "t1", GeminiAPIKey: "tenant-key"}

	key, err := ResolveAPIKey(tenant, "process-key")
	require.NoError(t, err)
	require.Equal(t, "tenant-key", key)
}

func TestResolveAPIKeyFallsBackToProcessKey(t *testing.T) {
	key, err := ResolveAPIKey(&models.Tenant{ID: "t1"}, "process-key")
	require.NoError(t, err)
	require.Equal(t, "process-key", key)

	key, err = ResolveAPIKey(nil, "process-key")
	require.NoError(t, err)
	require.Equal(t, "process-key", key)
}

func TestResolveAPIKeyMissingEverywhere(t *testing.T) {
	_, err := ResolveAPIKey(&models.Tenant{ID: "t1"}, "")
	require.ErrorIs(t, err, errs.ErrConfiguration)
}
