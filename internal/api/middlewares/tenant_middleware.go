package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/orgmind-ai/orgmind/internal/core"
	"github.com/orgmind-ai/orgmind/internal/models"
)

type ctxKey int

const tenantKey ctxKey = iota

// TenantFromContext returns the authenticated tenant, or nil.
func TenantFromContext(ctx context.Context) *models.Tenant {
	t, _ := ctx.Value(tenantKey).(*models.Tenant)
	return t
}

// WithTenant attaches a tenant to the context. Exported for handler tests.
func WithTenant(ctx context.Context, t *models.Tenant) context.Context {
	return context.WithValue(ctx, tenantKey, t)
}

// TenantAuth resolves the calling tenant from an x-api-key header (SDK
// clients) or a Bearer JWT whose tenant_id claim identifies the tenant
// (dashboard sessions), and attaches it to the request context.
func TenantAuth(db core.DbClient, jwtSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var (
				tenant *models.Tenant
				err    error
			)

			if apiKey := r.Header.Get("x-api-key"); apiKey != "" {
				tenant, err = db.GetTenantByAPIKey(r.Context(), apiKey)
			} else if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
				if tenantID := parseTenantID(strings.TrimPrefix(auth, "Bearer "), jwtSecret); tenantID != "" {
					tenant, err = db.GetTenantByID(r.Context(), tenantID)
				}
			}

			if err != nil || tenant == nil {
				http.Error(w, "not authorized", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r.WithContext(WithTenant(r.Context(), tenant)))
		})
	}
}

func parseTenantID(tokenStr, secret string) string {
	claims := jwt.MapClaims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	if id, ok := claims["tenant_id"].(string); ok {
		return id
	}
	return ""
}
