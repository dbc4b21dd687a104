package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/tripmesh/inventory/internal/search/types"
)

const orgKey contextKey = "org"

// Org extracts the organization context from the request context. The zero
// Org (anonymous caller, no enabled providers) is returned when none was set.
func Org(ctx context.Context) types.Org {
	if org, ok := ctx.Value(orgKey).(types.Org); ok {
		return org
	}
	return types.Org{}
}

// OrgContext snapshots the caller's organization context into the request
// context: org identity from the X-Org-ID header, the org's enabled providers
// from configuration, and the locale from Accept-Language. The snapshot is
// immutable; search workers read copies of it.
func OrgContext(enabledProviders func(orgID string) []string, testMode bool) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			org := types.Org{
				ID:       strings.TrimSpace(r.Header.Get("X-Org-ID")),
				TestMode: testMode,
				Locale:   parseLocale(r.Header.Get("Accept-Language")),
			}
			if org.ID != "" {
				org.EnabledProviders = enabledProviders(org.ID)
			}

			ctx := context.WithValue(r.Context(), orgKey, org)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseLocale keeps the first language tag, without quality weights.
func parseLocale(header string) string {
	if header == "" {
		return ""
	}
	first := strings.Split(header, ",")[0]
	return strings.TrimSpace(strings.Split(first, ";")[0])
}
