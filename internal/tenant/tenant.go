package tenant

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
)

type contextKey struct{}

// NewContext returns ctx carrying the resolved tenant id.
func NewContext(ctx context.Context, tenantID string) context.Context {
	return context.WithValue(ctx, contextKey{}, tenantID)
}

// FromContext returns the tenant id set by Middleware.
func FromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(contextKey{}).(string)
	return id, ok && id != ""
}

// Middleware resolves the tenant for every request: the X-Tenant-Id header
// wins, then the first label of the forwarded host when it is a subdomain,
// then defaultTenant. Requests without a resolvable tenant get a 400; the
// handlers behind this middleware never resolve tenancy themselves.
func Middleware(defaultTenant string, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tenantID := resolve(r, defaultTenant)
		if tenantID == "" {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "tenant not provided"})
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), tenantID)))
	})
}

func resolve(r *http.Request, defaultTenant string) string {
	if id := r.Header.Get("X-Tenant-Id"); id != "" {
		return id
	}

	host := r.Header.Get("X-Forwarded-Host")
	if host == "" {
		host = r.Host
	}
	if host != "" {
		hostname, _, found := strings.Cut(host, ":")
		if !found {
			hostname = host
		}
		parts := strings.Split(hostname, ".")
		if len(parts) > 2 {
			return parts[0]
		}
	}

	return defaultTenant
}
