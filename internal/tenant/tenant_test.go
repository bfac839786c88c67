package tenant

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestMiddleware(t *testing.T) {
	seen := ""
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := FromContext(r.Context())
		if !ok {
			t.Error("expected tenant in context")
		}
		seen = id
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("header takes precedence", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
		req.Header.Set("X-Tenant-Id", "acme")
		req.Host = "mama-njeri.dukaflow.app"
		rec := httptest.NewRecorder()

		Middleware("fallback", next).ServeHTTP(rec, req)

		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if seen != "acme" {
			t.Errorf("expected tenant 'acme', got %q", seen)
		}
	})

	t.Run("falls back to subdomain", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
		req.Host = "mama-njeri.dukaflow.app:8080"
		rec := httptest.NewRecorder()

		Middleware("", next).ServeHTTP(rec, req)

		if seen != "mama-njeri" {
			t.Errorf("expected tenant 'mama-njeri', got %q", seen)
		}
	})

	t.Run("bare host uses default", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
		req.Host = "localhost:8080"
		rec := httptest.NewRecorder()

		Middleware("dev-tenant", next).ServeHTTP(rec, req)

		if seen != "dev-tenant" {
			t.Errorf("expected tenant 'dev-tenant', got %q", seen)
		}
	})

	t.Run("rejects unresolvable tenant", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
		req.Host = "localhost"
		rec := httptest.NewRecorder()

		Middleware("", next).ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("x-forwarded-host wins over host", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/checkout/quote", nil)
		req.Host = "internal-lb:8080"
		req.Header.Set("X-Forwarded-Host", "soko-lane.dukaflow.app")
		rec := httptest.NewRecorder()

		Middleware("", next).ServeHTTP(rec, req)

		if seen != "soko-lane" {
			t.Errorf("expected tenant 'soko-lane', got %q", seen)
		}
	})
}
