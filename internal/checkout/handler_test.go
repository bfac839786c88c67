package checkout

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukaflow/dukaflow/internal/tenant"
)

func newTestHandler(t *testing.T) *Handler {
	t.Helper()
	h, err := NewHandler(nil, nil, nil, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("failed to create handler: %v", err)
	}
	return h
}

func tenantRequest(method, target, body string) *http.Request {
	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	return req.WithContext(tenant.NewContext(req.Context(), "test-tenant"))
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp["error"]
}

func TestHandlerRejectsMissingTenant(t *testing.T) {
	h := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/checkout/cart/init", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()

	h.HandleInitCart(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "tenant missing on request" {
		t.Errorf("unexpected error message: %s", msg)
	}
}

func TestHandleAddItemValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "malformed body",
			body: `{"productId": `,
			want: "invalid request body",
		},
		{
			name: "product id not a uuid",
			body: `{"productId":"not-a-uuid","quantity":1}`,
			want: "invalid product id",
		},
		{
			name: "variant id not a uuid",
			body: `{"productId":"6a2f0e7e-9a31-4c39-a6d7-55a3c2b1e100","variantId":"nope","quantity":1}`,
			want: "invalid variant id",
		},
		{
			name: "quantity zero",
			body: `{"productId":"6a2f0e7e-9a31-4c39-a6d7-55a3c2b1e100","quantity":0}`,
			want: "quantity must be between 1 and 99",
		},
		{
			name: "quantity too large",
			body: `{"productId":"6a2f0e7e-9a31-4c39-a6d7-55a3c2b1e100","quantity":100}`,
			want: "quantity must be between 1 and 99",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tenantRequest(http.MethodPost, "/checkout/cart/tok-1/items", tt.body)
			rec := httptest.NewRecorder()

			h.HandleAddItem(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg := decodeError(t, rec); msg != tt.want {
				t.Errorf("expected %q, got %q", tt.want, msg)
			}
		})
	}
}

func TestHandleUpdateItemValidation(t *testing.T) {
	h := newTestHandler(t)

	req := tenantRequest(http.MethodPatch, "/checkout/cart/tok-1/items/item-1", `{"quantity":0}`)
	rec := httptest.NewRecorder()

	h.HandleUpdateItem(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "quantity must be between 1 and 99" {
		t.Errorf("unexpected error message: %s", msg)
	}
}

func TestHandleQuoteValidation(t *testing.T) {
	h := newTestHandler(t)

	req := tenantRequest(http.MethodPost, "/checkout/quote", `{"cartToken":"tok-1"}`)
	rec := httptest.NewRecorder()

	h.HandleQuote(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if msg := decodeError(t, rec); msg != "cartToken and cityArea are required" {
		t.Errorf("unexpected error message: %s", msg)
	}
}

func TestHandleSubmitValidation(t *testing.T) {
	h := newTestHandler(t)

	tests := []struct {
		name string
		body string
		want string
	}{
		{
			name: "missing cart token",
			body: `{"cityArea":"Westlands","phone":"+254700000001","paymentMethod":"cod"}`,
			want: "cartToken and cityArea are required",
		},
		{
			name: "missing phone",
			body: `{"cartToken":"tok-1","cityArea":"Westlands","paymentMethod":"cod"}`,
			want: "phone is required",
		},
		{
			name: "unknown payment method",
			body: `{"cartToken":"tok-1","cityArea":"Westlands","phone":"+254700000001","paymentMethod":"card"}`,
			want: "paymentMethod must be cod or pickup",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tenantRequest(http.MethodPost, "/checkout/submit", tt.body)
			rec := httptest.NewRecorder()

			h.HandleSubmit(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			if msg := decodeError(t, rec); msg != tt.want {
				t.Errorf("expected %q, got %q", tt.want, msg)
			}
		})
	}
}
