package catalog

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukaflow/dukaflow/internal/tenant"
)

type Handler struct {
	repo   *ProductRepository
	cache  *ProductCache
	logger *slog.Logger
}

// NewHandler builds the catalog HTTP surface. cache may be nil, in which
// case every listing hits Postgres.
func NewHandler(repo *ProductRepository, cache *ProductCache, logger *slog.Logger) *Handler {
	return &Handler{
		repo:   repo,
		cache:  cache,
		logger: logger,
	}
}

func (h *Handler) HandleListProducts(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	query := r.URL.Query().Get("q")
	categoryID := r.URL.Query().Get("categoryId")
	unfiltered := query == "" && categoryID == ""

	if unfiltered && h.cache != nil {
		if products, err := h.cache.GetList(r.Context(), tenantID); err == nil {
			h.writeJSON(w, http.StatusOK, products)
			return
		} else if !errors.Is(err, ErrCacheMiss) {
			h.logger.Warn("product cache read failed", "error", err, "tenant_id", tenantID)
		}
	}

	products, err := h.repo.List(r.Context(), tenantID, query, categoryID)
	if err != nil {
		h.logger.Error("failed to list products", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if unfiltered && h.cache != nil {
		if err := h.cache.SetList(r.Context(), tenantID, products); err != nil {
			h.logger.Warn("product cache write failed", "error", err, "tenant_id", tenantID)
		}
	}

	h.writeJSON(w, http.StatusOK, products)
}

func (h *Handler) HandleGetProduct(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	product, err := h.repo.GetByID(r.Context(), tenantID, r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to get product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, product)
}

type createProductRequest struct {
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
	Description    string  `json:"description"`
	CategoryID     *string `json:"categoryId"`
	Status         string  `json:"status"`
	Brand          *string `json:"brand"`
	BasePriceCents int64   `json:"basePriceCents"`
	Currency       string  `json:"currency"`
	SKU            *string `json:"sku"`
}

func (h *Handler) HandleCreateProduct(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req createProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Slug == "" {
		h.writeError(w, http.StatusBadRequest, "name and slug are required")
		return
	}
	if req.BasePriceCents <= 0 {
		h.writeError(w, http.StatusBadRequest, "basePriceCents must be positive")
		return
	}

	product, err := h.repo.Create(r.Context(), tenantID, CreateProductInput{
		Name:           req.Name,
		Slug:           req.Slug,
		Description:    req.Description,
		CategoryID:     req.CategoryID,
		Status:         req.Status,
		Brand:          req.Brand,
		BasePriceCents: req.BasePriceCents,
		Currency:       req.Currency,
		SKU:            req.SKU,
	})
	if err != nil {
		if errors.Is(err, ErrSlugTaken) {
			h.writeError(w, http.StatusConflict, err.Error())
			return
		}
		h.logger.Error("failed to create product", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if h.cache != nil {
		if err := h.cache.InvalidateList(r.Context(), tenantID); err != nil {
			h.logger.Warn("product cache invalidation failed", "error", err, "tenant_id", tenantID)
		}
	}

	h.logger.Info("product created", "tenant_id", tenantID, "product_id", product.ID, "slug", product.Slug)
	h.writeJSON(w, http.StatusCreated, product)
}

type createVariantRequest struct {
	Name          *string `json:"name"`
	SKU           *string `json:"sku"`
	PriceCents    *int64  `json:"priceCents"`
	StockQuantity int     `json:"stockQuantity"`
}

func (h *Handler) HandleAddVariant(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req createVariantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	variant, err := h.repo.AddVariant(r.Context(), tenantID, r.PathValue("id"), CreateVariantInput{
		Name:          req.Name,
		SKU:           req.SKU,
		PriceCents:    req.PriceCents,
		StockQuantity: req.StockQuantity,
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to add variant", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, variant)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode response", "error", err)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, message string) {
	h.writeJSON(w, status, map[string]string{"error": message})
}
