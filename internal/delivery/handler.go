package delivery

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukaflow/dukaflow/internal/tenant"
)

type Handler struct {
	repo   *Repository
	logger *slog.Logger
}

func NewHandler(repo *Repository, logger *slog.Logger) *Handler {
	return &Handler{repo: repo, logger: logger}
}

func (h *Handler) HandleListPartners(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	partners, err := h.repo.ListPartners(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list delivery partners", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, partners)
}

type createPartnerRequest struct {
	Name     string         `json:"name"`
	Provider string         `json:"provider"`
	Config   map[string]any `json:"config"`
	IsActive *bool          `json:"isActive"`
}

func (h *Handler) HandleCreatePartner(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req createPartnerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || req.Provider == "" {
		h.writeError(w, http.StatusBadRequest, "name and provider are required")
		return
	}

	partner, err := h.repo.CreatePartner(r.Context(), tenantID, CreatePartnerInput{
		Name:     req.Name,
		Provider: req.Provider,
		Config:   req.Config,
		IsActive: req.IsActive,
	})
	if err != nil {
		h.logger.Error("failed to create delivery partner", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.logger.Info("delivery partner created", "tenant_id", tenantID, "partner_id", partner.ID, "provider", partner.Provider)
	h.writeJSON(w, http.StatusCreated, partner)
}

func (h *Handler) HandleListDeliveryOrders(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	deliveries, err := h.repo.ListDeliveryOrders(r.Context(), tenantID)
	if err != nil {
		h.logger.Error("failed to list delivery orders", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, deliveries)
}

type createDeliveryOrderRequest struct {
	OrderID   string  `json:"orderId"`
	PartnerID *string `json:"partnerId"`
	Notes     *string `json:"notes"`
}

func (h *Handler) HandleCreateDeliveryOrder(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req createDeliveryOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.OrderID == "" {
		h.writeError(w, http.StatusBadRequest, "orderId is required")
		return
	}

	delivery, err := h.repo.CreateDeliveryOrder(r.Context(), tenantID, req.OrderID, req.PartnerID, req.Notes)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to create delivery order", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusCreated, delivery)
}

type updateDeliveryStatusRequest struct {
	Status       *string `json:"status"`
	EtaMinutes   *int    `json:"etaMinutes"`
	TrackingCode *string `json:"trackingCode"`
}

func (h *Handler) HandleUpdateDeliveryStatus(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req updateDeliveryStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	delivery, err := h.repo.UpdateStatus(r.Context(), tenantID, r.PathValue("id"), UpdateDeliveryStatusInput{
		Status:       req.Status,
		EtaMinutes:   req.EtaMinutes,
		TrackingCode: req.TrackingCode,
	})
	if err != nil {
		if errors.Is(err, ErrDeliveryOrderNotFound) {
			h.writeError(w, http.StatusNotFound, err.Error())
			return
		}
		h.logger.Error("failed to update delivery status", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	h.writeJSON(w, http.StatusOK, delivery)
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
