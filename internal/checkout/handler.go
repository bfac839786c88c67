package checkout

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/dukaflow/dukaflow/internal/delivery"
	"github.com/dukaflow/dukaflow/internal/domain"
	"github.com/dukaflow/dukaflow/internal/messaging"
	"github.com/dukaflow/dukaflow/internal/tenant"
)

const (
	minQuantity = 1
	maxQuantity = 99
)

type Handler struct {
	carts        *CartRepository
	orchestrator *Orchestrator
	producer     *messaging.Producer
	logger       *slog.Logger
	ordersPlaced metric.Int64Counter
}

func NewHandler(carts *CartRepository, orchestrator *Orchestrator, producer *messaging.Producer, logger *slog.Logger) (*Handler, error) {
	ordersPlaced, err := otel.Meter("checkout").Int64Counter("checkout.orders_placed")
	if err != nil {
		return nil, err
	}

	return &Handler{
		carts:        carts,
		orchestrator: orchestrator,
		producer:     producer,
		logger:       logger,
		ordersPlaced: ordersPlaced,
	}, nil
}

type initCartRequest struct {
	CartToken string `json:"cartToken"`
	Channel   string `json:"channel"`
	Currency  string `json:"currency"`
}

func (h *Handler) HandleInitCart(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req initCartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	cart, err := h.carts.Init(r.Context(), tenantID, req.CartToken, req.Channel, req.Currency)
	if err != nil {
		h.writeDomainError(w, err, "failed to init cart")
		return
	}

	h.logger.Info("cart initialized", "tenant_id", tenantID, "cart_token", cart.Token)
	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleGetCart(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	cart, err := h.carts.Get(r.Context(), tenantID, r.PathValue("cartToken"))
	if err != nil {
		h.writeDomainError(w, err, "failed to get cart")
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type addItemRequest struct {
	ProductID string  `json:"productId"`
	VariantID *string `json:"variantId"`
	Quantity  int     `json:"quantity"`
}

func (h *Handler) HandleAddItem(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req addItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if uuid.Validate(req.ProductID) != nil {
		h.writeError(w, http.StatusBadRequest, "invalid product id")
		return
	}
	if req.VariantID != nil && uuid.Validate(*req.VariantID) != nil {
		h.writeError(w, http.StatusBadRequest, "invalid variant id")
		return
	}
	if req.Quantity < minQuantity || req.Quantity > maxQuantity {
		h.writeError(w, http.StatusBadRequest, "quantity must be between 1 and 99")
		return
	}

	cart, err := h.carts.AddItem(r.Context(), tenantID, r.PathValue("cartToken"), req.ProductID, req.VariantID, req.Quantity)
	if err != nil {
		h.writeDomainError(w, err, "failed to add cart item")
		return
	}

	h.logger.Info("cart item added", "tenant_id", tenantID, "cart_token", cart.Token, "product_id", req.ProductID)
	h.writeJSON(w, http.StatusOK, cart)
}

type updateItemRequest struct {
	Quantity int `json:"quantity"`
}

func (h *Handler) HandleUpdateItem(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req updateItemRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Quantity < minQuantity || req.Quantity > maxQuantity {
		h.writeError(w, http.StatusBadRequest, "quantity must be between 1 and 99")
		return
	}

	cart, err := h.carts.UpdateItem(r.Context(), tenantID, r.PathValue("cartToken"), r.PathValue("itemId"), req.Quantity)
	if err != nil {
		h.writeDomainError(w, err, "failed to update cart item")
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

func (h *Handler) HandleDeleteItem(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), tenantID, r.PathValue("cartToken"), r.PathValue("itemId"))
	if err != nil {
		h.writeDomainError(w, err, "failed to delete cart item")
		return
	}

	h.writeJSON(w, http.StatusOK, cart)
}

type quoteRequest struct {
	CartToken string `json:"cartToken"`
	CityArea  string `json:"cityArea"`
}

type quoteResponse struct {
	CartToken  string `json:"cartToken"`
	FeeCents   int64  `json:"feeCents"`
	EtaMinutes int    `json:"etaMinutes"`
	Rule       string `json:"rule"`
}

func (h *Handler) HandleQuote(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CartToken == "" || req.CityArea == "" {
		h.writeError(w, http.StatusBadRequest, "cartToken and cityArea are required")
		return
	}

	quote := delivery.Estimate(req.CityArea)

	if err := h.carts.SetDeliveryFee(r.Context(), tenantID, req.CartToken, quote.FeeCents); err != nil {
		h.writeDomainError(w, err, "failed to persist delivery quote")
		return
	}

	h.logger.Info("delivery quoted", "tenant_id", tenantID, "cart_token", req.CartToken,
		"city_area", req.CityArea, "fee_cents", quote.FeeCents, "rule", quote.Rule)
	h.writeJSON(w, http.StatusOK, quoteResponse{
		CartToken:  req.CartToken,
		FeeCents:   quote.FeeCents,
		EtaMinutes: quote.EtaMinutes,
		Rule:       quote.Rule,
	})
}

type submitRequest struct {
	CartToken            string               `json:"cartToken"`
	CityArea             string               `json:"cityArea"`
	StreetAddress        string               `json:"streetAddress"`
	DeliveryInstructions string               `json:"deliveryInstructions"`
	Phone                string               `json:"phone"`
	Email                string               `json:"email"`
	FirstName            string               `json:"firstName"`
	LastName             string               `json:"lastName"`
	PaymentMethod        domain.PaymentMethod `json:"paymentMethod"`
	WhatsAppOptIn        bool                 `json:"whatsappOptIn"`
}

func (h *Handler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := tenant.FromContext(r.Context())
	if !ok {
		h.writeError(w, http.StatusBadRequest, "tenant missing on request")
		return
	}

	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CartToken == "" || req.CityArea == "" {
		h.writeError(w, http.StatusBadRequest, "cartToken and cityArea are required")
		return
	}
	if req.Phone == "" {
		h.writeError(w, http.StatusBadRequest, "phone is required")
		return
	}
	if !req.PaymentMethod.Valid() {
		h.writeError(w, http.StatusBadRequest, "paymentMethod must be cod or pickup")
		return
	}

	result, err := h.orchestrator.PlaceOrder(r.Context(), tenantID, CheckoutRequest{
		CartToken:            req.CartToken,
		CityArea:             req.CityArea,
		StreetAddress:        req.StreetAddress,
		DeliveryInstructions: req.DeliveryInstructions,
		Phone:                req.Phone,
		Email:                req.Email,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
		PaymentMethod:        req.PaymentMethod,
		WhatsAppOptIn:        req.WhatsAppOptIn,
	})
	if err != nil {
		h.writeDomainError(w, err, "checkout failed")
		return
	}

	h.ordersPlaced.Add(r.Context(), 1)

	if h.producer != nil {
		event := domain.OrderPlacedEvent{
			OrderID:       result.OrderID,
			TenantID:      tenantID,
			OrderNumber:   result.OrderNumber,
			CustomerID:    result.CustomerID,
			TotalCents:    result.TotalCents,
			Currency:      result.Currency,
			PaymentMethod: req.PaymentMethod,
			CityArea:      req.CityArea,
			Timestamp:     time.Now().UTC(),
		}
		if err := h.producer.Publish(r.Context(), result.OrderID, event); err != nil {
			h.logger.Error("failed to publish order placed event", "error", err, "order_id", result.OrderID)
		}
	}

	h.logger.Info("order placed", "tenant_id", tenantID, "order_id", result.OrderID,
		"order_number", result.OrderNumber, "total_cents", result.TotalCents)
	h.writeJSON(w, http.StatusCreated, result)
}

// writeDomainError maps the checkout error taxonomy onto HTTP statuses:
// missing resources are 404, the converted-cart business rule is 409, bad
// input is 400, everything else is an opaque 500.
func (h *Handler) writeDomainError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case errors.Is(err, ErrCartNotFound),
		errors.Is(err, ErrProductNotFound),
		errors.Is(err, ErrVariantNotFound),
		errors.Is(err, ErrItemNotFound),
		errors.Is(err, ErrOrderNotFound):
		h.writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrEmptyCart):
		h.writeError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, ErrCartNotOpen):
		h.writeError(w, http.StatusConflict, err.Error())
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal server error")
	}
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
