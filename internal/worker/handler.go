package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/dukaflow/dukaflow/internal/checkout"
	"github.com/dukaflow/dukaflow/internal/delivery"
	"github.com/dukaflow/dukaflow/internal/domain"
)

// FulfillmentHandler consumes order.placed events and moves each order into
// its first fulfillment state. Pickup orders are ready immediately; delivery
// orders get a pending delivery record and an ETA from the city-area table.
type FulfillmentHandler struct {
	orders     *checkout.Orchestrator
	deliveries *delivery.Repository
	logger     *slog.Logger
}

func NewFulfillmentHandler(orders *checkout.Orchestrator, deliveries *delivery.Repository, logger *slog.Logger) *FulfillmentHandler {
	return &FulfillmentHandler{
		orders:     orders,
		deliveries: deliveries,
		logger:     logger,
	}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, payload []byte) error {
	var event domain.OrderPlacedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("unmarshal order placed event: %w", err)
	}

	h.logger.Info("processing order placed event",
		"order_id", event.OrderID, "tenant_id", event.TenantID,
		"order_number", event.OrderNumber, "payment_method", event.PaymentMethod)

	if event.PaymentMethod == domain.PaymentMethodPickup {
		if err := h.orders.UpdateOrderStatus(ctx, event.TenantID, event.OrderID, domain.OrderStatusReadyForPickup); err != nil {
			return fmt.Errorf("mark order ready for pickup: %w", err)
		}
		h.logger.Info("order ready for pickup", "order_id", event.OrderID)
		return nil
	}

	deliveryOrder, err := h.deliveries.CreateDeliveryOrder(ctx, event.TenantID, event.OrderID, nil, nil)
	if err != nil {
		return fmt.Errorf("create delivery order: %w", err)
	}

	eta := delivery.Estimate(event.CityArea).EtaMinutes
	_, err = h.deliveries.UpdateStatus(ctx, event.TenantID, deliveryOrder.ID, delivery.UpdateDeliveryStatusInput{
		EtaMinutes: &eta,
	})
	if err != nil {
		return fmt.Errorf("set delivery eta: %w", err)
	}

	if err := h.orders.UpdateOrderStatus(ctx, event.TenantID, event.OrderID, domain.OrderStatusProcessing); err != nil {
		return fmt.Errorf("mark order processing: %w", err)
	}

	h.logger.Info("delivery scheduled", "order_id", event.OrderID,
		"delivery_id", deliveryOrder.ID, "eta_minutes", eta)
	return nil
}
