package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dukaflow/dukaflow/internal/delivery"
	"github.com/dukaflow/dukaflow/internal/domain"
)

// Order numbers start above the floor so the first order of a tenant reads
// like #1001, and are unique per tenant via uq_orders_tenant_number.
const orderNumberFloor = 1000

const maxOrderNumberRetries = 3

const (
	nextActionPickup   = "Customer will pay at pickup location"
	nextActionDelivery = "Collect payment on delivery (cash/MPesa at door)"
)

type CheckoutRequest struct {
	CartToken            string
	CityArea             string
	StreetAddress        string
	DeliveryInstructions string
	Phone                string
	Email                string
	FirstName            string
	LastName             string
	PaymentMethod        domain.PaymentMethod
	WhatsAppOptIn        bool
}

type CheckoutResult struct {
	OrderID     string         `json:"orderId"`
	OrderNumber int64          `json:"orderNumber"`
	TotalCents  int64          `json:"totalCents"`
	Currency    string         `json:"currency"`
	Payment     domain.Payment `json:"payment"`

	CustomerID string `json:"-"`
}

// Orchestrator converts an open cart into an order, its line items and a
// pending payment record in a single transaction, then marks the cart
// converted. The cart row is locked FOR UPDATE for the whole transaction, so
// at most one checkout per cart can succeed.
type Orchestrator struct {
	db *sql.DB
}

func NewOrchestrator(db *sql.DB) *Orchestrator {
	return &Orchestrator{db: db}
}

// PlaceOrder runs the checkout. The per-tenant order number is allocated
// max+1 style, so two concurrent checkouts for one tenant can pick the same
// number; the unique constraint rejects the second and the whole attempt is
// retried with a fresh number.
func (o *Orchestrator) PlaceOrder(ctx context.Context, tenantID string, req CheckoutRequest) (*CheckoutResult, error) {
	var lastErr error
	for attempt := 0; attempt < maxOrderNumberRetries; attempt++ {
		result, err := o.placeOrderOnce(ctx, tenantID, req)
		if err == nil {
			return result, nil
		}
		if !isOrderNumberConflict(err) {
			return nil, err
		}
		lastErr = err
	}
	return nil, lastErr
}

func (o *Orchestrator) placeOrderOnce(ctx context.Context, tenantID string, req CheckoutRequest) (*CheckoutResult, error) {
	tx, err := o.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var (
		cartID     string
		cartStatus domain.CartStatus
		currency   string
		subtotal   int64
		quotedFee  int64
		discount   int64
	)
	err = tx.QueryRowContext(ctx, `
		SELECT id, status, currency, subtotal_cents, delivery_fee_cents, discount_cents
		FROM carts
		WHERE tenant_id = $1 AND cart_token = $2
		FOR UPDATE
	`, tenantID, req.CartToken).Scan(&cartID, &cartStatus, &currency, &subtotal, &quotedFee, &discount)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}
	if cartStatus != domain.CartStatusOpen {
		return nil, ErrCartNotOpen
	}

	items, err := loadCartItems(ctx, tx, cartID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, ErrEmptyCart
	}

	customerID, err := findOrCreateCustomer(ctx, tx, tenantID, req)
	if err != nil {
		return nil, err
	}

	storeID, err := defaultStoreID(ctx, tx, tenantID)
	if err != nil {
		return nil, err
	}

	var orderNumber int64
	err = tx.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(order_number), $2) + 1 FROM orders WHERE tenant_id = $1
	`, tenantID, orderNumberFloor).Scan(&orderNumber)
	if err != nil {
		return nil, err
	}

	isPickup := req.PaymentMethod == domain.PaymentMethodPickup
	deliveryFee := int64(0)
	if !isPickup {
		deliveryFee = quotedFee
		if deliveryFee == 0 {
			deliveryFee = delivery.Estimate(req.CityArea).FeeCents
		}
	}

	total := subtotal + deliveryFee - discount

	address, err := json.Marshal(domain.ShippingAddress{
		StreetAddress:        req.StreetAddress,
		DeliveryInstructions: req.DeliveryInstructions,
		Phone:                req.Phone,
		Email:                req.Email,
		FirstName:            req.FirstName,
		LastName:             req.LastName,
	})
	if err != nil {
		return nil, err
	}

	orderID := uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (
			id, tenant_id, store_id, customer_id, cart_id, order_number,
			status, channel, currency, subtotal_cents, delivery_fee_cents,
			discount_cents, total_cents, payment_status, payment_method,
			delivery_city_area, shipping_address
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			'pending', 'web', $7, $8, $9,
			$10, $11, 'unpaid', $12,
			$13, $14
		)
	`, orderID, tenantID, storeID, customerID, cartID, orderNumber,
		currency, subtotal, deliveryFee, discount, total, req.PaymentMethod,
		req.CityArea, address)
	if err != nil {
		return nil, err
	}

	for _, item := range items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (
				id, tenant_id, order_id, product_id, variant_id,
				name_snapshot, quantity, unit_price_cents, line_total_cents
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.New().String(), tenantID, orderID, item.ProductID, item.VariantID,
			item.Name, item.Quantity, item.UnitPriceCents, item.LineTotalCents)
		if err != nil {
			return nil, err
		}
	}

	payment := domain.Payment{
		ID:                uuid.New().String(),
		Method:            req.PaymentMethod,
		AmountCents:       total,
		Currency:          currency,
		Status:            "pending",
		ProviderReference: uuid.New().String(),
		NextAction:        nextActionDelivery,
	}
	if isPickup {
		payment.NextAction = nextActionPickup
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO payments (id, tenant_id, order_id, method, amount_cents, currency, status, provider_reference, phone)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, payment.ID, tenantID, orderID, payment.Method, payment.AmountCents,
		payment.Currency, payment.Status, payment.ProviderReference, req.Phone)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE carts
		SET status = $1, delivery_fee_cents = $2, updated_at = now()
		WHERE id = $3
	`, domain.CartStatusConverted, deliveryFee, cartID)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return &CheckoutResult{
		OrderID:     orderID,
		OrderNumber: orderNumber,
		TotalCents:  total,
		Currency:    currency,
		Payment:     payment,
		CustomerID:  customerID,
	}, nil
}

// UpdateOrderStatus advances an order's status; used by the fulfillment
// worker after the order.placed event.
func (o *Orchestrator) UpdateOrderStatus(ctx context.Context, tenantID, orderID string, status domain.OrderStatus) error {
	result, err := o.db.ExecContext(ctx, `
		UPDATE orders SET status = $1, updated_at = now()
		WHERE tenant_id = $2 AND id = $3
	`, status, tenantID, orderID)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrOrderNotFound
	}

	return nil
}

func findOrCreateCustomer(ctx context.Context, tx *sql.Tx, tenantID string, req CheckoutRequest) (string, error) {
	email := nullable(req.Email)

	var customerID string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM customers
		WHERE tenant_id = $1 AND (phone = $2 OR email = $3)
		LIMIT 1
	`, tenantID, req.Phone, email).Scan(&customerID)
	if err == nil {
		return customerID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	customerID = uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO customers (id, tenant_id, phone, email, first_name, last_name, whatsapp_opt_in, city_area)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, customerID, tenantID, req.Phone, email, nullable(req.FirstName), nullable(req.LastName),
		req.WhatsAppOptIn, nullable(req.CityArea))
	if err != nil {
		return "", err
	}

	return customerID, nil
}

// defaultStoreID returns the tenant's first store by creation order, lazily
// creating one on first use.
func defaultStoreID(ctx context.Context, tx *sql.Tx, tenantID string) (string, error) {
	var storeID string
	err := tx.QueryRowContext(ctx, `
		SELECT id FROM stores WHERE tenant_id = $1 ORDER BY created_at ASC LIMIT 1
	`, tenantID).Scan(&storeID)
	if err == nil {
		return storeID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	storeID = uuid.New().String()
	_, err = tx.ExecContext(ctx, `
		INSERT INTO stores (id, tenant_id, name, slug, default_currency, is_live)
		VALUES ($1, $2, 'Default Store', 'default', 'KES', false)
	`, storeID, tenantID)
	if err != nil {
		return "", err
	}

	return storeID, nil
}

func isOrderNumberConflict(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return pqErr.Code == "23505" && pqErr.Constraint == "uq_orders_tenant_number"
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
