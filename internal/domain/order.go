package domain

import "time"

type OrderStatus string

const (
	OrderStatusPending        OrderStatus = "pending"
	OrderStatusProcessing     OrderStatus = "processing"
	OrderStatusReadyForPickup OrderStatus = "ready_for_pickup"
	OrderStatusFulfilled      OrderStatus = "fulfilled"
	OrderStatusCancelled      OrderStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentStatusUnpaid   PaymentStatus = "unpaid"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

type PaymentMethod string

const (
	// PaymentMethodCOD collects cash or mobile money at the door.
	PaymentMethodCOD PaymentMethod = "cod"
	// PaymentMethodPickup pays in-store on collection; no delivery fee.
	PaymentMethodPickup PaymentMethod = "pickup"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodCOD || m == PaymentMethodPickup
}

// Order is an immutable snapshot of a converted cart plus customer and
// delivery metadata. OrderNumber is sequential per tenant.
type Order struct {
	ID               string        `json:"id"`
	OrderNumber      int64         `json:"orderNumber"`
	Status           OrderStatus   `json:"status"`
	Channel          string        `json:"channel"`
	Currency         string        `json:"currency"`
	SubtotalCents    int64         `json:"subtotalCents"`
	DeliveryFeeCents int64         `json:"deliveryFeeCents"`
	DiscountCents    int64         `json:"discountCents"`
	TotalCents       int64         `json:"totalCents"`
	PaymentStatus    PaymentStatus `json:"paymentStatus"`
	PaymentMethod    PaymentMethod `json:"paymentMethod"`
	CityArea         string        `json:"cityArea"`
	PlacedAt         time.Time     `json:"placedAt"`
	Items            []OrderItem   `json:"items"`
}

// OrderItem snapshots product name and price at checkout time so later
// catalog edits do not alter historical orders.
type OrderItem struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	VariantID      *string `json:"variantId"`
	NameSnapshot   string  `json:"name"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	LineTotalCents int64   `json:"lineTotalCents"`
}

// Payment is a placeholder record: no gateway is integrated, money changes
// hands at the door or in-store.
type Payment struct {
	ID                string        `json:"id"`
	Method            PaymentMethod `json:"method"`
	AmountCents       int64         `json:"amountCents"`
	Currency          string        `json:"currency"`
	Status            string        `json:"status"`
	ProviderReference string        `json:"providerReference"`
	NextAction        string        `json:"nextAction"`
}

// ShippingAddress is stored as a JSON blob on the order.
type ShippingAddress struct {
	StreetAddress        string `json:"streetAddress,omitempty"`
	DeliveryInstructions string `json:"deliveryInstructions,omitempty"`
	Phone                string `json:"phone"`
	Email                string `json:"email,omitempty"`
	FirstName            string `json:"firstName,omitempty"`
	LastName             string `json:"lastName,omitempty"`
}
