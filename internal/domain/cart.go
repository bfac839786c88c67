package domain

import "time"

type CartStatus string

const (
	// CartStatusOpen is the only state in which item mutation is allowed.
	CartStatusOpen CartStatus = "open"
	// CartStatusConverted is terminal; set once, at checkout.
	CartStatusConverted CartStatus = "converted"
)

// Cart is the mutable shopping aggregate, addressed by an opaque client-held
// token. SubtotalCents is a cached value and always equals the sum of the
// items' line totals; it is recomputed inside the same transaction as every
// item mutation.
type Cart struct {
	ID               string     `json:"-"`
	Token            string     `json:"cartToken"`
	Status           CartStatus `json:"status"`
	Channel          string     `json:"channel"`
	Currency         string     `json:"currency"`
	SubtotalCents    int64      `json:"subtotalCents"`
	DeliveryFeeCents int64      `json:"deliveryFeeCents"`
	DiscountCents    int64      `json:"discountCents"`
	TotalCents       int64      `json:"totalCents"`
	ExpiresAt        time.Time  `json:"expiresAt"`
	Items            []CartItem `json:"items"`
}

// CartItem snapshots the product's unit price at add-time; catalog edits
// never reprice an open cart.
type CartItem struct {
	ID             string  `json:"id"`
	ProductID      string  `json:"productId"`
	VariantID      *string `json:"variantId"`
	Quantity       int     `json:"quantity"`
	UnitPriceCents int64   `json:"unitPriceCents"`
	LineTotalCents int64   `json:"lineTotalCents"`
	Name           string  `json:"name"`
	Slug           string  `json:"slug"`
}
