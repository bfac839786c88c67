package domain

import "time"

// OrderPlacedEvent is published to Kafka after a checkout transaction
// commits. The worker fans it out into fulfillment bookkeeping.
type OrderPlacedEvent struct {
	OrderID       string        `json:"order_id"`
	TenantID      string        `json:"tenant_id"`
	OrderNumber   int64         `json:"order_number"`
	CustomerID    string        `json:"customer_id"`
	TotalCents    int64         `json:"total_cents"`
	Currency      string        `json:"currency"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	CityArea      string        `json:"city_area"`
	Timestamp     time.Time     `json:"timestamp"`
}
