package domain

import "time"

// DeliveryPartner is a courier integration slot (pickup_mtaani, manual, ...).
type DeliveryPartner struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Provider  string         `json:"provider"`
	Config    map[string]any `json:"config"`
	IsActive  bool           `json:"isActive"`
	CreatedAt time.Time      `json:"createdAt"`
}

type DeliveryOrder struct {
	ID           string    `json:"id"`
	OrderID      string    `json:"orderId"`
	PartnerID    *string   `json:"partnerId"`
	Status       string    `json:"status"`
	EtaMinutes   *int      `json:"etaMinutes"`
	TrackingCode *string   `json:"trackingCode"`
	Notes        *string   `json:"notes"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
