package domain

// Customer is resolved by phone (primary) or email within a tenant, and
// created on first checkout if absent.
type Customer struct {
	ID            string  `json:"id"`
	Phone         string  `json:"phone"`
	Email         *string `json:"email"`
	FirstName     *string `json:"firstName"`
	LastName      *string `json:"lastName"`
	WhatsAppOptIn bool    `json:"whatsappOptIn"`
	CityArea      *string `json:"cityArea"`
}

type Store struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Slug            string `json:"slug"`
	DefaultCurrency string `json:"defaultCurrency"`
	IsLive          bool   `json:"isLive"`
}
