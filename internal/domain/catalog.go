package domain

import "time"

type Product struct {
	ID                  string    `json:"id"`
	StoreID             string    `json:"storeId"`
	Name                string    `json:"name"`
	Slug                string    `json:"slug"`
	Description         string    `json:"description"`
	CategoryID          *string   `json:"categoryId"`
	Status              string    `json:"status"`
	Brand               *string   `json:"brand"`
	BasePriceCents      int64     `json:"basePriceCents"`
	CompareAtPriceCents *int64    `json:"compareAtPriceCents"`
	Currency            string    `json:"currency"`
	SKU                 *string   `json:"sku"`
	CreatedAt           time.Time `json:"createdAt"`
	UpdatedAt           time.Time `json:"updatedAt"`
}

type ProductVariant struct {
	ID            string  `json:"id"`
	ProductID     string  `json:"productId"`
	Name          *string `json:"name"`
	SKU           *string `json:"sku"`
	PriceCents    *int64  `json:"priceCents"`
	StockQuantity int     `json:"stockQuantity"`
	IsActive      bool    `json:"isActive"`
}
