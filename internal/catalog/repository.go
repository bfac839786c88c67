package catalog

import (
	"context"
	"database/sql"
	"errors"
	"strconv"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/dukaflow/dukaflow/internal/domain"
)

var (
	ErrProductNotFound = errors.New("product not found")
	ErrSlugTaken       = errors.New("product slug already in use")
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

// List returns the tenant's products, newest first, optionally filtered by a
// name/description substring and a category.
func (r *ProductRepository) List(ctx context.Context, tenantID, query, categoryID string) ([]domain.Product, error) {
	where := "tenant_id = $1"
	params := []any{tenantID}

	if categoryID != "" {
		params = append(params, categoryID)
		where += " AND category_id = $2"
	}
	if query != "" {
		params = append(params, "%"+query+"%")
		n := strconv.Itoa(len(params))
		where += " AND (name ILIKE $" + n + " OR description ILIKE $" + n + ")"
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT id, store_id, name, slug, description, category_id, status, brand,
		       base_price_cents, compare_at_price_cents, currency, sku, created_at, updated_at
		FROM products
		WHERE `+where+`
		ORDER BY created_at DESC
		LIMIT 100
	`, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	products := []domain.Product{}
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.StoreID, &p.Name, &p.Slug, &p.Description, &p.CategoryID,
			&p.Status, &p.Brand, &p.BasePriceCents, &p.CompareAtPriceCents, &p.Currency,
			&p.SKU, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return products, nil
}

func (r *ProductRepository) GetByID(ctx context.Context, tenantID, id string) (*domain.Product, error) {
	p := &domain.Product{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, store_id, name, slug, description, category_id, status, brand,
		       base_price_cents, compare_at_price_cents, currency, sku, created_at, updated_at
		FROM products
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, id).Scan(&p.ID, &p.StoreID, &p.Name, &p.Slug, &p.Description, &p.CategoryID,
		&p.Status, &p.Brand, &p.BasePriceCents, &p.CompareAtPriceCents, &p.Currency,
		&p.SKU, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	return p, nil
}

type CreateProductInput struct {
	Name           string
	Slug           string
	Description    string
	CategoryID     *string
	Status         string
	Brand          *string
	BasePriceCents int64
	Currency       string
	SKU            *string
}

func (r *ProductRepository) Create(ctx context.Context, tenantID string, input CreateProductInput) (*domain.Product, error) {
	storeID, err := r.defaultStoreID(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	if input.Status == "" {
		input.Status = "draft"
	}
	if input.Currency == "" {
		input.Currency = "KES"
	}

	id := uuid.New().String()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, tenant_id, store_id, name, slug, description, category_id, status, brand, base_price_cents, currency, sku)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, id, tenantID, storeID, input.Name, input.Slug, input.Description, input.CategoryID,
		input.Status, input.Brand, input.BasePriceCents, input.Currency, input.SKU)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" && pqErr.Constraint == "uq_products_tenant_slug" {
			return nil, ErrSlugTaken
		}
		return nil, err
	}

	return r.GetByID(ctx, tenantID, id)
}

type CreateVariantInput struct {
	Name          *string
	SKU           *string
	PriceCents    *int64
	StockQuantity int
}

func (r *ProductRepository) AddVariant(ctx context.Context, tenantID, productID string, input CreateVariantInput) (*domain.ProductVariant, error) {
	if _, err := r.GetByID(ctx, tenantID, productID); err != nil {
		return nil, err
	}

	variant := &domain.ProductVariant{
		ID:            uuid.New().String(),
		ProductID:     productID,
		Name:          input.Name,
		SKU:           input.SKU,
		PriceCents:    input.PriceCents,
		StockQuantity: input.StockQuantity,
		IsActive:      true,
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO product_variants (id, tenant_id, product_id, name, sku, price_cents, stock_quantity, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, true)
	`, variant.ID, tenantID, productID, variant.Name, variant.SKU, variant.PriceCents, variant.StockQuantity)
	if err != nil {
		return nil, err
	}

	return variant, nil
}

func (r *ProductRepository) defaultStoreID(ctx context.Context, tenantID string) (string, error) {
	var storeID string
	err := r.db.QueryRowContext(ctx, `
		SELECT id FROM stores WHERE tenant_id = $1 ORDER BY created_at ASC LIMIT 1
	`, tenantID).Scan(&storeID)
	if err == nil {
		return storeID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}

	storeID = uuid.New().String()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO stores (id, tenant_id, name, slug, default_currency, is_live)
		VALUES ($1, $2, 'Default Store', 'default', 'KES', false)
	`, storeID, tenantID)
	if err != nil {
		return "", err
	}

	return storeID, nil
}
