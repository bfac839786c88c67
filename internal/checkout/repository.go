package checkout

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"

	"github.com/dukaflow/dukaflow/internal/domain"
)

const (
	defaultChannel  = "web"
	defaultCurrency = "KES"
)

// CartRepository owns the cart aggregate: lifecycle, item mutation and the
// cached subtotal. Every mutation runs in one transaction that ends by
// recomputing the subtotal from an aggregate query over the live items, so
// the cached value can never drift from the line totals.
type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

// Init returns the cart for the given token, creating an open cart with zero
// totals and a 7-day expiry if none exists. Idempotent: concurrent inits
// with the same token race on the (tenant_id, cart_token) unique constraint
// and the loser falls through to the re-read.
func (r *CartRepository) Init(ctx context.Context, tenantID, token, channel, currency string) (*domain.Cart, error) {
	if token == "" {
		token = uuid.New().String()
	}
	if channel == "" {
		channel = defaultChannel
	}
	if currency == "" {
		currency = defaultCurrency
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO carts (id, tenant_id, cart_token, channel, status, currency, expires_at)
		VALUES ($1, $2, $3, $4, 'open', $5, now() + interval '7 days')
		ON CONFLICT (tenant_id, cart_token) DO NOTHING
	`, uuid.New().String(), tenantID, token, channel, currency)
	if err != nil {
		return nil, err
	}

	return r.Get(ctx, tenantID, token)
}

// Get loads a cart and its items in insertion order.
func (r *CartRepository) Get(ctx context.Context, tenantID, token string) (*domain.Cart, error) {
	cart := &domain.Cart{}

	err := r.db.QueryRowContext(ctx, `
		SELECT id, cart_token, status, channel, currency,
		       subtotal_cents, delivery_fee_cents, discount_cents, expires_at
		FROM carts
		WHERE tenant_id = $1 AND cart_token = $2
	`, tenantID, token).Scan(
		&cart.ID, &cart.Token, &cart.Status, &cart.Channel, &cart.Currency,
		&cart.SubtotalCents, &cart.DeliveryFeeCents, &cart.DiscountCents, &cart.ExpiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, err
	}

	items, err := loadCartItems(ctx, r.db, cart.ID)
	if err != nil {
		return nil, err
	}

	cart.Items = items
	cart.TotalCents = cart.SubtotalCents + cart.DeliveryFeeCents - cart.DiscountCents
	return cart, nil
}

// AddItem adds a product to the cart, coalescing with an existing line for
// the same (product, variant) pair by incrementing its quantity. The line
// total is recomputed from the unit price snapshot already on the line, not
// re-priced from the catalog.
func (r *CartRepository) AddItem(ctx context.Context, tenantID, token, productID string, variantID *string, quantity int) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cartID, err := lockCart(ctx, tx, tenantID, token)
	if err != nil {
		return nil, err
	}

	var unitPrice int64
	err = tx.QueryRowContext(ctx, `
		SELECT base_price_cents FROM products
		WHERE tenant_id = $1 AND id = $2
	`, tenantID, productID).Scan(&unitPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProductNotFound
		}
		return nil, err
	}

	// The variant must belong to this tenant and this product; the FK alone
	// would accept another tenant's variant id.
	if variantID != nil {
		var one int
		err = tx.QueryRowContext(ctx, `
			SELECT 1 FROM product_variants
			WHERE tenant_id = $1 AND product_id = $2 AND id = $3
		`, tenantID, productID, *variantID).Scan(&one)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, ErrVariantNotFound
			}
			return nil, err
		}
	}

	var itemID string
	var existingQty int
	var snapshotPrice int64
	err = tx.QueryRowContext(ctx, `
		SELECT id, quantity, unit_price_cents FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
		  AND ((variant_id IS NULL AND $3::uuid IS NULL) OR variant_id = $3::uuid)
	`, cartID, productID, variantID).Scan(&itemID, &existingQty, &snapshotPrice)

	switch {
	case err == nil:
		newQty := existingQty + quantity
		_, err = tx.ExecContext(ctx, `
			UPDATE cart_items
			SET quantity = $1, line_total_cents = $2, updated_at = now()
			WHERE id = $3
		`, newQty, int64(newQty)*snapshotPrice, itemID)
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO cart_items (id, tenant_id, cart_id, product_id, variant_id, quantity, unit_price_cents, line_total_cents)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), tenantID, cartID, productID, variantID, quantity, unitPrice, int64(quantity)*unitPrice)
	}
	if err != nil {
		return nil, err
	}

	if err := recalculateSubtotal(ctx, tx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.Get(ctx, tenantID, token)
}

// UpdateItem sets a line's quantity and recomputes its total from the stored
// unit price snapshot.
func (r *CartRepository) UpdateItem(ctx context.Context, tenantID, token, itemID string, quantity int) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cartID, err := lockCart(ctx, tx, tenantID, token)
	if err != nil {
		return nil, err
	}

	var unitPrice int64
	err = tx.QueryRowContext(ctx, `
		SELECT unit_price_cents FROM cart_items
		WHERE cart_id = $1 AND id = $2
	`, cartID, itemID).Scan(&unitPrice)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE cart_items
		SET quantity = $1, line_total_cents = $2, updated_at = now()
		WHERE id = $3
	`, quantity, int64(quantity)*unitPrice, itemID)
	if err != nil {
		return nil, err
	}

	if err := recalculateSubtotal(ctx, tx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.Get(ctx, tenantID, token)
}

// RemoveItem deletes a line. The cart must exist, but deleting an item that
// is already gone is not an error.
func (r *CartRepository) RemoveItem(ctx context.Context, tenantID, token, itemID string) (*domain.Cart, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	cartID, err := lockCart(ctx, tx, tenantID, token)
	if err != nil {
		return nil, err
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM cart_items WHERE cart_id = $1 AND id = $2
	`, cartID, itemID)
	if err != nil {
		return nil, err
	}

	if err := recalculateSubtotal(ctx, tx, cartID); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	return r.Get(ctx, tenantID, token)
}

// SetDeliveryFee persists a quoted fee onto the cart without touching items.
func (r *CartRepository) SetDeliveryFee(ctx context.Context, tenantID, token string, feeCents int64) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE carts SET delivery_fee_cents = $1, updated_at = now()
		WHERE tenant_id = $2 AND cart_token = $3
	`, feeCents, tenantID, token)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrCartNotFound
	}

	return nil
}

// lockCart takes the cart row lock that serializes concurrent mutations of
// one cart, and rejects carts that were already converted.
func lockCart(ctx context.Context, tx *sql.Tx, tenantID, token string) (string, error) {
	var cartID string
	var status domain.CartStatus

	err := tx.QueryRowContext(ctx, `
		SELECT id, status FROM carts
		WHERE tenant_id = $1 AND cart_token = $2
		FOR UPDATE
	`, tenantID, token).Scan(&cartID, &status)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", ErrCartNotFound
		}
		return "", err
	}
	if status != domain.CartStatusOpen {
		return "", ErrCartNotOpen
	}

	return cartID, nil
}

// recalculateSubtotal refreshes the cached subtotal from the live items, in
// the same transaction as the item write. Incrementing the cached value
// instead would lose updates under concurrent mutation.
func recalculateSubtotal(ctx context.Context, tx *sql.Tx, cartID string) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE carts
		SET subtotal_cents = (
			SELECT COALESCE(SUM(line_total_cents), 0) FROM cart_items WHERE cart_id = $1
		), updated_at = now()
		WHERE id = $1
	`, cartID)
	return err
}

type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func loadCartItems(ctx context.Context, q querier, cartID string) ([]domain.CartItem, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT ci.id, ci.product_id, ci.variant_id, ci.quantity,
		       ci.unit_price_cents, ci.line_total_cents, p.name, p.slug
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at ASC
	`, cartID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	items := []domain.CartItem{}
	for rows.Next() {
		var item domain.CartItem
		if err := rows.Scan(&item.ID, &item.ProductID, &item.VariantID, &item.Quantity,
			&item.UnitPriceCents, &item.LineTotalCents, &item.Name, &item.Slug); err != nil {
			return nil, err
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
