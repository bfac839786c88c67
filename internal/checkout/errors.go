package checkout

import "errors"

var (
	ErrCartNotFound    = errors.New("cart not found")
	ErrProductNotFound = errors.New("product not found")
	ErrVariantNotFound = errors.New("product variant not found")
	ErrItemNotFound    = errors.New("cart item not found")
	ErrOrderNotFound   = errors.New("order not found")

	// ErrCartNotOpen signals a business-rule conflict: the cart was already
	// converted by a previous checkout.
	ErrCartNotOpen = errors.New("cart already checked out")
	ErrEmptyCart   = errors.New("cart is empty")
)
