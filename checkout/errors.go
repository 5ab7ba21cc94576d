package checkout

import (
	"errors"
	"fmt"
)

// Stable error kinds surfaced to API clients. Each deterministic failure of
// the engine maps to exactly one kind so the cashier UI can render a specific
// message instead of a generic one.
const (
	KindEmptyCart         = "EMPTY_CART"
	KindInvalidQuantity   = "INVALID_QUANTITY"
	KindProductNotFound   = "PRODUCT_NOT_FOUND"
	KindInsufficientStock = "INSUFFICIENT_STOCK"
	KindTransient         = "TRANSIENT"
)

var (
	ErrEmptyCart       = errors.New("cart is empty, nothing to checkout")
	ErrInvalidQuantity = errors.New("cart line quantity must be a positive integer")
)

// ProductNotFoundError reports cart lines that reference products which do
// not exist or have been soft-deleted.
type ProductNotFoundError struct {
	IDs []uint
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("products not found: %v", e.IDs)
}

// InsufficientStockError reports a line whose requested quantity exceeds the
// product's available stock, whether detected at validation time or inside
// the atomic commit.
type InsufficientStockError struct {
	ProductID uint
	Name      string
	Requested int64
	Available int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q (id=%d): requested %d, available %d",
		e.Name, e.ProductID, e.Requested, e.Available)
}

// TransientError wraps store failures (connection loss, deadlock, timeout).
// The whole checkout may be resubmitted unchanged: nothing was committed.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string {
	return fmt.Sprintf("checkout aborted by store error: %v", e.Err)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// Kind classifies an engine error into one of the stable kind strings.
// Unknown errors are classified as transient, which is safe because the
// engine never leaves a partial commit behind.
func Kind(err error) string {
	var notFound *ProductNotFoundError
	var insufficient *InsufficientStockError
	switch {
	case errors.Is(err, ErrEmptyCart):
		return KindEmptyCart
	case errors.Is(err, ErrInvalidQuantity):
		return KindInvalidQuantity
	case errors.As(err, &notFound):
		return KindProductNotFound
	case errors.As(err, &insufficient):
		return KindInsufficientStock
	default:
		return KindTransient
	}
}
