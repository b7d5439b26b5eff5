// Package errors provides custom error types for catalog, order and receipt operations.
package errors

import "errors"

var ErrValidation = errors.New("validation failed")
var ErrInactiveProduct = errors.New("product is inactive")
var ErrOutOfStock = errors.New("insufficient stock")
var ErrOrderLimitExceeded = errors.New("order limit exceeded")

var ErrProductNotFound = errors.New("product not found")
var ErrPromotionNotFound = errors.New("promotion not found")

var ErrSaveReceipt = errors.New("failed to save receipt")
var ErrFindReceipts = errors.New("failed to find receipts")

var ErrTransactionBegin = errors.New("failed to begin transaction")
var ErrTransactionRollback = errors.New("failed to rollback transaction")
var ErrTransactionCommit = errors.New("failed to commit transaction")

// Error kinds reported to transports alongside a failed order line.
const (
	KindValidation         = "validation"
	KindInactiveProduct    = "inactive_product"
	KindOutOfStock         = "out_of_stock"
	KindOrderLimitExceeded = "order_limit_exceeded"
	KindProductNotFound    = "product_not_found"
	KindPromotionNotFound  = "promotion_not_found"
	KindUnknown            = "unknown"
)

// Kind maps err to the stable kind of the first sentinel it wraps.
func Kind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInactiveProduct):
		return KindInactiveProduct
	case errors.Is(err, ErrOutOfStock):
		return KindOutOfStock
	case errors.Is(err, ErrOrderLimitExceeded):
		return KindOrderLimitExceeded
	case errors.Is(err, ErrProductNotFound):
		return KindProductNotFound
	case errors.Is(err, ErrPromotionNotFound):
		return KindPromotionNotFound
	default:
		return KindUnknown
	}
}
