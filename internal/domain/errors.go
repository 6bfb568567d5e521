package domain

import "errors"

// Sentinel errors for domain-level error handling.
// The handler layer maps these to HTTP status codes.
var (
	ErrInvalidOrder    = errors.New("invalid_order")
	ErrOrderNotFound   = errors.New("order_not_found")
	ErrNoLiquidity     = errors.New("no_liquidity")
	ErrInvalidQuantity = errors.New("invalid_quantity")
	ErrSymbolNotFound  = errors.New("symbol_not_found")
	ErrSymbolExists    = errors.New("symbol_already_exists")
)

// ValidationError represents a request validation failure.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}
