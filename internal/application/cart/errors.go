package cart

import "github.com/storefront/backend/internal/domain/shared"

var (
	// ErrCartNotReady is returned for mutations before the first identity report.
	ErrCartNotReady = shared.NewDomainError("INVALID_STATE", "Cart is not ready yet")
	// ErrSessionClosed is returned once the engine has been torn down.
	ErrSessionClosed = shared.NewDomainError("UNAVAILABLE", "Cart session has been closed")
	// ErrInvalidQuantity is returned when adding less than one unit.
	ErrInvalidQuantity = shared.NewDomainError("INVALID_INPUT", "Quantity must be at least 1")
)
