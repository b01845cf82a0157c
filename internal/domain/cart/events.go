package cart

import (
	"time"

	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeCart is the aggregate type used by cart events
const AggregateTypeCart = "Cart"

// Event types
const (
	EventTypeItemAdded       = "CartItemAdded"
	EventTypeGuestCartMerged = "GuestCartMerged"
)

// ItemAdded is published after a successful add.
type ItemAdded struct {
	shared.BaseDomainEvent
	SessionID  string `json:"session_id"`
	ProductRef string `json:"product_ref"`
	Name       string `json:"name"`
	Quantity   int    `json:"quantity"`
}

// NewItemAdded creates an ItemAdded event
func NewItemAdded(sessionID string, item Item, qty int, at time.Time) *ItemAdded {
	return &ItemAdded{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeItemAdded, AggregateTypeCart, sessionID, at),
		SessionID:       sessionID,
		ProductRef:      item.ProductRef,
		Name:            item.Name,
		Quantity:        qty,
	}
}

// GuestCartMerged is published once a guest cart has been merged into a user cart.
type GuestCartMerged struct {
	shared.BaseDomainEvent
	SessionID string `json:"session_id"`
	UserID    string `json:"user_id"`
	Merged    int    `json:"merged"`
	Dropped   int    `json:"dropped"`
}

// NewGuestCartMerged creates a GuestCartMerged event
func NewGuestCartMerged(sessionID, userID string, merged, dropped int, at time.Time) *GuestCartMerged {
	return &GuestCartMerged{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGuestCartMerged, AggregateTypeCart, sessionID, at),
		SessionID:       sessionID,
		UserID:          userID,
		Merged:          merged,
		Dropped:         dropped,
	}
}
