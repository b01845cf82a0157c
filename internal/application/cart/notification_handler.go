package cart

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
)

// Notifier shows a transient message to a session.
type Notifier interface {
	Show(sessionID, message string)
}

// ItemAddedNotificationHandler shows the added product's name after every
// successful add.
type ItemAddedNotificationHandler struct {
	notifier Notifier
	logger   *zap.Logger
}

// NewItemAddedNotificationHandler creates the handler
func NewItemAddedNotificationHandler(notifier Notifier, logger *zap.Logger) *ItemAddedNotificationHandler {
	return &ItemAddedNotificationHandler{
		notifier: notifier,
		logger:   logger,
	}
}

// EventTypes returns the event types this handler is interested in
func (h *ItemAddedNotificationHandler) EventTypes() []string {
	return []string{cart.EventTypeItemAdded}
}

// Handle shows the notification for a CartItemAdded event
func (h *ItemAddedNotificationHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	added, ok := event.(*cart.ItemAdded)
	if !ok {
		h.logger.Error("unexpected event type",
			zap.String("expected", cart.EventTypeItemAdded),
			zap.String("actual", event.EventType()),
		)
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			cart.EventTypeItemAdded, event.EventType())
	}
	h.notifier.Show(added.SessionID, added.Name)
	return nil
}

// GuestCartMergedHandler writes an audit log entry for every merge.
type GuestCartMergedHandler struct {
	logger *zap.Logger
}

// NewGuestCartMergedHandler creates the handler
func NewGuestCartMergedHandler(logger *zap.Logger) *GuestCartMergedHandler {
	return &GuestCartMergedHandler{logger: logger}
}

// EventTypes returns the event types this handler is interested in
func (h *GuestCartMergedHandler) EventTypes() []string {
	return []string{cart.EventTypeGuestCartMerged}
}

// Handle logs the merge outcome
func (h *GuestCartMergedHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	merged, ok := event.(*cart.GuestCartMerged)
	if !ok {
		return fmt.Errorf("unexpected event type: expected %s, got %s",
			cart.EventTypeGuestCartMerged, event.EventType())
	}
	h.logger.Info("guest cart merged into user cart",
		zap.String("event_id", merged.EventID().String()),
		zap.String("session_id", merged.SessionID),
		zap.String("user_id", merged.UserID),
		zap.Int("merged", merged.Merged),
		zap.Int("dropped", merged.Dropped),
	)
	return nil
}
