package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CartSessions hands out the cart engine of a storefront session
type CartSessions interface {
	Acquire(ctx context.Context, sessionID string) (*appcart.Engine, func(), error)
}

// Toasts reads the visible notification of a session
type Toasts interface {
	Current(sessionID string) (notification.Toast, bool)
}

// CartHandler serves the cart of the caller's session
type CartHandler struct {
	BaseHandler
	sessions CartSessions
	toasts   Toasts
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(sessions CartSessions, toasts Toasts) *CartHandler {
	return &CartHandler{sessions: sessions, toasts: toasts}
}

// NotificationResponse is the toast state of a session
// @name HandlerNotificationResponse
type NotificationResponse struct {
	Visible bool                `json:"visible"`
	Toast   *notification.Toast `json:"toast,omitempty"`
}

// withEngine runs fn on the session's engine and writes the resulting view
func (h *CartHandler) withEngine(c *gin.Context, fn func(ctx context.Context, e *appcart.Engine) (cart.View, error)) {
	ctx := c.Request.Context()
	engine, release, err := h.sessions.Acquire(ctx, middleware.GetSessionID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer release()

	view, err := fn(ctx, engine)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, appcart.ToCartResponse(view))
}

// GetCart godoc
// @ID           getCart
// @Summary      Get the cart
// @Description  Returns the cart of the current session. Signed-in users see their account cart.
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      503 {object} ErrorResponse
// @Router       /cart [get]
func (h *CartHandler) GetCart(c *gin.Context) {
	h.withEngine(c, func(_ context.Context, e *appcart.Engine) (cart.View, error) {
		return e.View(), nil
	})
}

// AddItem godoc
// @ID           addCartItem
// @Summary      Add a product to the cart
// @Description  Adds quantity units of a product. Adding a product already in the cart increments its line.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        request body appcart.AddItemRequest true "Product to add"
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /cart/items [post]
func (h *CartHandler) AddItem(c *gin.Context) {
	var req appcart.AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	item, qty := req.ToItem()
	h.withEngine(c, func(ctx context.Context, e *appcart.Engine) (cart.View, error) {
		return e.Add(ctx, item, qty)
	})
}

// UpdateQuantity godoc
// @ID           updateCartItemQuantity
// @Summary      Change a line's quantity
// @Description  Sets the quantity of a cart line. Zero removes the line; unknown lines are ignored.
// @Tags         cart
// @Accept       json
// @Produce      json
// @Param        lineId path string true "Line ID"
// @Param        request body appcart.UpdateQuantityRequest true "New quantity"
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Failure      400 {object} ErrorResponse
// @Router       /cart/items/{lineId} [patch]
func (h *CartHandler) UpdateQuantity(c *gin.Context) {
	var req appcart.UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	lineID := c.Param("lineId")
	h.withEngine(c, func(ctx context.Context, e *appcart.Engine) (cart.View, error) {
		return e.UpdateQty(ctx, lineID, *req.Quantity)
	})
}

// RemoveItem godoc
// @ID           removeCartItem
// @Summary      Remove a line
// @Tags         cart
// @Produce      json
// @Param        lineId path string true "Line ID"
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Router       /cart/items/{lineId} [delete]
func (h *CartHandler) RemoveItem(c *gin.Context) {
	lineID := c.Param("lineId")
	h.withEngine(c, func(ctx context.Context, e *appcart.Engine) (cart.View, error) {
		return e.RemoveItem(ctx, lineID)
	})
}

// Clear godoc
// @ID           clearCart
// @Summary      Empty the cart
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[appcart.CartResponse]
// @Router       /cart [delete]
func (h *CartHandler) Clear(c *gin.Context) {
	h.withEngine(c, func(ctx context.Context, e *appcart.Engine) (cart.View, error) {
		return e.Clear(ctx)
	})
}

// GetNotification godoc
// @ID           getCartNotification
// @Summary      Get the cart toast
// @Description  Returns the "added to cart" toast while it is visible
// @Tags         cart
// @Produce      json
// @Success      200 {object} APIResponse[NotificationResponse]
// @Router       /cart/notification [get]
func (h *CartHandler) GetNotification(c *gin.Context) {
	toast, ok := h.toasts.Current(middleware.GetSessionID(c))
	if !ok {
		h.Success(c, NotificationResponse{})
		return
	}
	h.Success(c, NotificationResponse{Visible: true, Toast: &toast})
}

