package handler

import (
	"context"

	"github.com/gin-gonic/gin"

	"github.com/storefront/backend/internal/application/checkout"
	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

// CheckoutSubmitter starts a hosted checkout for a cart view
type CheckoutSubmitter interface {
	Submit(ctx context.Context, view cart.View, locale string) (*checkout.Result, error)
}

// CheckoutHandler hands the session's cart to the payment provider
type CheckoutHandler struct {
	BaseHandler
	sessions CartSessions
	checkout CheckoutSubmitter
}

// NewCheckoutHandler creates a new CheckoutHandler
func NewCheckoutHandler(sessions CartSessions, submitter CheckoutSubmitter) *CheckoutHandler {
	return &CheckoutHandler{sessions: sessions, checkout: submitter}
}

// CheckoutRequest is the body of POST /checkout
type CheckoutRequest struct {
	Locale string `json:"locale" binding:"omitempty,max=35" example:"de-DE"`
}

// Submit godoc
// @ID           submitCheckout
// @Summary      Start checkout
// @Description  Sends the cart to the payment provider and returns the hosted checkout page to redirect to
// @Tags         checkout
// @Accept       json
// @Produce      json
// @Param        request body CheckoutRequest false "Storefront locale"
// @Success      200 {object} APIResponse[checkout.Result]
// @Failure      409 {object} ErrorResponse "Cart is empty"
// @Failure      502 {object} ErrorResponse "Payment provider failed"
// @Router       /checkout [post]
func (h *CheckoutHandler) Submit(c *gin.Context) {
	var req CheckoutRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			h.BindError(c, err)
			return
		}
	}

	ctx := c.Request.Context()
	engine, release, err := h.sessions.Acquire(ctx, middleware.GetSessionID(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	defer release()

	view, err := engine.Sync(ctx)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	result, err := h.checkout.Submit(ctx, view, req.Locale)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
