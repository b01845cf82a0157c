package cart

import (
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
)

// AddItemRequest represents a request to add a product to the cart
type AddItemRequest struct {
	ProductID string          `json:"product_id" binding:"required,max=128"`
	Name      string          `json:"name" binding:"required,max=500"`
	ImageURL  string          `json:"image_url" binding:"omitempty,max=2048"`
	Price     decimal.Decimal `json:"price" binding:"required"`
	Quantity  int             `json:"quantity" binding:"omitempty,min=1,max=999"`
}

// ToItem converts the request to a domain item and quantity (default 1)
func (r AddItemRequest) ToItem() (cart.Item, int) {
	qty := r.Quantity
	if qty == 0 {
		qty = 1
	}
	return cart.Item{
		ProductRef: r.ProductID,
		Name:       r.Name,
		ImageURL:   r.ImageURL,
		UnitPrice:  r.Price,
	}, qty
}

// UpdateQuantityRequest represents a quantity change for a line.
// Zero removes the line.
type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required,max=999"`
}

// CartLineResponse represents a cart line in API responses
type CartLineResponse struct {
	LineID    string          `json:"line_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	ImageURL  string          `json:"image_url,omitempty"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
	Subtotal  decimal.Decimal `json:"subtotal"`
}

// CartResponse represents a cart in API responses
type CartResponse struct {
	Lines     []CartLineResponse `json:"lines"`
	Total     decimal.Decimal    `json:"total"`
	ItemCount int                `json:"item_count"`
	Authority string             `json:"authority"`
	UserID    string             `json:"user_id,omitempty"`
}

// ToCartResponse converts a cart view to its response DTO
func ToCartResponse(v cart.View) CartResponse {
	lines := make([]CartLineResponse, 0, len(v.Lines))
	for _, l := range v.Lines {
		lines = append(lines, CartLineResponse{
			LineID:    l.LineID,
			ProductID: l.ProductRef,
			Name:      l.Name,
			ImageURL:  l.ImageURL,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
			Subtotal:  l.Subtotal(),
		})
	}
	userID, _ := v.Authority.UserID()
	return CartResponse{
		Lines:     lines,
		Total:     v.Total,
		ItemCount: v.ItemCount,
		Authority: v.Authority.Kind().String(),
		UserID:    userID,
	}
}
