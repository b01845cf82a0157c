package cart

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/shared"
)

// Item is what the storefront asks to put in the cart.
type Item struct {
	ProductRef string
	Name       string
	ImageURL   string
	UnitPrice  decimal.Decimal
}

// Validate checks the item fields needed to build a line
func (i Item) Validate() error {
	if strings.TrimSpace(i.ProductRef) == "" {
		return shared.NewDomainError("INVALID_INPUT", "product reference cannot be empty")
	}
	if strings.TrimSpace(i.Name) == "" {
		return shared.NewDomainError("INVALID_INPUT", "product name cannot be empty")
	}
	if i.UnitPrice.IsNegative() {
		return shared.NewDomainError("INVALID_INPUT", "unit price cannot be negative")
	}
	return nil
}

// Line is one product entry in a cart.
type Line struct {
	LineID     string
	ProductRef string
	Name       string
	ImageURL   string
	UnitPrice  decimal.Decimal
	Quantity   int
}

// NewLine creates a line for item with a fresh line id
func NewLine(item Item, qty int) Line {
	return Line{
		LineID:     NewLineID(),
		ProductRef: item.ProductRef,
		Name:       item.Name,
		ImageURL:   item.ImageURL,
		UnitPrice:  item.UnitPrice,
		Quantity:   qty,
	}
}

// Subtotal returns unit price times quantity
func (l Line) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// NewLineID returns a new random line identifier
func NewLineID() string {
	return uuid.NewString()
}

// IsProductID reports whether ref is a UUID-shaped catalog identifier.
// Other refs are opaque legacy references that the remote store cannot key on.
func IsProductID(ref string) bool {
	if len(ref) != 36 {
		return false
	}
	_, err := uuid.Parse(ref)
	return err == nil
}
