package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
)

// CartLineModel is one row of a signed-in user's cart.
//
// Catalog products are keyed by ProductID. References that are not UUIDs
// (legacy or externally sourced products) keep ProductID NULL and carry the
// reference in ProductRef. Rows written before ProductRef existed have both
// empty and are matched on (user, name, price).
type CartLineModel struct {
	BaseModel
	UserID     string          `gorm:"type:varchar(128);not null;index;uniqueIndex:idx_cart_lines_user_product,priority:1"`
	ProductID  *uuid.UUID      `gorm:"type:uuid;uniqueIndex:idx_cart_lines_user_product,priority:2"`
	ProductRef string          `gorm:"type:varchar(128);not null;default:''"`
	Name       string          `gorm:"type:varchar(500);not null"`
	ImageURL   string          `gorm:"type:text;not null;default:''"`
	Price      decimal.Decimal `gorm:"type:numeric(12,2);not null"`
	Qty        int             `gorm:"column:qty;not null;default:1"`
}

// TableName returns the table name for GORM
func (CartLineModel) TableName() string {
	return "cart_lines"
}

// Ref returns the product reference a row was written for
func (m *CartLineModel) Ref() string {
	switch {
	case m.ProductID != nil:
		return m.ProductID.String()
	case m.ProductRef != "":
		return m.ProductRef
	default:
		return m.Name
	}
}

// ToDomain converts the row to a cart line. Quantities below one read as one.
func (m *CartLineModel) ToDomain() cart.Line {
	qty := m.Qty
	if qty < 1 {
		qty = 1
	}
	return cart.Line{
		LineID:     m.ID.String(),
		ProductRef: m.Ref(),
		Name:       m.Name,
		ImageURL:   m.ImageURL,
		UnitPrice:  m.Price,
		Quantity:   qty,
	}
}

// CartLineModelFromDomain builds a row for userID. The row id reuses the
// line id when it is a UUID so the id seen by the caller stays stable.
func CartLineModelFromDomain(userID string, line cart.Line) *CartLineModel {
	m := &CartLineModel{
		UserID:   userID,
		Name:     line.Name,
		ImageURL: line.ImageURL,
		Price:    line.UnitPrice,
		Qty:      line.Quantity,
	}
	if id, err := uuid.Parse(line.LineID); err == nil {
		m.ID = id
	} else {
		m.ID = uuid.New()
	}
	if cart.IsProductID(line.ProductRef) {
		id := uuid.MustParse(line.ProductRef)
		m.ProductID = &id
	} else {
		m.ProductRef = line.ProductRef
	}
	return m
}
