package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

// GormCartLineRepository stores signed-in users' carts in the cart_lines table
type GormCartLineRepository struct {
	db *gorm.DB
}

var _ cart.RemoteStore = (*GormCartLineRepository)(nil)

// NewGormCartLineRepository creates a new GormCartLineRepository
func NewGormCartLineRepository(db *gorm.DB) *GormCartLineRepository {
	return &GormCartLineRepository{db: db}
}

// LoadForUser returns the user's cart, newest line first
func (r *GormCartLineRepository) LoadForUser(ctx context.Context, userID string) (cart.Snapshot, error) {
	var rows []models.CartLineModel
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error; err != nil {
		return cart.EmptySnapshot(), err
	}

	lines := make([]cart.Line, 0, len(rows))
	for i := range rows {
		lines = append(lines, rows[i].ToDomain())
	}
	return cart.NewSnapshot(lines), nil
}

// UpsertLine writes line for userID, replacing the quantity of an existing
// row for the same product.
func (r *GormCartLineRepository) UpsertLine(ctx context.Context, userID string, line cart.Line) error {
	row := models.CartLineModelFromDomain(userID, line)
	if row.ProductID != nil {
		return r.db.WithContext(ctx).
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "user_id"}, {Name: "product_id"}},
				DoUpdates: clause.AssignmentColumns([]string{"product_ref", "name", "image_url", "price", "qty", "updated_at"}),
			}).
			Create(row).Error
	}

	// No unique key to conflict on: look the row up first.
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.CartLineModel
		err := tx.Scopes(byProduct(userID, line)).
			Order("product_ref DESC").
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Create(row).Error
		}
		if err != nil {
			return err
		}
		return tx.Model(&existing).Updates(map[string]any{
			"product_ref": line.ProductRef,
			"name":        line.Name,
			"image_url":   line.ImageURL,
			"price":       line.UnitPrice,
			"qty":         line.Quantity,
		}).Error
	})
}

// UpdateQuantity sets the quantity of the row backing line
func (r *GormCartLineRepository) UpdateQuantity(ctx context.Context, userID string, line cart.Line, qty int) error {
	return r.applyToLine(ctx, userID, line, func(tx *gorm.DB) *gorm.DB {
		return tx.Update("qty", qty)
	})
}

// DeleteLine removes the row backing line
func (r *GormCartLineRepository) DeleteLine(ctx context.Context, userID string, line cart.Line) error {
	return r.applyToLine(ctx, userID, line, func(tx *gorm.DB) *gorm.DB {
		return tx.Delete(&models.CartLineModel{})
	})
}

// DeleteAll removes every row of the user's cart
func (r *GormCartLineRepository) DeleteAll(ctx context.Context, userID string) error {
	return r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Delete(&models.CartLineModel{}).Error
}

// applyToLine runs op against the row whose id is the line id. When no such
// row exists (the line id was never persisted, or the row was replaced by an
// upsert) it targets the row for the same product instead.
func (r *GormCartLineRepository) applyToLine(ctx context.Context, userID string, line cart.Line, op func(*gorm.DB) *gorm.DB) error {
	if id, err := uuid.Parse(line.LineID); err == nil {
		res := op(r.lines(ctx).Where("user_id = ? AND id = ?", userID, id))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected > 0 {
			return nil
		}
	}
	return op(r.lines(ctx).Scopes(byProduct(userID, line))).Error
}

func (r *GormCartLineRepository) lines(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.CartLineModel{})
}

// byProduct selects the user's row for the line's product. Non-UUID refs
// match product_ref, or a pre-product_ref row with the same name and price.
func byProduct(userID string, line cart.Line) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		db = db.Where("user_id = ?", userID)
		if cart.IsProductID(line.ProductRef) {
			return db.Where("product_id = ?", uuid.MustParse(line.ProductRef))
		}
		return db.Where(
			"product_id IS NULL AND (product_ref = ? OR (product_ref = '' AND name = ? AND price = ?))",
			line.ProductRef, line.Name, line.UnitPrice,
		)
	}
}
