package repo

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Summary covers the whole cart, not only the listed page.
type Summary struct {
	Lines    int64
	Items    int64
	Subtotal decimal.Decimal
}

func (r *GormRepo) List(ctx context.Context, userID uuid.UUID, offset, limit int) ([]models.CartItem, error) {
	items := make([]models.CartItem, 0, limit)
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("created_at ASC, id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) Summary(ctx context.Context, userID uuid.UUID) (Summary, error) {
	var s Summary
	row := r.DB.WithContext(ctx).
		Table("cart_items").
		Select("COUNT(*), COALESCE(SUM(cart_items.quantity), 0), COALESCE(SUM(products.price * cart_items.quantity), 0)").
		Joins("JOIN products ON products.id = cart_items.product_id").
		Where("cart_items.user_id = ?", userID).
		Row()
	if err := row.Scan(&s.Lines, &s.Items, &s.Subtotal); err != nil {
		return Summary{}, err
	}
	return s, nil
}

// Add creates the (user, product) line or raises its quantity. check sees
// the product row and the quantity already in the cart before any write.
func (r *GormRepo) Add(ctx context.Context, userID, productID uuid.UUID, qty int, check func(p *models.Product, existing int) error) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx
		if db.IsPostgres(tx) {
			q = tx.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		var p models.Product
		if err := q.Where("id = ?", productID).First(&p).Error; err != nil {
			return err
		}

		existing := 0
		err := tx.Where("user_id = ? AND product_id = ?", userID, productID).First(&item).Error
		switch {
		case err == nil:
			existing = item.Quantity
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return err
		}

		if err := check(&p, existing); err != nil {
			return err
		}

		if existing > 0 {
			if err := tx.Model(&item).Update("quantity", gorm.Expr("quantity + ?", qty)).Error; err != nil {
				return err
			}
		} else {
			item = models.CartItem{UserID: userID, ProductID: productID, Quantity: qty}
			if err := tx.Omit("Product").Create(&item).Error; err != nil {
				return err
			}
		}
		return tx.Preload("Product").Where("id = ?", item.ID).First(&item).Error
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// SetQuantity updates a line owned by userID. check sees the product row
// before the write.
func (r *GormRepo) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, qty int, check func(p *models.Product) error) (*models.CartItem, error) {
	var item models.CartItem
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Preload("Product").Where("id = ? AND user_id = ?", itemID, userID).First(&item).Error; err != nil {
			return err
		}
		if item.Product == nil {
			return gorm.ErrRecordNotFound
		}
		if err := check(item.Product); err != nil {
			return err
		}
		if err := tx.Model(&item).Update("quantity", qty).Error; err != nil {
			return err
		}
		item.Quantity = qty
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *GormRepo) Remove(ctx context.Context, userID, itemID uuid.UUID) error {
	res := r.DB.WithContext(ctx).Where("id = ? AND user_id = ?", itemID, userID).Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) Clear(ctx context.Context, userID uuid.UUID) (int64, error) {
	res := r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{})
	return res.RowsAffected, res.Error
}
