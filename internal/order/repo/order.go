package repo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/db"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

type Filter struct {
	// UserID scopes the listing to one customer; uuid.Nil lists everyone.
	UserID uuid.UUID
	Status models.OrderStatus
	Search string
}

// PlaceHooks let the caller see the priced order before anything is
// written and build the outbox rows that commit with it.
type PlaceHooks struct {
	Priced func(o *models.Order) error
	Jobs   func(o *models.Order, products map[uuid.UUID]models.Product) ([]models.NotificationJob, error)
}

func locking(tx *gorm.DB) *gorm.DB {
	if db.IsPostgres(tx) {
		return tx.Clauses(clause.Locking{Strength: "UPDATE"})
	}
	return tx
}

// PlaceOrder re-validates stock and writes the order, its lines, the stock
// decrements, the cart deletion and the outbox rows in one transaction.
// It returns the products whose stock changed.
func (r *GormRepo) PlaceOrder(ctx context.Context, o *models.Order, h PlaceHooks) ([]models.Product, error) {
	need := make(map[uuid.UUID]int, len(o.Items))
	ids := make([]uuid.UUID, 0, len(o.Items))
	for _, it := range o.Items {
		if _, seen := need[it.ProductID]; !seen {
			ids = append(ids, it.ProductID)
		}
		need[it.ProductID] += it.Quantity
	}
	// fixed lock order so two orders over the same products cannot deadlock
	sort.Slice(ids, func(i, j int) bool { return bytes.Compare(ids[i][:], ids[j][:]) < 0 })

	products := make(map[uuid.UUID]models.Product, len(ids))
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, id := range ids {
			var p models.Product
			if err := locking(tx).Where("id = ?", id).First(&p).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("product %s: %w", id, apperr.ErrNotFound)
				}
				return err
			}
			if p.Status != models.ProductActive {
				return fmt.Errorf("product %q is %s: %w", p.Name, p.Status, apperr.ErrUnavailable)
			}
			if need[id] > p.Stock {
				return &apperr.StockError{Kind: apperr.ErrOutOfStock, ProductID: p.ID, Name: p.Name, Requested: need[id], Available: p.Stock}
			}
			products[id] = p
		}

		for i := range o.Items {
			o.Items[i].Price = products[o.Items[i].ProductID].Price
		}
		if h.Priced != nil {
			if err := h.Priced(o); err != nil {
				return err
			}
		}

		if err := tx.Omit("User").Create(o).Error; err != nil {
			return fmt.Errorf("insert order: %w", err)
		}

		for _, id := range ids {
			res := tx.Model(&models.Product{}).
				Where("id = ? AND stock >= ?", id, need[id]).
				Update("stock", gorm.Expr("stock - ?", need[id]))
			if res.Error != nil {
				return fmt.Errorf("decrement stock: %w", res.Error)
			}
			if res.RowsAffected == 0 {
				var current int
				if err := tx.Model(&models.Product{}).Select("stock").Where("id = ?", id).Scan(&current).Error; err != nil {
					return fmt.Errorf("reload stock: %w", err)
				}
				return &apperr.StockError{Kind: apperr.ErrOutOfStock, ProductID: id, Name: products[id].Name, Requested: need[id], Available: current}
			}
			p := products[id]
			p.Stock -= need[id]
			products[id] = p
		}

		if err := tx.Where("user_id = ?", o.UserID).Delete(&models.CartItem{}).Error; err != nil {
			return fmt.Errorf("clear cart: %w", err)
		}

		if h.Jobs != nil {
			jobs, err := h.Jobs(o, products)
			if err != nil {
				return err
			}
			if len(jobs) > 0 {
				if err := tx.Create(&jobs).Error; err != nil {
					return fmt.Errorf("enqueue notifications: %w", err)
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	touched := make([]models.Product, 0, len(ids))
	for _, id := range ids {
		touched = append(touched, products[id])
	}
	return touched, nil
}

func (r *GormRepo) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	if err := r.DB.WithContext(ctx).
		Preload("User").
		Preload("Items.Product").
		Where("id = ?", id).
		First(&o).Error; err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) List(ctx context.Context, f Filter, offset, limit int) (int64, []models.Order, error) {
	base := r.DB.WithContext(ctx)
	q := base.Model(&models.Order{})
	if f.UserID != uuid.Nil {
		q = q.Where("orders.user_id = ?", f.UserID)
	}
	if f.Status != "" {
		q = q.Where("orders.status = ?", f.Status)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(orders.order_number) LIKE ? OR orders.user_id IN (?)", like,
			base.Model(&models.User{}).Select("id").Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like))
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	items := make([]models.Order, 0, limit)
	if err := q.Preload("User").
		Preload("Items.Product").
		Order("orders.created_at DESC, orders.id ASC").
		Offset(offset).
		Limit(limit).
		Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// UpdateStatus writes the new status and the outbox rows built by jobs in
// one transaction. It returns the previous status.
func (r *GormRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus, jobs func(o *models.Order, prev models.OrderStatus) ([]models.NotificationJob, error)) (models.OrderStatus, error) {
	var prev models.OrderStatus
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var o models.Order
		if err := locking(tx).Where("id = ?", id).First(&o).Error; err != nil {
			return err
		}
		prev = o.Status

		if err := tx.Model(&o).Update("status", status).Error; err != nil {
			return err
		}
		o.Status = status

		if jobs == nil {
			return nil
		}
		rows, err := jobs(&o, prev)
		if err != nil {
			return err
		}
		if len(rows) > 0 {
			return tx.Create(&rows).Error
		}
		return nil
	})
	return prev, err
}

func (r *GormRepo) GetUser(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ?", id).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
