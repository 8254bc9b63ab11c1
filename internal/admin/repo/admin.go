package repo

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

type GormRepo struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *GormRepo {
	return &GormRepo{DB: db}
}

// Window is a half-open [From, To) range on created_at. Zero bounds are
// open-ended.
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) apply(q *gorm.DB, column string) *gorm.DB {
	if !w.From.IsZero() {
		q = q.Where(column+" >= ?", w.From.UTC())
	}
	if !w.To.IsZero() {
		q = q.Where(column+" < ?", w.To.UTC())
	}
	return q
}

// Revenue sums order totals in w, leaving out cancelled orders.
func (r *GormRepo) Revenue(ctx context.Context, w Window) (decimal.Decimal, error) {
	var sum decimal.Decimal
	q := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("COALESCE(SUM(total), 0)").
		Where("status <> ?", models.OrderCancelled)
	if err := w.apply(q, "created_at").Row().Scan(&sum); err != nil {
		return decimal.Zero, err
	}
	return sum, nil
}

func (r *GormRepo) OrderCount(ctx context.Context, w Window) (int64, error) {
	var n int64
	q := w.apply(r.DB.WithContext(ctx).Model(&models.Order{}), "created_at")
	return n, q.Count(&n).Error
}

func (r *GormRepo) CustomerCount(ctx context.Context, w Window) (int64, error) {
	var n int64
	q := w.apply(r.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleCustomer), "created_at")
	return n, q.Count(&n).Error
}

func (r *GormRepo) ProductCount(ctx context.Context) (int64, error) {
	var n int64
	return n, r.DB.WithContext(ctx).Model(&models.Product{}).Count(&n).Error
}

// RecentOrders returns the newest orders across all customers, or of one
// customer when userID is set.
func (r *GormRepo) RecentOrders(ctx context.Context, userID uuid.UUID, limit int) ([]models.Order, error) {
	q := r.DB.WithContext(ctx).Preload("User").Preload("Items")
	if userID != uuid.Nil {
		q = q.Where("user_id = ?", userID)
	}
	items := make([]models.Order, 0, limit)
	if err := q.Order("created_at DESC, id ASC").Limit(limit).Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) LowStock(ctx context.Context, threshold, limit int) ([]models.Product, error) {
	items := make([]models.Product, 0, limit)
	if err := r.DB.WithContext(ctx).
		Preload("Category").
		Where("status = ? AND stock <= ?", models.ProductActive, threshold).
		Order("stock ASC, name ASC").
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// Spend is one customer's order rollup. TotalSpent leaves out cancelled
// orders; OrderCount does not.
type Spend struct {
	UserID     uuid.UUID
	OrderCount int64
	TotalSpent decimal.Decimal
}

func (r *GormRepo) Customers(ctx context.Context, search string, offset, limit int) (int64, []models.User, error) {
	q := r.DB.WithContext(ctx).Model(&models.User{}).Where("role = ?", models.RoleCustomer)
	if s := strings.TrimSpace(search); s != "" {
		like := "%" + strings.ToLower(s) + "%"
		q = q.Where("LOWER(email) LIKE ? OR LOWER(name) LIKE ?", like, like)
	}
	q = q.Session(&gorm.Session{})

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return 0, nil, err
	}

	users := make([]models.User, 0, limit)
	if err := q.Order("created_at DESC, id ASC").Offset(offset).Limit(limit).Find(&users).Error; err != nil {
		return 0, nil, err
	}
	return total, users, nil
}

func (r *GormRepo) Spend(ctx context.Context, userIDs []uuid.UUID) (map[uuid.UUID]Spend, error) {
	out := make(map[uuid.UUID]Spend, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	var rows []Spend
	if err := r.DB.WithContext(ctx).
		Model(&models.Order{}).
		Select("user_id, COUNT(*) AS order_count, COALESCE(SUM(CASE WHEN status <> ? THEN total ELSE 0 END), 0) AS total_spent", models.OrderCancelled).
		Where("user_id IN ?", userIDs).
		Group("user_id").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	for _, row := range rows {
		out[row.UserID] = row
	}
	return out, nil
}

// GetCustomer loads a user with the CUSTOMER role; staff accounts are not
// found.
func (r *GormRepo) GetCustomer(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var u models.User
	if err := r.DB.WithContext(ctx).Where("id = ? AND role = ?", id, models.RoleCustomer).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}
