package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/admin/repo"
	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	DefaultRecentOrders      = 5
	MaxRecentOrders          = 50
	DefaultLowStockThreshold = 10
	lowStockLimit            = 100
	customerRecentOrders     = 10
)

// AdminService answers the dashboard queries. Everything is recomputed per
// call.
type AdminService struct {
	Repo              *repo.GormRepo
	LowStockThreshold int
	Now               func() time.Time
}

func (s *AdminService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

// Delta compares the current calendar month with the previous one.
type Delta struct {
	Current  decimal.Decimal
	Previous decimal.Decimal
	Change   float64
}

type Stats struct {
	TotalRevenue   decimal.Decimal
	TotalOrders    int64
	TotalCustomers int64
	TotalProducts  int64
	Revenue        Delta
	Orders         Delta
	Customers      Delta
}

// PercentChange is (current-previous)/previous in percent, rounded to one
// decimal. With no baseline it is 100 when current is positive and 0
// otherwise.
func PercentChange(current, previous decimal.Decimal) float64 {
	if previous.IsZero() {
		if current.IsPositive() {
			return 100
		}
		return 0
	}
	change, _ := current.Sub(previous).Div(previous).Mul(decimal.NewFromInt(100)).Round(1).Float64()
	return change
}

func delta(current, previous decimal.Decimal) Delta {
	return Delta{Current: current, Previous: previous, Change: PercentChange(current, previous)}
}

// MonthWindows returns the calendar month containing now and the one
// before it, in UTC.
func MonthWindows(now time.Time) (current, previous repo.Window) {
	now = now.UTC()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	current = repo.Window{From: start, To: start.AddDate(0, 1, 0)}
	previous = repo.Window{From: start.AddDate(0, -1, 0), To: start}
	return current, previous
}

func (s *AdminService) Stats(ctx context.Context, who identity.Identity) (*Stats, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	cur, prev := MonthWindows(s.now())

	var (
		st  Stats
		err error
	)
	if st.TotalRevenue, err = s.Repo.Revenue(ctx, repo.Window{}); err != nil {
		return nil, fmt.Errorf("total revenue: %w", err)
	}
	if st.TotalOrders, err = s.Repo.OrderCount(ctx, repo.Window{}); err != nil {
		return nil, fmt.Errorf("total orders: %w", err)
	}
	if st.TotalCustomers, err = s.Repo.CustomerCount(ctx, repo.Window{}); err != nil {
		return nil, fmt.Errorf("total customers: %w", err)
	}
	if st.TotalProducts, err = s.Repo.ProductCount(ctx); err != nil {
		return nil, fmt.Errorf("total products: %w", err)
	}

	revCur, err := s.Repo.Revenue(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("revenue this month: %w", err)
	}
	revPrev, err := s.Repo.Revenue(ctx, prev)
	if err != nil {
		return nil, fmt.Errorf("revenue last month: %w", err)
	}
	st.Revenue = delta(revCur, revPrev)

	ordCur, err := s.Repo.OrderCount(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("orders this month: %w", err)
	}
	ordPrev, err := s.Repo.OrderCount(ctx, prev)
	if err != nil {
		return nil, fmt.Errorf("orders last month: %w", err)
	}
	st.Orders = delta(decimal.NewFromInt(ordCur), decimal.NewFromInt(ordPrev))

	custCur, err := s.Repo.CustomerCount(ctx, cur)
	if err != nil {
		return nil, fmt.Errorf("customers this month: %w", err)
	}
	custPrev, err := s.Repo.CustomerCount(ctx, prev)
	if err != nil {
		return nil, fmt.Errorf("customers last month: %w", err)
	}
	st.Customers = delta(decimal.NewFromInt(custCur), decimal.NewFromInt(custPrev))

	return &st, nil
}

// RecentOrders clamps limit to [1, MaxRecentOrders]; zero or less means
// DefaultRecentOrders.
func (s *AdminService) RecentOrders(ctx context.Context, who identity.Identity, limit int) ([]models.Order, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultRecentOrders
	}
	limit = min(limit, MaxRecentOrders)
	return s.Repo.RecentOrders(ctx, uuid.Nil, limit)
}

// LowStock lists ACTIVE products at or below threshold, lowest stock
// first. A negative threshold means the configured default.
func (s *AdminService) LowStock(ctx context.Context, who identity.Identity, threshold int) ([]models.Product, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	if threshold < 0 {
		threshold = s.LowStockThreshold
		if threshold <= 0 {
			threshold = DefaultLowStockThreshold
		}
	}
	return s.Repo.LowStock(ctx, threshold, lowStockLimit)
}

type Customer struct {
	User       models.User
	OrderCount int64
	TotalSpent decimal.Decimal
}

type CustomerDetail struct {
	Customer
	RecentOrders []models.Order
}

func (s *AdminService) Customers(ctx context.Context, who identity.Identity, search string, offset, limit int) (int64, []Customer, error) {
	if err := who.RequireAdmin(); err != nil {
		return 0, nil, err
	}

	total, users, err := s.Repo.Customers(ctx, search, offset, limit)
	if err != nil {
		return 0, nil, err
	}
	ids := make([]uuid.UUID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	spend, err := s.Repo.Spend(ctx, ids)
	if err != nil {
		return 0, nil, err
	}

	out := make([]Customer, 0, len(users))
	for _, u := range users {
		sp := spend[u.ID]
		out = append(out, Customer{User: u, OrderCount: sp.OrderCount, TotalSpent: sp.TotalSpent})
	}
	return total, out, nil
}

func (s *AdminService) Customer(ctx context.Context, who identity.Identity, id uuid.UUID) (*CustomerDetail, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}

	u, err := s.Repo.GetCustomer(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("customer %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	spend, err := s.Repo.Spend(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	orders, err := s.Repo.RecentOrders(ctx, id, customerRecentOrders)
	if err != nil {
		return nil, err
	}

	sp := spend[id]
	return &CustomerDetail{
		Customer:     Customer{User: *u, OrderCount: sp.OrderCount, TotalSpent: sp.TotalSpent},
		RecentOrders: orders,
	}, nil
}
