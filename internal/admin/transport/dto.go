package transport

import (
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/admin/service"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
)

type DeltaResponse struct {
	Current  float64 `json:"current"`
	Previous float64 `json:"previous"`
	Change   float64 `json:"change"`
}

type StatsResponse struct {
	TotalRevenue   float64       `json:"total_revenue"`
	TotalOrders    int64         `json:"total_orders"`
	TotalCustomers int64         `json:"total_customers"`
	TotalProducts  int64         `json:"total_products"`
	Revenue        DeltaResponse `json:"revenue"`
	Orders         DeltaResponse `json:"orders"`
	Customers      DeltaResponse `json:"customers"`
}

func delta(d service.Delta) DeltaResponse {
	return DeltaResponse{Current: money.Float(d.Current), Previous: money.Float(d.Previous), Change: d.Change}
}

func Stats(s service.Stats) StatsResponse {
	return StatsResponse{
		TotalRevenue:   money.Float(s.TotalRevenue),
		TotalOrders:    s.TotalOrders,
		TotalCustomers: s.TotalCustomers,
		TotalProducts:  s.TotalProducts,
		Revenue:        delta(s.Revenue),
		Orders:         delta(s.Orders),
		Customers:      delta(s.Customers),
	}
}

type OrderSummary struct {
	ID            uuid.UUID `json:"id"`
	OrderNumber   string    `json:"order_number"`
	CustomerName  string    `json:"customer_name"`
	CustomerEmail string    `json:"customer_email"`
	Status        string    `json:"status"`
	Total         float64   `json:"total"`
	ItemCount     int       `json:"item_count"`
	CreatedAt     time.Time `json:"created_at"`
}

func Orders(list []models.Order) []OrderSummary {
	out := make([]OrderSummary, 0, len(list))
	for _, o := range list {
		s := OrderSummary{
			ID:          o.ID,
			OrderNumber: o.OrderNumber,
			Status:      string(o.Status),
			Total:       money.Float(o.Total),
			CreatedAt:   o.CreatedAt,
		}
		if o.User != nil {
			s.CustomerName = o.User.Name
			s.CustomerEmail = o.User.Email
		}
		for _, it := range o.Items {
			s.ItemCount += it.Quantity
		}
		out = append(out, s)
	}
	return out
}

type LowStockProduct struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Slug     string    `json:"slug"`
	Stock    int       `json:"stock"`
	Price    float64   `json:"price"`
	Category string    `json:"category,omitempty"`
}

func LowStock(list []models.Product) []LowStockProduct {
	out := make([]LowStockProduct, 0, len(list))
	for _, p := range list {
		lp := LowStockProduct{ID: p.ID, Name: p.Name, Slug: p.Slug, Stock: p.Stock, Price: money.Float(p.Price)}
		if p.Category != nil {
			lp.Category = p.Category.Name
		}
		out = append(out, lp)
	}
	return out
}

type CustomerResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	OrderCount int64     `json:"order_count"`
	TotalSpent float64   `json:"total_spent"`
	CreatedAt  time.Time `json:"created_at"`
}

func Customer(c service.Customer) CustomerResponse {
	return CustomerResponse{
		ID:         c.User.ID,
		Name:       c.User.Name,
		Email:      c.User.Email,
		OrderCount: c.OrderCount,
		TotalSpent: money.Float(c.TotalSpent),
		CreatedAt:  c.User.CreatedAt,
	}
}

func Customers(list []service.Customer) []CustomerResponse {
	out := make([]CustomerResponse, 0, len(list))
	for _, c := range list {
		out = append(out, Customer(c))
	}
	return out
}

type CustomerDetailResponse struct {
	CustomerResponse
	RecentOrders []OrderSummary `json:"recent_orders"`
}

func CustomerDetail(d service.CustomerDetail) CustomerDetailResponse {
	return CustomerDetailResponse{
		CustomerResponse: Customer(d.Customer),
		RecentOrders:     Orders(d.RecentOrders),
	}
}
