package transport

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
)

type OrderItemInput struct {
	ProductID uuid.UUID `json:"product_id"`
	Quantity  int       `json:"quantity"`
	// Price is what the client displayed; the stored line price always
	// comes from the product row.
	Price *decimal.Decimal `json:"price,omitempty"`
}

type AddressInput struct {
	FullName   string `json:"full_name"`
	Line1      string `json:"line1"`
	Line2      string `json:"line2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postal_code"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (a *AddressInput) validate(field string) error {
	missing := make([]string, 0, 5)
	for name, v := range map[string]string{
		"full_name":   a.FullName,
		"line1":       a.Line1,
		"city":        a.City,
		"postal_code": a.PostalCode,
		"country":     a.Country,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		slices.Sort(missing)
		return fmt.Errorf("%s: missing %s", field, strings.Join(missing, ", "))
	}
	return nil
}

func (a *AddressInput) Model() models.Address {
	return models.Address{
		FullName:   strings.TrimSpace(a.FullName),
		Line1:      strings.TrimSpace(a.Line1),
		Line2:      strings.TrimSpace(a.Line2),
		City:       strings.TrimSpace(a.City),
		State:      strings.TrimSpace(a.State),
		PostalCode: strings.TrimSpace(a.PostalCode),
		Country:    strings.TrimSpace(a.Country),
		Phone:      strings.TrimSpace(a.Phone),
	}
}

type PlaceOrderRequest struct {
	Items           []OrderItemInput `json:"items"`
	ShippingAddress *AddressInput    `json:"shipping_address"`
	BillingAddress  *AddressInput    `json:"billing_address"`
	PaymentMethod   string           `json:"payment_method"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	Tax             decimal.Decimal  `json:"tax"`
	Shipping        decimal.Decimal  `json:"shipping"`
	Total           decimal.Decimal  `json:"total"`
	Notes           string           `json:"notes"`
}

func (r *PlaceOrderRequest) Validate() error {
	if len(r.Items) == 0 {
		return errors.New("items required")
	}
	for i, it := range r.Items {
		if it.ProductID == uuid.Nil {
			return fmt.Errorf("items[%d]: product_id required", i)
		}
		if it.Quantity <= 0 {
			return fmt.Errorf("items[%d]: quantity must be > 0", i)
		}
		if it.Price != nil && it.Price.IsNegative() {
			return fmt.Errorf("items[%d]: price cannot be negative", i)
		}
	}
	if r.ShippingAddress == nil {
		return errors.New("shipping_address required")
	}
	if err := r.ShippingAddress.validate("shipping_address"); err != nil {
		return err
	}
	if r.BillingAddress != nil {
		if err := r.BillingAddress.validate("billing_address"); err != nil {
			return err
		}
	}
	if strings.TrimSpace(r.PaymentMethod) == "" {
		return errors.New("payment_method required")
	}
	for name, v := range map[string]decimal.Decimal{
		"subtotal": r.Subtotal,
		"tax":      r.Tax,
		"shipping": r.Shipping,
		"total":    r.Total,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%s cannot be negative", name)
		}
	}
	return nil
}

type UpdateStatusRequest struct {
	Status string `json:"status"`
}

func (r *UpdateStatusRequest) Validate() error {
	r.Status = strings.ToUpper(strings.TrimSpace(r.Status))
	if !models.OrderStatus(r.Status).Valid() {
		return fmt.Errorf("unknown status %q", r.Status)
	}
	return nil
}

type ProductSnapshot struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Slug  string    `json:"slug"`
	Price float64   `json:"price"`
	Image string    `json:"image,omitempty"`
}

type ItemResponse struct {
	ID        uuid.UUID        `json:"id"`
	ProductID uuid.UUID        `json:"product_id"`
	Quantity  int              `json:"quantity"`
	Price     float64          `json:"price"`
	LineTotal float64          `json:"line_total"`
	Product   *ProductSnapshot `json:"product,omitempty"`
}

type CustomerSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

type OrderResponse struct {
	ID              uuid.UUID        `json:"id"`
	OrderNumber     string           `json:"order_number"`
	UserID          uuid.UUID        `json:"user_id"`
	Customer        *CustomerSummary `json:"customer,omitempty"`
	Status          string           `json:"status"`
	Subtotal        float64          `json:"subtotal"`
	Tax             float64          `json:"tax"`
	Shipping        float64          `json:"shipping"`
	Total           float64          `json:"total"`
	ShippingAddress models.Address   `json:"shipping_address"`
	BillingAddress  *models.Address  `json:"billing_address"`
	PaymentMethod   string           `json:"payment_method"`
	Notes           string           `json:"notes"`
	Items           []ItemResponse   `json:"items"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

func Order(o models.Order) OrderResponse {
	out := OrderResponse{
		ID:              o.ID,
		OrderNumber:     o.OrderNumber,
		UserID:          o.UserID,
		Status:          string(o.Status),
		Subtotal:        money.Float(o.Subtotal),
		Tax:             money.Float(o.Tax),
		Shipping:        money.Float(o.Shipping),
		Total:           money.Float(o.Total),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		PaymentMethod:   o.PaymentMethod,
		Notes:           o.Notes,
		Items:           make([]ItemResponse, 0, len(o.Items)),
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
	if o.User != nil {
		out.Customer = &CustomerSummary{ID: o.User.ID, Name: o.User.Name, Email: o.User.Email}
	}
	for _, it := range o.Items {
		ir := ItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     money.Float(it.Price),
			LineTotal: money.Float(money.Line(it.Price, it.Quantity)),
		}
		if p := it.Product; p != nil {
			ir.Product = &ProductSnapshot{ID: p.ID, Name: p.Name, Slug: p.Slug, Price: money.Float(p.Price)}
			if len(p.Images) > 0 {
				ir.Product.Image = p.Images[0]
			}
		}
		out.Items = append(out.Items, ir)
	}
	return out
}

func Orders(list []models.Order) []OrderResponse {
	out := make([]OrderResponse, 0, len(list))
	for _, o := range list {
		out = append(out, Order(o))
	}
	return out
}
