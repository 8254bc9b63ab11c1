package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/apperr"
	"github.com/Skotchmaster/storefront/internal/identity"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/money"
	"github.com/Skotchmaster/storefront/internal/notify"
	"github.com/Skotchmaster/storefront/internal/order/repo"
	"github.com/Skotchmaster/storefront/internal/order/transport"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// Kicker wakes the notification dispatcher after a commit.
type Kicker interface {
	Kick()
}

type ProductInvalidator interface {
	Invalidate(ctx context.Context, id uuid.UUID, slug string) error
}

type OrderService struct {
	Repo       *repo.GormRepo
	Dispatcher Kicker
	Cache      ProductInvalidator
	// StrictTotals rejects orders whose submitted subtotal or total does
	// not match the server-side computation instead of only logging it.
	StrictTotals bool
	Now          func() time.Time
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now().UTC()
	}
	return time.Now().UTC()
}

const orderNumberAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewOrderNumber returns ORD-<unix millis>-<6 base36 chars>. It is a display
// identifier and is not checked for uniqueness.
func NewOrderNumber(now time.Time) string {
	var suffix [6]byte
	for i := range suffix {
		suffix[i] = orderNumberAlphabet[rand.IntN(len(orderNumberAlphabet))]
	}
	return "ORD-" + strconv.FormatInt(now.UnixMilli(), 10) + "-" + string(suffix[:])
}

func isClientError(err error) bool {
	for _, target := range []error{
		apperr.ErrInvalidRequest,
		apperr.ErrNotFound,
		apperr.ErrUnavailable,
		apperr.ErrOutOfStock,
		apperr.ErrUnauthorized,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

// PlaceOrder validates the request, then in one transaction re-checks
// stock, writes the order and its lines, decrements stock, empties the
// caller's cart and queues the order notifications. Totals are stored as
// submitted.
func (s *OrderService) PlaceOrder(ctx context.Context, who identity.Identity, req transport.PlaceOrderRequest) (*models.Order, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}
	l := logging.FromContext(ctx).With("user_id", who.UserID)

	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", apperr.ErrInvalidRequest, err)
	}

	user, err := s.Repo.GetUser(ctx, who.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", who.UserID, apperr.ErrUnauthorized)
		}
		return nil, fmt.Errorf("%w: load user: %v", apperr.ErrOrderFailed, err)
	}

	now := s.now()
	o := &models.Order{
		OrderNumber:     NewOrderNumber(now),
		UserID:          who.UserID,
		Status:          models.OrderPending,
		Subtotal:        req.Subtotal,
		Tax:             req.Tax,
		Shipping:        req.Shipping,
		Total:           req.Total,
		ShippingAddress: req.ShippingAddress.Model(),
		PaymentMethod:   strings.TrimSpace(req.PaymentMethod),
		Notes:           strings.TrimSpace(req.Notes),
		Items:           make([]models.OrderItem, 0, len(req.Items)),
	}
	if req.BillingAddress != nil {
		billing := req.BillingAddress.Model()
		o.BillingAddress = &billing
	}
	for _, it := range req.Items {
		o.Items = append(o.Items, models.OrderItem{ProductID: it.ProductID, Quantity: it.Quantity})
	}

	touched, err := s.Repo.PlaceOrder(ctx, o, repo.PlaceHooks{
		Priced: func(o *models.Order) error {
			return s.checkTotals(l, o)
		},
		Jobs: func(o *models.Order, products map[uuid.UUID]models.Product) ([]models.NotificationJob, error) {
			c := notify.OrderConfirmation{
				OrderID:       o.ID,
				OrderNumber:   o.OrderNumber,
				Total:         money.Float(o.Total),
				CustomerName:  user.Name,
				CustomerEmail: user.Email,
			}
			for _, it := range o.Items {
				c.Items = append(c.Items, notify.ConfirmationLine{
					Name:     products[it.ProductID].Name,
					Quantity: it.Quantity,
					Price:    money.Float(it.Price),
				})
			}
			return notify.OrderPlacedJobs(c, notify.OrderEvent{
				Type:        "order_placed",
				OrderID:     o.ID,
				OrderNumber: o.OrderNumber,
				UserID:      o.UserID,
				Status:      string(o.Status),
				Total:       money.Float(o.Total),
				At:          now,
			}, now)
		},
	})
	if err != nil {
		if isClientError(err) {
			return nil, err
		}
		l.Error("order_placement_failed", "order_number", o.OrderNumber, "error", err)
		return nil, fmt.Errorf("%w: %v", apperr.ErrOrderFailed, err)
	}

	l.Info("order_placed", "order_id", o.ID, "order_number", o.OrderNumber, "items", len(o.Items), "total", o.Total.String())

	if s.Dispatcher != nil {
		s.Dispatcher.Kick()
	}
	if s.Cache != nil {
		for _, p := range touched {
			if err := s.Cache.Invalidate(ctx, p.ID, p.Slug); err != nil {
				l.Warn("product_cache_invalidate_failed", "product_id", p.ID, "error", err)
			}
		}
	}

	hydrated, err := s.Repo.Get(ctx, o.ID)
	if err != nil {
		// committed; the caller still gets the order it placed
		l.Warn("order_reload_failed", "order_id", o.ID, "error", err)
		return o, nil
	}
	return hydrated, nil
}

// checkTotals compares the submitted money fields with what the line
// prices add up to.
func (s *OrderService) checkTotals(l *slog.Logger, o *models.Order) error {
	computed := decimal.Zero
	for _, it := range o.Items {
		computed = computed.Add(money.Line(it.Price, it.Quantity))
	}
	total := o.Subtotal.Add(o.Tax).Add(o.Shipping)

	subtotalOK := computed.Round(2).Equal(o.Subtotal.Round(2))
	totalOK := total.Round(2).Equal(o.Total.Round(2))
	if subtotalOK && totalOK {
		return nil
	}

	l.Warn("order_totals_mismatch",
		"order_number", o.OrderNumber,
		"submitted_subtotal", o.Subtotal.String(),
		"computed_subtotal", computed.String(),
		"submitted_total", o.Total.String(),
		"computed_total", total.String(),
		"strict", s.StrictTotals,
	)
	if s.StrictTotals {
		return fmt.Errorf("%w: submitted totals do not match item prices", apperr.ErrInvalidRequest)
	}
	return nil
}

// List returns the caller's own orders.
func (s *OrderService) List(ctx context.Context, who identity.Identity, f repo.Filter, offset, limit int) (int64, []models.Order, error) {
	if !who.Valid() {
		return 0, nil, apperr.ErrUnauthorized
	}
	if f.Status != "" && !f.Status.Valid() {
		return 0, nil, fmt.Errorf("unknown status %q: %w", f.Status, apperr.ErrInvalidRequest)
	}
	f.UserID = who.UserID
	return s.Repo.List(ctx, f, offset, limit)
}

// ListAll is the admin listing across every customer.
func (s *OrderService) ListAll(ctx context.Context, who identity.Identity, f repo.Filter, offset, limit int) (int64, []models.Order, error) {
	if err := who.RequireAdmin(); err != nil {
		return 0, nil, err
	}
	if f.Status != "" && !f.Status.Valid() {
		return 0, nil, fmt.Errorf("unknown status %q: %w", f.Status, apperr.ErrInvalidRequest)
	}
	return s.Repo.List(ctx, f, offset, limit)
}

// Get returns an order to its owner or to an admin. Anyone else sees
// NotFound.
func (s *OrderService) Get(ctx context.Context, who identity.Identity, id uuid.UUID) (*models.Order, error) {
	if !who.Valid() {
		return nil, apperr.ErrUnauthorized
	}
	o, err := s.Repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}
	if o.UserID != who.UserID && !who.IsAdmin() {
		return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
	}
	return o, nil
}

// UpdateStatus sets any of the six statuses with no transition rules;
// DELIVERED back to PENDING is accepted. Moves against the normal flow are
// logged as warnings.
func (s *OrderService) UpdateStatus(ctx context.Context, who identity.Identity, id uuid.UUID, status string) (*models.Order, error) {
	if err := who.RequireAdmin(); err != nil {
		return nil, err
	}
	next := models.OrderStatus(strings.ToUpper(strings.TrimSpace(status)))
	if !next.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, apperr.ErrInvalidRequest)
	}

	now := s.now()
	prev, err := s.Repo.UpdateStatus(ctx, id, next, func(o *models.Order, prev models.OrderStatus) ([]models.NotificationJob, error) {
		job, err := notify.EventJob(notify.OrderEvent{
			Type:        "order_status_changed",
			OrderID:     o.ID,
			OrderNumber: o.OrderNumber,
			UserID:      o.UserID,
			Status:      string(o.Status),
			PrevStatus:  string(prev),
			Total:       money.Float(o.Total),
			At:          now,
		}, now)
		if err != nil {
			return nil, err
		}
		return []models.NotificationJob{job}, nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("order %s: %w", id, apperr.ErrNotFound)
		}
		return nil, err
	}

	l := logging.FromContext(ctx).With("order_id", id, "admin_id", who.UserID, "from", prev, "to", next)
	if prev.Regresses(next) {
		l.Warn("order_status_regressed")
	} else {
		l.Info("order_status_changed")
	}
	if s.Dispatcher != nil {
		s.Dispatcher.Kick()
	}

	return s.Get(ctx, who, id)
}
