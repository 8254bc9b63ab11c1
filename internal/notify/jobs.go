package notify

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Skotchmaster/storefront/internal/models"
)

const (
	KindCustomerConfirmation = "customer_confirmation"
	KindStaffNotification    = "staff_notification"
	KindOrderEvent           = "order_event"

	OrderEventsTopic = "order_events"
)

type ConfirmationLine struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// OrderConfirmation is everything the two order emails need; jobs carry it
// as their payload so sending never reads the order tables.
type OrderConfirmation struct {
	OrderID       uuid.UUID          `json:"order_id"`
	OrderNumber   string             `json:"order_number"`
	Total         float64            `json:"total"`
	CustomerName  string             `json:"customer_name"`
	CustomerEmail string             `json:"customer_email"`
	Items         []ConfirmationLine `json:"items,omitempty"`
}

type OrderEvent struct {
	Type        string    `json:"type"`
	OrderID     uuid.UUID `json:"orderID"`
	OrderNumber string    `json:"orderNumber"`
	UserID      uuid.UUID `json:"userID"`
	Status      string    `json:"status"`
	PrevStatus  string    `json:"prevStatus,omitempty"`
	Total       float64   `json:"total"`
	At          time.Time `json:"at"`
}

func newJob(orderID uuid.UUID, kind string, payload any, now time.Time) (models.NotificationJob, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return models.NotificationJob{}, fmt.Errorf("marshal %s payload: %w", kind, err)
	}
	return models.NotificationJob{
		OrderID:       orderID,
		Kind:          kind,
		Payload:       data,
		Status:        models.JobPending,
		NextAttemptAt: now,
	}, nil
}

// OrderPlacedJobs returns the outbox rows written with a new order: the
// customer email, the staff email and the order_placed event.
func OrderPlacedJobs(c OrderConfirmation, ev OrderEvent, now time.Time) ([]models.NotificationJob, error) {
	customer, err := newJob(c.OrderID, KindCustomerConfirmation, c, now)
	if err != nil {
		return nil, err
	}
	staff, err := newJob(c.OrderID, KindStaffNotification, c, now)
	if err != nil {
		return nil, err
	}
	event, err := EventJob(ev, now)
	if err != nil {
		return nil, err
	}
	return []models.NotificationJob{customer, staff, event}, nil
}

func EventJob(ev OrderEvent, now time.Time) (models.NotificationJob, error) {
	return newJob(ev.OrderID, KindOrderEvent, ev, now)
}
