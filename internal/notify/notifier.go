package notify

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoRecipient = errors.New("no recipient")

type Notifier struct {
	Mailer     Mailer
	StaffEmail string
}

func (n *Notifier) SendCustomerConfirmation(ctx context.Context, c OrderConfirmation) error {
	if c.CustomerEmail == "" {
		return fmt.Errorf("customer confirmation for %s: %w", c.OrderNumber, ErrNoRecipient)
	}
	body, err := render(customerTmpl, c)
	if err != nil {
		return fmt.Errorf("render customer confirmation: %w", err)
	}
	return n.Mailer.Send(ctx, Message{
		To:      c.CustomerEmail,
		Subject: "Order confirmation " + c.OrderNumber,
		Body:    body,
	})
}

func (n *Notifier) SendStaffNotification(ctx context.Context, c OrderConfirmation) error {
	if n.StaffEmail == "" {
		return fmt.Errorf("staff notification for %s: %w", c.OrderNumber, ErrNoRecipient)
	}
	body, err := render(staffTmpl, c)
	if err != nil {
		return fmt.Errorf("render staff notification: %w", err)
	}
	return n.Mailer.Send(ctx, Message{
		To:      n.StaffEmail,
		Subject: "New order " + c.OrderNumber,
		Body:    body,
	})
}

type Result struct {
	CustomerSent bool  `json:"customer_sent"`
	StaffSent    bool  `json:"staff_sent"`
	CustomerErr  error `json:"-"`
	StaffErr     error `json:"-"`
}

// SendOrderNotifications attempts both emails; one failing does not stop
// the other.
func (n *Notifier) SendOrderNotifications(ctx context.Context, c OrderConfirmation) Result {
	var r Result
	r.CustomerErr = n.SendCustomerConfirmation(ctx, c)
	r.CustomerSent = r.CustomerErr == nil
	r.StaffErr = n.SendStaffNotification(ctx, c)
	r.StaffSent = r.StaffErr == nil
	return r
}
