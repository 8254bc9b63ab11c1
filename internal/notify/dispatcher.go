package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/pkg/logging"
	"github.com/Skotchmaster/storefront/pkg/mykafka"
)

const (
	defaultBatch      = 50
	defaultBackoff    = 30 * time.Second
	maxBackoff        = time.Hour
	defaultStaleAfter = 5 * time.Minute
)

// Dispatcher drains the outbox: it sends order emails and publishes order
// events, retrying each job with exponential backoff until it succeeds or
// runs out of attempts. Failures never reach the order that queued them.
type Dispatcher struct {
	Store    *Store
	Notifier *Notifier
	Events   mykafka.Publisher
	Log      *slog.Logger

	PollInterval time.Duration
	MaxAttempts  int
	BaseBackoff  time.Duration
	StaleAfter   time.Duration
	Batch        int
	Now          func() time.Time

	wake chan struct{}
}

func NewDispatcher(store *Store, n *Notifier, events mykafka.Publisher, log *slog.Logger, poll time.Duration, maxAttempts int) *Dispatcher {
	if log == nil {
		log = logging.Discard()
	}
	if events == nil {
		events = mykafka.Discard{}
	}
	if poll <= 0 {
		poll = 2 * time.Second
	}
	if maxAttempts < 1 {
		maxAttempts = 5
	}
	return &Dispatcher{
		Store:        store,
		Notifier:     n,
		Events:       events,
		Log:          log.With("component", "notify.dispatcher"),
		PollInterval: poll,
		MaxAttempts:  maxAttempts,
		BaseBackoff:  defaultBackoff,
		StaleAfter:   defaultStaleAfter,
		Batch:        defaultBatch,
		Now:          func() time.Time { return time.Now().UTC() },
		wake:         make(chan struct{}, 1),
	}
}

// Kick asks the loop to poll now instead of waiting for the next tick.
func (d *Dispatcher) Kick() {
	select {
	case d.wake <- struct{}{}:
	default:
	}
}

func (d *Dispatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(d.PollInterval)
	defer ticker.Stop()

	d.Log.Info("dispatcher_started", "poll_interval", d.PollInterval.String(), "max_attempts", d.MaxAttempts)
	for {
		d.RunOnce(ctx)
		select {
		case <-ctx.Done():
			d.Log.Info("dispatcher_stopped")
			return
		case <-ticker.C:
		case <-d.wake:
		}
	}
}

// RunOnce recovers stale jobs and processes one batch. It returns how many
// jobs were sent.
func (d *Dispatcher) RunOnce(ctx context.Context) int {
	now := d.Now()

	if n, err := d.Store.RecoverStale(ctx, now.Add(-d.StaleAfter), now); err != nil {
		d.Log.Error("outbox_recover_failed", "error", err)
	} else if n > 0 {
		d.Log.Warn("outbox_recovered_stale", "jobs", n)
	}

	jobs, err := d.Store.Claim(ctx, now, d.Batch)
	if err != nil {
		d.Log.Error("outbox_claim_failed", "error", err)
	}

	sent := 0
	for _, job := range jobs {
		if d.process(ctx, job) {
			sent++
		}
	}
	return sent
}

func (d *Dispatcher) process(ctx context.Context, job models.NotificationJob) bool {
	l := d.Log.With("job_id", job.ID, "order_id", job.OrderID, "kind", job.Kind, "attempt", job.Attempts)

	err := d.handle(ctx, job)
	now := d.Now()
	if err == nil {
		if err := d.Store.MarkSent(ctx, job.ID, now); err != nil {
			l.Error("outbox_mark_sent_failed", "error", err)
		}
		l.Info("outbox_job_sent")
		return true
	}

	if job.Attempts >= d.MaxAttempts {
		if merr := d.Store.MarkFailed(ctx, job.ID, err.Error(), now); merr != nil {
			l.Error("outbox_mark_failed_failed", "error", merr)
		}
		l.Error("outbox_job_failed", "error", err)
		return false
	}

	next := now.Add(d.backoff(job.Attempts))
	if merr := d.Store.MarkRetry(ctx, job.ID, next, err.Error(), now); merr != nil {
		l.Error("outbox_mark_retry_failed", "error", merr)
	}
	l.Warn("outbox_job_retry", "next_attempt_at", next, "error", err)
	return false
}

func (d *Dispatcher) backoff(attempts int) time.Duration {
	b := d.BaseBackoff
	for i := 1; i < attempts; i++ {
		b *= 2
		if b >= maxBackoff {
			return maxBackoff
		}
	}
	return b
}

func (d *Dispatcher) handle(ctx context.Context, job models.NotificationJob) error {
	switch job.Kind {
	case KindCustomerConfirmation, KindStaffNotification:
		var c OrderConfirmation
		if err := json.Unmarshal(job.Payload, &c); err != nil {
			return fmt.Errorf("decode payload: %w", err)
		}
		if job.Kind == KindCustomerConfirmation {
			return d.Notifier.SendCustomerConfirmation(ctx, c)
		}
		return d.Notifier.SendStaffNotification(ctx, c)
	case KindOrderEvent:
		return d.Events.PublishEvent(ctx, OrderEventsTopic, job.OrderID.String(), json.RawMessage(job.Payload))
	default:
		return fmt.Errorf("unknown job kind %q", job.Kind)
	}
}
