package notify

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

// Store is the outbox table seen from the dispatcher side. Rows are
// written by the order workflow inside its own transaction.
type Store struct {
	DB *gorm.DB
}

// Claim moves up to limit due PENDING jobs to PROCESSING and returns them.
// A job another dispatcher claimed first is skipped.
func (s *Store) Claim(ctx context.Context, now time.Time, limit int) ([]models.NotificationJob, error) {
	var due []models.NotificationJob
	if err := s.DB.WithContext(ctx).
		Where("status = ? AND next_attempt_at <= ?", models.JobPending, now).
		Order("next_attempt_at ASC, created_at ASC").
		Limit(limit).
		Find(&due).Error; err != nil {
		return nil, err
	}

	claimed := make([]models.NotificationJob, 0, len(due))
	for _, j := range due {
		res := s.DB.WithContext(ctx).Model(&models.NotificationJob{}).
			Where("id = ? AND status = ?", j.ID, models.JobPending).
			Updates(map[string]any{
				"status":     models.JobProcessing,
				"attempts":   gorm.Expr("attempts + 1"),
				"updated_at": now,
			})
		if res.Error != nil {
			return claimed, res.Error
		}
		if res.RowsAffected == 0 {
			continue
		}
		j.Status = models.JobProcessing
		j.Attempts++
		claimed = append(claimed, j)
	}
	return claimed, nil
}

func (s *Store) MarkSent(ctx context.Context, id uuid.UUID, now time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.NotificationJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.JobSent,
			"last_error": "",
			"updated_at": now,
		}).Error
}

func (s *Store) MarkRetry(ctx context.Context, id uuid.UUID, next time.Time, cause string, now time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.NotificationJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":          models.JobPending,
			"next_attempt_at": next,
			"last_error":      cause,
			"updated_at":      now,
		}).Error
}

func (s *Store) MarkFailed(ctx context.Context, id uuid.UUID, cause string, now time.Time) error {
	return s.DB.WithContext(ctx).Model(&models.NotificationJob{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     models.JobFailed,
			"last_error": cause,
			"updated_at": now,
		}).Error
}

// RecoverStale returns PROCESSING jobs untouched since before cutoff to
// PENDING, e.g. after a crash mid-send.
func (s *Store) RecoverStale(ctx context.Context, cutoff, now time.Time) (int64, error) {
	res := s.DB.WithContext(ctx).Model(&models.NotificationJob{}).
		Where("status = ? AND updated_at < ?", models.JobProcessing, cutoff).
		Updates(map[string]any{
			"status":          models.JobPending,
			"next_attempt_at": now,
			"updated_at":      now,
		})
	return res.RowsAffected, res.Error
}

func (s *Store) ForOrder(ctx context.Context, orderID uuid.UUID) ([]models.NotificationJob, error) {
	var jobs []models.NotificationJob
	err := s.DB.WithContext(ctx).Where("order_id = ?", orderID).Order("created_at ASC").Find(&jobs).Error
	return jobs, err
}
