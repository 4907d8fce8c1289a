package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/domain"
)

// ActivityRepository handles the append-only audit trail of estimates.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.EstimateActivity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// CreateInTx appends an activity row within an existing transaction.
func (r *ActivityRepository) CreateInTx(ctx context.Context, tx *gorm.DB, activity *domain.EstimateActivity) error {
	return tx.WithContext(ctx).Create(activity).Error
}

// ListByEstimate returns the activity trail for an estimate, newest first.
func (r *ActivityRepository) ListByEstimate(ctx context.Context, estimateID uuid.UUID) ([]domain.EstimateActivity, error) {
	var activities []domain.EstimateActivity
	err := r.db.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Order("occurred_at DESC, id DESC").
		Find(&activities).Error
	return activities, err
}
