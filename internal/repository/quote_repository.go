package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/domain"
)

// QuoteRepository handles database operations for quotes.
type QuoteRepository struct {
	db *gorm.DB
}

func NewQuoteRepository(db *gorm.DB) *QuoteRepository {
	return &QuoteRepository{db: db}
}

func (r *QuoteRepository) Create(ctx context.Context, quote *domain.Quote) error {
	return r.db.WithContext(ctx).Create(quote).Error
}

func (r *QuoteRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

func (r *QuoteRepository) GetByEstimateID(ctx context.Context, estimateID uuid.UUID) (*domain.Quote, error) {
	var quote domain.Quote
	err := r.db.WithContext(ctx).Where("estimate_id = ?", estimateID).First(&quote).Error
	if err != nil {
		return nil, err
	}
	return &quote, nil
}

// QuoteFilter narrows List results.
type QuoteFilter struct {
	Status   domain.QuoteStatus
	Page     int
	PageSize int
}

func (r *QuoteRepository) List(ctx context.Context, filter QuoteFilter) ([]domain.Quote, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Quote{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count quotes: %w", err)
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	pageSize := filter.PageSize
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	var quotes []domain.Quote
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&quotes).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list quotes: %w", err)
	}
	return quotes, total, nil
}

// MarkExpired flips every active quote whose validity window has passed.
// Returns the number of quotes expired.
func (r *QuoteRepository) MarkExpired(ctx context.Context, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&domain.Quote{}).
		Where("status = ? AND valid_until < ?", domain.QuoteStatusActive, now).
		Update("status", domain.QuoteStatusExpired)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to expire quotes: %w", result.Error)
	}
	return result.RowsAffected, nil
}
