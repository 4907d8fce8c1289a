package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/fmworks/estimate-api/internal/domain"
)

// EstimateRepository handles database operations for estimates and their lines.
type EstimateRepository struct {
	db *gorm.DB
}

func NewEstimateRepository(db *gorm.DB) *EstimateRepository {
	return &EstimateRepository{db: db}
}

// EstimateFilter narrows List results. Zero values mean "no filter".
type EstimateFilter struct {
	Status           domain.EstimateStatus
	ServiceRequestID *uuid.UUID
	LatestOnly       bool
	Search           string
	Page             int
	PageSize         int
}

func (r *EstimateRepository) Create(ctx context.Context, estimate *domain.Estimate) error {
	return r.db.WithContext(ctx).Create(estimate).Error
}

// GetByID loads an estimate with its lines ordered by display order.
func (r *EstimateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	err := r.db.WithContext(ctx).
		Preload("MaterialLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).
		Preload("LaborLines", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC, created_at ASC")
		}).
		Where("id = ?", id).
		First(&estimate).Error
	if err != nil {
		return nil, err
	}
	return &estimate, nil
}

// GetByIDForUpdate loads an estimate row under SELECT FOR UPDATE. It must be
// called inside a transaction; the lock serializes concurrent lifecycle
// actions against the same estimate.
func (r *EstimateRepository) GetByIDForUpdate(ctx context.Context, tx *gorm.DB, id uuid.UUID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&estimate).Error
	if err != nil {
		return nil, err
	}
	// Lines are loaded outside the locking clause; SELECT FOR UPDATE with
	// preloads is not supported consistently across drivers.
	if err := tx.WithContext(ctx).
		Where("estimate_id = ?", id).
		Order("display_order ASC, created_at ASC").
		Find(&estimate.MaterialLines).Error; err != nil {
		return nil, err
	}
	if err := tx.WithContext(ctx).
		Where("estimate_id = ?", id).
		Order("display_order ASC, created_at ASC").
		Find(&estimate.LaborLines).Error; err != nil {
		return nil, err
	}
	return &estimate, nil
}

func (r *EstimateRepository) Update(ctx context.Context, estimate *domain.Estimate) error {
	return r.db.WithContext(ctx).Save(estimate).Error
}

// UpdateFields applies a partial update to an estimate row.
func (r *EstimateRepository) UpdateFields(ctx context.Context, tx *gorm.DB, id uuid.UUID, fields map[string]interface{}) error {
	db := r.db
	if tx != nil {
		db = tx
	}
	result := db.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("id = ?", id).
		Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// ReplaceLines deletes and re-creates the line sets of an estimate. Runs in
// the supplied transaction so a failed rewrite never leaves an estimate
// without lines.
func (r *EstimateRepository) ReplaceLines(ctx context.Context, tx *gorm.DB, estimateID uuid.UUID, materials []domain.MaterialLine, labor []domain.LaborLine) error {
	if err := tx.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Delete(&domain.MaterialLine{}).Error; err != nil {
		return fmt.Errorf("failed to clear material lines: %w", err)
	}
	if err := tx.WithContext(ctx).
		Where("estimate_id = ?", estimateID).
		Delete(&domain.LaborLine{}).Error; err != nil {
		return fmt.Errorf("failed to clear labor lines: %w", err)
	}
	for i := range materials {
		materials[i].EstimateID = estimateID
		if err := tx.WithContext(ctx).Create(&materials[i]).Error; err != nil {
			return fmt.Errorf("failed to create material line: %w", err)
		}
	}
	for i := range labor {
		labor[i].EstimateID = estimateID
		if err := tx.WithContext(ctx).Create(&labor[i]).Error; err != nil {
			return fmt.Errorf("failed to create labor line: %w", err)
		}
	}
	return nil
}

// List returns a page of estimates plus the total count for the filter.
func (r *EstimateRepository) List(ctx context.Context, filter EstimateFilter) ([]domain.Estimate, int64, error) {
	query := r.db.WithContext(ctx).Model(&domain.Estimate{})

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.ServiceRequestID != nil {
		query = query.Where("service_request_id = ?", *filter.ServiceRequestID)
	}
	if filter.LatestOnly {
		query = query.Where("is_latest_version = ?", true)
	}
	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		query = query.Where("title ILIKE ? OR estimate_no ILIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count estimates: %w", err)
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

	var estimates []domain.Estimate
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&estimates).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list estimates: %w", err)
	}
	return estimates, total, nil
}

// ListVersions returns every version in an estimate family, oldest first.
// The family is identified by the root estimate: the given id may be any
// version in the chain.
func (r *EstimateRepository) ListVersions(ctx context.Context, id uuid.UUID) ([]domain.Estimate, error) {
	root, err := r.findRoot(ctx, id)
	if err != nil {
		return nil, err
	}

	var versions []domain.Estimate
	err = r.db.WithContext(ctx).
		Where("estimate_no = ?", root.EstimateNo).
		Order("version ASC").
		Find(&versions).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list estimate versions: %w", err)
	}
	return versions, nil
}

// ClearLatestFlag marks every version sharing the estimate number as not
// latest. Called inside the revision transaction just before the new
// version is created.
func (r *EstimateRepository) ClearLatestFlag(ctx context.Context, tx *gorm.DB, estimateNo string) error {
	return tx.WithContext(ctx).
		Model(&domain.Estimate{}).
		Where("estimate_no = ?", estimateNo).
		Update("is_latest_version", false).Error
}

func (r *EstimateRepository) findRoot(ctx context.Context, id uuid.UUID) (*domain.Estimate, error) {
	var estimate domain.Estimate
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&estimate).Error; err != nil {
		return nil, err
	}
	// Versions share the estimate number, so any member resolves the family.
	return &estimate, nil
}
