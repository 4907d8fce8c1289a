package repository_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/domain"
)

// SQL-generation tests for the estimate list filters. A throwaway in-memory
// connection is enough since nothing is executed.

func setupMinimalTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	return db
}

func TestEstimateList_StatusFilter(t *testing.T) {
	db := setupMinimalTestDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&domain.Estimate{}).
			Where("status = ?", domain.EstimateStatusDraft).
			Find(&[]domain.Estimate{})
	})

	assert.Contains(t, sql, "status")
	assert.Contains(t, sql, "draft")
}

func TestEstimateList_LatestOnlyFilter(t *testing.T) {
	db := setupMinimalTestDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&domain.Estimate{}).
			Where("is_latest_version = ?", true).
			Find(&[]domain.Estimate{})
	})

	assert.Contains(t, sql, "is_latest_version")
}

func TestEstimatePagination_SQL(t *testing.T) {
	db := setupMinimalTestDB(t)

	sql := db.ToSQL(func(tx *gorm.DB) *gorm.DB {
		return tx.Model(&domain.Estimate{}).
			Order("created_at DESC").
			Offset(20).
			Limit(20).
			Find(&[]domain.Estimate{})
	})

	assert.Contains(t, sql, "ORDER BY created_at DESC")
	assert.Contains(t, sql, "LIMIT")
}
