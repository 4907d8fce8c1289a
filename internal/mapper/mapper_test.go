package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/mapper"
)

func TestToMaterialLineDTO_RoundsMoneyFields(t *testing.T) {
	line := &domain.MaterialLine{
		ItemType:     domain.ItemTypeMaterial,
		Description:  "Copper pipe",
		Quantity:     decimal.NewFromFloat(3),
		Unit:         "m",
		UnitCost:     decimal.RequireFromString("8.33333"),
		MarkupType:   domain.AdjustmentPercentage,
		MarkupValue:  decimal.NewFromInt(10),
		TotalCost:    decimal.RequireFromString("24.99999"),
		MarkupAmount: decimal.RequireFromString("2.499999"),
		TotalPrice:   decimal.RequireFromString("27.499989"),
	}

	dto := mapper.ToMaterialLineDTO(line)

	assert.True(t, decimal.RequireFromString("8.333").Equal(dto.UnitCost))
	assert.True(t, decimal.RequireFromString("25").Equal(dto.TotalCost))
	assert.True(t, decimal.RequireFromString("2.5").Equal(dto.MarkupAmount))
	assert.True(t, decimal.RequireFromString("27.5").Equal(dto.TotalPrice))
	// Markup value is an input parameter, not a monetary amount
	assert.True(t, decimal.NewFromInt(10).Equal(dto.MarkupValue))
}

func TestToEstimateDTO(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	estimate := &domain.Estimate{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: now,
			UpdatedAt: now,
		},
		EstimateNo:       "EST-2026-007",
		Version:          2,
		IsLatestVersion:  true,
		ServiceRequestID: uuid.New(),
		Title:            "HVAC repair",
		Tags:             []string{"hvac", "urgent"},
		VatRate:          decimal.NewFromInt(25),
		Subtotal:         decimal.RequireFromString("1000.12345"),
		Total:            decimal.RequireFromString("1250.154312"),
		Status:           domain.EstimateStatusDraft,
		MaterialLines: []domain.MaterialLine{
			{Description: "Filter", Quantity: decimal.NewFromInt(1), UnitCost: decimal.NewFromInt(50)},
		},
	}

	dto := mapper.ToEstimateDTO(estimate)

	assert.Equal(t, "EST-2026-007", dto.EstimateNo)
	assert.Equal(t, 2, dto.Version)
	assert.Equal(t, []string{"hvac", "urgent"}, dto.Tags)
	assert.True(t, decimal.RequireFromString("1000.123").Equal(dto.Subtotal))
	assert.True(t, decimal.RequireFromString("1250.154").Equal(dto.Total))
	assert.Len(t, dto.MaterialLines, 1)
	assert.Empty(t, dto.LaborLines)
	assert.Equal(t, "2026-03-10T12:00:00Z", dto.CreatedAt)
}

func TestToQuoteDTO(t *testing.T) {
	validUntil := time.Date(2026, 4, 9, 0, 0, 0, 0, time.UTC)
	quote := &domain.Quote{
		BaseModel:  domain.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
		QuoteNo:    "QUO-2026-003",
		EstimateID: uuid.New(),
		Title:      "HVAC repair",
		ValidUntil: validUntil,
		Status:     domain.QuoteStatusActive,
		Subtotal:   decimal.NewFromInt(1000),
		Total:      decimal.RequireFromString("1250.0005"),
	}

	dto := mapper.ToQuoteDTO(quote)

	assert.Equal(t, "QUO-2026-003", dto.QuoteNo)
	assert.Equal(t, quote.EstimateID, dto.EstimateID)
	assert.Equal(t, validUntil, dto.ValidUntil)
	assert.True(t, decimal.RequireFromString("1250.001").Equal(dto.Total))
}
