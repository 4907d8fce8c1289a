package pricing

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fmworks/estimate-api/internal/domain"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func materialLine(qty, unitCost string, markupType domain.AdjustmentType, markupValue string) domain.MaterialLine {
	return domain.MaterialLine{
		ItemType:    domain.ItemTypeMaterial,
		Description: "test material",
		Quantity:    dec(qty),
		UnitCost:    dec(unitCost),
		MarkupType:  markupType,
		MarkupValue: dec(markupValue),
	}
}

func hourlyLine(workers int, hours, rate string) domain.LaborLine {
	return domain.LaborLine{
		RateType:    domain.RateTypeHourly,
		Description: "test labor",
		Quantity:    workers,
		Hours:       dec(hours),
		HourlyRate:  dec(rate),
		MarkupType:  domain.AdjustmentNone,
	}
}

func TestPriceMaterialLine(t *testing.T) {
	tests := []struct {
		name       string
		line       domain.MaterialLine
		wantCost   string
		wantMarkup string
		wantPrice  string
	}{
		{
			name:       "percentage markup",
			line:       materialLine("2", "10", domain.AdjustmentPercentage, "10"),
			wantCost:   "20",
			wantMarkup: "2",
			wantPrice:  "22",
		},
		{
			name:       "fixed markup",
			line:       materialLine("3", "7.5", domain.AdjustmentFixed, "5"),
			wantCost:   "22.5",
			wantMarkup: "5",
			wantPrice:  "27.5",
		},
		{
			name:       "no markup",
			line:       materialLine("4", "12.25", domain.AdjustmentNone, "0"),
			wantCost:   "49",
			wantMarkup: "0",
			wantPrice:  "49",
		},
		{
			name:       "zero markup value with percentage type contributes nothing",
			line:       materialLine("1", "100", domain.AdjustmentPercentage, "0"),
			wantCost:   "100",
			wantMarkup: "0",
			wantPrice:  "100",
		},
		{
			name:       "empty markup type treated as none",
			line:       materialLine("1", "50", "", "0"),
			wantCost:   "50",
			wantMarkup: "0",
			wantPrice:  "50",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bd, err := PriceMaterialLine(&tt.line)
			require.NoError(t, err)
			assert.True(t, bd.TotalCost.Equal(dec(tt.wantCost)), "totalCost = %s", bd.TotalCost)
			assert.True(t, bd.MarkupAmount.Equal(dec(tt.wantMarkup)), "markupAmount = %s", bd.MarkupAmount)
			assert.True(t, bd.TotalPrice.Equal(dec(tt.wantPrice)), "totalPrice = %s", bd.TotalPrice)
		})
	}
}

func TestPriceMaterialLineRejectsBadInput(t *testing.T) {
	tests := []struct {
		name string
		line domain.MaterialLine
	}{
		{"zero quantity", materialLine("0", "10", domain.AdjustmentNone, "0")},
		{"negative quantity", materialLine("-1", "10", domain.AdjustmentNone, "0")},
		{"negative unit cost", materialLine("1", "-10", domain.AdjustmentNone, "0")},
		{"negative markup value", materialLine("1", "10", domain.AdjustmentPercentage, "-5")},
		{"bad markup type", materialLine("1", "10", "half-price", "5")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := PriceMaterialLine(&tt.line)
			var verr *domain.ValidationError
			require.ErrorAs(t, err, &verr)
		})
	}
}

func TestPriceLaborLine(t *testing.T) {
	t.Run("hourly", func(t *testing.T) {
		line := hourlyLine(2, "8", "50")
		bd, err := PriceLaborLine(&line)
		require.NoError(t, err)
		assert.True(t, bd.TotalCost.Equal(dec("800")))
		assert.True(t, bd.TotalPrice.Equal(dec("800")))
	})

	t.Run("daily", func(t *testing.T) {
		line := domain.LaborLine{
			RateType:    domain.RateTypeDaily,
			Description: "crew",
			Quantity:    3,
			Days:        dec("2.5"),
			DailyRate:   dec("400"),
			MarkupType:  domain.AdjustmentPercentage,
			MarkupValue: dec("10"),
		}
		bd, err := PriceLaborLine(&line)
		require.NoError(t, err)
		assert.True(t, bd.TotalCost.Equal(dec("3000")), "totalCost = %s", bd.TotalCost)
		assert.True(t, bd.MarkupAmount.Equal(dec("300")))
		assert.True(t, bd.TotalPrice.Equal(dec("3300")))
	})

	t.Run("daily line ignores hourly fields", func(t *testing.T) {
		line := domain.LaborLine{
			RateType:   domain.RateTypeDaily,
			Quantity:   1,
			Days:       dec("1"),
			DailyRate:  dec("100"),
			Hours:      dec("999"),
			HourlyRate: dec("999"),
		}
		bd, err := PriceLaborLine(&line)
		require.NoError(t, err)
		assert.True(t, bd.TotalCost.Equal(dec("100")))
	})

	t.Run("zero workers rejected", func(t *testing.T) {
		line := hourlyLine(0, "8", "50")
		_, err := PriceLaborLine(&line)
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestPriceLineIdempotent(t *testing.T) {
	line := materialLine("3.5", "19.99", domain.AdjustmentPercentage, "12.5")
	first, err := PriceMaterialLine(&line)
	require.NoError(t, err)
	second, err := PriceMaterialLine(&line)
	require.NoError(t, err)
	assert.True(t, first.TotalCost.Equal(second.TotalCost))
	assert.True(t, first.MarkupAmount.Equal(second.MarkupAmount))
	assert.True(t, first.TotalPrice.Equal(second.TotalPrice))
}

func TestComputeTotals(t *testing.T) {
	t.Run("profit percentage with VAT", func(t *testing.T) {
		// subtotal=100 via one material line, 10% profit, no discount, 10% VAT
		materials := []domain.MaterialLine{materialLine("10", "10", domain.AdjustmentNone, "0")}
		params := CommercialParams{
			ProfitMarginType:  domain.AdjustmentPercentage,
			ProfitMarginValue: dec("10"),
			VatRate:           dec("10"),
			DiscountType:      domain.AdjustmentNone,
		}
		totals, err := ComputeTotals(materials, nil, params)
		require.NoError(t, err)
		assert.True(t, totals.Subtotal.Equal(dec("100")), "subtotal = %s", totals.Subtotal)
		assert.True(t, totals.ProfitAmount.Equal(dec("10")))
		assert.True(t, totals.TotalBeforeVat.Equal(dec("110")))
		assert.True(t, totals.VatAmount.Equal(dec("11")))
		assert.True(t, totals.Total.Equal(dec("121")))
		assert.False(t, totals.NegativeBeforeVat)
	})

	t.Run("discount applies after profit before VAT", func(t *testing.T) {
		materials := []domain.MaterialLine{materialLine("10", "10", domain.AdjustmentNone, "0")}
		params := CommercialParams{
			ProfitMarginType:  domain.AdjustmentPercentage,
			ProfitMarginValue: dec("10"),
			DiscountType:      domain.AdjustmentPercentage,
			DiscountValue:     dec("10"),
			VatRate:           dec("25"),
		}
		totals, err := ComputeTotals(materials, nil, params)
		require.NoError(t, err)
		// discount base is subtotal+profit = 110
		assert.True(t, totals.DiscountAmount.Equal(dec("11")), "discountAmount = %s", totals.DiscountAmount)
		assert.True(t, totals.TotalBeforeVat.Equal(dec("99")))
		assert.True(t, totals.VatAmount.Equal(dec("24.75")))
		assert.True(t, totals.Total.Equal(dec("123.75")))
	})

	t.Run("transport cost included in subtotal", func(t *testing.T) {
		materials := []domain.MaterialLine{materialLine("1", "50", domain.AdjustmentNone, "0")}
		labor := []domain.LaborLine{hourlyLine(1, "2", "25")}
		params := CommercialParams{TransportCost: dec("30")}
		totals, err := ComputeTotals(materials, labor, params)
		require.NoError(t, err)
		assert.True(t, totals.MaterialCost.Equal(dec("50")))
		assert.True(t, totals.LaborCost.Equal(dec("50")))
		assert.True(t, totals.Subtotal.Equal(dec("130")))
	})

	t.Run("oversized fixed discount flags negative total", func(t *testing.T) {
		materials := []domain.MaterialLine{materialLine("1", "100", domain.AdjustmentNone, "0")}
		params := CommercialParams{
			DiscountType:  domain.AdjustmentFixed,
			DiscountValue: dec("150"),
			VatRate:       dec("10"),
		}
		totals, err := ComputeTotals(materials, nil, params)
		require.NoError(t, err)
		assert.True(t, totals.NegativeBeforeVat)
		assert.True(t, totals.TotalBeforeVat.Equal(dec("-50")))
		// Figures are reported as computed, never auto-corrected
		assert.True(t, totals.Total.Equal(dec("-55")), "total = %s", totals.Total)
	})

	t.Run("identities hold", func(t *testing.T) {
		materials := []domain.MaterialLine{
			materialLine("3", "19.99", domain.AdjustmentPercentage, "7.5"),
			materialLine("1.25", "80", domain.AdjustmentFixed, "12"),
		}
		labor := []domain.LaborLine{hourlyLine(2, "7.5", "62.5")}
		params := CommercialParams{
			TransportCost:     dec("45.5"),
			ProfitMarginType:  domain.AdjustmentPercentage,
			ProfitMarginValue: dec("8"),
			DiscountType:      domain.AdjustmentFixed,
			DiscountValue:     dec("20"),
			VatRate:           dec("12.5"),
		}
		totals, err := ComputeTotals(materials, labor, params)
		require.NoError(t, err)

		wantBeforeVat := totals.Subtotal.Add(totals.ProfitAmount).Sub(totals.DiscountAmount)
		assert.True(t, totals.TotalBeforeVat.Equal(wantBeforeVat))
		wantTotal := totals.TotalBeforeVat.Add(totals.VatAmount)
		assert.True(t, totals.Total.Equal(wantTotal))
	})

	t.Run("increasing quantity never decreases subtotal", func(t *testing.T) {
		base := []domain.MaterialLine{materialLine("2", "10", domain.AdjustmentNone, "0")}
		bumped := []domain.MaterialLine{materialLine("3", "10", domain.AdjustmentNone, "0")}
		params := CommercialParams{}
		before, err := ComputeTotals(base, nil, params)
		require.NoError(t, err)
		after, err := ComputeTotals(bumped, nil, params)
		require.NoError(t, err)
		assert.True(t, after.Subtotal.GreaterThanOrEqual(before.Subtotal))
	})

	t.Run("vat rate out of domain rejected", func(t *testing.T) {
		materials := []domain.MaterialLine{materialLine("1", "10", domain.AdjustmentNone, "0")}
		_, err := ComputeTotals(materials, nil, CommercialParams{VatRate: dec("101")})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)

		_, err = ComputeTotals(materials, nil, CommercialParams{VatRate: dec("-1")})
		require.ErrorAs(t, err, &verr)
	})

	t.Run("negative transport cost rejected", func(t *testing.T) {
		materials := []domain.MaterialLine{materialLine("1", "10", domain.AdjustmentNone, "0")}
		_, err := ComputeTotals(materials, nil, CommercialParams{TransportCost: dec("-5")})
		var verr *domain.ValidationError
		require.ErrorAs(t, err, &verr)
	})
}

func TestHasBillableContent(t *testing.T) {
	assert.False(t, HasBillableContent(nil, nil))
	assert.True(t, HasBillableContent([]domain.MaterialLine{materialLine("1", "1", "", "0")}, nil))
	assert.True(t, HasBillableContent(nil, []domain.LaborLine{hourlyLine(1, "1", "1")}))
}
