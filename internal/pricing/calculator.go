// Package pricing implements the deterministic financial calculation
// pipeline for estimates: per-line cost/markup/price breakdowns, aggregate
// totals, and the inverse discount solver.
//
// All functions are pure. They take no shared mutable state and are safe
// for any number of concurrent callers. Computation runs at full decimal
// precision; rounding to 3 decimals is a presentation concern owned by the
// mapper, with the single exception of the solver's emitted discount value.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fmworks/estimate-api/internal/domain"
)

var oneHundred = decimal.NewFromInt(100)

// LineBreakdown is the priced result for a single line
type LineBreakdown struct {
	TotalCost    decimal.Decimal
	MarkupAmount decimal.Decimal
	TotalPrice   decimal.Decimal
}

// CommercialParams are the estimate-level pricing inputs
type CommercialParams struct {
	TransportCost     decimal.Decimal
	ProfitMarginType  domain.AdjustmentType
	ProfitMarginValue decimal.Decimal
	VatRate           decimal.Decimal
	DiscountType      domain.AdjustmentType
	DiscountValue     decimal.Decimal
}

// Totals holds the aggregate financial figures for an estimate.
// NegativeBeforeVat flags an oversized discount/profit combination; the
// figures are still returned so the operator can see what happened.
type Totals struct {
	MaterialCost      decimal.Decimal
	LaborCost         decimal.Decimal
	Subtotal          decimal.Decimal
	ProfitAmount      decimal.Decimal
	DiscountAmount    decimal.Decimal
	TotalBeforeVat    decimal.Decimal
	VatAmount         decimal.Decimal
	Total             decimal.Decimal
	NegativeBeforeVat bool
}

// PriceMaterialLine computes totalCost, markupAmount and totalPrice for a
// material/equipment/service line. Negative inputs are rejected with a
// ValidationError, never silently clamped.
func PriceMaterialLine(line *domain.MaterialLine) (LineBreakdown, error) {
	verr := &domain.ValidationError{}
	if !line.ItemType.IsValid() {
		verr.Add("itemType", "must be one of material, equipment, service, other")
	}
	if !line.Quantity.IsPositive() {
		verr.Add("quantity", "must be greater than zero")
	}
	if line.UnitCost.IsNegative() {
		verr.Add("unitCost", "must not be negative")
	}
	validateMarkup(line.MarkupType, line.MarkupValue, verr)
	if verr.HasErrors() {
		return LineBreakdown{}, verr
	}

	totalCost := line.Quantity.Mul(line.UnitCost)
	markup := applyAdjustment(totalCost, line.MarkupType, line.MarkupValue)
	return LineBreakdown{
		TotalCost:    totalCost,
		MarkupAmount: markup,
		TotalPrice:   totalCost.Add(markup),
	}, nil
}

// PriceLaborLine computes totalCost, markupAmount and totalPrice for a
// labor line. Hours drive hourly lines and days drive daily lines; the
// other pair of fields is ignored.
func PriceLaborLine(line *domain.LaborLine) (LineBreakdown, error) {
	verr := &domain.ValidationError{}
	if !line.RateType.IsValid() {
		verr.Add("rateType", "must be one of hourly, daily")
	}
	if line.Quantity < 1 {
		verr.Add("quantity", "must be at least 1 worker")
	}
	if line.Hours.IsNegative() {
		verr.Add("hours", "must not be negative")
	}
	if line.Days.IsNegative() {
		verr.Add("days", "must not be negative")
	}
	if line.HourlyRate.IsNegative() {
		verr.Add("hourlyRate", "must not be negative")
	}
	if line.DailyRate.IsNegative() {
		verr.Add("dailyRate", "must not be negative")
	}
	validateMarkup(line.MarkupType, line.MarkupValue, verr)
	if verr.HasErrors() {
		return LineBreakdown{}, verr
	}

	workers := decimal.NewFromInt(int64(line.Quantity))
	var totalCost decimal.Decimal
	if line.RateType == domain.RateTypeHourly {
		totalCost = workers.Mul(line.Hours).Mul(line.HourlyRate)
	} else {
		totalCost = workers.Mul(line.Days).Mul(line.DailyRate)
	}
	markup := applyAdjustment(totalCost, line.MarkupType, line.MarkupValue)
	return LineBreakdown{
		TotalCost:    totalCost,
		MarkupAmount: markup,
		TotalPrice:   totalCost.Add(markup),
	}, nil
}

// ComputeTotals prices every line and aggregates the estimate totals.
// The discount is applied after profit and before VAT. Recomputation from
// the same inputs always yields the same outputs.
func ComputeTotals(materialLines []domain.MaterialLine, laborLines []domain.LaborLine, params CommercialParams) (Totals, error) {
	if err := ValidateParams(params); err != nil {
		return Totals{}, err
	}

	materialCost := decimal.Zero
	for i := range materialLines {
		bd, err := PriceMaterialLine(&materialLines[i])
		if err != nil {
			return Totals{}, err
		}
		materialCost = materialCost.Add(bd.TotalPrice)
	}

	laborCost := decimal.Zero
	for i := range laborLines {
		bd, err := PriceLaborLine(&laborLines[i])
		if err != nil {
			return Totals{}, err
		}
		laborCost = laborCost.Add(bd.TotalPrice)
	}

	subtotal := materialCost.Add(laborCost).Add(params.TransportCost)
	profitAmount := applyAdjustment(subtotal, params.ProfitMarginType, params.ProfitMarginValue)
	discountAmount := applyAdjustment(subtotal.Add(profitAmount), params.DiscountType, params.DiscountValue)
	totalBeforeVat := subtotal.Add(profitAmount).Sub(discountAmount)
	vatAmount := totalBeforeVat.Mul(params.VatRate).Div(oneHundred)
	total := totalBeforeVat.Add(vatAmount)

	return Totals{
		MaterialCost:      materialCost,
		LaborCost:         laborCost,
		Subtotal:          subtotal,
		ProfitAmount:      profitAmount,
		DiscountAmount:    discountAmount,
		TotalBeforeVat:    totalBeforeVat,
		VatAmount:         vatAmount,
		Total:             total,
		NegativeBeforeVat: totalBeforeVat.IsNegative(),
	}, nil
}

// ValidateParams checks the commercial parameters against their domains
func ValidateParams(params CommercialParams) error {
	verr := &domain.ValidationError{}
	if params.TransportCost.IsNegative() {
		verr.Add("transportCost", "must not be negative")
	}
	if !normalizedAdjustment(params.ProfitMarginType).IsValid() {
		verr.Add("profitMarginType", "must be one of none, percentage, fixed")
	}
	if params.ProfitMarginValue.IsNegative() {
		verr.Add("profitMarginValue", "must not be negative")
	}
	if params.VatRate.IsNegative() || params.VatRate.GreaterThan(oneHundred) {
		verr.Add("vatRate", "must be between 0 and 100")
	}
	if !normalizedAdjustment(params.DiscountType).IsValid() {
		verr.Add("discountType", "must be one of none, percentage, fixed")
	}
	if params.DiscountValue.IsNegative() {
		verr.Add("discountValue", "must not be negative")
	}
	if verr.HasErrors() {
		return verr
	}
	return nil
}

// HasBillableContent reports whether there is at least one line to price.
// An estimate with no lines at all cannot be created.
func HasBillableContent(materialLines []domain.MaterialLine, laborLines []domain.LaborLine) bool {
	return len(materialLines) > 0 || len(laborLines) > 0
}

func validateMarkup(typ domain.AdjustmentType, value decimal.Decimal, verr *domain.ValidationError) {
	if !normalizedAdjustment(typ).IsValid() {
		verr.Add("markupType", "must be one of none, percentage, fixed")
	}
	if value.IsNegative() {
		verr.Add("markupValue", "must not be negative")
	}
}

// applyAdjustment resolves a percentage/fixed adjustment against a base
// amount. A none type or non-positive value contributes nothing.
func applyAdjustment(base decimal.Decimal, typ domain.AdjustmentType, value decimal.Decimal) decimal.Decimal {
	if !value.IsPositive() {
		return decimal.Zero
	}
	switch normalizedAdjustment(typ) {
	case domain.AdjustmentPercentage:
		return base.Mul(value).Div(oneHundred)
	case domain.AdjustmentFixed:
		return value
	default:
		return decimal.Zero
	}
}

// normalizedAdjustment maps an unset type to none
func normalizedAdjustment(typ domain.AdjustmentType) domain.AdjustmentType {
	if typ == "" {
		return domain.AdjustmentNone
	}
	return typ
}
