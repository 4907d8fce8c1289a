package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/fmworks/estimate-api/internal/domain"
)

// DiscountSolution is the result of the target-total solver. When the
// target is not below the natural total, NoDiscountNeeded is set and the
// discount pair resets to none; this is a defined outcome, not an error.
type DiscountSolution struct {
	DiscountType     domain.AdjustmentType
	DiscountValue    decimal.Decimal
	NoDiscountNeeded bool
}

// SolveDiscountForTarget derives the discount required for the estimate to
// land on targetTotal, VAT-aware. The result is always a fixed discount
// (even when the estimate's own discount mode was percentage), rounded to
// 3 decimals so a forward recompute reproduces targetTotal within one
// rounding unit. The solver only produces a discountType/discountValue
// pair; it is never the stored source of truth.
func SolveDiscountForTarget(materialLines []domain.MaterialLine, laborLines []domain.LaborLine, params CommercialParams, targetTotal decimal.Decimal) (DiscountSolution, error) {
	if targetTotal.IsNegative() {
		return DiscountSolution{}, domain.NewValidationError("targetTotal", "must not be negative")
	}

	// Forward pass with the discount forced off gives the natural
	// pre-discount amount.
	params.DiscountType = domain.AdjustmentNone
	params.DiscountValue = decimal.Zero
	totals, err := ComputeTotals(materialLines, laborLines, params)
	if err != nil {
		return DiscountSolution{}, err
	}

	amountBeforeDiscount := totals.Subtotal.Add(totals.ProfitAmount)
	vatFactor := decimal.NewFromInt(1).Add(params.VatRate.Div(oneHundred))
	targetBeforeVat := targetTotal.Div(vatFactor)

	requiredDiscount := amountBeforeDiscount.Sub(targetBeforeVat)
	if !requiredDiscount.IsPositive() {
		return DiscountSolution{
			DiscountType:     domain.AdjustmentNone,
			DiscountValue:    decimal.Zero,
			NoDiscountNeeded: true,
		}, nil
	}

	return DiscountSolution{
		DiscountType:  domain.AdjustmentFixed,
		DiscountValue: requiredDiscount.Round(3),
	}, nil
}
