package mapper

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/fmworks/estimate-api/internal/domain"
)

// Monetary values are carried at full precision internally and rounded to
// three decimals at the API boundary. Rounding happens here and only here.
const moneyScale = 3

func money(d decimal.Decimal) decimal.Decimal {
	return d.Round(moneyScale)
}

// ToMaterialLineDTO converts a material line entity to its API representation
func ToMaterialLineDTO(line *domain.MaterialLine) domain.MaterialLineDTO {
	return domain.MaterialLineDTO{
		ID:           line.ID,
		ItemType:     line.ItemType,
		Description:  line.Description,
		Quantity:     line.Quantity,
		Unit:         line.Unit,
		UnitCost:     money(line.UnitCost),
		MarkupType:   line.MarkupType,
		MarkupValue:  line.MarkupValue,
		TotalCost:    money(line.TotalCost),
		MarkupAmount: money(line.MarkupAmount),
		TotalPrice:   money(line.TotalPrice),
		DisplayOrder: line.DisplayOrder,
	}
}

// ToLaborLineDTO converts a labor line entity to its API representation
func ToLaborLineDTO(line *domain.LaborLine) domain.LaborLineDTO {
	return domain.LaborLineDTO{
		ID:           line.ID,
		RateType:     line.RateType,
		Description:  line.Description,
		Quantity:     line.Quantity,
		Hours:        line.Hours,
		Days:         line.Days,
		HourlyRate:   money(line.HourlyRate),
		DailyRate:    money(line.DailyRate),
		MarkupType:   line.MarkupType,
		MarkupValue:  line.MarkupValue,
		TotalCost:    money(line.TotalCost),
		MarkupAmount: money(line.MarkupAmount),
		TotalPrice:   money(line.TotalPrice),
		DisplayOrder: line.DisplayOrder,
	}
}

// ToEstimateDTO converts an estimate aggregate to its API representation
func ToEstimateDTO(estimate *domain.Estimate) domain.EstimateDTO {
	materialLines := make([]domain.MaterialLineDTO, 0, len(estimate.MaterialLines))
	for i := range estimate.MaterialLines {
		materialLines = append(materialLines, ToMaterialLineDTO(&estimate.MaterialLines[i]))
	}
	laborLines := make([]domain.LaborLineDTO, 0, len(estimate.LaborLines))
	for i := range estimate.LaborLines {
		laborLines = append(laborLines, ToLaborLineDTO(&estimate.LaborLines[i]))
	}

	return domain.EstimateDTO{
		ID:               estimate.ID,
		EstimateNo:       estimate.EstimateNo,
		Version:          estimate.Version,
		ParentEstimateID: estimate.ParentEstimateID,
		IsLatestVersion:  estimate.IsLatestVersion,
		ServiceRequestID: estimate.ServiceRequestID,
		Title:            estimate.Title,
		Description:      estimate.Description,
		Tags:             []string(estimate.Tags),

		TransportCost:     money(estimate.TransportCost),
		ProfitMarginType:  estimate.ProfitMarginType,
		ProfitMarginValue: estimate.ProfitMarginValue,
		VatRate:           estimate.VatRate,
		DiscountType:      estimate.DiscountType,
		DiscountValue:     estimate.DiscountValue,
		DiscountReason:    estimate.DiscountReason,

		MaterialCost:     money(estimate.MaterialCost),
		LaborCost:        money(estimate.LaborCost),
		Subtotal:         money(estimate.Subtotal),
		ProfitAmount:     money(estimate.ProfitAmount),
		DiscountAmount:   money(estimate.DiscountAmount),
		TotalBeforeVat:   money(estimate.TotalBeforeVat),
		VatAmount:        money(estimate.VatAmount),
		Total:            money(estimate.Total),
		HasNegativeTotal: estimate.HasNegativeTotal,

		Status:          estimate.Status,
		SubmittedAt:     estimate.SubmittedAt,
		SubmittedByID:   estimate.SubmittedByID,
		ApprovedAt:      estimate.ApprovedAt,
		ApprovedByID:    estimate.ApprovedByID,
		RejectedAt:      estimate.RejectedAt,
		RejectedByID:    estimate.RejectedByID,
		RejectionReason: estimate.RejectionReason,
		RevisionNotes:   estimate.RevisionNotes,
		CancelledAt:     estimate.CancelledAt,
		QuoteID:         estimate.QuoteID,

		MaterialLines: materialLines,
		LaborLines:    laborLines,

		CreatedAt: estimate.CreatedAt.Format(time.RFC3339),
		UpdatedAt: estimate.UpdatedAt.Format(time.RFC3339),
	}
}

// ToQuoteDTO converts a quote entity to its API representation
func ToQuoteDTO(quote *domain.Quote) domain.QuoteDTO {
	return domain.QuoteDTO{
		ID:             quote.ID,
		QuoteNo:        quote.QuoteNo,
		EstimateID:     quote.EstimateID,
		Title:          quote.Title,
		Description:    quote.Description,
		Terms:          quote.Terms,
		ValidUntil:     quote.ValidUntil,
		Status:         quote.Status,
		Subtotal:       money(quote.Subtotal),
		ProfitAmount:   money(quote.ProfitAmount),
		DiscountAmount: money(quote.DiscountAmount),
		TotalBeforeVat: money(quote.TotalBeforeVat),
		VatAmount:      money(quote.VatAmount),
		Total:          money(quote.Total),
		CreatedAt:      quote.CreatedAt.Format(time.RFC3339),
	}
}

// ToEstimateActivityDTO converts an audit record to its API representation
func ToEstimateActivityDTO(activity *domain.EstimateActivity) domain.EstimateActivityDTO {
	return domain.EstimateActivityDTO{
		ID:          activity.ID,
		EstimateID:  activity.EstimateID,
		Action:      activity.Action,
		FromStatus:  activity.FromStatus,
		ToStatus:    activity.ToStatus,
		ActorID:     activity.ActorID,
		ActorName:   activity.ActorName,
		Description: activity.Description,
		OccurredAt:  activity.OccurredAt,
	}
}
