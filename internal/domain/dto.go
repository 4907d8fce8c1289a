package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaterialLineDTO is the API representation of a material line.
// Monetary values are rounded to 3 decimals at mapping time.
type MaterialLineDTO struct {
	ID           uuid.UUID       `json:"id"`
	ItemType     ItemType        `json:"itemType"`
	Description  string          `json:"description"`
	Quantity     decimal.Decimal `json:"quantity"`
	Unit         string          `json:"unit,omitempty"`
	UnitCost     decimal.Decimal `json:"unitCost"`
	MarkupType   AdjustmentType  `json:"markupType"`
	MarkupValue  decimal.Decimal `json:"markupValue"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	MarkupAmount decimal.Decimal `json:"markupAmount"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	DisplayOrder int             `json:"displayOrder"`
}

// LaborLineDTO is the API representation of a labor line
type LaborLineDTO struct {
	ID           uuid.UUID       `json:"id"`
	RateType     RateType        `json:"rateType"`
	Description  string          `json:"description"`
	Quantity     int             `json:"quantity"`
	Hours        decimal.Decimal `json:"hours"`
	Days         decimal.Decimal `json:"days"`
	HourlyRate   decimal.Decimal `json:"hourlyRate"`
	DailyRate    decimal.Decimal `json:"dailyRate"`
	MarkupType   AdjustmentType  `json:"markupType"`
	MarkupValue  decimal.Decimal `json:"markupValue"`
	TotalCost    decimal.Decimal `json:"totalCost"`
	MarkupAmount decimal.Decimal `json:"markupAmount"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	DisplayOrder int             `json:"displayOrder"`
}

// EstimateDTO is the full API representation of an estimate
type EstimateDTO struct {
	ID               uuid.UUID  `json:"id"`
	EstimateNo       string     `json:"estimateNo"`
	Version          int        `json:"version"`
	ParentEstimateID *uuid.UUID `json:"parentEstimateId,omitempty"`
	IsLatestVersion  bool       `json:"isLatestVersion"`
	ServiceRequestID uuid.UUID  `json:"serviceRequestId"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Tags             []string   `json:"tags,omitempty"`

	TransportCost     decimal.Decimal `json:"transportCost"`
	ProfitMarginType  AdjustmentType  `json:"profitMarginType"`
	ProfitMarginValue decimal.Decimal `json:"profitMarginValue"`
	VatRate           decimal.Decimal `json:"vatRate"`
	DiscountType      AdjustmentType  `json:"discountType"`
	DiscountValue     decimal.Decimal `json:"discountValue"`
	DiscountReason    string          `json:"discountReason,omitempty"`

	MaterialCost     decimal.Decimal `json:"materialCost"`
	LaborCost        decimal.Decimal `json:"laborCost"`
	Subtotal         decimal.Decimal `json:"subtotal"`
	ProfitAmount     decimal.Decimal `json:"profitAmount"`
	DiscountAmount   decimal.Decimal `json:"discountAmount"`
	TotalBeforeVat   decimal.Decimal `json:"totalBeforeVat"`
	VatAmount        decimal.Decimal `json:"vatAmount"`
	Total            decimal.Decimal `json:"total"`
	HasNegativeTotal bool            `json:"hasNegativeTotal"`

	Status          EstimateStatus `json:"status"`
	SubmittedAt     *time.Time     `json:"submittedAt,omitempty"`
	SubmittedByID   string         `json:"submittedById,omitempty"`
	ApprovedAt      *time.Time     `json:"approvedAt,omitempty"`
	ApprovedByID    string         `json:"approvedById,omitempty"`
	RejectedAt      *time.Time     `json:"rejectedAt,omitempty"`
	RejectedByID    string         `json:"rejectedById,omitempty"`
	RejectionReason string         `json:"rejectionReason,omitempty"`
	RevisionNotes   string         `json:"revisionNotes,omitempty"`
	CancelledAt     *time.Time     `json:"cancelledAt,omitempty"`
	QuoteID         *uuid.UUID     `json:"quoteId,omitempty"`

	MaterialLines []MaterialLineDTO `json:"materialLines"`
	LaborLines    []LaborLineDTO    `json:"laborLines"`

	CreatedAt string `json:"createdAt"` // ISO 8601
	UpdatedAt string `json:"updatedAt"` // ISO 8601
}

// QuoteDTO is the API representation of a quote
type QuoteDTO struct {
	ID             uuid.UUID       `json:"id"`
	QuoteNo        string          `json:"quoteNo"`
	EstimateID     uuid.UUID       `json:"estimateId"`
	Title          string          `json:"title"`
	Description    string          `json:"description,omitempty"`
	Terms          string          `json:"terms,omitempty"`
	ValidUntil     time.Time       `json:"validUntil"`
	Status         QuoteStatus     `json:"status"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	ProfitAmount   decimal.Decimal `json:"profitAmount"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	TotalBeforeVat decimal.Decimal `json:"totalBeforeVat"`
	VatAmount      decimal.Decimal `json:"vatAmount"`
	Total          decimal.Decimal `json:"total"`
	CreatedAt      string          `json:"createdAt"` // ISO 8601
}

// EstimateActivityDTO is the API representation of an audit log entry
type EstimateActivityDTO struct {
	ID          uuid.UUID      `json:"id"`
	EstimateID  uuid.UUID      `json:"estimateId"`
	Action      EstimateAction `json:"action"`
	FromStatus  EstimateStatus `json:"fromStatus,omitempty"`
	ToStatus    EstimateStatus `json:"toStatus,omitempty"`
	ActorID     string         `json:"actorId"`
	ActorName   string         `json:"actorName,omitempty"`
	Description string         `json:"description,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// Pagination response wrapper
type PaginatedResponse struct {
	Data       interface{} `json:"data"`
	Total      int64       `json:"total"`
	Page       int         `json:"page"`
	PageSize   int         `json:"pageSize"`
	TotalPages int         `json:"totalPages"`
}

// Request DTOs

// MaterialLineRequest carries one material line from the caller. Numeric
// domain rules (quantity > 0, non-negative costs) are enforced by the
// pricing calculator before any state mutation.
type MaterialLineRequest struct {
	ItemType    ItemType        `json:"itemType" validate:"required,oneof=material equipment service other"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    decimal.Decimal `json:"quantity"`
	Unit        string          `json:"unit,omitempty" validate:"max=50"`
	UnitCost    decimal.Decimal `json:"unitCost"`
	MarkupType  AdjustmentType  `json:"markupType,omitempty" validate:"omitempty,oneof=none percentage fixed"`
	MarkupValue decimal.Decimal `json:"markupValue"`
}

// LaborLineRequest carries one labor line from the caller
type LaborLineRequest struct {
	RateType    RateType        `json:"rateType" validate:"required,oneof=hourly daily"`
	Description string          `json:"description" validate:"required,max=500"`
	Quantity    int             `json:"quantity" validate:"required,min=1"`
	Hours       decimal.Decimal `json:"hours"`
	Days        decimal.Decimal `json:"days"`
	HourlyRate  decimal.Decimal `json:"hourlyRate"`
	DailyRate   decimal.Decimal `json:"dailyRate"`
	MarkupType  AdjustmentType  `json:"markupType,omitempty" validate:"omitempty,oneof=none percentage fixed"`
	MarkupValue decimal.Decimal `json:"markupValue"`
}

// CommercialParamsRequest groups the estimate-level pricing parameters
type CommercialParamsRequest struct {
	TransportCost     decimal.Decimal `json:"transportCost"`
	ProfitMarginType  AdjustmentType  `json:"profitMarginType,omitempty" validate:"omitempty,oneof=none percentage fixed"`
	ProfitMarginValue decimal.Decimal `json:"profitMarginValue"`
	VatRate           decimal.Decimal `json:"vatRate"`
	DiscountType      AdjustmentType  `json:"discountType,omitempty" validate:"omitempty,oneof=none percentage fixed"`
	DiscountValue     decimal.Decimal `json:"discountValue"`
	DiscountReason    string          `json:"discountReason,omitempty" validate:"max=500"`
}

type CreateEstimateRequest struct {
	ServiceRequestID uuid.UUID               `json:"serviceRequestId" validate:"required"`
	Title            string                  `json:"title" validate:"required,max=200"`
	Description      string                  `json:"description,omitempty"`
	Tags             []string                `json:"tags,omitempty" validate:"dive,max=50"`
	MaterialLines    []MaterialLineRequest   `json:"materialLines" validate:"dive"`
	LaborLines       []LaborLineRequest      `json:"laborLines" validate:"dive"`
	Commercial       CommercialParamsRequest `json:"commercial"`
}

type UpdateEstimateRequest struct {
	Title         string                  `json:"title" validate:"required,max=200"`
	Description   string                  `json:"description,omitempty"`
	Tags          []string                `json:"tags,omitempty" validate:"dive,max=50"`
	MaterialLines []MaterialLineRequest   `json:"materialLines" validate:"dive"`
	LaborLines    []LaborLineRequest      `json:"laborLines" validate:"dive"`
	Commercial    CommercialParamsRequest `json:"commercial"`
}

// SolveDiscountRequest asks for the discount needed to land on TargetTotal
type SolveDiscountRequest struct {
	TargetTotal decimal.Decimal `json:"targetTotal"`
}

// SolveDiscountResponse returns the discount pair to feed back through an
// update; the solver result is never stored directly.
type SolveDiscountResponse struct {
	DiscountType     AdjustmentType  `json:"discountType"`
	DiscountValue    decimal.Decimal `json:"discountValue"`
	NoDiscountNeeded bool            `json:"noDiscountNeeded"`
}

type RejectEstimateRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

type RequestRevisionRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
	Notes  string `json:"notes,omitempty" validate:"max=2000"`
}

type CancelEstimateRequest struct {
	Reason string `json:"reason,omitempty" validate:"max=500"`
}

type ConvertToQuoteRequest struct {
	ValidUntil  time.Time `json:"validUntil" validate:"required"`
	Title       string    `json:"title,omitempty" validate:"max=200"`
	Description string    `json:"description,omitempty"`
	Terms       string    `json:"terms,omitempty"`
}

// ConvertToQuoteResponse carries the converted estimate and the new quote
type ConvertToQuoteResponse struct {
	Estimate *EstimateDTO `json:"estimate"`
	Quote    *QuoteDTO    `json:"quote"`
}
