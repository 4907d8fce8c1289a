package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// ItemType classifies a material line item
type ItemType string

const (
	ItemTypeMaterial  ItemType = "material"
	ItemTypeEquipment ItemType = "equipment"
	ItemTypeService   ItemType = "service"
	ItemTypeOther     ItemType = "other"
)

// IsValid checks if the ItemType is a valid enum value
func (it ItemType) IsValid() bool {
	switch it {
	case ItemTypeMaterial, ItemTypeEquipment, ItemTypeService, ItemTypeOther:
		return true
	}
	return false
}

// RateType determines how a labor line is billed
type RateType string

const (
	RateTypeHourly RateType = "hourly"
	RateTypeDaily  RateType = "daily"
)

// IsValid checks if the RateType is a valid enum value
func (rt RateType) IsValid() bool {
	return rt == RateTypeHourly || rt == RateTypeDaily
}

// AdjustmentType determines how markup, profit margin and discount values
// are interpreted: not applied, percent of the base amount, or a fixed sum.
type AdjustmentType string

const (
	AdjustmentNone       AdjustmentType = "none"
	AdjustmentPercentage AdjustmentType = "percentage"
	AdjustmentFixed      AdjustmentType = "fixed"
)

// IsValid checks if the AdjustmentType is a valid enum value
func (at AdjustmentType) IsValid() bool {
	switch at {
	case AdjustmentNone, AdjustmentPercentage, AdjustmentFixed:
		return true
	}
	return false
}

// MaterialLine is a priced material/equipment/service line on an estimate.
// TotalCost, MarkupAmount and TotalPrice are derived by the pricing
// calculator on every recompute and are never edited directly.
type MaterialLine struct {
	BaseModel
	EstimateID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	ItemType     ItemType        `gorm:"type:varchar(50);not null;default:'material';column:item_type"`
	Description  string          `gorm:"type:varchar(500);not null"`
	Quantity     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Unit         string          `gorm:"type:varchar(50)"`
	UnitCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;column:unit_cost"`
	MarkupType   AdjustmentType  `gorm:"type:varchar(50);not null;default:'none';column:markup_type"`
	MarkupValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:markup_value"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;column:total_cost"`
	MarkupAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;column:markup_amount"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;column:total_price"`
	DisplayOrder int             `gorm:"not null;default:0;column:display_order"`
}

// LaborLine is a priced labor line on an estimate. Quantity is the number
// of workers; Hours applies to hourly lines and Days to daily lines.
type LaborLine struct {
	BaseModel
	EstimateID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	RateType     RateType        `gorm:"type:varchar(50);not null;default:'hourly';column:rate_type"`
	Description  string          `gorm:"type:varchar(500);not null"`
	Quantity     int             `gorm:"not null;default:1"`
	Hours        decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	Days         decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	HourlyRate   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:hourly_rate"`
	DailyRate    decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:daily_rate"`
	MarkupType   AdjustmentType  `gorm:"type:varchar(50);not null;default:'none';column:markup_type"`
	MarkupValue  decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:markup_value"`
	TotalCost    decimal.Decimal `gorm:"type:decimal(18,4);not null;column:total_cost"`
	MarkupAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;column:markup_amount"`
	TotalPrice   decimal.Decimal `gorm:"type:decimal(18,4);not null;column:total_price"`
	DisplayOrder int             `gorm:"not null;default:0;column:display_order"`
}

// Estimate is the versioned, approvable pricing document for a service
// request. Financial fields are derived from the line items and commercial
// parameters; they are recomputed on every mutation and never hand-edited.
//
// Version lineage: revisions form a forward chain through ParentEstimateID.
// Exactly one estimate per family carries IsLatestVersion=true, and only
// that version is eligible for workflow transitions.
type Estimate struct {
	BaseModel
	EstimateNo       string     `gorm:"type:varchar(50);not null;index;column:estimate_no"`
	Version          int        `gorm:"not null;default:1"`
	ParentEstimateID *uuid.UUID `gorm:"type:uuid;index;column:parent_estimate_id"`
	ParentEstimate   *Estimate  `gorm:"foreignKey:ParentEstimateID"`
	IsLatestVersion  bool       `gorm:"not null;default:true;column:is_latest_version;index"`

	ServiceRequestID uuid.UUID      `gorm:"type:uuid;not null;index;column:service_request_id"`
	Title            string         `gorm:"type:varchar(200);not null"`
	Description      string         `gorm:"type:text"`
	Tags             pq.StringArray `gorm:"type:text[]"`

	// Commercial inputs
	TransportCost     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:transport_cost"`
	ProfitMarginType  AdjustmentType  `gorm:"type:varchar(50);not null;default:'none';column:profit_margin_type"`
	ProfitMarginValue decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:profit_margin_value"`
	VatRate           decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:vat_rate"`
	DiscountType      AdjustmentType  `gorm:"type:varchar(50);not null;default:'none';column:discount_type"`
	DiscountValue     decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:discount_value"`
	DiscountReason    string          `gorm:"type:varchar(500);column:discount_reason"`

	// Derived financial fields (recomputed, never stored independently)
	MaterialCost   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:material_cost"`
	LaborCost      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:labor_cost"`
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	ProfitAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:profit_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:discount_amount"`
	TotalBeforeVat decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:total_before_vat"`
	VatAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0;column:vat_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null;default:0"`
	// Set when an oversized discount/profit combination drives
	// total_before_vat negative. Surfaced to the caller, never auto-corrected.
	HasNegativeTotal bool `gorm:"not null;default:false;column:has_negative_total"`

	// Workflow fields
	Status          EstimateStatus `gorm:"type:varchar(50);not null;default:'draft';index"`
	SubmittedAt     *time.Time     `gorm:"column:submitted_at"`
	SubmittedByID   string         `gorm:"type:varchar(100);column:submitted_by_id"`
	ApprovedAt      *time.Time     `gorm:"column:approved_at"`
	ApprovedByID    string         `gorm:"type:varchar(100);column:approved_by_id"`
	RejectedAt      *time.Time     `gorm:"column:rejected_at"`
	RejectedByID    string         `gorm:"type:varchar(100);column:rejected_by_id"`
	RejectionReason string         `gorm:"type:varchar(500);column:rejection_reason"`
	RevisionNotes   string         `gorm:"type:text;column:revision_notes"`
	CancelledAt     *time.Time     `gorm:"column:cancelled_at"`
	CancelledByID   string         `gorm:"type:varchar(100);column:cancelled_by_id"`

	QuoteID *uuid.UUID `gorm:"type:uuid;index;column:quote_id"`
	Quote   *Quote     `gorm:"foreignKey:QuoteID"`

	MaterialLines []MaterialLine     `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
	LaborLines    []LaborLine        `gorm:"foreignKey:EstimateID;constraint:OnDelete:CASCADE"`
	Activities    []EstimateActivity `gorm:"foreignKey:EstimateID"`
}

// IsEditable reports whether line items and commercial parameters may be
// mutated in the current status.
func (e *Estimate) IsEditable() bool {
	return e.Status == EstimateStatusDraft || e.Status == EstimateStatusRevisionRequested
}

// QuoteStatus represents the status of a quote
type QuoteStatus string

const (
	QuoteStatusActive  QuoteStatus = "active"
	QuoteStatusExpired QuoteStatus = "expired"
)

// Quote is the customer-facing snapshot produced by converting an approved
// estimate. Totals are copied at conversion time; later changes to the
// source estimate never alter the quote.
type Quote struct {
	BaseModel
	QuoteNo     string      `gorm:"type:varchar(50);not null;unique;column:quote_no"`
	EstimateID  uuid.UUID   `gorm:"type:uuid;not null;uniqueIndex;column:estimate_id"`
	Title       string      `gorm:"type:varchar(200);not null"`
	Description string      `gorm:"type:text"`
	Terms       string      `gorm:"type:text"`
	ValidUntil  time.Time   `gorm:"type:date;not null;column:valid_until"`
	Status      QuoteStatus `gorm:"type:varchar(50);not null;default:'active';index"`

	// Snapshot of the source estimate's totals at conversion time
	Subtotal       decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	ProfitAmount   decimal.Decimal `gorm:"type:decimal(18,4);not null;column:profit_amount"`
	DiscountAmount decimal.Decimal `gorm:"type:decimal(18,4);not null;column:discount_amount"`
	TotalBeforeVat decimal.Decimal `gorm:"type:decimal(18,4);not null;column:total_before_vat"`
	VatAmount      decimal.Decimal `gorm:"type:decimal(18,4);not null;column:vat_amount"`
	Total          decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// EstimateActivity is an append-only audit record of a workflow transition.
// Rows are never updated or deleted.
type EstimateActivity struct {
	ID          uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	EstimateID  uuid.UUID      `gorm:"type:uuid;not null;index;column:estimate_id"`
	Action      EstimateAction `gorm:"type:varchar(50);not null"`
	FromStatus  EstimateStatus `gorm:"type:varchar(50);column:from_status"`
	ToStatus    EstimateStatus `gorm:"type:varchar(50);column:to_status"`
	ActorID     string         `gorm:"type:varchar(100);not null;column:actor_id"`
	ActorName   string         `gorm:"type:varchar(200);column:actor_name"`
	Description string         `gorm:"type:varchar(2000)"`
	OccurredAt  time.Time      `gorm:"not null;default:CURRENT_TIMESTAMP;index;column:occurred_at"`
}

// TableName overrides the default table name
func (EstimateActivity) TableName() string {
	return "estimate_activities"
}

// NumberSequence backs generation of human-readable document numbers.
// One row per scope/year; Value is the last used sequence number.
type NumberSequence struct {
	ID        uuid.UUID `gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Scope     string    `gorm:"type:varchar(50);not null;uniqueIndex:idx_number_sequences_scope_year"`
	Year      int       `gorm:"not null;uniqueIndex:idx_number_sequences_scope_year"`
	Value     int       `gorm:"not null;default:0"`
	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}
