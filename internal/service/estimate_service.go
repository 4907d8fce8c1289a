package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/auth"
	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/mapper"
	"github.com/fmworks/estimate-api/internal/pricing"
	"github.com/fmworks/estimate-api/internal/repository"
)

// EstimateService owns the estimate aggregate: creation, edits with full
// recomputation of derived totals, discount solving, and read access.
// Workflow transitions live in estimate_lifecycle_service.go on the same
// receiver.
type EstimateService struct {
	estimateRepo     *repository.EstimateRepository
	quoteRepo        *repository.QuoteRepository
	activityRepo     *repository.ActivityRepository
	numberSeqService *NumberSequenceService
	logger           *zap.Logger
	db               *gorm.DB
}

func NewEstimateService(
	estimateRepo *repository.EstimateRepository,
	quoteRepo *repository.QuoteRepository,
	activityRepo *repository.ActivityRepository,
	numberSeqService *NumberSequenceService,
	logger *zap.Logger,
	db *gorm.DB,
) *EstimateService {
	return &EstimateService{
		estimateRepo:     estimateRepo,
		quoteRepo:        quoteRepo,
		activityRepo:     activityRepo,
		numberSeqService: numberSeqService,
		logger:           logger,
		db:               db,
	}
}

// Create creates a new draft estimate with its initial lines and fully
// computed totals.
func (s *EstimateService) Create(ctx context.Context, req *domain.CreateEstimateRequest) (*domain.EstimateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	materialLines := buildMaterialLines(req.MaterialLines)
	laborLines := buildLaborLines(req.LaborLines)
	if !pricing.HasBillableContent(materialLines, laborLines) {
		return nil, ErrNoBillableContent
	}

	params := commercialParamsFromRequest(&req.Commercial)
	totals, err := pricing.ComputeTotals(materialLines, laborLines, params)
	if err != nil {
		return nil, err
	}
	if err := priceLines(materialLines, laborLines); err != nil {
		return nil, err
	}

	estimateNo, err := s.numberSeqService.GenerateEstimateNumber(ctx)
	if err != nil {
		return nil, err
	}

	estimate := &domain.Estimate{
		EstimateNo:       estimateNo,
		Version:          1,
		IsLatestVersion:  true,
		ServiceRequestID: req.ServiceRequestID,
		Title:            req.Title,
		Description:      req.Description,
		Tags:             estimateTags(req.Tags),
		Status:           domain.EstimateStatusDraft,
		MaterialLines:    materialLines,
		LaborLines:       laborLines,
	}
	applyCommercialParams(estimate, &req.Commercial)
	applyTotals(estimate, totals)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(estimate).Error; err != nil {
			return fmt.Errorf("failed to create estimate: %w", err)
		}
		return s.activityRepo.CreateInTx(ctx, tx, &domain.EstimateActivity{
			EstimateID:  estimate.ID,
			Action:      domain.ActionCreate,
			ToStatus:    domain.EstimateStatusDraft,
			ActorID:     userCtx.UserID,
			ActorName:   userCtx.DisplayName,
			Description: fmt.Sprintf("Estimate %s created", estimateNo),
			OccurredAt:  time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("estimate created",
		zap.String("estimateID", estimate.ID.String()),
		zap.String("estimateNo", estimateNo))

	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

// GetByID retrieves an estimate with its lines
func (s *EstimateService) GetByID(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	estimate, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEstimateNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}
	dto := mapper.ToEstimateDTO(estimate)
	return &dto, nil
}

// List returns a page of estimates matching the filter
func (s *EstimateService) List(ctx context.Context, filter repository.EstimateFilter) ([]domain.EstimateDTO, int64, error) {
	estimates, total, err := s.estimateRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.EstimateDTO, 0, len(estimates))
	for i := range estimates {
		dtos = append(dtos, mapper.ToEstimateDTO(&estimates[i]))
	}
	return dtos, total, nil
}

// ListVersions returns every version of an estimate family, oldest first
func (s *EstimateService) ListVersions(ctx context.Context, id uuid.UUID) ([]domain.EstimateDTO, error) {
	versions, err := s.estimateRepo.ListVersions(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEstimateNotFound
		}
		return nil, fmt.Errorf("failed to list versions: %w", err)
	}
	dtos := make([]domain.EstimateDTO, 0, len(versions))
	for i := range versions {
		dtos = append(dtos, mapper.ToEstimateDTO(&versions[i]))
	}
	return dtos, nil
}

// Update replaces the lines and commercial parameters of an editable
// estimate and recomputes every derived field. Metadata (title, tags) is
// updated in the same pass.
func (s *EstimateService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateEstimateRequest) (*domain.EstimateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	materialLines := buildMaterialLines(req.MaterialLines)
	laborLines := buildLaborLines(req.LaborLines)
	if !pricing.HasBillableContent(materialLines, laborLines) {
		return nil, ErrNoBillableContent
	}

	params := commercialParamsFromRequest(&req.Commercial)
	totals, err := pricing.ComputeTotals(materialLines, laborLines, params)
	if err != nil {
		return nil, err
	}
	if err := priceLines(materialLines, laborLines); err != nil {
		return nil, err
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		estimate, err := s.estimateRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEstimateNotFound
			}
			return fmt.Errorf("failed to get estimate: %w", err)
		}
		if !estimate.IsEditable() {
			return &domain.InvalidStateError{Status: estimate.Status, Action: domain.ActionUpdate}
		}
		if !estimate.IsLatestVersion {
			return ErrNotLatestVersion
		}

		if err := s.estimateRepo.ReplaceLines(ctx, tx, id, materialLines, laborLines); err != nil {
			return err
		}

		fields := map[string]interface{}{
			"title":       req.Title,
			"description": req.Description,
			"tags":        estimateTags(req.Tags),
			"updated_at":  time.Now(),
		}
		addCommercialFields(fields, &req.Commercial)
		addTotalsFields(fields, totals)

		if err := s.estimateRepo.UpdateFields(ctx, tx, id, fields); err != nil {
			return fmt.Errorf("failed to update estimate: %w", err)
		}

		return s.activityRepo.CreateInTx(ctx, tx, &domain.EstimateActivity{
			EstimateID:  id,
			Action:      domain.ActionUpdate,
			FromStatus:  estimate.Status,
			ToStatus:    estimate.Status,
			ActorID:     userCtx.UserID,
			ActorName:   userCtx.DisplayName,
			Description: "Estimate updated and totals recomputed",
			OccurredAt:  time.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	return s.GetByID(ctx, id)
}

// SolveDiscount computes the discount that would bring the estimate total
// to the requested target. Nothing is persisted; callers feed the result
// back through Update.
func (s *EstimateService) SolveDiscount(ctx context.Context, id uuid.UUID, req *domain.SolveDiscountRequest) (*domain.SolveDiscountResponse, error) {
	estimate, err := s.estimateRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEstimateNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	params := pricing.CommercialParams{
		TransportCost:     estimate.TransportCost,
		ProfitMarginType:  estimate.ProfitMarginType,
		ProfitMarginValue: estimate.ProfitMarginValue,
		VatRate:           estimate.VatRate,
	}
	solution, err := pricing.SolveDiscountForTarget(estimate.MaterialLines, estimate.LaborLines, params, req.TargetTotal)
	if err != nil {
		return nil, err
	}

	return &domain.SolveDiscountResponse{
		DiscountType:     solution.DiscountType,
		DiscountValue:    solution.DiscountValue,
		NoDiscountNeeded: solution.NoDiscountNeeded,
	}, nil
}

// ListActivities returns the audit trail of an estimate, newest first
func (s *EstimateService) ListActivities(ctx context.Context, id uuid.UUID) ([]domain.EstimateActivityDTO, error) {
	if _, err := s.estimateRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrEstimateNotFound
		}
		return nil, fmt.Errorf("failed to get estimate: %w", err)
	}

	activities, err := s.activityRepo.ListByEstimate(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	dtos := make([]domain.EstimateActivityDTO, 0, len(activities))
	for i := range activities {
		dtos = append(dtos, mapper.ToEstimateActivityDTO(&activities[i]))
	}
	return dtos, nil
}

// buildMaterialLines converts request lines to entities. Derived fields are
// stamped later by priceLines.
func buildMaterialLines(reqs []domain.MaterialLineRequest) []domain.MaterialLine {
	lines := make([]domain.MaterialLine, 0, len(reqs))
	for i, req := range reqs {
		markupType := req.MarkupType
		if markupType == "" {
			markupType = domain.AdjustmentNone
		}
		lines = append(lines, domain.MaterialLine{
			ItemType:     req.ItemType,
			Description:  req.Description,
			Quantity:     req.Quantity,
			Unit:         req.Unit,
			UnitCost:     req.UnitCost,
			MarkupType:   markupType,
			MarkupValue:  req.MarkupValue,
			DisplayOrder: i,
		})
	}
	return lines
}

func buildLaborLines(reqs []domain.LaborLineRequest) []domain.LaborLine {
	lines := make([]domain.LaborLine, 0, len(reqs))
	for i, req := range reqs {
		markupType := req.MarkupType
		if markupType == "" {
			markupType = domain.AdjustmentNone
		}
		lines = append(lines, domain.LaborLine{
			RateType:     req.RateType,
			Description:  req.Description,
			Quantity:     req.Quantity,
			Hours:        req.Hours,
			Days:         req.Days,
			HourlyRate:   req.HourlyRate,
			DailyRate:    req.DailyRate,
			MarkupType:   markupType,
			MarkupValue:  req.MarkupValue,
			DisplayOrder: i,
		})
	}
	return lines
}

// priceLines stamps the derived financial fields onto each line
func priceLines(materialLines []domain.MaterialLine, laborLines []domain.LaborLine) error {
	for i := range materialLines {
		bd, err := pricing.PriceMaterialLine(&materialLines[i])
		if err != nil {
			return err
		}
		materialLines[i].TotalCost = bd.TotalCost
		materialLines[i].MarkupAmount = bd.MarkupAmount
		materialLines[i].TotalPrice = bd.TotalPrice
	}
	for i := range laborLines {
		bd, err := pricing.PriceLaborLine(&laborLines[i])
		if err != nil {
			return err
		}
		laborLines[i].TotalCost = bd.TotalCost
		laborLines[i].MarkupAmount = bd.MarkupAmount
		laborLines[i].TotalPrice = bd.TotalPrice
	}
	return nil
}

func commercialParamsFromRequest(req *domain.CommercialParamsRequest) pricing.CommercialParams {
	return pricing.CommercialParams{
		TransportCost:     req.TransportCost,
		ProfitMarginType:  req.ProfitMarginType,
		ProfitMarginValue: req.ProfitMarginValue,
		VatRate:           req.VatRate,
		DiscountType:      req.DiscountType,
		DiscountValue:     req.DiscountValue,
	}
}

func applyCommercialParams(estimate *domain.Estimate, req *domain.CommercialParamsRequest) {
	estimate.TransportCost = req.TransportCost
	estimate.ProfitMarginType = normalizeAdjustment(req.ProfitMarginType)
	estimate.ProfitMarginValue = req.ProfitMarginValue
	estimate.VatRate = req.VatRate
	estimate.DiscountType = normalizeAdjustment(req.DiscountType)
	estimate.DiscountValue = req.DiscountValue
	estimate.DiscountReason = req.DiscountReason
}

func applyTotals(estimate *domain.Estimate, totals pricing.Totals) {
	estimate.MaterialCost = totals.MaterialCost
	estimate.LaborCost = totals.LaborCost
	estimate.Subtotal = totals.Subtotal
	estimate.ProfitAmount = totals.ProfitAmount
	estimate.DiscountAmount = totals.DiscountAmount
	estimate.TotalBeforeVat = totals.TotalBeforeVat
	estimate.VatAmount = totals.VatAmount
	estimate.Total = totals.Total
	estimate.HasNegativeTotal = totals.NegativeBeforeVat
}

func addCommercialFields(fields map[string]interface{}, req *domain.CommercialParamsRequest) {
	fields["transport_cost"] = req.TransportCost
	fields["profit_margin_type"] = normalizeAdjustment(req.ProfitMarginType)
	fields["profit_margin_value"] = req.ProfitMarginValue
	fields["vat_rate"] = req.VatRate
	fields["discount_type"] = normalizeAdjustment(req.DiscountType)
	fields["discount_value"] = req.DiscountValue
	fields["discount_reason"] = req.DiscountReason
}

func addTotalsFields(fields map[string]interface{}, totals pricing.Totals) {
	fields["material_cost"] = totals.MaterialCost
	fields["labor_cost"] = totals.LaborCost
	fields["subtotal"] = totals.Subtotal
	fields["profit_amount"] = totals.ProfitAmount
	fields["discount_amount"] = totals.DiscountAmount
	fields["total_before_vat"] = totals.TotalBeforeVat
	fields["vat_amount"] = totals.VatAmount
	fields["total"] = totals.Total
	fields["has_negative_total"] = totals.NegativeBeforeVat
}

func normalizeAdjustment(typ domain.AdjustmentType) domain.AdjustmentType {
	if typ == "" {
		return domain.AdjustmentNone
	}
	return typ
}

func estimateTags(tags []string) pq.StringArray {
	if tags == nil {
		return pq.StringArray{}
	}
	return pq.StringArray(tags)
}
