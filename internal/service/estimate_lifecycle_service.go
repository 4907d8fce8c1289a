package service

// Workflow transitions for estimates. Every state change runs in a
// transaction with the estimate row locked, so two concurrent actions on
// the same estimate serialize and the loser fails its guard instead of
// double-applying.

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/auth"
	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/mapper"
	"github.com/fmworks/estimate-api/internal/pricing"
)

// Submit moves a draft estimate to pending manager approval
func (s *EstimateService) Submit(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	return s.transition(ctx, id, domain.ActionSubmit, transitionOpts{
		requireBillable: true,
		stamp: func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{}) {
			fields["submitted_at"] = now
			fields["submitted_by_id"] = userCtx.UserID
		},
		describe: func(estimate *domain.Estimate) string {
			return fmt.Sprintf("Estimate %s submitted for approval", estimate.EstimateNo)
		},
	})
}

// Resubmit moves a revision-requested estimate back to pending approval
func (s *EstimateService) Resubmit(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	return s.transition(ctx, id, domain.ActionResubmit, transitionOpts{
		requireBillable: true,
		stamp: func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{}) {
			fields["submitted_at"] = now
			fields["submitted_by_id"] = userCtx.UserID
		},
		describe: func(estimate *domain.Estimate) string {
			return fmt.Sprintf("Estimate %s resubmitted after revision", estimate.EstimateNo)
		},
	})
}

// Approve marks a pending estimate as approved
func (s *EstimateService) Approve(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	return s.transition(ctx, id, domain.ActionApprove, transitionOpts{
		stamp: func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{}) {
			fields["approved_at"] = now
			fields["approved_by_id"] = userCtx.UserID
		},
		describe: func(estimate *domain.Estimate) string {
			return fmt.Sprintf("Estimate %s approved", estimate.EstimateNo)
		},
	})
}

// RequestRevision sends a pending estimate back to the estimator with a
// reason. The estimate becomes editable again.
func (s *EstimateService) RequestRevision(ctx context.Context, id uuid.UUID, req *domain.RequestRevisionRequest) (*domain.EstimateDTO, error) {
	return s.transition(ctx, id, domain.ActionRequestRevision, transitionOpts{
		stamp: func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{}) {
			fields["revision_notes"] = req.Notes
		},
		describe: func(estimate *domain.Estimate) string {
			return fmt.Sprintf("Revision requested for estimate %s: %s", estimate.EstimateNo, req.Reason)
		},
	})
}

// Reject rejects a pending estimate. Rejection is terminal; the way
// forward is a new revision spawned from the rejected version.
func (s *EstimateService) Reject(ctx context.Context, id uuid.UUID, req *domain.RejectEstimateRequest) (*domain.EstimateDTO, error) {
	return s.transition(ctx, id, domain.ActionReject, transitionOpts{
		stamp: func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{}) {
			fields["rejected_at"] = now
			fields["rejected_by_id"] = userCtx.UserID
			fields["rejection_reason"] = req.Reason
		},
		describe: func(estimate *domain.Estimate) string {
			return fmt.Sprintf("Estimate %s rejected: %s", estimate.EstimateNo, req.Reason)
		},
	})
}

// Cancel abandons an estimate from any non-terminal status
func (s *EstimateService) Cancel(ctx context.Context, id uuid.UUID, req *domain.CancelEstimateRequest) (*domain.EstimateDTO, error) {
	reason := ""
	if req != nil {
		reason = req.Reason
	}
	return s.transition(ctx, id, domain.ActionCancel, transitionOpts{
		stamp: func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{}) {
			fields["cancelled_at"] = now
			fields["cancelled_by_id"] = userCtx.UserID
		},
		describe: func(estimate *domain.Estimate) string {
			if reason == "" {
				return fmt.Sprintf("Estimate %s cancelled", estimate.EstimateNo)
			}
			return fmt.Sprintf("Estimate %s cancelled: %s", estimate.EstimateNo, reason)
		},
	})
}

// transitionOpts parameterizes the shared transition path
type transitionOpts struct {
	requireBillable bool
	stamp           func(estimate *domain.Estimate, userCtx *auth.UserContext, now time.Time, fields map[string]interface{})
	describe        func(estimate *domain.Estimate) string
}

// transition applies a workflow action under a row lock: load for update,
// check the version is latest, resolve the next status from the transition
// table, stamp action-specific fields, persist, and append the audit row.
func (s *EstimateService) transition(ctx context.Context, id uuid.UUID, action domain.EstimateAction, opts transitionOpts) (*domain.EstimateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	var fromStatus, toStatus domain.EstimateStatus
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		estimate, err := s.estimateRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEstimateNotFound
			}
			return fmt.Errorf("failed to get estimate: %w", err)
		}
		if !estimate.IsLatestVersion {
			return ErrNotLatestVersion
		}

		next, err := estimate.Status.NextStatus(action)
		if err != nil {
			return err
		}
		if opts.requireBillable && !pricing.HasBillableContent(estimate.MaterialLines, estimate.LaborLines) {
			return ErrNoBillableContent
		}

		now := time.Now()
		fields := map[string]interface{}{
			"status":     next,
			"updated_at": now,
		}
		if opts.stamp != nil {
			opts.stamp(estimate, userCtx, now, fields)
		}
		if err := s.estimateRepo.UpdateFields(ctx, tx, id, fields); err != nil {
			return fmt.Errorf("failed to update estimate status: %w", err)
		}

		fromStatus, toStatus = estimate.Status, next
		return s.activityRepo.CreateInTx(ctx, tx, &domain.EstimateActivity{
			EstimateID:  id,
			Action:      action,
			FromStatus:  fromStatus,
			ToStatus:    toStatus,
			ActorID:     userCtx.UserID,
			ActorName:   userCtx.DisplayName,
			Description: opts.describe(estimate),
			OccurredAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("estimate transitioned",
		zap.String("estimateID", id.String()),
		zap.String("action", string(action)),
		zap.String("from", string(fromStatus)),
		zap.String("to", string(toStatus)))

	return s.GetByID(ctx, id)
}

// CreateRevision spawns a new draft version from a rejected or
// revision-requested estimate. Lines and commercial parameters are copied;
// the new version becomes the only latest version of the family. The source
// estimate keeps its status and stays immutable.
func (s *EstimateService) CreateRevision(ctx context.Context, id uuid.UUID) (*domain.EstimateDTO, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	var revision *domain.Estimate
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		source, err := s.estimateRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEstimateNotFound
			}
			return fmt.Errorf("failed to get estimate: %w", err)
		}
		if !source.IsLatestVersion {
			return ErrNotLatestVersion
		}
		if !source.Status.CanSpawnRevision() {
			return &domain.InvalidStateError{Status: source.Status, Action: domain.ActionCreateRevision}
		}

		if err := s.estimateRepo.ClearLatestFlag(ctx, tx, source.EstimateNo); err != nil {
			return fmt.Errorf("failed to clear latest flag: %w", err)
		}

		revision = cloneForRevision(source)
		if err := tx.Create(revision).Error; err != nil {
			return fmt.Errorf("failed to create revision: %w", err)
		}

		now := time.Now()
		if err := s.activityRepo.CreateInTx(ctx, tx, &domain.EstimateActivity{
			EstimateID:  source.ID,
			Action:      domain.ActionCreateRevision,
			FromStatus:  source.Status,
			ToStatus:    source.Status,
			ActorID:     userCtx.UserID,
			ActorName:   userCtx.DisplayName,
			Description: fmt.Sprintf("Revision v%d created from estimate %s v%d", revision.Version, source.EstimateNo, source.Version),
			OccurredAt:  now,
		}); err != nil {
			return err
		}
		return s.activityRepo.CreateInTx(ctx, tx, &domain.EstimateActivity{
			EstimateID:  revision.ID,
			Action:      domain.ActionCreateRevision,
			ToStatus:    domain.EstimateStatusDraft,
			ActorID:     userCtx.UserID,
			ActorName:   userCtx.DisplayName,
			Description: fmt.Sprintf("Created as revision v%d of estimate %s", revision.Version, source.EstimateNo),
			OccurredAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("estimate revision created",
		zap.String("sourceID", id.String()),
		zap.String("revisionID", revision.ID.String()),
		zap.Int("version", revision.Version))

	return s.GetByID(ctx, revision.ID)
}

// ConvertToQuote turns an approved estimate into a customer-facing quote.
// The quote snapshots the estimate totals; the estimate moves to the
// terminal converted status.
func (s *EstimateService) ConvertToQuote(ctx context.Context, id uuid.UUID, req *domain.ConvertToQuoteRequest) (*domain.ConvertToQuoteResponse, error) {
	userCtx, ok := auth.FromContext(ctx)
	if !ok {
		return nil, ErrUnauthorized
	}

	quoteNo, err := s.numberSeqService.GenerateQuoteNumber(ctx)
	if err != nil {
		return nil, err
	}

	var quote *domain.Quote
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		estimate, err := s.estimateRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrEstimateNotFound
			}
			return fmt.Errorf("failed to get estimate: %w", err)
		}
		if !estimate.IsLatestVersion {
			return ErrNotLatestVersion
		}
		if estimate.QuoteID != nil {
			return ErrQuoteAlreadyExists
		}

		next, err := estimate.Status.NextStatus(domain.ActionConvertToQuote)
		if err != nil {
			return err
		}

		title := req.Title
		if title == "" {
			title = estimate.Title
		}
		quote = &domain.Quote{
			QuoteNo:        quoteNo,
			EstimateID:     estimate.ID,
			Title:          title,
			Description:    req.Description,
			Terms:          req.Terms,
			ValidUntil:     req.ValidUntil,
			Status:         domain.QuoteStatusActive,
			Subtotal:       estimate.Subtotal,
			ProfitAmount:   estimate.ProfitAmount,
			DiscountAmount: estimate.DiscountAmount,
			TotalBeforeVat: estimate.TotalBeforeVat,
			VatAmount:      estimate.VatAmount,
			Total:          estimate.Total,
		}
		if err := tx.Create(quote).Error; err != nil {
			return fmt.Errorf("failed to create quote: %w", err)
		}

		now := time.Now()
		fields := map[string]interface{}{
			"status":     next,
			"quote_id":   quote.ID,
			"updated_at": now,
		}
		if err := s.estimateRepo.UpdateFields(ctx, tx, id, fields); err != nil {
			return fmt.Errorf("failed to update estimate: %w", err)
		}

		return s.activityRepo.CreateInTx(ctx, tx, &domain.EstimateActivity{
			EstimateID:  id,
			Action:      domain.ActionConvertToQuote,
			FromStatus:  estimate.Status,
			ToStatus:    next,
			ActorID:     userCtx.UserID,
			ActorName:   userCtx.DisplayName,
			Description: fmt.Sprintf("Estimate %s converted to quote %s", estimate.EstimateNo, quoteNo),
			OccurredAt:  now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("estimate converted to quote",
		zap.String("estimateID", id.String()),
		zap.String("quoteNo", quoteNo))

	estimateDTO, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	quoteDTO := mapper.ToQuoteDTO(quote)
	return &domain.ConvertToQuoteResponse{
		Estimate: estimateDTO,
		Quote:    &quoteDTO,
	}, nil
}

// cloneForRevision copies the estimate content into a fresh draft version.
// Workflow stamps and derived identity fields are reset; lines keep their
// computed amounts since the inputs are identical.
func cloneForRevision(source *domain.Estimate) *domain.Estimate {
	revision := &domain.Estimate{
		EstimateNo:       source.EstimateNo,
		Version:          source.Version + 1,
		ParentEstimateID: &source.ID,
		IsLatestVersion:  true,
		ServiceRequestID: source.ServiceRequestID,
		Title:            source.Title,
		Description:      source.Description,
		Tags:             source.Tags,

		TransportCost:     source.TransportCost,
		ProfitMarginType:  source.ProfitMarginType,
		ProfitMarginValue: source.ProfitMarginValue,
		VatRate:           source.VatRate,
		DiscountType:      source.DiscountType,
		DiscountValue:     source.DiscountValue,
		DiscountReason:    source.DiscountReason,

		MaterialCost:     source.MaterialCost,
		LaborCost:        source.LaborCost,
		Subtotal:         source.Subtotal,
		ProfitAmount:     source.ProfitAmount,
		DiscountAmount:   source.DiscountAmount,
		TotalBeforeVat:   source.TotalBeforeVat,
		VatAmount:        source.VatAmount,
		Total:            source.Total,
		HasNegativeTotal: source.HasNegativeTotal,

		Status:        domain.EstimateStatusDraft,
		RevisionNotes: source.RevisionNotes,
	}

	revision.MaterialLines = make([]domain.MaterialLine, 0, len(source.MaterialLines))
	for _, line := range source.MaterialLines {
		line.BaseModel = domain.BaseModel{}
		line.EstimateID = uuid.Nil
		revision.MaterialLines = append(revision.MaterialLines, line)
	}
	revision.LaborLines = make([]domain.LaborLine, 0, len(source.LaborLines))
	for _, line := range source.LaborLines {
		line.BaseModel = domain.BaseModel{}
		line.EstimateID = uuid.Nil
		revision.LaborLines = append(revision.LaborLines, line)
	}
	return revision
}
