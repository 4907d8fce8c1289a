package service_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/fmworks/estimate-api/internal/auth"
	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/repository"
	"github.com/fmworks/estimate-api/internal/service"
)

// Integration tests for EstimateService. Requires a running PostgreSQL
// database; skipped when unavailable.

func setupTestDB(t *testing.T) *gorm.DB {
	host := getEnvOrDefault("DATABASE_HOST", "localhost")
	port := getEnvOrDefault("DATABASE_PORT", "5432")
	user := getEnvOrDefault("DATABASE_USER", "estimate_user")
	password := getEnvOrDefault("DATABASE_PASSWORD", "estimate_password")
	dbname := getEnvOrDefault("DATABASE_NAME", "estimates_test")

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable TimeZone=UTC",
		host, port, user, password, dbname)
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Skipf("Skipping integration test: database not available: %v", err)
	}

	err = db.AutoMigrate(
		&domain.Estimate{},
		&domain.MaterialLine{},
		&domain.LaborLine{},
		&domain.Quote{},
		&domain.EstimateActivity{},
		&domain.NumberSequence{},
	)
	require.NoError(t, err)

	cleanupTestData(t, db)
	t.Cleanup(func() { cleanupTestData(t, db) })
	return db
}

func cleanupTestData(t *testing.T, db *gorm.DB) {
	for _, table := range []string{
		"estimate_activities",
		"material_lines",
		"labor_lines",
		"quotes",
		"estimates",
		"number_sequences",
	} {
		if err := db.Exec(fmt.Sprintf("DELETE FROM %s WHERE id IS NOT NULL", table)).Error; err != nil {
			t.Logf("Note: could not clean table %s: %v", table, err)
		}
	}
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func setupEstimateService(t *testing.T, db *gorm.DB) *service.EstimateService {
	log := zap.NewNop()
	estimateRepo := repository.NewEstimateRepository(db)
	quoteRepo := repository.NewQuoteRepository(db)
	activityRepo := repository.NewActivityRepository(db)
	numberSeqRepo := repository.NewNumberSequenceRepository(db)
	numberSeqService := service.NewNumberSequenceService(numberSeqRepo, log)
	return service.NewEstimateService(estimateRepo, quoteRepo, activityRepo, numberSeqService, log, db)
}

func actorContext() context.Context {
	return auth.WithUserContext(context.Background(), &auth.UserContext{
		UserID:      "user-1",
		DisplayName: "Test Estimator",
	})
}

func sampleCreateRequest() *domain.CreateEstimateRequest {
	return &domain.CreateEstimateRequest{
		ServiceRequestID: uuid.New(),
		Title:            "HVAC overhaul, building C",
		Tags:             []string{"hvac"},
		MaterialLines: []domain.MaterialLineRequest{
			{
				ItemType:    domain.ItemTypeMaterial,
				Description: "Copper piping",
				Quantity:    decimal.NewFromInt(10),
				Unit:        "m",
				UnitCost:    decimal.NewFromInt(8),
				MarkupType:  domain.AdjustmentPercentage,
				MarkupValue: decimal.NewFromInt(25),
			},
		},
		LaborLines: []domain.LaborLineRequest{
			{
				RateType:    domain.RateTypeHourly,
				Description: "Installation crew",
				Quantity:    2,
				Hours:       decimal.NewFromInt(8),
				HourlyRate:  decimal.NewFromInt(50),
			},
		},
		Commercial: domain.CommercialParamsRequest{
			TransportCost:     decimal.NewFromInt(100),
			ProfitMarginType:  domain.AdjustmentPercentage,
			ProfitMarginValue: decimal.NewFromInt(10),
			VatRate:           decimal.NewFromInt(25),
		},
	}
}

func TestEstimateService_Create(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	dto, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	assert.Equal(t, domain.EstimateStatusDraft, dto.Status)
	assert.Equal(t, 1, dto.Version)
	assert.True(t, dto.IsLatestVersion)
	assert.Regexp(t, `^EST-\d{4}-\d{3}$`, dto.EstimateNo)

	// materials 10x8 +25% = 100, labor 2x8x50 = 800, transport 100
	// subtotal 1000, profit 100, vat 25% of 1100
	assert.True(t, dto.MaterialCost.Equal(decimal.NewFromInt(100)), "materialCost = %s", dto.MaterialCost)
	assert.True(t, dto.LaborCost.Equal(decimal.NewFromInt(800)), "laborCost = %s", dto.LaborCost)
	assert.True(t, dto.Subtotal.Equal(decimal.NewFromInt(1000)), "subtotal = %s", dto.Subtotal)
	assert.True(t, dto.ProfitAmount.Equal(decimal.NewFromInt(100)), "profit = %s", dto.ProfitAmount)
	assert.True(t, dto.Total.Equal(decimal.NewFromInt(1375)), "total = %s", dto.Total)
	assert.False(t, dto.HasNegativeTotal)
	assert.Len(t, dto.MaterialLines, 1)
	assert.Len(t, dto.LaborLines, 1)
}

func TestEstimateService_Create_LogsCreateAction(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	activities, err := svc.ListActivities(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, activities, 1)
	assert.Equal(t, domain.ActionCreate, activities[0].Action)
	assert.Equal(t, domain.EstimateStatusDraft, activities[0].ToStatus)

	// An edit must log a distinct action so the audit trail can tell
	// creations and updates apart
	_, err = svc.Update(ctx, created.ID, &domain.UpdateEstimateRequest{
		Title: "HVAC overhaul, building C",
		MaterialLines: []domain.MaterialLineRequest{
			{
				ItemType:    domain.ItemTypeMaterial,
				Description: "Copper piping",
				Quantity:    decimal.NewFromInt(20),
				UnitCost:    decimal.NewFromInt(10),
			},
		},
		Commercial: domain.CommercialParamsRequest{
			VatRate: decimal.NewFromInt(10),
		},
	})
	require.NoError(t, err)

	activities, err = svc.ListActivities(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, activities, 2)
	assert.Equal(t, domain.ActionUpdate, activities[0].Action)
	assert.Equal(t, domain.ActionCreate, activities[1].Action)
}

func TestEstimateService_Create_RequiresLines(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)

	req := sampleCreateRequest()
	req.MaterialLines = nil
	req.LaborLines = nil

	_, err := svc.Create(actorContext(), req)
	assert.ErrorIs(t, err, service.ErrNoBillableContent)
}

func TestEstimateService_Update_RecomputesTotals(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	updated, err := svc.Update(ctx, created.ID, &domain.UpdateEstimateRequest{
		Title: "HVAC overhaul, building C (rev)",
		MaterialLines: []domain.MaterialLineRequest{
			{
				ItemType:    domain.ItemTypeMaterial,
				Description: "Copper piping",
				Quantity:    decimal.NewFromInt(20),
				UnitCost:    decimal.NewFromInt(10),
			},
		},
		Commercial: domain.CommercialParamsRequest{
			VatRate: decimal.NewFromInt(10),
		},
	})
	require.NoError(t, err)

	assert.True(t, updated.Subtotal.Equal(decimal.NewFromInt(200)), "subtotal = %s", updated.Subtotal)
	assert.True(t, updated.Total.Equal(decimal.NewFromInt(220)), "total = %s", updated.Total)
	assert.Empty(t, updated.LaborLines)
	assert.Equal(t, "HVAC overhaul, building C (rev)", updated.Title)
}

func TestEstimateService_Update_RejectedWhenNotEditable(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID)
	require.NoError(t, err)

	_, err = svc.Update(ctx, created.ID, &domain.UpdateEstimateRequest{
		Title:         "nope",
		MaterialLines: sampleCreateRequest().MaterialLines,
		Commercial:    domain.CommercialParamsRequest{},
	})
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestEstimateService_ApprovalFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	submitted, err := svc.Submit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusPendingManagerApproval, submitted.Status)
	assert.NotNil(t, submitted.SubmittedAt)

	approved, err := svc.Approve(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusApproved, approved.Status)
	assert.NotNil(t, approved.ApprovedAt)

	// Approving twice is illegal
	_, err = svc.Approve(ctx, created.ID)
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)

	activities, err := svc.ListActivities(ctx, created.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(activities), 3)
}

func TestEstimateService_RevisionFlow(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID)
	require.NoError(t, err)

	revReq, err := svc.RequestRevision(ctx, created.ID, &domain.RequestRevisionRequest{
		Reason: "margin too low",
		Notes:  "bump profit to 15%",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusRevisionRequested, revReq.Status)
	assert.Equal(t, "bump profit to 15%", revReq.RevisionNotes)

	// Editable again while revision is requested
	_, err = svc.Update(ctx, created.ID, &domain.UpdateEstimateRequest{
		Title:         created.Title,
		MaterialLines: sampleCreateRequest().MaterialLines,
		LaborLines:    sampleCreateRequest().LaborLines,
		Commercial: domain.CommercialParamsRequest{
			TransportCost:     decimal.NewFromInt(100),
			ProfitMarginType:  domain.AdjustmentPercentage,
			ProfitMarginValue: decimal.NewFromInt(15),
			VatRate:           decimal.NewFromInt(25),
		},
	})
	require.NoError(t, err)

	resubmitted, err := svc.Resubmit(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusPendingManagerApproval, resubmitted.Status)
}

func TestEstimateService_RejectAndRevise(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID)
	require.NoError(t, err)

	rejected, err := svc.Reject(ctx, created.ID, &domain.RejectEstimateRequest{Reason: "over budget"})
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusRejected, rejected.Status)
	assert.Equal(t, "over budget", rejected.RejectionReason)

	// Rejection is terminal for this version
	_, err = svc.Submit(ctx, created.ID)
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)

	revision, err := svc.CreateRevision(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusDraft, revision.Status)
	assert.Equal(t, 2, revision.Version)
	assert.Equal(t, created.EstimateNo, revision.EstimateNo)
	assert.Equal(t, created.ID, *revision.ParentEstimateID)
	assert.True(t, revision.IsLatestVersion)
	assert.Len(t, revision.MaterialLines, 1)
	assert.True(t, revision.Total.Equal(created.Total))

	// The old version is superseded and locked out of the workflow
	_, err = svc.CreateRevision(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrNotLatestVersion)

	versions, err := svc.ListVersions(ctx, created.ID)
	require.NoError(t, err)
	require.Len(t, versions, 2)
	assert.False(t, versions[0].IsLatestVersion)
	assert.True(t, versions[1].IsLatestVersion)
}

func TestEstimateService_ConvertToQuote(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)
	_, err = svc.Submit(ctx, created.ID)
	require.NoError(t, err)
	_, err = svc.Approve(ctx, created.ID)
	require.NoError(t, err)

	resp, err := svc.ConvertToQuote(ctx, created.ID, &domain.ConvertToQuoteRequest{
		ValidUntil: time.Now().AddDate(0, 1, 0),
		Terms:      "Net 30",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.EstimateStatusConverted, resp.Estimate.Status)
	assert.Regexp(t, `^QUO-\d{4}-\d{3}$`, resp.Quote.QuoteNo)
	assert.Equal(t, created.ID, resp.Quote.EstimateID)
	assert.Equal(t, domain.QuoteStatusActive, resp.Quote.Status)
	assert.True(t, resp.Quote.Total.Equal(resp.Estimate.Total))
	assert.Equal(t, resp.Quote.ID, *resp.Estimate.QuoteID)

	// Converted is terminal; a second conversion must fail
	_, err = svc.ConvertToQuote(ctx, created.ID, &domain.ConvertToQuoteRequest{
		ValidUntil: time.Now().AddDate(0, 1, 0),
	})
	assert.Error(t, err)
}

func TestEstimateService_SolveDiscount(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	// Natural total is 1375 (totalBeforeVat 1100, VAT 25%)
	resp, err := svc.SolveDiscount(ctx, created.ID, &domain.SolveDiscountRequest{
		TargetTotal: decimal.NewFromInt(1250),
	})
	require.NoError(t, err)
	assert.False(t, resp.NoDiscountNeeded)
	assert.Equal(t, domain.AdjustmentFixed, resp.DiscountType)
	// 1250 / 1.25 = 1000 before VAT, so discount 100
	assert.True(t, resp.DiscountValue.Equal(decimal.NewFromInt(100)), "discount = %s", resp.DiscountValue)

	noNeed, err := svc.SolveDiscount(ctx, created.ID, &domain.SolveDiscountRequest{
		TargetTotal: decimal.NewFromInt(2000),
	})
	require.NoError(t, err)
	assert.True(t, noNeed.NoDiscountNeeded)
}

func TestEstimateService_Cancel(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	created, err := svc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	cancelled, err := svc.Cancel(ctx, created.ID, &domain.CancelEstimateRequest{Reason: "request withdrawn"})
	require.NoError(t, err)
	assert.Equal(t, domain.EstimateStatusCancelled, cancelled.Status)
	assert.NotNil(t, cancelled.CancelledAt)

	_, err = svc.Submit(ctx, created.ID)
	var stateErr *domain.InvalidStateError
	assert.ErrorAs(t, err, &stateErr)
}

func TestEstimateService_List(t *testing.T) {
	db := setupTestDB(t)
	svc := setupEstimateService(t, db)
	ctx := actorContext()

	for i := 0; i < 3; i++ {
		_, err := svc.Create(ctx, sampleCreateRequest())
		require.NoError(t, err)
	}

	dtos, total, err := svc.List(ctx, repository.EstimateFilter{Page: 1, PageSize: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, dtos, 2)

	drafts, _, err := svc.List(ctx, repository.EstimateFilter{Status: domain.EstimateStatusDraft})
	require.NoError(t, err)
	assert.Len(t, drafts, 3)
}
