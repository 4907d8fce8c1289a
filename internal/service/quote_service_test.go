package service_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/repository"
	"github.com/fmworks/estimate-api/internal/service"
)

func TestQuoteService_ExpireOverdue(t *testing.T) {
	db := setupTestDB(t)
	estimateSvc := setupEstimateService(t, db)
	quoteSvc := service.NewQuoteService(repository.NewQuoteRepository(db), zap.NewNop())
	ctx := actorContext()

	created, err := estimateSvc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)
	_, err = estimateSvc.Submit(ctx, created.ID)
	require.NoError(t, err)
	_, err = estimateSvc.Approve(ctx, created.ID)
	require.NoError(t, err)

	resp, err := estimateSvc.ConvertToQuote(ctx, created.ID, &domain.ConvertToQuoteRequest{
		ValidUntil: time.Now().AddDate(0, 0, -1),
	})
	require.NoError(t, err)

	count, err := quoteSvc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	quote, err := quoteSvc.GetByID(ctx, resp.Quote.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.QuoteStatusExpired, quote.Status)

	// Idempotent: nothing left to expire
	count, err = quoteSvc.ExpireOverdue(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestQuoteService_GetByEstimateID(t *testing.T) {
	db := setupTestDB(t)
	estimateSvc := setupEstimateService(t, db)
	quoteSvc := service.NewQuoteService(repository.NewQuoteRepository(db), zap.NewNop())
	ctx := actorContext()

	created, err := estimateSvc.Create(ctx, sampleCreateRequest())
	require.NoError(t, err)

	_, err = quoteSvc.GetByEstimateID(ctx, created.ID)
	assert.ErrorIs(t, err, service.ErrQuoteNotFound)

	_, err = estimateSvc.Submit(ctx, created.ID)
	require.NoError(t, err)
	_, err = estimateSvc.Approve(ctx, created.ID)
	require.NoError(t, err)
	converted, err := estimateSvc.ConvertToQuote(ctx, created.ID, &domain.ConvertToQuoteRequest{
		ValidUntil: time.Now().AddDate(0, 1, 0),
	})
	require.NoError(t, err)

	quote, err := quoteSvc.GetByEstimateID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, converted.Quote.ID, quote.ID)
}
