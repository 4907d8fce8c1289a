package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/mapper"
	"github.com/fmworks/estimate-api/internal/repository"
)

// QuoteService exposes read access to quotes and the expiry sweep. Quotes
// are created only through estimate conversion and are never edited.
type QuoteService struct {
	quoteRepo *repository.QuoteRepository
	logger    *zap.Logger
}

func NewQuoteService(quoteRepo *repository.QuoteRepository, logger *zap.Logger) *QuoteService {
	return &QuoteService{
		quoteRepo: quoteRepo,
		logger:    logger,
	}
}

// GetByID retrieves a quote by ID
func (s *QuoteService) GetByID(ctx context.Context, id uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

// GetByEstimateID retrieves the quote produced from an estimate
func (s *QuoteService) GetByEstimateID(ctx context.Context, estimateID uuid.UUID) (*domain.QuoteDTO, error) {
	quote, err := s.quoteRepo.GetByEstimateID(ctx, estimateID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrQuoteNotFound
		}
		return nil, fmt.Errorf("failed to get quote: %w", err)
	}
	dto := mapper.ToQuoteDTO(quote)
	return &dto, nil
}

// List returns a page of quotes matching the filter
func (s *QuoteService) List(ctx context.Context, filter repository.QuoteFilter) ([]domain.QuoteDTO, int64, error) {
	quotes, total, err := s.quoteRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, err
	}
	dtos := make([]domain.QuoteDTO, 0, len(quotes))
	for i := range quotes {
		dtos = append(dtos, mapper.ToQuoteDTO(&quotes[i]))
	}
	return dtos, total, nil
}

// ExpireOverdue flips active quotes whose validity date has passed.
// Invoked by the scheduler; safe to run repeatedly.
func (s *QuoteService) ExpireOverdue(ctx context.Context) (int64, error) {
	expired, err := s.quoteRepo.MarkExpired(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if expired > 0 {
		s.logger.Info("expired quotes", zap.Int64("count", expired))
	}
	return expired, nil
}
