package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/fmworks/estimate-api/internal/repository"
)

// Sequence scopes. Estimates and quotes number independently.
const (
	ScopeEstimate = "estimate"
	ScopeQuote    = "quote"
)

// NumberSequenceService generates unique, human-readable document numbers.
//
// Format: {PREFIX}-{YEAR}-{SEQUENCE}
// Example: EST-2026-001, QUO-2026-042
type NumberSequenceService struct {
	repo   *repository.NumberSequenceRepository
	logger *zap.Logger
}

func NewNumberSequenceService(
	repo *repository.NumberSequenceRepository,
	logger *zap.Logger,
) *NumberSequenceService {
	return &NumberSequenceService{
		repo:   repo,
		logger: logger,
	}
}

// GenerateEstimateNumber returns the next estimate number for the current
// year, e.g. "EST-2026-007". Revisions reuse the number of version 1, so
// this is only called when the first version is created.
func (s *NumberSequenceService) GenerateEstimateNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, ScopeEstimate, "EST")
}

// GenerateQuoteNumber returns the next quote number for the current year,
// e.g. "QUO-2026-003".
func (s *NumberSequenceService) GenerateQuoteNumber(ctx context.Context) (string, error) {
	return s.generateNumber(ctx, ScopeQuote, "QUO")
}

func (s *NumberSequenceService) generateNumber(ctx context.Context, scope, prefix string) (string, error) {
	year := time.Now().Year()

	nextSeq, err := s.repo.GetNextNumber(ctx, scope, year)
	if err != nil {
		s.logger.Error("failed to get next sequence number",
			zap.String("scope", scope),
			zap.Int("year", year),
			zap.Error(err))
		return "", fmt.Errorf("failed to generate %s number: %w", scope, err)
	}

	number := fmt.Sprintf("%s-%d-%03d", prefix, year, nextSeq)

	s.logger.Info("generated number",
		zap.String("scope", scope),
		zap.String("number", number))
	return number, nil
}
