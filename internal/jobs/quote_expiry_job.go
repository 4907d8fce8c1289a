package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// QuoteExpiryJobName is the name of the quote expiry sweep job
const QuoteExpiryJobName = "quote_expiry"

// DefaultQuoteExpiryTimeout bounds how long a single sweep may run
const DefaultQuoteExpiryTimeout = 5 * time.Minute

// QuoteExpirer marks active quotes past their validity date as expired.
// The interface keeps the job decoupled from the service package.
type QuoteExpirer interface {
	ExpireOverdue(ctx context.Context) (int64, error)
}

// QuoteExpiryJob sweeps active quotes whose valid_until has passed.
type QuoteExpiryJob struct {
	quotes  QuoteExpirer
	logger  *zap.Logger
	timeout time.Duration
}

// NewQuoteExpiryJob creates a new quote expiry job.
func NewQuoteExpiryJob(quotes QuoteExpirer, logger *zap.Logger) *QuoteExpiryJob {
	return &QuoteExpiryJob{
		quotes:  quotes,
		logger:  logger,
		timeout: DefaultQuoteExpiryTimeout,
	}
}

// Run executes one sweep. Safe to run repeatedly; quotes already expired
// are never touched again.
func (j *QuoteExpiryJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	count, err := j.quotes.ExpireOverdue(ctx)
	if err != nil {
		j.logger.Error("quote expiry sweep failed", zap.Error(err))
		return
	}

	j.logger.Info("quote expiry sweep completed",
		zap.Int64("expired", count),
		zap.Duration("duration", time.Since(start)))
}
