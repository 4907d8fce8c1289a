package service

import "errors"

// Common service errors
var (
	// ErrEstimateNotFound is returned when an estimate does not exist
	ErrEstimateNotFound = errors.New("estimate not found")

	// ErrQuoteNotFound is returned when a quote does not exist
	ErrQuoteNotFound = errors.New("quote not found")

	// ErrEstimateNotEditable is returned when line items or commercial
	// parameters are mutated outside an editable status
	ErrEstimateNotEditable = errors.New("estimate is not editable in its current status")

	// ErrNotLatestVersion is returned when a workflow action targets a
	// superseded version of an estimate
	ErrNotLatestVersion = errors.New("estimate is not the latest version")

	// ErrQuoteAlreadyExists is returned when converting an estimate that
	// already produced a quote
	ErrQuoteAlreadyExists = errors.New("estimate has already been converted to a quote")

	// ErrNoBillableContent is returned when an estimate would end up with
	// neither material nor labor lines
	ErrNoBillableContent = errors.New("estimate must have at least one material or labor line")

	// ErrUnauthorized is returned when no actor identity is present on the context
	ErrUnauthorized = errors.New("unauthorized")
)
