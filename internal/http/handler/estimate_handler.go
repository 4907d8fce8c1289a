package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmworks/estimate-api/internal/domain"
	"github.com/fmworks/estimate-api/internal/repository"
	"github.com/fmworks/estimate-api/internal/service"
)

type EstimateHandler struct {
	estimateService *service.EstimateService
	logger          *zap.Logger
}

func NewEstimateHandler(estimateService *service.EstimateService, logger *zap.Logger) *EstimateHandler {
	return &EstimateHandler{
		estimateService: estimateService,
		logger:          logger,
	}
}

// @Summary List estimates
// @Tags Estimates
// @Produce json
// @Param page query int false "Page number" default(1)
// @Param pageSize query int false "Page size" default(20)
// @Param status query string false "Filter by status"
// @Param serviceRequestId query string false "Filter by service request ID"
// @Param latestOnly query bool false "Only latest versions"
// @Param search query string false "Search in title and estimate number"
// @Success 200 {object} domain.PaginatedResponse
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates [get]
func (h *EstimateHandler) List(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	if page < 1 {
		page = 1
	}
	pageSize, _ := strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageSize < 1 {
		pageSize = 20
	}
	if pageSize > 100 {
		pageSize = 100
	}

	filter := repository.EstimateFilter{
		Page:     page,
		PageSize: pageSize,
		Search:   r.URL.Query().Get("search"),
	}
	if s := r.URL.Query().Get("status"); s != "" {
		status := domain.EstimateStatus(s)
		if !status.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid status filter")
			return
		}
		filter.Status = status
	}
	if sr := r.URL.Query().Get("serviceRequestId"); sr != "" {
		id, err := uuid.Parse(sr)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid service request ID: must be a valid UUID")
			return
		}
		filter.ServiceRequestID = &id
	}
	if lo := r.URL.Query().Get("latestOnly"); lo != "" {
		filter.LatestOnly, _ = strconv.ParseBool(lo)
	}

	dtos, total, err := h.estimateService.List(r.Context(), filter)
	if err != nil {
		h.logger.Error("failed to list estimates", zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Failed to list estimates")
		return
	}

	respondJSON(w, http.StatusOK, paginated(dtos, total, page, pageSize))
}

// @Summary Create estimate
// @Description Creates a new draft estimate with line items and computed totals.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param request body domain.CreateEstimateRequest true "Estimate data"
// @Success 201 {object} domain.EstimateDTO
// @Failure 400 {object} domain.APIError "Validation error"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates [post]
func (h *EstimateHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.Create(r.Context(), &req)
	if err != nil {
		h.logger.Error("failed to create estimate", zap.Error(err))
		h.handleEstimateError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/estimates/"+estimate.ID.String())
	respondJSON(w, http.StatusCreated, estimate)
}

// @Summary Get estimate
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 404 {object} domain.APIError
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id} [get]
func (h *EstimateHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	estimate, err := h.estimateService.GetByID(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to get estimate", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, estimate)
}

// @Summary Update estimate
// @Description Replaces line items and commercial parameters and recomputes all totals. Only draft and revision_requested estimates are editable.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.UpdateEstimateRequest true "Estimate data"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Estimate not editable"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id} [put]
func (h *EstimateHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	var req domain.UpdateEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.Update(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to update estimate", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, estimate)
}

// @Summary List estimate versions
// @Description Returns every version of the estimate family, oldest first.
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID (any version)"
// @Success 200 {array} domain.EstimateDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/versions [get]
func (h *EstimateHandler) ListVersions(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	versions, err := h.estimateService.ListVersions(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list estimate versions", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, versions)
}

// @Summary List estimate activities
// @Description Returns the append-only audit trail of the estimate, newest first.
// @Tags Estimates
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {array} domain.EstimateActivityDTO
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/activities [get]
func (h *EstimateHandler) ListActivities(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	activities, err := h.estimateService.ListActivities(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to list estimate activities", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, activities)
}

// @Summary Solve discount for target total
// @Description Computes the discount that would bring the estimate total to the requested target. Nothing is persisted.
// @Tags Estimates
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.SolveDiscountRequest true "Target total"
// @Success 200 {object} domain.SolveDiscountResponse
// @Failure 400 {object} domain.APIError "Negative or invalid target"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/solve-discount [post]
func (h *EstimateHandler) SolveDiscount(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	var req domain.SolveDiscountRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}

	solution, err := h.estimateService.SolveDiscount(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to solve discount", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, solution)
}

// handleEstimateError maps service and domain errors to HTTP responses
func (h *EstimateHandler) handleEstimateError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	var stateErr *domain.InvalidStateError
	switch {
	case errors.As(err, &verr):
		respondDomainValidationError(w, verr)
	case errors.As(err, &stateErr):
		respondInvalidStateError(w, stateErr)
	case errors.Is(err, service.ErrEstimateNotFound):
		respondWithError(w, http.StatusNotFound, "Estimate not found")
	case errors.Is(err, service.ErrQuoteNotFound):
		respondWithError(w, http.StatusNotFound, "Quote not found")
	case errors.Is(err, service.ErrNotLatestVersion):
		respondWithError(w, http.StatusConflict, "Estimate has been superseded by a newer version")
	case errors.Is(err, service.ErrQuoteAlreadyExists):
		respondWithError(w, http.StatusConflict, "Estimate has already been converted to a quote")
	case errors.Is(err, service.ErrNoBillableContent):
		respondWithError(w, http.StatusBadRequest, "Estimate must have at least one material or labor line")
	case errors.Is(err, service.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}
