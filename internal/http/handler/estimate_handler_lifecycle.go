package handler

// Workflow endpoints for estimates: submit, approve, request revision,
// reject, cancel, revise and convert to quote.

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fmworks/estimate-api/internal/domain"
)

// @Summary Submit estimate for approval
// @Tags Estimate Workflow
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/submit [post]
func (h *EstimateHandler) Submit(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, "submit", func(id uuid.UUID) (*domain.EstimateDTO, error) {
		return h.estimateService.Submit(r.Context(), id)
	})
}

// @Summary Resubmit estimate after revision
// @Tags Estimate Workflow
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/resubmit [post]
func (h *EstimateHandler) Resubmit(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, "resubmit", func(id uuid.UUID) (*domain.EstimateDTO, error) {
		return h.estimateService.Resubmit(r.Context(), id)
	})
}

// @Summary Approve estimate
// @Tags Estimate Workflow
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/approve [post]
func (h *EstimateHandler) Approve(w http.ResponseWriter, r *http.Request) {
	h.lifecycleAction(w, r, "approve", func(id uuid.UUID) (*domain.EstimateDTO, error) {
		return h.estimateService.Approve(r.Context(), id)
	})
}

// @Summary Request estimate revision
// @Description Sends a pending estimate back to the estimator. The estimate becomes editable again.
// @Tags Estimate Workflow
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.RequestRevisionRequest true "Revision reason"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/request-revision [post]
func (h *EstimateHandler) RequestRevision(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	var req domain.RequestRevisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.RequestRevision(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to request revision", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// @Summary Reject estimate
// @Description Rejects a pending estimate with a reason. Rejection is terminal; spawn a revision to continue.
// @Tags Estimate Workflow
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.RejectEstimateRequest true "Rejection reason"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/reject [post]
func (h *EstimateHandler) Reject(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	var req domain.RejectEstimateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	estimate, err := h.estimateService.Reject(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to reject estimate", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// @Summary Cancel estimate
// @Tags Estimate Workflow
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.CancelEstimateRequest false "Optional cancellation reason"
// @Success 200 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/cancel [post]
func (h *EstimateHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	// Body is optional for cancellation
	var req domain.CancelEstimateRequest
	if r.Body != nil {
		_ = json.NewDecoder(r.Body).Decode(&req)
	}

	estimate, err := h.estimateService.Cancel(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to cancel estimate", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}

// @Summary Create estimate revision
// @Description Spawns a new draft version from a rejected or revision-requested estimate.
// @Tags Estimate Workflow
// @Produce json
// @Param id path string true "Estimate ID"
// @Success 201 {object} domain.EstimateDTO
// @Failure 409 {object} domain.APIError "Illegal transition or superseded version"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/revisions [post]
func (h *EstimateHandler) CreateRevision(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	revision, err := h.estimateService.CreateRevision(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to create revision", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/estimates/"+revision.ID.String())
	respondJSON(w, http.StatusCreated, revision)
}

// @Summary Convert estimate to quote
// @Description Converts an approved estimate into a customer-facing quote with snapshotted totals.
// @Tags Estimate Workflow
// @Accept json
// @Produce json
// @Param id path string true "Estimate ID"
// @Param request body domain.ConvertToQuoteRequest true "Quote parameters"
// @Success 201 {object} domain.ConvertToQuoteResponse
// @Failure 409 {object} domain.APIError "Illegal transition or already converted"
// @Security BearerAuth
// @Security ApiKeyAuth
// @Router /estimates/{id}/convert-to-quote [post]
func (h *EstimateHandler) ConvertToQuote(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	var req domain.ConvertToQuoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body: malformed JSON")
		return
	}
	if err := validate.Struct(req); err != nil {
		respondValidationError(w, err)
		return
	}

	resp, err := h.estimateService.ConvertToQuote(r.Context(), id, &req)
	if err != nil {
		h.logger.Error("failed to convert estimate to quote", zap.Error(err), zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, resp)
}

// lifecycleAction factors the bodyless transition endpoints
func (h *EstimateHandler) lifecycleAction(w http.ResponseWriter, r *http.Request, action string, fn func(id uuid.UUID) (*domain.EstimateDTO, error)) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid estimate ID: must be a valid UUID")
		return
	}

	estimate, err := fn(id)
	if err != nil {
		h.logger.Error("estimate action failed",
			zap.String("action", action),
			zap.Error(err),
			zap.String("estimate_id", id.String()))
		h.handleEstimateError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, estimate)
}
