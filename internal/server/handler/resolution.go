package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// ResolutionService defines the two-step finalize flow the handler drives.
type ResolutionService interface {
	Propose(ctx context.Context, id uint64) (domain.PendingFinalization, *domain.TxResult, error)
	Execute(ctx context.Context, id uint64, outcome *int) (domain.TxResult, error)
	Pending(ctx context.Context, id uint64) (domain.PendingFinalization, error)
	Discard(ctx context.Context, id uint64) error
	History(ctx context.Context, id uint64, opts domain.ListOpts) ([]domain.VerdictRecord, error)
}

// ResolutionHandler serves the AI resolution endpoints. The propose step never
// moves chain state on its own unless auto-submit is configured; execution is
// always an explicit admin request.
type ResolutionHandler struct {
	resolution ResolutionService
	logger     *slog.Logger
}

// NewResolutionHandler creates a ResolutionHandler.
func NewResolutionHandler(resolution ResolutionService, logger *slog.Logger) *ResolutionHandler {
	return &ResolutionHandler{
		resolution: resolution,
		logger:     logHandler(logger, "resolution"),
	}
}

// FinalizePrediction runs the AI pipeline for an ended prediction. Without
// auto-submit the verdict is parked and returned for admin review; with
// auto-submit the resolution is also executed and the response carries the
// transaction hash.
// POST /finalize-prediction/{id}
func (h *ResolutionHandler) FinalizePrediction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	f, tx, err := h.resolution.Propose(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: finalize failed",
			slog.Uint64("prediction_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to finalize prediction")
		return
	}

	if tx != nil {
		writeJSON(w, http.StatusOK, map[string]any{
			"message":         "Prediction finalized",
			"outcome":         f.Verdict.Outcome,
			"transactionHash": tx.Hash,
		})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"aiOutcome":   f.Verdict.Outcome,
		"confidence":  f.Verdict.Confidence,
		"explanation": f.Verdict.Explanation,
		"currentData": f.Context,
	})
}

// executeFinalizationRequest carries the admin-confirmed outcome. A null
// finalOutcome accepts the proposed verdict as is.
type executeFinalizationRequest struct {
	FinalOutcome *int `json:"finalOutcome"`
}

// ExecuteFinalization submits the confirmed resolution on-chain.
// POST /execute-finalization/{id}
func (h *ResolutionHandler) ExecuteFinalization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	var req executeFinalizationRequest
	if r.ContentLength > 0 {
		if err := decodeBody(r, &req); err != nil {
			writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
			return
		}
	}
	if req.FinalOutcome != nil && *req.FinalOutcome != 0 && *req.FinalOutcome != 1 {
		writeError(w, http.StatusBadRequest, "finalOutcome must be 0 or 1")
		return
	}

	tx, err := h.resolution.Execute(r.Context(), id, req.FinalOutcome)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: execute finalization failed",
			slog.Uint64("prediction_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to execute finalization")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"message":         "Finalization executed",
		"transactionHash": tx.Hash,
	})
}

// GetPendingFinalization returns the parked proposal for a prediction.
// GET /api/predictions/{id}/finalization
func (h *ResolutionHandler) GetPendingFinalization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	f, err := h.resolution.Pending(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to load pending finalization")
		return
	}
	writeJSON(w, http.StatusOK, f)
}

// DiscardFinalization drops a parked proposal without touching the chain.
// DELETE /api/predictions/{id}/finalization
func (h *ResolutionHandler) DiscardFinalization(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	if err := h.resolution.Discard(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to discard finalization")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Finalization discarded"})
}

// ListVerdicts returns the audit trail of AI verdicts for a prediction.
// GET /api/predictions/{id}/verdicts
func (h *ResolutionHandler) ListVerdicts(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	recs, err := h.resolution.History(r.Context(), id, parseListOpts(r))
	if err != nil {
		writeDomainError(w, err, "failed to list verdicts")
		return
	}
	if recs == nil {
		recs = []domain.VerdictRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"verdicts": recs})
}
