package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// GenerationService defines the AI market-generation operations.
type GenerationService interface {
	Generate(ctx context.Context, topic string) ([]domain.MarketProposal, error)
	ListStored(ctx context.Context, topic string, opts domain.ListOpts) ([]domain.MarketProposal, error)
	CreateFromProposal(ctx context.Context, p domain.MarketProposal) (domain.TxResult, error)
}

// GenerationHandler serves AI-assisted market creation.
type GenerationHandler struct {
	generator GenerationService
	logger    *slog.Logger
}

// NewGenerationHandler creates a GenerationHandler.
func NewGenerationHandler(generator GenerationService, logger *slog.Logger) *GenerationHandler {
	return &GenerationHandler{
		generator: generator,
		logger:    logHandler(logger, "generation"),
	}
}

// generateRequest names the topic to generate proposals for.
type generateRequest struct {
	Topic string `json:"topic"`
}

// GeneratePredictions asks the AI pipeline for market proposals on a topic.
// Proposals are previews only; nothing is created on-chain.
// POST /test/generate-predictions
func (h *GenerationHandler) GeneratePredictions(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	proposals, err := h.generator.Generate(r.Context(), req.Topic)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: generate predictions failed",
			slog.String("topic", req.Topic),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to generate predictions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"predictions": proposals})
}

// ListProposals returns stored proposals for a topic.
// GET /api/proposals?topic=...
func (h *GenerationHandler) ListProposals(w http.ResponseWriter, r *http.Request) {
	topic := r.URL.Query().Get("topic")
	if topic == "" {
		writeError(w, http.StatusBadRequest, "topic is required")
		return
	}

	proposals, err := h.generator.ListStored(r.Context(), topic, parseListOpts(r))
	if err != nil {
		writeDomainError(w, err, "failed to list proposals")
		return
	}
	if proposals == nil {
		proposals = []domain.MarketProposal{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"proposals": proposals})
}

// CreateFromProposal turns one reviewed proposal into an on-chain market.
// POST /api/admin/proposals/create
func (h *GenerationHandler) CreateFromProposal(w http.ResponseWriter, r *http.Request) {
	var p domain.MarketProposal
	if err := decodeBody(r, &p); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if p.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if p.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be positive")
		return
	}

	tx, err := h.generator.CreateFromProposal(r.Context(), p)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create from proposal failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to create prediction from proposal")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":         "Prediction created",
		"transactionHash": tx.Hash,
	})
}
