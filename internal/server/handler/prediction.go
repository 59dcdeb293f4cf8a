package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
)

// PredictionService defines the methods the prediction handler requires from
// the service layer. It is declared locally so the handler package does not
// depend on the concrete service implementation.
type PredictionService interface {
	ListPredictions(ctx context.Context) ([]domain.Prediction, error)
	ListFiltered(ctx context.Context, tags []string, status market.Status) ([]domain.Prediction, error)
	GetPrediction(ctx context.Context, id uint64) (domain.Prediction, error)
	Tags(ctx context.Context) ([]string, error)
	Buckets(ctx context.Context) (map[market.Status][]domain.Prediction, error)
	GetUserPrediction(ctx context.Context, id uint64, user string) (domain.UserPrediction, error)
	EstimatePayout(ctx context.Context, id uint64, verdict bool, amount uint64) (uint64, error)
	Predict(ctx context.Context, id uint64, user string, verdict bool, amount uint64) (domain.TxResult, error)
	CreateMarket(ctx context.Context, params domain.CreatePredictionParams) (domain.TxResult, error)
	PauseMarket(ctx context.Context, id uint64) (domain.TxResult, error)
	MarketState(ctx context.Context) (domain.MarketStateInfo, error)
}

// PredictionHandler serves the prediction read surface plus the admin market
// management endpoints.
type PredictionHandler struct {
	markets PredictionService
	logger  *slog.Logger
}

// NewPredictionHandler creates a PredictionHandler.
func NewPredictionHandler(markets PredictionService, logger *slog.Logger) *PredictionHandler {
	return &PredictionHandler{
		markets: markets,
		logger:  logHandler(logger, "prediction"),
	}
}

var validStatuses = map[market.Status]bool{
	market.StatusActive:   true,
	market.StatusExpired:  true,
	market.StatusResolved: true,
	market.StatusPaused:   true,
}

// listPredictionsResponse wraps the list endpoint output.
type listPredictionsResponse struct {
	Predictions []domain.Prediction `json:"predictions"`
	Count       int                 `json:"count"`
}

// ListPredictions returns prediction snapshots, optionally narrowed by tags
// (comma separated, OR semantics) and status bucket.
// GET /api/predictions?tags=crypto,sports&status=active
func (h *PredictionHandler) ListPredictions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var tags []string
	if raw := q.Get("tags"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
	}

	status := market.Status(q.Get("status"))
	if status != "" && !validStatuses[status] {
		writeError(w, http.StatusBadRequest, "invalid status")
		return
	}

	var (
		preds []domain.Prediction
		err   error
	)
	if len(tags) == 0 && status == "" {
		preds, err = h.markets.ListPredictions(r.Context())
	} else {
		preds, err = h.markets.ListFiltered(r.Context(), tags, status)
	}
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: list predictions failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to list predictions")
		return
	}

	if preds == nil {
		preds = []domain.Prediction{}
	}
	writeJSON(w, http.StatusOK, listPredictionsResponse{
		Predictions: preds,
		Count:       len(preds),
	})
}

// GetPrediction returns a single prediction snapshot by id.
// GET /api/predictions/{id}
func (h *PredictionHandler) GetPrediction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	p, err := h.markets.GetPrediction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get prediction")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// ListTags returns the sorted universe of tags across current snapshots.
// GET /api/tags
func (h *PredictionHandler) ListTags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.markets.Tags(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to list tags")
		return
	}
	if tags == nil {
		tags = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}

// ListBuckets returns predictions grouped by status bucket.
// GET /api/predictions/buckets
func (h *PredictionHandler) ListBuckets(w http.ResponseWriter, r *http.Request) {
	buckets, err := h.markets.Buckets(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to bucket predictions")
		return
	}
	writeJSON(w, http.StatusOK, buckets)
}

// positionResponse is a stake record plus the derived claim affordance.
type positionResponse struct {
	domain.UserPrediction
	CanClaim bool `json:"canClaim"`
}

// GetPosition returns one user's stake record for a prediction, with a
// canClaim flag so clients do not re-derive the winner predicate.
// GET /api/predictions/{id}/positions/{user}
func (h *PredictionHandler) GetPosition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}
	user := pathParam(r, "user")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user address")
		return
	}

	p, err := h.markets.GetPrediction(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to get prediction")
		return
	}
	up, err := h.markets.GetUserPrediction(r.Context(), id, user)
	if err != nil {
		writeDomainError(w, err, "failed to get position")
		return
	}
	writeJSON(w, http.StatusOK, positionResponse{
		UserPrediction: up,
		CanClaim:       market.CanClaim(p, up),
	})
}

// EstimatePayout returns the projected payout for a hypothetical stake at
// current pool levels. The number is an estimate; the program's own math is
// authoritative at claim time.
// GET /api/predictions/{id}/payout?verdict=true&amount=100
func (h *PredictionHandler) EstimatePayout(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	q := r.URL.Query()
	verdict, err := strconv.ParseBool(q.Get("verdict"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "verdict must be true or false")
		return
	}
	amount, err := strconv.ParseUint(q.Get("amount"), 10, 64)
	if err != nil || amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be a positive integer")
		return
	}

	payout, err := h.markets.EstimatePayout(r.Context(), id, verdict, amount)
	if err != nil {
		writeDomainError(w, err, "failed to estimate payout")
		return
	}
	writeJSON(w, http.StatusOK, map[string]uint64{"estimatedPayout": payout})
}

// GetMarketState returns the deployment's singleton market-state account.
// GET /api/state
func (h *PredictionHandler) GetMarketState(w http.ResponseWriter, r *http.Request) {
	info, err := h.markets.MarketState(r.Context())
	if err != nil {
		writeDomainError(w, err, "failed to read market state")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// predictRequest is the relayed bet payload.
type predictRequest struct {
	UserAddress string `json:"userAddress"`
	Verdict     bool   `json:"verdict"`
	Amount      uint64 `json:"amount"`
}

// Predict relays a user bet through the server-held account. The state guard
// runs against a fresh snapshot before the transaction is built.
// POST /api/predictions/{id}/predict
func (h *PredictionHandler) Predict(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	var req predictRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "userAddress is required")
		return
	}
	if req.Amount == 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	tx, err := h.markets.Predict(r.Context(), id, req.UserAddress, req.Verdict, req.Amount)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: predict failed",
			slog.Uint64("prediction_id", id),
			slog.String("user", req.UserAddress),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to place prediction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Prediction placed",
		"transactionHash": tx.Hash,
	})
}

// createPredictionRequest is the admin create-market payload.
type createPredictionRequest struct {
	Description    string   `json:"description"`
	Duration       int64    `json:"duration"` // seconds until resolution
	Tags           []string `json:"tags"`
	PredictionType uint8    `json:"predictionType"`
	OptionsCount   uint8    `json:"optionsCount"`
}

// CreatePrediction submits an admin create-market transaction.
// POST /api/admin/predictions
func (h *PredictionHandler) CreatePrediction(w http.ResponseWriter, r *http.Request) {
	var req createPredictionRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Duration <= 0 {
		writeError(w, http.StatusBadRequest, "duration must be positive")
		return
	}

	tx, err := h.markets.CreateMarket(r.Context(), domain.CreatePredictionParams{
		Description:    req.Description,
		Duration:       req.Duration,
		Tags:           req.Tags,
		PredictionType: req.PredictionType,
		OptionsCount:   req.OptionsCount,
	})
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: create prediction failed",
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to create prediction")
		return
	}

	writeJSON(w, http.StatusCreated, map[string]string{
		"message":         "Prediction created",
		"transactionHash": tx.Hash,
	})
}

// PausePrediction submits an admin pause transaction.
// POST /api/admin/predictions/{id}/pause
func (h *PredictionHandler) PausePrediction(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	tx, err := h.markets.PauseMarket(r.Context(), id)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: pause prediction failed",
			slog.Uint64("prediction_id", id),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to pause prediction")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Prediction paused",
		"transactionHash": tx.Hash,
	})
}
