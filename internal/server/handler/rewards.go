package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// RewardsService defines the claim and reward-system operations.
type RewardsService interface {
	StrategyName() string
	Claim(ctx context.Context, id uint64, user string) (domain.TxResult, error)
	Approve(ctx context.Context, id uint64, user string) (domain.TxResult, error)
	PrepareClaims(ctx context.Context, id uint64) error
	PendingClaims(ctx context.Context, id uint64) ([]domain.PendingClaim, error)
	DailyClaim(ctx context.Context, user string) (domain.TxResult, error)
	DailyClaimInfo(ctx context.Context, user string) (domain.DailyClaimInfo, error)
	Referrals(ctx context.Context, user string) ([]string, error)
	UseReferralCode(ctx context.Context, user, code string) (domain.TxResult, error)
}

// RewardsHandler serves claim and reward-system endpoints. All transactions
// are relayed through the server-held account on the user's behalf.
type RewardsHandler struct {
	rewards RewardsService
	logger  *slog.Logger
}

// NewRewardsHandler creates a RewardsHandler.
func NewRewardsHandler(rewards RewardsService, logger *slog.Logger) *RewardsHandler {
	return &RewardsHandler{
		rewards: rewards,
		logger:  logHandler(logger, "rewards"),
	}
}

// userRequest carries the address a relayed transaction acts for.
type userRequest struct {
	UserAddress string `json:"userAddress"`
}

// referralRequest carries the address and the code it redeems.
type referralRequest struct {
	UserAddress  string `json:"userAddress"`
	ReferralCode string `json:"referralCode"`
}

// ClaimDailyReward relays a daily-reward claim for a user. A per-address rate
// limit guards the chain call.
// POST /claim-daily-reward
func (h *RewardsHandler) ClaimDailyReward(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "userAddress is required")
		return
	}

	tx, err := h.rewards.DailyClaim(r.Context(), req.UserAddress)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: daily claim failed",
			slog.String("user", req.UserAddress),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to claim daily reward")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Daily reward claimed",
		"transactionHash": tx.Hash,
	})
}

// GetDailyClaimInfo returns a user's last claim time and streak.
// GET /get-daily-claim-info/{userAddress}
func (h *RewardsHandler) GetDailyClaimInfo(w http.ResponseWriter, r *http.Request) {
	user := pathParam(r, "userAddress")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user address")
		return
	}

	info, err := h.rewards.DailyClaimInfo(r.Context(), user)
	if err != nil {
		writeDomainError(w, err, "failed to get daily claim info")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// UseReferralCode relays a referral-code redemption for a user.
// POST /use-referral-code
func (h *RewardsHandler) UseReferralCode(w http.ResponseWriter, r *http.Request) {
	var req referralRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserAddress == "" || req.ReferralCode == "" {
		writeError(w, http.StatusBadRequest, "userAddress and referralCode are required")
		return
	}

	tx, err := h.rewards.UseReferralCode(r.Context(), req.UserAddress, req.ReferralCode)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: use referral code failed",
			slog.String("user", req.UserAddress),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to use referral code")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Referral code applied",
		"transactionHash": tx.Hash,
	})
}

// GetReferrals returns the addresses referred by a user.
// GET /get-referrals/{userAddress}
func (h *RewardsHandler) GetReferrals(w http.ResponseWriter, r *http.Request) {
	user := pathParam(r, "userAddress")
	if user == "" {
		writeError(w, http.StatusBadRequest, "missing user address")
		return
	}

	referrals, err := h.rewards.Referrals(r.Context(), user)
	if err != nil {
		writeDomainError(w, err, "failed to get referrals")
		return
	}
	if referrals == nil {
		referrals = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"referrals": referrals,
		"count":     len(referrals),
	})
}

// ListPendingClaims returns the freshly fetched pending-claims queue for a
// resolved prediction.
// GET /api/predictions/{id}/claims
func (h *RewardsHandler) ListPendingClaims(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	claims, err := h.rewards.PendingClaims(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, "failed to list pending claims")
		return
	}
	if claims == nil {
		claims = []domain.PendingClaim{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"strategy": h.rewards.StrategyName(),
		"claims":   claims,
	})
}

// Claim relays a reward claim for a user against a resolved prediction. Under
// the approval strategy this submits the claim request; under the direct
// strategy it claims immediately.
// POST /api/predictions/{id}/claims
func (h *RewardsHandler) Claim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "userAddress is required")
		return
	}

	tx, err := h.rewards.Claim(r.Context(), id, req.UserAddress)
	if err != nil {
		h.logger.ErrorContext(r.Context(), "handler: claim failed",
			slog.Uint64("prediction_id", id),
			slog.String("user", req.UserAddress),
			slog.String("error", err.Error()),
		)
		writeDomainError(w, err, "failed to claim reward")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Claim submitted",
		"transactionHash": tx.Hash,
	})
}

// PrepareClaims initializes the claims queue for a resolved prediction. Only
// meaningful under the approval strategy; the direct strategy reports a
// conflict.
// POST /api/admin/predictions/{id}/claims/prepare
func (h *RewardsHandler) PrepareClaims(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	if err := h.rewards.PrepareClaims(r.Context(), id); err != nil {
		writeDomainError(w, err, "failed to prepare claims")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Claims initialized"})
}

// ApproveClaim approves one user's pending claim.
// POST /api/admin/predictions/{id}/claims/approve
func (h *RewardsHandler) ApproveClaim(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid prediction id")
		return
	}

	var req userRequest
	if err := decodeBody(r, &req); err != nil {
		writeErrorDetails(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.UserAddress == "" {
		writeError(w, http.StatusBadRequest, "userAddress is required")
		return
	}

	tx, err := h.rewards.Approve(r.Context(), id, req.UserAddress)
	if err != nil {
		writeDomainError(w, err, "failed to approve claim")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"message":         "Claim approved",
		"transactionHash": tx.Hash,
	})
}
