package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
	"github.com/alanyoungcy/hashpredict/internal/notify"
)

// RewardsService relays claim and reward operations through the configured
// claim strategy and guards daily claims with a server-side rate limit before
// the chain's own guard is hit.
type RewardsService struct {
	chain    domain.ChainClient
	strategy market.ClaimStrategy
	limiter  domain.RateLimiter
	window   time.Duration
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewRewardsService creates a RewardsService.
func NewRewardsService(
	chain domain.ChainClient,
	strategy market.ClaimStrategy,
	limiter domain.RateLimiter,
	window time.Duration,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *RewardsService {
	return &RewardsService{
		chain:    chain,
		strategy: strategy,
		limiter:  limiter,
		window:   window,
		notifier: notifier,
		logger:   logger,
	}
}

// StrategyName reports the active claim flow ("direct" or "approval").
func (s *RewardsService) StrategyName() string {
	return s.strategy.Name()
}

// Claim routes a user's claim through the active strategy. Under direct
// this pays immediately; under approval it queues the claim.
func (s *RewardsService) Claim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	tx, err := s.strategy.Claim(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("rewards: claim %d/%s: %w", id, user, err)
	}
	s.logger.InfoContext(ctx, "rewards: claim relayed",
		slog.Uint64("prediction_id", id),
		slog.String("user", user),
		slog.String("strategy", s.strategy.Name()),
		slog.String("tx", tx.Hash),
	)
	return tx, nil
}

// Approve approves one queued claim (approval strategy only).
func (s *RewardsService) Approve(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	tx, err := s.strategy.Approve(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("rewards: approve %d/%s: %w", id, user, err)
	}
	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, notify.EventClaimApproved,
			"Claim approved",
			fmt.Sprintf("Prediction %d, user %s (tx %s)", id, user, tx.Hash),
		)
	}
	return tx, nil
}

// PrepareClaims initializes the claim queue and distributes shares for a
// resolved prediction. A no-op under the direct strategy.
func (s *RewardsService) PrepareClaims(ctx context.Context, id uint64) error {
	prep, ok := s.strategy.(interface {
		PrepareClaims(ctx context.Context, id uint64) error
	})
	if !ok {
		return nil
	}
	if err := prep.PrepareClaims(ctx, id); err != nil {
		return fmt.Errorf("rewards: prepare claims %d: %w", id, err)
	}
	return nil
}

// PendingClaims lists the claim queue for a prediction.
func (s *RewardsService) PendingClaims(ctx context.Context, id uint64) ([]domain.PendingClaim, error) {
	claims, err := s.chain.FetchPendingClaims(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("rewards: pending claims %d: %w", id, market.CategorizeChainError(err))
	}
	return claims, nil
}

// DailyClaim relays a daily reward claim, rejecting repeats inside the
// configured window before spending gas on a transaction the program would
// abort anyway.
func (s *RewardsService) DailyClaim(ctx context.Context, user string) (domain.TxResult, error) {
	allowed, err := s.limiter.Allow(ctx, "dailyclaim:"+user, 1, s.window)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("rewards: daily claim gate %s: %w", user, err)
	}
	if !allowed {
		return domain.TxResult{}, fmt.Errorf("rewards: daily claim %s: %w", user, domain.ErrRateLimited)
	}

	tx, err := s.chain.ClaimDailyReward(ctx, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("rewards: daily claim %s: %w", user, market.CategorizeChainError(err))
	}
	return tx, nil
}

// DailyClaimInfo returns a user's streak state.
func (s *RewardsService) DailyClaimInfo(ctx context.Context, user string) (domain.DailyClaimInfo, error) {
	info, err := s.chain.FetchDailyClaimInfo(ctx, user)
	if err != nil {
		return domain.DailyClaimInfo{}, fmt.Errorf("rewards: daily claim info %s: %w", user, market.CategorizeChainError(err))
	}
	return info, nil
}

// Referrals returns the addresses a user has referred.
func (s *RewardsService) Referrals(ctx context.Context, user string) ([]string, error) {
	refs, err := s.chain.FetchReferrals(ctx, user)
	if err != nil {
		return nil, fmt.Errorf("rewards: referrals %s: %w", user, market.CategorizeChainError(err))
	}
	return refs, nil
}

// UseReferralCode applies a referral code on behalf of a user.
func (s *RewardsService) UseReferralCode(ctx context.Context, user, code string) (domain.TxResult, error) {
	tx, err := s.chain.UseReferralCode(ctx, user, code)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("rewards: referral code %s: %w", user, market.CategorizeChainError(err))
	}
	return tx, nil
}
