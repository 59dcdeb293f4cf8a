package market

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// ClaimStrategy abstracts the two claim protocols that deployments use. Both
// operate through the chain adapter; the program's own guards remain the
// authority on double claims.
type ClaimStrategy interface {
	// Claim initiates a payout for the user's winning position. Under the
	// direct strategy this pays out immediately; under the approval strategy
	// it enqueues a pending claim for admin review.
	Claim(ctx context.Context, id uint64, user string) (domain.TxResult, error)

	// Approve settles one pending claim. Only meaningful for the approval
	// strategy; the direct strategy rejects it.
	Approve(ctx context.Context, id uint64, user string) (domain.TxResult, error)

	Name() string
}

// DirectClaim is the single-step protocol: once a market is resolved, a
// winner calls claim_reward and the program validates and pays out.
type DirectClaim struct {
	chain domain.ChainClient
}

// NewDirectClaim creates the direct claim strategy over the given adapter.
func NewDirectClaim(chain domain.ChainClient) *DirectClaim {
	return &DirectClaim{chain: chain}
}

func (s *DirectClaim) Name() string { return "direct" }

// Claim pre-checks the position client-side, then submits claim_reward. The
// pre-check only avoids doomed transactions; the program re-validates.
func (s *DirectClaim) Claim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	p, err := s.chain.FetchPrediction(ctx, id)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: fetch prediction %d: %w", id, err)
	}
	if p.State != domain.StateResolved {
		return domain.TxResult{}, domain.ErrNotResolved
	}

	up, err := s.chain.FetchUserPrediction(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: fetch position %d/%s: %w", id, user, err)
	}
	if up.RewardClaimed {
		return domain.TxResult{}, domain.ErrAlreadyClaimed
	}
	if !IsWinner(up.Verdict, p.Result) {
		return domain.TxResult{}, domain.ErrNotWinner
	}

	res, err := s.chain.ClaimReward(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: claim reward %d/%s: %w", id, user, err)
	}
	return res, nil
}

func (s *DirectClaim) Approve(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	return domain.TxResult{}, fmt.Errorf("claims: approve is not part of the direct strategy")
}

// ApprovalClaim is the two-phase protocol: winners submit claims into a
// pending queue and the admin approves each entry, which triggers the
// transfer.
type ApprovalClaim struct {
	chain domain.ChainClient
}

// NewApprovalClaim creates the request/approve strategy over the given
// adapter.
func NewApprovalClaim(chain domain.ChainClient) *ApprovalClaim {
	return &ApprovalClaim{chain: chain}
}

func (s *ApprovalClaim) Name() string { return "approval" }

// Claim submits a claim request for the user's winning position.
func (s *ApprovalClaim) Claim(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	p, err := s.chain.FetchPrediction(ctx, id)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: fetch prediction %d: %w", id, err)
	}
	if p.State != domain.StateResolved {
		return domain.TxResult{}, domain.ErrNotResolved
	}

	up, err := s.chain.FetchUserPrediction(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: fetch position %d/%s: %w", id, user, err)
	}
	if !IsWinner(up.Verdict, p.Result) {
		return domain.TxResult{}, domain.ErrNotWinner
	}

	res, err := s.chain.SubmitClaim(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: submit claim %d/%s: %w", id, user, err)
	}
	return res, nil
}

// Approve settles one pending entry. The caller must re-fetch the pending
// list afterwards; the on-chain queue is the only authoritative view and a
// stale local index must never drive a second approval.
func (s *ApprovalClaim) Approve(ctx context.Context, id uint64, user string) (domain.TxResult, error) {
	pending, err := s.chain.FetchPendingClaims(ctx, id)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: fetch pending %d: %w", id, err)
	}

	found := false
	for _, c := range pending {
		if c.User == user && c.State == domain.ClaimPending {
			found = true
			break
		}
	}
	if !found {
		return domain.TxResult{}, domain.ErrClaimNotPending
	}

	res, err := s.chain.ApproveClaim(ctx, id, user)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("claims: approve claim %d/%s: %w", id, user, err)
	}
	return res, nil
}

// PrepareClaims runs the admin setup steps required before any approval:
// initialize_claims (skipped when the claims account already exists) and
// distribute_rewards to lock in payout shares.
func (s *ApprovalClaim) PrepareClaims(ctx context.Context, id uint64) error {
	if _, err := s.chain.InitializeClaims(ctx, id); err != nil {
		// Re-initialization is expected to fail once the account exists.
		if !isAlreadyExists(err) {
			return fmt.Errorf("claims: initialize %d: %w", id, err)
		}
	}
	if _, err := s.chain.DistributeRewards(ctx, id); err != nil {
		return fmt.Errorf("claims: distribute rewards %d: %w", id, err)
	}
	return nil
}

func isAlreadyExists(err error) bool {
	return err != nil && containsAny(err.Error(), "already exists", "already initialized")
}
