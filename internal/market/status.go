// Package market holds the pure, stateless derived-view logic computed over
// fetched prediction snapshots: status bucketing, tag filtering, payout
// estimation, and state-machine guards. Everything here is recomputed on
// every fetch rather than incrementally maintained.
package market

import "github.com/alanyoungcy/hashpredict/internal/domain"

// Status is the client-facing bucket of a prediction. Expired is derived, not
// stored: an Active prediction whose end time has passed.
type Status string

const (
	StatusActive   Status = "active"
	StatusExpired  Status = "expired"
	StatusResolved Status = "resolved"
	StatusPaused   Status = "paused"
)

// StatusOf classifies a snapshot at the given unix time. The four buckets are
// disjoint and exhaustive.
func StatusOf(p domain.Prediction, now int64) Status {
	switch p.State {
	case domain.StatePaused:
		return StatusPaused
	case domain.StateResolved:
		return StatusResolved
	default:
		if now >= p.EndTime {
			return StatusExpired
		}
		return StatusActive
	}
}

// Bucketize splits predictions into status buckets. Paused markets get their
// own bucket; the three tab buckets stay disjoint over non-paused markets.
func Bucketize(preds []domain.Prediction, now int64) map[Status][]domain.Prediction {
	buckets := make(map[Status][]domain.Prediction, 4)
	for _, p := range preds {
		s := StatusOf(p, now)
		buckets[s] = append(buckets[s], p)
	}
	return buckets
}

// CanPredict reports whether user bets are accepted: the stored state must be
// Active and the end time not yet reached.
func CanPredict(p domain.Prediction, now int64) bool {
	return p.State == domain.StateActive && now < p.EndTime
}

// CanResolve reports whether admin finalize actions should be offered. Only
// ended, unresolved markets qualify; the state machine is forward-only, so a
// Resolved market never re-enters Active through any client action.
func CanResolve(p domain.Prediction, now int64) bool {
	return p.State != domain.StateResolved && now >= p.EndTime
}

// IsWinner reports whether a user's verdict matches the resolved result.
// Undefined results never produce winners.
func IsWinner(verdict bool, result domain.PredictionResult) bool {
	switch result {
	case domain.ResultTrue:
		return verdict
	case domain.ResultFalse:
		return !verdict
	default:
		return false
	}
}

// CanClaim reports whether the claim action should be surfaced for a user
// position: the market is resolved, the user won, and the program's
// idempotency flag is not yet set.
func CanClaim(p domain.Prediction, up domain.UserPrediction) bool {
	if p.State != domain.StateResolved {
		return false
	}
	return IsWinner(up.Verdict, p.Result) && !up.RewardClaimed
}
