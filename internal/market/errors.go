package market

import (
	"strings"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// CategorizeChainError maps a raw chain-call error onto one of the known
// domain sentinels by substring matching on the node's error text, falling
// back to the original error for anything unrecognized. Program aborts come
// back as opaque strings, so this is pattern matching by necessity.
func CategorizeChainError(err error) error {
	if err == nil {
		return nil
	}
	msg := strings.ToLower(err.Error())

	switch {
	case containsAny(msg, "prediction_not_active", "predictionnotactive", "not active", "0x1"):
		return domain.ErrPredictionNotActive
	case containsAny(msg, "insufficient", "0x2"):
		return domain.ErrInsufficientFunds
	case containsAny(msg, "prediction_not_resolved", "not resolved"):
		return domain.ErrNotResolved
	case containsAny(msg, "already_resolved", "already resolved"):
		return domain.ErrAlreadyResolved
	case containsAny(msg, "reward_claimed", "already claimed"):
		return domain.ErrAlreadyClaimed
	case containsAny(msg, "not_winner", "not a winner"):
		return domain.ErrNotWinner
	case containsAny(msg, "not_authorized", "unauthorized"):
		return domain.ErrNotAuthorized
	default:
		return err
	}
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
