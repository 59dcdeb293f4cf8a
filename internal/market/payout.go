package market

import (
	"math"
	"math/big"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// feeBps is the protocol fee retained from the total pool before payout, in
// basis points. Authoritative fee math lives on-chain; this value only feeds
// the client-side estimate.
const feeBps = 500 // 5%

// EstimatePayout returns the estimated payout for a bet of betAmount on the
// side holding selectedPool, out of totalPool. The return value is an
// estimate only; actual settlement is whatever the program computes. When
// either pool is zero the estimate is 0 rather than a division by zero.
func EstimatePayout(betAmount, selectedPool, totalPool uint64) uint64 {
	if totalPool == 0 || selectedPool == 0 {
		return 0
	}
	total := new(big.Int).SetUint64(totalPool)
	fee := new(big.Int).Div(new(big.Int).Mul(total, big.NewInt(feeBps)), big.NewInt(10_000))
	rewardPool := new(big.Int).Sub(total, fee)

	// Scale by 1e6 to keep integer precision, mirroring the program's math.
	// Pools are denominated in base units, so the scaled intermediate needs
	// more than 64 bits.
	scale := big.NewInt(1_000_000)
	perUnit := new(big.Int).Div(new(big.Int).Mul(rewardPool, scale), new(big.Int).SetUint64(selectedPool))
	payout := new(big.Int).Div(new(big.Int).Mul(new(big.Int).SetUint64(betAmount), perUnit), scale)
	if !payout.IsUint64() {
		return math.MaxUint64
	}
	return payout.Uint64()
}

// EstimatePayoutFor estimates the payout for a hypothetical bet on the given
// side of a prediction snapshot.
func EstimatePayoutFor(p domain.Prediction, verdict bool, betAmount uint64) uint64 {
	selected := p.NoAmount
	if verdict {
		selected = p.YesAmount
	}
	return EstimatePayout(betAmount, selected, p.TotalAmount)
}

// SharePercent returns votes as a percentage of total, or 50 when there are
// no votes yet so an empty market renders as an even split.
func SharePercent(votes, total uint64) float64 {
	if total == 0 {
		return 50
	}
	return float64(votes) / float64(total) * 100
}
