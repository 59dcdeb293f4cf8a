package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
)

func activePrediction(id uint64, tags ...string) domain.Prediction {
	now := time.Now().Unix()
	return domain.Prediction{
		ID:          id,
		Description: "active market",
		StartTime:   now - 3600,
		EndTime:     now + 3600,
		State:       domain.StateActive,
		YesVotes:    1, NoVotes: 1, TotalVotes: 2,
		YesAmount: 100, NoAmount: 100, TotalAmount: 200,
		Result: domain.ResultUndefined,
		Tags:   tags,
	}
}

func TestListPredictionsBackfillsCache(t *testing.T) {
	chain := newFakeChain(activePrediction(1, "crypto"), activePrediction(2, "sports"))
	cache := newFakeCache()
	svc := NewMarketService(chain, cache, nil, testLogger())

	preds, err := svc.ListPredictions(context.Background())
	require.NoError(t, err)
	assert.Len(t, preds, 2)
	assert.Equal(t, 1, cache.setAllCalls)

	// Second call is served from the cache even if the chain breaks.
	chain.fetchAllErr = assert.AnError
	preds, err = svc.ListPredictions(context.Background())
	require.NoError(t, err)
	assert.Len(t, preds, 2)
}

func TestListPredictionsDropsInvalidSnapshots(t *testing.T) {
	bad := activePrediction(3)
	bad.TotalVotes = 99 // breaks yes+no == total

	chain := newFakeChain(activePrediction(1), bad)
	svc := NewMarketService(chain, newFakeCache(), nil, testLogger())

	preds, err := svc.ListPredictions(context.Background())
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, uint64(1), preds[0].ID)
}

func TestListFilteredByTagAndStatus(t *testing.T) {
	expired := activePrediction(2, "crypto")
	expired.EndTime = time.Now().Unix() - 60

	chain := newFakeChain(activePrediction(1, "crypto"), expired, activePrediction(3, "sports"))
	svc := NewMarketService(chain, newFakeCache(), nil, testLogger())

	preds, err := svc.ListFiltered(context.Background(), []string{"crypto"}, market.StatusActive)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, uint64(1), preds[0].ID)

	// Empty tag selection means no tag filter.
	preds, err = svc.ListFiltered(context.Background(), nil, market.StatusExpired)
	require.NoError(t, err)
	require.Len(t, preds, 1)
	assert.Equal(t, uint64(2), preds[0].ID)
}

func TestPredictGuardsAndInvalidates(t *testing.T) {
	ended := activePrediction(2)
	ended.EndTime = time.Now().Unix() - 60

	paused := activePrediction(3)
	paused.State = domain.StatePaused

	chain := newFakeChain(activePrediction(1), ended, paused)
	cache := newFakeCache()
	svc := NewMarketService(chain, cache, nil, testLogger())

	tx, err := svc.Predict(context.Background(), 1, "0xuser", true, 50)
	require.NoError(t, err)
	assert.Equal(t, "0xpredict", tx.Hash)
	assert.Contains(t, cache.invalidateCalls, uint64(1))

	_, err = svc.Predict(context.Background(), 2, "0xuser", true, 50)
	assert.ErrorIs(t, err, domain.ErrPredictionEnded)

	_, err = svc.Predict(context.Background(), 3, "0xuser", true, 50)
	assert.ErrorIs(t, err, domain.ErrPredictionNotActive)

	// Only the valid predict reached the chain.
	assert.Equal(t, []uint64{1}, chain.predicted)
}

func TestCreateMarketClearsCachedList(t *testing.T) {
	chain := newFakeChain(activePrediction(1))
	cache := newFakeCache()
	svc := NewMarketService(chain, cache, nil, testLogger())

	// Warm the snapshot, then create a second market.
	_, err := svc.ListPredictions(context.Background())
	require.NoError(t, err)

	_, err = svc.CreateMarket(context.Background(), domain.CreatePredictionParams{Description: "new market"})
	require.NoError(t, err)
	assert.Equal(t, 1, cache.clearCalls)

	// The next list must refetch from the chain, not serve an empty
	// snapshot left behind by the create.
	chain.preds[2] = activePrediction(2)
	preds, err := svc.ListPredictions(context.Background())
	require.NoError(t, err)
	assert.Len(t, preds, 2)
}

func TestEstimatePayoutUsesCurrentPools(t *testing.T) {
	p := activePrediction(1)
	p.YesAmount = 400
	p.NoAmount = 600
	p.TotalAmount = 1000

	chain := newFakeChain(p)
	svc := NewMarketService(chain, newFakeCache(), nil, testLogger())

	// Reward pool 950 after the 5% fee; 100 of the 400-side yes pool.
	got, err := svc.EstimatePayout(context.Background(), 1, true, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(237), got)
}

func TestTagsReturnsSortedUniverse(t *testing.T) {
	chain := newFakeChain(
		activePrediction(1, "sports", "crypto"),
		activePrediction(2, "crypto", "politics"),
	)
	svc := NewMarketService(chain, newFakeCache(), nil, testLogger())

	tags, err := svc.Tags(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"crypto", "politics", "sports"}, tags)
}
