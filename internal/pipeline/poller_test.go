package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

type pollChain struct {
	domain.ChainClient
	mu    sync.Mutex
	preds []domain.Prediction
}

func (c *pollChain) FetchPredictions(context.Context) ([]domain.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]domain.Prediction, len(c.preds))
	copy(out, c.preds)
	return out, nil
}

func (c *pollChain) set(preds []domain.Prediction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.preds = preds
}

type pollCache struct {
	mu      sync.Mutex
	setAlls [][]domain.Prediction
}

func (c *pollCache) SetAll(_ context.Context, preds []domain.Prediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setAlls = append(c.setAlls, preds)
	return nil
}

func (c *pollCache) GetAll(context.Context) ([]domain.Prediction, error) {
	return nil, domain.ErrNotFound
}

func (c *pollCache) Get(context.Context, uint64) (domain.Prediction, error) {
	return domain.Prediction{}, domain.ErrNotFound
}

func (c *pollCache) Invalidate(context.Context, uint64) error { return nil }

func (c *pollCache) Clear(context.Context) error { return nil }

type pollHub struct {
	mu        sync.Mutex
	snapshots int
	changed   []uint64
}

func (h *pollHub) BroadcastSnapshot([]domain.Prediction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.snapshots++
}

func (h *pollHub) BroadcastPrediction(p domain.Prediction) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.changed = append(h.changed, p.ID)
}

func freshPrediction(id uint64, endsAt int64) domain.Prediction {
	return domain.Prediction{
		ID:          id,
		Description: "test market",
		StartTime:   endsAt - 7200,
		EndTime:     endsAt,
		State:       domain.StateActive,
		YesVotes:    1,
		NoVotes:     1,
		TotalVotes:  2,
		YesAmount:   100,
		NoAmount:    100,
		TotalAmount: 200,
		Result:      domain.ResultUndefined,
	}
}

func TestPollerRefreshesCacheAndBroadcasts(t *testing.T) {
	now := time.Now().Unix()
	chain := &pollChain{preds: []domain.Prediction{
		freshPrediction(1, now+3600),
		freshPrediction(2, now+3600),
	}}
	cache := &pollCache{}
	hub := &pollHub{}
	p := NewPoller(chain, cache, hub, nil, slog.New(slog.DiscardHandler))

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, cache.setAlls, 1)
	assert.Len(t, cache.setAlls[0], 2)
	assert.Equal(t, 1, hub.snapshots)
	// Every prediction is new on the first cycle.
	assert.ElementsMatch(t, []uint64{1, 2}, hub.changed)

	// A second cycle with no changes broadcasts the snapshot only.
	hub.changed = nil
	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, hub.changed)
	assert.Equal(t, 2, hub.snapshots)
}

func TestPollerDropsInvalidSnapshots(t *testing.T) {
	now := time.Now().Unix()
	good := freshPrediction(1, now+3600)
	bad := freshPrediction(2, now+3600)
	bad.TotalVotes = 99 // does not match YesVotes + NoVotes

	chain := &pollChain{preds: []domain.Prediction{good, bad}}
	cache := &pollCache{}
	p := NewPoller(chain, cache, nil, nil, slog.New(slog.DiscardHandler))

	require.NoError(t, p.Run(context.Background()))

	require.Len(t, cache.setAlls, 1)
	require.Len(t, cache.setAlls[0], 1)
	assert.Equal(t, uint64(1), cache.setAlls[0][0].ID)
}

func TestPollerBroadcastsStatusTransition(t *testing.T) {
	now := time.Now().Unix()
	chain := &pollChain{preds: []domain.Prediction{freshPrediction(7, now+3600)}}
	hub := &pollHub{}
	p := NewPoller(chain, &pollCache{}, hub, nil, slog.New(slog.DiscardHandler))

	require.NoError(t, p.Run(context.Background()))
	hub.changed = nil

	// The market crosses its end time between cycles.
	chain.set([]domain.Prediction{freshPrediction(7, now-1)})
	require.NoError(t, p.Run(context.Background()))

	assert.Equal(t, []uint64{7}, hub.changed)
}
