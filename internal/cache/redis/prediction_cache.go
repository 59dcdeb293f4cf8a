package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

const predictionTTL = 5 * time.Minute

// PredictionCache implements domain.PredictionCache with JSON-serialized
// snapshots.
//
// Key schema:
//
//	predictions:all  - JSON array of every prediction, one refresh unit
//	prediction:{id}  - JSON of a single prediction for point reads
type PredictionCache struct {
	rdb *redis.Client
}

// NewPredictionCache creates a PredictionCache backed by the given Client.
func NewPredictionCache(c *Client) *PredictionCache {
	return &PredictionCache{rdb: c.Underlying()}
}

const allKey = "predictions:all"

func predictionKey(id uint64) string {
	return "prediction:" + strconv.FormatUint(id, 10)
}

// SetAll replaces the full snapshot and the per-id entries in one pipeline.
// The poller calls this after each successful chain refresh.
func (pc *PredictionCache) SetAll(ctx context.Context, preds []domain.Prediction) error {
	all, err := json.Marshal(preds)
	if err != nil {
		return fmt.Errorf("redis: marshal predictions: %w", err)
	}

	pipe := pc.rdb.TxPipeline()
	pipe.Set(ctx, allKey, all, predictionTTL)
	for _, p := range preds {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("redis: marshal prediction %d: %w", p.ID, err)
		}
		pipe.Set(ctx, predictionKey(p.ID), data, predictionTTL)
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set predictions: %w", err)
	}
	return nil
}

// GetAll returns the cached full snapshot.
// It returns domain.ErrNotFound when no snapshot has been cached yet.
func (pc *PredictionCache) GetAll(ctx context.Context) ([]domain.Prediction, error) {
	data, err := pc.rdb.Get(ctx, allKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("redis: get predictions: %w", err)
	}

	var preds []domain.Prediction
	if err := json.Unmarshal(data, &preds); err != nil {
		return nil, fmt.Errorf("redis: unmarshal predictions: %w", err)
	}
	return preds, nil
}

// Get retrieves one prediction by id.
// It returns domain.ErrNotFound when the key does not exist.
func (pc *PredictionCache) Get(ctx context.Context, id uint64) (domain.Prediction, error) {
	data, err := pc.rdb.Get(ctx, predictionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Prediction{}, domain.ErrNotFound
		}
		return domain.Prediction{}, fmt.Errorf("redis: get prediction %d: %w", id, err)
	}

	var p domain.Prediction
	if err := json.Unmarshal(data, &p); err != nil {
		return domain.Prediction{}, fmt.Errorf("redis: unmarshal prediction %d: %w", id, err)
	}
	return p, nil
}

// Invalidate removes one prediction and the full snapshot. The next read
// falls through to the chain.
func (pc *PredictionCache) Invalidate(ctx context.Context, id uint64) error {
	pipe := pc.rdb.TxPipeline()
	pipe.Del(ctx, predictionKey(id))
	pipe.Del(ctx, allKey)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: invalidate prediction %d: %w", id, err)
	}
	return nil
}

// Clear deletes the full snapshot key. Creating a market changes the list
// without going through the poller, so the stale snapshot must go rather
// than be overwritten with an empty one.
func (pc *PredictionCache) Clear(ctx context.Context) error {
	if err := pc.rdb.Del(ctx, allKey).Err(); err != nil {
		return fmt.Errorf("redis: clear predictions: %w", err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.PredictionCache = (*PredictionCache)(nil)
