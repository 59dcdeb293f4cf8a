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

// FinalizationStore implements domain.FinalizationStore. Proposed verdicts
// live under finalize:{predictionID} and expire after the configured TTL, so
// a proposal that is never confirmed disappears on its own.
type FinalizationStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewFinalizationStore creates a FinalizationStore backed by the given Client.
func NewFinalizationStore(c *Client, ttl time.Duration) *FinalizationStore {
	return &FinalizationStore{rdb: c.Underlying(), ttl: ttl}
}

func finalizeKey(predictionID uint64) string {
	return "finalize:" + strconv.FormatUint(predictionID, 10)
}

// Put stores a pending finalization, replacing any earlier proposal for the
// same prediction.
func (fs *FinalizationStore) Put(ctx context.Context, f domain.PendingFinalization) error {
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("redis: marshal finalization %d: %w", f.PredictionID, err)
	}
	if err := fs.rdb.Set(ctx, finalizeKey(f.PredictionID), data, fs.ttl).Err(); err != nil {
		return fmt.Errorf("redis: put finalization %d: %w", f.PredictionID, err)
	}
	return nil
}

// Get retrieves the pending finalization for a prediction.
// It returns domain.ErrNotFound when none exists or it has expired.
func (fs *FinalizationStore) Get(ctx context.Context, predictionID uint64) (domain.PendingFinalization, error) {
	data, err := fs.rdb.Get(ctx, finalizeKey(predictionID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.PendingFinalization{}, domain.ErrNotFound
		}
		return domain.PendingFinalization{}, fmt.Errorf("redis: get finalization %d: %w", predictionID, err)
	}

	var f domain.PendingFinalization
	if err := json.Unmarshal(data, &f); err != nil {
		return domain.PendingFinalization{}, fmt.Errorf("redis: unmarshal finalization %d: %w", predictionID, err)
	}
	return f, nil
}

// Delete removes the pending finalization after it has been confirmed or
// discarded.
func (fs *FinalizationStore) Delete(ctx context.Context, predictionID uint64) error {
	if err := fs.rdb.Del(ctx, finalizeKey(predictionID)).Err(); err != nil {
		return fmt.Errorf("redis: delete finalization %d: %w", predictionID, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.FinalizationStore = (*FinalizationStore)(nil)
