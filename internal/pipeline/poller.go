// Package pipeline runs the snapshot poller: the full-refetch loop that keeps
// the cache, the WebSocket hub, and notifications in sync with the chain.
// Polling is the consistency baseline; everything downstream is recomputed
// from each full snapshot rather than incrementally patched.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
	"github.com/alanyoungcy/hashpredict/internal/notify"
)

// SnapshotBroadcaster fans a poll cycle's results out to connected clients.
type SnapshotBroadcaster interface {
	BroadcastSnapshot(preds []domain.Prediction)
	BroadcastPrediction(p domain.Prediction)
}

// Poller refetches every prediction on an interval, validates the snapshots,
// refreshes the cache, and broadcasts what changed. Both the broadcaster and
// the notifier may be nil.
type Poller struct {
	chain    domain.ChainClient
	cache    domain.PredictionCache
	hub      SnapshotBroadcaster
	notifier *notify.Notifier
	logger   *slog.Logger

	// prev holds the previous cycle's derived status per prediction so
	// Active-to-Expired transitions fire exactly one notification.
	prev map[uint64]market.Status
}

// NewPoller creates a Poller.
func NewPoller(
	chain domain.ChainClient,
	cache domain.PredictionCache,
	hub SnapshotBroadcaster,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		chain:    chain,
		cache:    cache,
		hub:      hub,
		notifier: notifier,
		logger:   logger,
		prev:     make(map[uint64]market.Status),
	}
}

// Run executes a single poll cycle.
func (p *Poller) Run(ctx context.Context) error {
	fetched, err := p.chain.FetchPredictions(ctx)
	if err != nil {
		return fmt.Errorf("pipeline: fetch predictions: %w", err)
	}

	preds := make([]domain.Prediction, 0, len(fetched))
	for _, pred := range fetched {
		if err := market.ValidateSnapshot(pred); err != nil {
			p.logger.WarnContext(ctx, "pipeline: dropping invalid snapshot",
				slog.Uint64("prediction_id", pred.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		preds = append(preds, pred)
	}

	if err := p.cache.SetAll(ctx, preds); err != nil {
		p.logger.WarnContext(ctx, "pipeline: cache refresh failed",
			slog.String("error", err.Error()),
		)
	}

	now := time.Now().Unix()
	next := make(map[uint64]market.Status, len(preds))
	var changed int

	for _, pred := range preds {
		status := market.StatusOf(pred, now)
		next[pred.ID] = status

		before, seen := p.prev[pred.ID]
		if !seen || before != status {
			changed++
			if p.hub != nil {
				p.hub.BroadcastPrediction(pred)
			}
		}

		if seen && before == market.StatusActive && status == market.StatusExpired {
			p.notifyExpired(ctx, pred)
		}
	}

	if p.hub != nil {
		p.hub.BroadcastSnapshot(preds)
	}
	p.prev = next

	p.logger.InfoContext(ctx, "pipeline: poll cycle complete",
		slog.Int("predictions", len(preds)),
		slog.Int("status_changes", changed),
	)
	return nil
}

// RunLoop runs the poller on a repeating interval until the context is
// cancelled. A failed cycle is logged and retried on the next tick.
func (p *Poller) RunLoop(ctx context.Context, interval time.Duration) error {
	// Run immediately on start.
	if err := p.Run(ctx); err != nil {
		p.logger.Error("pipeline: poll cycle failed", slog.String("error", err.Error()))
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("pipeline: poller stopped")
			return ctx.Err()
		case <-ticker.C:
			if err := p.Run(ctx); err != nil {
				p.logger.Error("pipeline: poll cycle failed", slog.String("error", err.Error()))
			}
		}
	}
}

func (p *Poller) notifyExpired(ctx context.Context, pred domain.Prediction) {
	if p.notifier == nil {
		return
	}
	err := p.notifier.Notify(ctx, notify.EventMarketExpired,
		"Market expired",
		fmt.Sprintf("Prediction %d ended and awaits resolution: %s", pred.ID, pred.Description),
	)
	if err != nil {
		p.logger.WarnContext(ctx, "pipeline: expiry notification failed",
			slog.Uint64("prediction_id", pred.ID),
			slog.String("error", err.Error()),
		)
	}
}
