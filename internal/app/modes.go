package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/hashpredict/internal/pipeline"
	"github.com/alanyoungcy/hashpredict/internal/server"
	"github.com/alanyoungcy/hashpredict/internal/server/handler"
	"github.com/alanyoungcy/hashpredict/internal/server/ws"
	"github.com/alanyoungcy/hashpredict/internal/service"
)

// shutdownTimeout bounds graceful HTTP drain on context cancellation.
const shutdownTimeout = 10 * time.Second

// services bundles the domain services built for the serve and full modes.
type services struct {
	markets    *service.MarketService
	resolution *service.ResolutionService
	generation *service.GenerationService
	rewards    *service.RewardsService
}

// buildServices constructs the domain services from the wired dependencies.
func (a *App) buildServices(deps *Dependencies) *services {
	return &services{
		markets: service.NewMarketService(deps.Chain, deps.Cache, deps.Notifier, a.logger),
		resolution: service.NewResolutionService(
			deps.Chain,
			deps.Web,
			deps.Judge,
			deps.VerdictStore,
			deps.Pending,
			deps.Cache,
			deps.LockManager,
			deps.Archiver,
			deps.Notifier,
			service.ResolutionConfig{
				AutoSubmit:    a.cfg.Resolution.AutoSubmit,
				MinConfidence: a.cfg.Resolution.MinConfidence,
			},
			a.logger,
		),
		generation: service.NewGenerationService(
			deps.Generator, deps.Web, deps.ProposalStore, deps.Chain, a.logger,
		),
		rewards: service.NewRewardsService(
			deps.Chain,
			deps.ClaimStrategy,
			deps.RateLimiter,
			a.cfg.Rewards.DailyClaimWindow.Duration,
			deps.Notifier,
			a.logger,
		),
	}
}

// startHTTPServer builds the hub, handlers, and HTTP server, and adds their
// goroutines to the given errgroup. The server drains gracefully when the
// context is cancelled.
func (a *App) startHTTPServer(ctx context.Context, g *errgroup.Group, deps *Dependencies, svcs *services) *ws.Hub {
	hub := ws.NewHub(deps.Chain.Name(), a.logger)
	g.Go(func() error {
		return hub.Run(ctx)
	})

	handlers := server.Handlers{
		Health:      handler.NewHealthHandler(deps.Chain.Name(), a.logger),
		Predictions: handler.NewPredictionHandler(svcs.markets, a.logger),
		Resolution:  handler.NewResolutionHandler(svcs.resolution, a.logger),
		Generation:  handler.NewGenerationHandler(svcs.generation, a.logger),
		Rewards:     handler.NewRewardsHandler(svcs.rewards, a.logger),
	}

	srv := server.NewServer(server.Config{
		Port:        a.cfg.Server.Port,
		CORSOrigins: a.cfg.Server.CORSOrigins,
		AdminAPIKey: a.cfg.Server.AdminApiKey,
	}, handlers, hub, deps.RateLimiter, a.logger)

	g.Go(func() error {
		return srv.Start()
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return hub
}

// ServeMode runs the HTTP API and the WebSocket hub without the background
// poller. Snapshots refresh lazily through cache misses.
func (a *App) ServeMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting serve mode",
		slog.Int("port", a.cfg.Server.Port),
	)

	g, ctx := errgroup.WithContext(ctx)
	a.startHTTPServer(ctx, g, deps, a.buildServices(deps))
	return g.Wait()
}

// PollMode runs only the snapshot poller. There are no WebSocket clients, so
// cycles refresh the cache and fire expiry notifications.
func (a *App) PollMode(ctx context.Context, deps *Dependencies) error {
	if !a.cfg.Poller.Enabled {
		return fmt.Errorf("poll mode: poller is disabled in configuration")
	}

	a.logger.InfoContext(ctx, "starting poll mode",
		slog.Duration("interval", a.cfg.Poller.Interval.Duration),
	)

	poller := pipeline.NewPoller(deps.Chain, deps.Cache, nil, deps.Notifier, a.logger)
	return poller.RunLoop(ctx, a.cfg.Poller.Interval.Duration)
}

// ResolveMode finalizes a single prediction and exits. The target id comes
// from the command line. With auto-submit off the verdict is parked for a
// later execute call against a running server.
func (a *App) ResolveMode(ctx context.Context, deps *Dependencies) error {
	if a.resolveTarget == 0 {
		return fmt.Errorf("resolve mode: no prediction id given")
	}

	a.logger.InfoContext(ctx, "starting resolve mode",
		slog.Uint64("prediction_id", a.resolveTarget),
		slog.Bool("auto_submit", a.cfg.Resolution.AutoSubmit),
	)

	svcs := a.buildServices(deps)
	f, tx, err := svcs.resolution.Propose(ctx, a.resolveTarget)
	if err != nil {
		return fmt.Errorf("resolve mode: %w", err)
	}

	if tx != nil {
		a.logger.InfoContext(ctx, "prediction finalized",
			slog.Uint64("prediction_id", a.resolveTarget),
			slog.Int("outcome", f.Verdict.Outcome),
			slog.String("tx_hash", tx.Hash),
		)
		return nil
	}

	a.logger.InfoContext(ctx, "verdict parked for confirmation",
		slog.Uint64("prediction_id", a.resolveTarget),
		slog.Int("outcome", f.Verdict.Outcome),
		slog.Float64("confidence", f.Verdict.Confidence),
	)
	return nil
}

// FullMode runs the HTTP API, the WebSocket hub, and the snapshot poller in
// one process. The poller publishes through the hub so connected clients see
// every cycle.
func (a *App) FullMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting full mode",
		slog.Int("port", a.cfg.Server.Port),
		slog.Duration("poll_interval", a.cfg.Poller.Interval.Duration),
	)

	g, ctx := errgroup.WithContext(ctx)
	hub := a.startHTTPServer(ctx, g, deps, a.buildServices(deps))

	if a.cfg.Poller.Enabled {
		poller := pipeline.NewPoller(deps.Chain, deps.Cache, hub, deps.Notifier, a.logger)
		g.Go(func() error {
			return poller.RunLoop(ctx, a.cfg.Poller.Interval.Duration)
		})
	} else {
		a.logger.WarnContext(ctx, "full mode without poller, snapshots refresh lazily")
	}

	return g.Wait()
}
