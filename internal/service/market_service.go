package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
	"github.com/alanyoungcy/hashpredict/internal/notify"
)

// MarketService serves prediction reads through the cache and relays market
// writes to the chain.
type MarketService struct {
	chain    domain.ChainClient
	cache    domain.PredictionCache
	notifier *notify.Notifier
	logger   *slog.Logger
}

// NewMarketService creates a MarketService with all required dependencies.
func NewMarketService(
	chain domain.ChainClient,
	cache domain.PredictionCache,
	notifier *notify.Notifier,
	logger *slog.Logger,
) *MarketService {
	return &MarketService{
		chain:    chain,
		cache:    cache,
		notifier: notifier,
		logger:   logger,
	}
}

// ListPredictions returns every prediction, preferring the cached snapshot
// and falling back to a full chain fetch on a miss. Accounts that fail
// snapshot validation are dropped rather than served.
func (s *MarketService) ListPredictions(ctx context.Context) ([]domain.Prediction, error) {
	if preds, err := s.cache.GetAll(ctx); err == nil {
		return preds, nil
	} else if !errors.Is(err, domain.ErrNotFound) {
		s.logger.WarnContext(ctx, "market_service: cache read failed",
			slog.String("error", err.Error()),
		)
	}

	fetched, err := s.chain.FetchPredictions(ctx)
	if err != nil {
		return nil, fmt.Errorf("market_service: fetch predictions: %w", err)
	}

	preds := make([]domain.Prediction, 0, len(fetched))
	for _, p := range fetched {
		if err := market.ValidateSnapshot(p); err != nil {
			s.logger.WarnContext(ctx, "market_service: dropping invalid snapshot",
				slog.Uint64("prediction_id", p.ID),
				slog.String("error", err.Error()),
			)
			continue
		}
		preds = append(preds, p)
	}

	if cacheErr := s.cache.SetAll(ctx, preds); cacheErr != nil {
		s.logger.WarnContext(ctx, "market_service: cache backfill failed",
			slog.String("error", cacheErr.Error()),
		)
	}

	return preds, nil
}

// GetPrediction retrieves one prediction, cache first.
func (s *MarketService) GetPrediction(ctx context.Context, id uint64) (domain.Prediction, error) {
	if p, err := s.cache.Get(ctx, id); err == nil {
		return p, nil
	}

	p, err := s.chain.FetchPrediction(ctx, id)
	if err != nil {
		return domain.Prediction{}, fmt.Errorf("market_service: fetch prediction %d: %w", id, market.CategorizeChainError(err))
	}
	if err := market.ValidateSnapshot(p); err != nil {
		return domain.Prediction{}, fmt.Errorf("market_service: prediction %d: %w", id, err)
	}
	return p, nil
}

// ListFiltered applies tag and status filters to the full snapshot. An empty
// tag selection means no tag filtering; an empty status means no status
// filtering.
func (s *MarketService) ListFiltered(ctx context.Context, tags []string, status market.Status) ([]domain.Prediction, error) {
	preds, err := s.ListPredictions(ctx)
	if err != nil {
		return nil, err
	}

	preds = market.FilterByTags(preds, tags)
	if status != "" {
		preds = market.FilterByStatus(preds, status, time.Now().Unix())
	}
	return preds, nil
}

// Tags returns the sorted tag universe over all predictions.
func (s *MarketService) Tags(ctx context.Context) ([]string, error) {
	preds, err := s.ListPredictions(ctx)
	if err != nil {
		return nil, err
	}
	return market.TagUniverse(preds), nil
}

// Buckets groups all predictions by derived status.
func (s *MarketService) Buckets(ctx context.Context) (map[market.Status][]domain.Prediction, error) {
	preds, err := s.ListPredictions(ctx)
	if err != nil {
		return nil, err
	}
	return market.Bucketize(preds, time.Now().Unix()), nil
}

// GetUserPrediction returns one user's position on a prediction.
func (s *MarketService) GetUserPrediction(ctx context.Context, id uint64, user string) (domain.UserPrediction, error) {
	up, err := s.chain.FetchUserPrediction(ctx, id, user)
	if err != nil {
		return domain.UserPrediction{}, fmt.Errorf("market_service: fetch position %d/%s: %w", id, user, market.CategorizeChainError(err))
	}
	return up, nil
}

// EstimatePayout computes the would-be payout for a hypothetical stake using
// the current pools. Purely informational; the program recomputes at claim
// time.
func (s *MarketService) EstimatePayout(ctx context.Context, id uint64, verdict bool, amount uint64) (uint64, error) {
	p, err := s.GetPrediction(ctx, id)
	if err != nil {
		return 0, err
	}
	return market.EstimatePayoutFor(p, verdict, amount), nil
}

// Predict relays a stake onto the chain after local guards pass.
func (s *MarketService) Predict(ctx context.Context, id uint64, user string, verdict bool, amount uint64) (domain.TxResult, error) {
	p, err := s.GetPrediction(ctx, id)
	if err != nil {
		return domain.TxResult{}, err
	}

	now := time.Now().Unix()
	if !market.CanPredict(p, now) {
		if p.State != domain.StateActive {
			return domain.TxResult{}, fmt.Errorf("market_service: predict %d: %w", id, domain.ErrPredictionNotActive)
		}
		return domain.TxResult{}, fmt.Errorf("market_service: predict %d: %w", id, domain.ErrPredictionEnded)
	}

	tx, err := s.chain.Predict(ctx, id, user, verdict, amount)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("market_service: predict %d: %w", id, market.CategorizeChainError(err))
	}

	s.invalidate(ctx, id)

	s.logger.InfoContext(ctx, "market_service: prediction placed",
		slog.Uint64("prediction_id", id),
		slog.String("user", user),
		slog.Bool("verdict", verdict),
		slog.Uint64("amount", amount),
		slog.String("tx", tx.Hash),
	)
	return tx, nil
}

// CreateMarket submits a new prediction to the chain.
func (s *MarketService) CreateMarket(ctx context.Context, params domain.CreatePredictionParams) (domain.TxResult, error) {
	tx, err := s.chain.CreatePrediction(ctx, params)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("market_service: create market: %w", market.CategorizeChainError(err))
	}

	// A new market changes the snapshot; drop the cached list so the next
	// read refetches instead of serving an empty one.
	if cacheErr := s.cache.Clear(ctx); cacheErr != nil {
		s.logger.WarnContext(ctx, "market_service: cache reset failed",
			slog.String("error", cacheErr.Error()),
		)
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, notify.EventMarketCreated,
			"Market created",
			fmt.Sprintf("%s (tx %s)", params.Description, tx.Hash),
		)
	}
	return tx, nil
}

// PauseMarket pauses an active prediction.
func (s *MarketService) PauseMarket(ctx context.Context, id uint64) (domain.TxResult, error) {
	tx, err := s.chain.PausePrediction(ctx, id)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("market_service: pause %d: %w", id, market.CategorizeChainError(err))
	}
	s.invalidate(ctx, id)
	return tx, nil
}

// MarketState returns the singleton deployment state.
func (s *MarketService) MarketState(ctx context.Context) (domain.MarketStateInfo, error) {
	info, err := s.chain.FetchMarketState(ctx)
	if err != nil {
		return domain.MarketStateInfo{}, fmt.Errorf("market_service: fetch market state: %w", err)
	}
	return info, nil
}

func (s *MarketService) invalidate(ctx context.Context, id uint64) {
	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "market_service: cache invalidate failed",
			slog.Uint64("prediction_id", id),
			slog.String("error", err.Error()),
		)
	}
}
