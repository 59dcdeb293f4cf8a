package handler

import (
	"context"
	"log/slog"

	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

// stubPredictions implements PredictionService with canned responses.
type stubPredictions struct {
	preds    []domain.Prediction
	position domain.UserPrediction
	payout   uint64
	tx       domain.TxResult
	err      error

	predicted    []uint64
	filteredWith struct {
		tags   []string
		status market.Status
	}
}

func (s *stubPredictions) ListPredictions(context.Context) ([]domain.Prediction, error) {
	return s.preds, s.err
}

func (s *stubPredictions) ListFiltered(_ context.Context, tags []string, status market.Status) ([]domain.Prediction, error) {
	s.filteredWith.tags = tags
	s.filteredWith.status = status
	return s.preds, s.err
}

func (s *stubPredictions) GetPrediction(_ context.Context, id uint64) (domain.Prediction, error) {
	for _, p := range s.preds {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Prediction{}, domain.ErrNotFound
}

func (s *stubPredictions) Tags(context.Context) ([]string, error) {
	return []string{"crypto", "sports"}, s.err
}

func (s *stubPredictions) Buckets(context.Context) (map[market.Status][]domain.Prediction, error) {
	return map[market.Status][]domain.Prediction{market.StatusActive: s.preds}, s.err
}

func (s *stubPredictions) GetUserPrediction(context.Context, uint64, string) (domain.UserPrediction, error) {
	return s.position, s.err
}

func (s *stubPredictions) EstimatePayout(context.Context, uint64, bool, uint64) (uint64, error) {
	return s.payout, s.err
}

func (s *stubPredictions) Predict(_ context.Context, id uint64, _ string, _ bool, _ uint64) (domain.TxResult, error) {
	if s.err != nil {
		return domain.TxResult{}, s.err
	}
	s.predicted = append(s.predicted, id)
	return s.tx, nil
}

func (s *stubPredictions) CreateMarket(context.Context, domain.CreatePredictionParams) (domain.TxResult, error) {
	return s.tx, s.err
}

func (s *stubPredictions) PauseMarket(context.Context, uint64) (domain.TxResult, error) {
	return s.tx, s.err
}

func (s *stubPredictions) MarketState(context.Context) (domain.MarketStateInfo, error) {
	return domain.MarketStateInfo{Admin: "0xadmin", NextPredictionID: 5}, s.err
}

// stubResolution implements ResolutionService.
type stubResolution struct {
	parked   domain.PendingFinalization
	autoTx   *domain.TxResult
	tx       domain.TxResult
	err      error
	executed []uint64
	chosen   *int
}

func (s *stubResolution) Propose(context.Context, uint64) (domain.PendingFinalization, *domain.TxResult, error) {
	return s.parked, s.autoTx, s.err
}

func (s *stubResolution) Execute(_ context.Context, id uint64, outcome *int) (domain.TxResult, error) {
	if s.err != nil {
		return domain.TxResult{}, s.err
	}
	s.executed = append(s.executed, id)
	s.chosen = outcome
	return s.tx, nil
}

func (s *stubResolution) Pending(context.Context, uint64) (domain.PendingFinalization, error) {
	return s.parked, s.err
}

func (s *stubResolution) Discard(context.Context, uint64) error {
	return s.err
}

func (s *stubResolution) History(context.Context, uint64, domain.ListOpts) ([]domain.VerdictRecord, error) {
	return nil, s.err
}

// stubGenerator implements GenerationService.
type stubGenerator struct {
	proposals []domain.MarketProposal
	tx        domain.TxResult
	err       error
	topics    []string
}

func (s *stubGenerator) Generate(_ context.Context, topic string) ([]domain.MarketProposal, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.topics = append(s.topics, topic)
	return s.proposals, nil
}

func (s *stubGenerator) ListStored(context.Context, string, domain.ListOpts) ([]domain.MarketProposal, error) {
	return s.proposals, s.err
}

func (s *stubGenerator) CreateFromProposal(context.Context, domain.MarketProposal) (domain.TxResult, error) {
	return s.tx, s.err
}

// stubRewards implements RewardsService.
type stubRewards struct {
	claims   []domain.PendingClaim
	info     domain.DailyClaimInfo
	refs     []string
	tx       domain.TxResult
	err      error
	claimed  []string
	approved []string
}

func (s *stubRewards) StrategyName() string { return "direct" }

func (s *stubRewards) Claim(_ context.Context, _ uint64, user string) (domain.TxResult, error) {
	if s.err != nil {
		return domain.TxResult{}, s.err
	}
	s.claimed = append(s.claimed, user)
	return s.tx, nil
}

func (s *stubRewards) Approve(_ context.Context, _ uint64, user string) (domain.TxResult, error) {
	if s.err != nil {
		return domain.TxResult{}, s.err
	}
	s.approved = append(s.approved, user)
	return s.tx, nil
}

func (s *stubRewards) PrepareClaims(context.Context, uint64) error { return s.err }

func (s *stubRewards) PendingClaims(context.Context, uint64) ([]domain.PendingClaim, error) {
	return s.claims, s.err
}

func (s *stubRewards) DailyClaim(_ context.Context, user string) (domain.TxResult, error) {
	if s.err != nil {
		return domain.TxResult{}, s.err
	}
	s.claimed = append(s.claimed, user)
	return s.tx, nil
}

func (s *stubRewards) DailyClaimInfo(context.Context, string) (domain.DailyClaimInfo, error) {
	return s.info, s.err
}

func (s *stubRewards) Referrals(context.Context, string) ([]string, error) {
	return s.refs, s.err
}

func (s *stubRewards) UseReferralCode(context.Context, string, string) (domain.TxResult, error) {
	return s.tx, s.err
}
