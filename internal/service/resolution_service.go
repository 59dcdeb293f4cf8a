package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alanyoungcy/hashpredict/internal/ai"
	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
	"github.com/alanyoungcy/hashpredict/internal/notify"
)

// proposeLockTTL bounds how long one worker can hold a prediction's
// resolution lock.
const proposeLockTTL = 2 * time.Minute

// OutcomeJudge produces a verdict for a market description given current
// factual context.
type OutcomeJudge interface {
	DetermineOutcome(ctx context.Context, description, currentData string) (domain.Verdict, error)
}

// TranscriptArchiver persists the full record of a proposed resolution.
type TranscriptArchiver interface {
	Archive(ctx context.Context, f domain.PendingFinalization) error
}

// ResolutionService runs the two-step resolve flow: Propose gathers context,
// asks the judge, and parks the verdict; Execute submits an explicitly
// confirmed outcome to the chain. The judge's output on its own never moves
// chain state unless auto-submit is switched on.
type ResolutionService struct {
	chain         domain.ChainClient
	web           ai.ContextProvider
	judge         OutcomeJudge
	verdicts      domain.VerdictStore
	pending       domain.FinalizationStore
	cache         domain.PredictionCache
	locks         domain.LockManager
	archiver      TranscriptArchiver
	notifier      *notify.Notifier
	autoSubmit    bool
	minConfidence float64
	logger        *slog.Logger
}

// ResolutionConfig carries the behavioural knobs for the service.
type ResolutionConfig struct {
	AutoSubmit    bool
	MinConfidence float64
}

// NewResolutionService creates a ResolutionService. The archiver and notifier
// may be nil; archival and notification then become no-ops.
func NewResolutionService(
	chain domain.ChainClient,
	web ai.ContextProvider,
	judge OutcomeJudge,
	verdicts domain.VerdictStore,
	pending domain.FinalizationStore,
	cache domain.PredictionCache,
	locks domain.LockManager,
	archiver TranscriptArchiver,
	notifier *notify.Notifier,
	cfg ResolutionConfig,
	logger *slog.Logger,
) *ResolutionService {
	return &ResolutionService{
		chain:         chain,
		web:           web,
		judge:         judge,
		verdicts:      verdicts,
		pending:       pending,
		cache:         cache,
		locks:         locks,
		archiver:      archiver,
		notifier:      notifier,
		autoSubmit:    cfg.AutoSubmit,
		minConfidence: cfg.MinConfidence,
		logger:        logger,
	}
}

// Propose runs the AI pipeline for one ended prediction and parks the result
// for confirmation. A second Propose for the same prediction replaces the
// earlier pending entry. With auto-submit on, Propose executes immediately
// after parking and the returned TxResult carries the submission hash;
// otherwise the TxResult is nil.
func (s *ResolutionService) Propose(ctx context.Context, id uint64) (domain.PendingFinalization, *domain.TxResult, error) {
	unlock, err := s.locks.Acquire(ctx, fmt.Sprintf("resolve:%d", id), proposeLockTTL)
	if err != nil {
		if errors.Is(err, domain.ErrLockHeld) {
			return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: prediction %d already being resolved: %w", id, err)
		}
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: lock %d: %w", id, err)
	}
	defer unlock()

	p, err := s.chain.FetchPrediction(ctx, id)
	if err != nil {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: fetch prediction %d: %w", id, market.CategorizeChainError(err))
	}

	now := time.Now().Unix()
	if p.State == domain.StateResolved {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: prediction %d: %w", id, domain.ErrAlreadyResolved)
	}
	if !market.CanResolve(p, now) {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: prediction %d: %w", id, domain.ErrPredictionNotEnded)
	}

	// A verdict is only as good as the facts behind it. No context, no
	// judgment, no transaction.
	currentData, err := s.web.RecentContext(ctx, p.Description)
	if err != nil {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: fetch context for %d: %w", id, err)
	}

	verdict, err := s.judge.DetermineOutcome(ctx, p.Description, currentData)
	if err != nil {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: judge prediction %d: %w", id, err)
	}

	if verdict.Confidence < s.minConfidence {
		s.logger.WarnContext(ctx, "resolution: low-confidence verdict",
			slog.Uint64("prediction_id", id),
			slog.Float64("confidence", verdict.Confidence),
			slog.Float64("min", s.minConfidence),
		)
	}

	recID, err := s.verdicts.Insert(ctx, domain.VerdictRecord{
		PredictionID: id,
		Outcome:      verdict.Outcome,
		Confidence:   verdict.Confidence,
		Explanation:  verdict.Explanation,
	})
	if err != nil {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: record verdict for %d: %w", id, err)
	}

	f := domain.PendingFinalization{
		ID:              uuid.NewString(),
		PredictionID:    id,
		Description:     p.Description,
		Context:         currentData,
		Verdict:         verdict,
		CreatedAt:       time.Now().UTC(),
		VerdictRecordID: recID,
	}

	if err := s.pending.Put(ctx, f); err != nil {
		return domain.PendingFinalization{}, nil, fmt.Errorf("resolution: park verdict for %d: %w", id, err)
	}

	if s.archiver != nil {
		if err := s.archiver.Archive(ctx, f); err != nil {
			s.logger.WarnContext(ctx, "resolution: transcript archive failed",
				slog.Uint64("prediction_id", id),
				slog.String("error", err.Error()),
			)
		}
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, notify.EventResolutionProposed,
			"Resolution proposed",
			fmt.Sprintf("Prediction %d: outcome %d (confidence %.2f)", id, verdict.Outcome, verdict.Confidence),
		)
	}

	s.logger.InfoContext(ctx, "resolution: proposed",
		slog.Uint64("prediction_id", id),
		slog.Int("outcome", verdict.Outcome),
		slog.Float64("confidence", verdict.Confidence),
	)

	if s.autoSubmit {
		tx, err := s.Execute(ctx, id, nil)
		if err != nil {
			return f, nil, fmt.Errorf("resolution: auto-submit %d: %w", id, err)
		}
		return f, &tx, nil
	}

	return f, nil, nil
}

// Execute submits a resolution for a previously proposed prediction. When
// outcome is nil the proposed verdict's outcome is used; a non-nil outcome
// overrides it (admin disagreement). Either way the submission is an
// explicit, separate transaction from the proposal.
func (s *ResolutionService) Execute(ctx context.Context, id uint64, outcome *int) (domain.TxResult, error) {
	f, err := s.pending.Get(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.TxResult{}, fmt.Errorf("resolution: prediction %d has no pending proposal: %w", id, err)
		}
		return domain.TxResult{}, fmt.Errorf("resolution: load proposal for %d: %w", id, err)
	}

	chosen := f.Verdict.Outcome
	if outcome != nil {
		chosen = *outcome
	}

	var result domain.PredictionResult
	switch chosen {
	case 0:
		result = domain.ResultFalse
	case 1:
		result = domain.ResultTrue
	default:
		return domain.TxResult{}, fmt.Errorf("resolution: invalid outcome %d for prediction %d", chosen, id)
	}

	tx, err := s.chain.ResolvePrediction(ctx, id, result)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("resolution: submit %d: %w", id, market.CategorizeChainError(err))
	}

	if err := s.verdicts.MarkSubmitted(ctx, f.VerdictRecordID, tx.Hash); err != nil {
		s.logger.WarnContext(ctx, "resolution: mark submitted failed",
			slog.Int64("verdict_id", f.VerdictRecordID),
			slog.String("error", err.Error()),
		)
	}

	if err := s.pending.Delete(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "resolution: pending cleanup failed",
			slog.Uint64("prediction_id", id),
			slog.String("error", err.Error()),
		)
	}

	if err := s.cache.Invalidate(ctx, id); err != nil {
		s.logger.WarnContext(ctx, "resolution: cache invalidate failed",
			slog.Uint64("prediction_id", id),
			slog.String("error", err.Error()),
		)
	}

	if s.notifier != nil {
		_ = s.notifier.Notify(ctx, notify.EventResolutionSubmitted,
			"Resolution submitted",
			fmt.Sprintf("Prediction %d resolved %s (tx %s)", id, result, tx.Hash),
		)
	}

	s.logger.InfoContext(ctx, "resolution: submitted",
		slog.Uint64("prediction_id", id),
		slog.String("result", string(result)),
		slog.String("tx", tx.Hash),
	)
	return tx, nil
}

// Pending returns the parked proposal for a prediction, if any.
func (s *ResolutionService) Pending(ctx context.Context, id uint64) (domain.PendingFinalization, error) {
	return s.pending.Get(ctx, id)
}

// Discard drops a parked proposal without touching the chain.
func (s *ResolutionService) Discard(ctx context.Context, id uint64) error {
	return s.pending.Delete(ctx, id)
}

// History returns the verdict audit trail for a prediction.
func (s *ResolutionService) History(ctx context.Context, id uint64, opts domain.ListOpts) ([]domain.VerdictRecord, error) {
	return s.verdicts.ListByPrediction(ctx, id, opts)
}
