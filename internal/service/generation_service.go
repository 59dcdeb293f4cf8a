package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/alanyoungcy/hashpredict/internal/ai"
	"github.com/alanyoungcy/hashpredict/internal/domain"
	"github.com/alanyoungcy/hashpredict/internal/market"
)

// ProposalGenerator produces market candidates for a topic.
type ProposalGenerator interface {
	GenerateProposals(ctx context.Context, topic, currentData string) ([]domain.MarketProposal, error)
}

// GenerationService turns topics into stored market proposals and, on
// request, into on-chain markets.
type GenerationService struct {
	gen       ProposalGenerator
	web       ai.ContextProvider
	proposals domain.ProposalStore
	chain     domain.ChainClient
	logger    *slog.Logger
}

// NewGenerationService creates a GenerationService.
func NewGenerationService(
	gen ProposalGenerator,
	web ai.ContextProvider,
	proposals domain.ProposalStore,
	chain domain.ChainClient,
	logger *slog.Logger,
) *GenerationService {
	return &GenerationService{
		gen:       gen,
		web:       web,
		proposals: proposals,
		chain:     chain,
		logger:    logger,
	}
}

// Generate asks for fresh context on the topic, runs the generator, and
// stores the batch. Storage failures do not discard the generated proposals.
func (s *GenerationService) Generate(ctx context.Context, topic string) ([]domain.MarketProposal, error) {
	currentData, err := s.web.RecentContext(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("generation: fetch context for topic %q: %w", topic, err)
	}

	proposals, err := s.gen.GenerateProposals(ctx, topic, currentData)
	if err != nil {
		return nil, fmt.Errorf("generation: topic %q: %w", topic, err)
	}

	if s.proposals != nil {
		if err := s.proposals.InsertBatch(ctx, topic, proposals); err != nil {
			s.logger.WarnContext(ctx, "generation: store batch failed",
				slog.String("topic", topic),
				slog.String("error", err.Error()),
			)
		}
	}

	s.logger.InfoContext(ctx, "generation: proposals generated",
		slog.String("topic", topic),
		slog.Int("count", len(proposals)),
	)
	return proposals, nil
}

// ListStored returns earlier proposals for a topic.
func (s *GenerationService) ListStored(ctx context.Context, topic string, opts domain.ListOpts) ([]domain.MarketProposal, error) {
	if s.proposals == nil {
		return nil, nil
	}
	return s.proposals.ListByTopic(ctx, topic, opts)
}

// CreateFromProposal submits one proposal as a real market.
func (s *GenerationService) CreateFromProposal(ctx context.Context, p domain.MarketProposal) (domain.TxResult, error) {
	params := domain.CreatePredictionParams{
		Description:    p.Description,
		Duration:       p.Duration,
		Tags:           p.Tags,
		PredictionType: uint8(p.PredictionType),
		OptionsCount:   uint8(p.OptionsCount),
	}

	tx, err := s.chain.CreatePrediction(ctx, params)
	if err != nil {
		return domain.TxResult{}, fmt.Errorf("generation: create market %q: %w", p.Description, market.CategorizeChainError(err))
	}
	return tx, nil
}
