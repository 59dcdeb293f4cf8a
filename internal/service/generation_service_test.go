package service

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// staticGenerator returns a fixed proposal batch or error and records the
// context it was handed.
type staticGenerator struct {
	proposals []domain.MarketProposal
	err       error
	calls     int
	lastData  string
}

func (g *staticGenerator) GenerateProposals(_ context.Context, _, currentData string) ([]domain.MarketProposal, error) {
	g.calls++
	g.lastData = currentData
	return g.proposals, g.err
}

// memProposals is an in-memory domain.ProposalStore.
type memProposals struct {
	mu      sync.Mutex
	byTopic map[string][]domain.MarketProposal
}

func newMemProposals() *memProposals {
	return &memProposals{byTopic: make(map[string][]domain.MarketProposal)}
}

func (s *memProposals) InsertBatch(_ context.Context, topic string, proposals []domain.MarketProposal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byTopic[topic] = append(s.byTopic[topic], proposals...)
	return nil
}

func (s *memProposals) ListByTopic(_ context.Context, topic string, _ domain.ListOpts) ([]domain.MarketProposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.byTopic[topic], nil
}

func TestGenerateStoresProposalsWithContext(t *testing.T) {
	gen := &staticGenerator{proposals: []domain.MarketProposal{
		{Description: "Will ETH flip BTC this quarter?", Duration: 86400, Tags: []string{"crypto"}},
	}}
	store := newMemProposals()
	svc := NewGenerationService(gen, &staticContext{data: "latest market data"}, store, newFakeChain(), testLogger())

	got, err := svc.Generate(context.Background(), "crypto")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "latest market data", gen.lastData)

	stored, err := store.ListByTopic(context.Background(), "crypto", domain.ListOpts{})
	require.NoError(t, err)
	assert.Len(t, stored, 1)
}

func TestGenerateAbortsWhenContextRetrievalFails(t *testing.T) {
	gen := &staticGenerator{proposals: []domain.MarketProposal{{Description: "unused"}}}
	store := newMemProposals()
	svc := NewGenerationService(gen, &staticContext{err: errors.New("perplexity: status 502")}, store, newFakeChain(), testLogger())

	_, err := svc.Generate(context.Background(), "sports")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch context")

	// The generator never ran and nothing was stored.
	assert.Zero(t, gen.calls)
	stored, err := store.ListByTopic(context.Background(), "sports", domain.ListOpts{})
	require.NoError(t, err)
	assert.Empty(t, stored)
}
