package service

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func endedPrediction(id uint64) domain.Prediction {
	now := time.Now().Unix()
	return domain.Prediction{
		ID:          id,
		Description: "Will X happen?",
		StartTime:   now - 7200,
		EndTime:     now - 3600,
		State:       domain.StateActive,
		YesVotes:    3, NoVotes: 1, TotalVotes: 4,
		YesAmount: 300, NoAmount: 100, TotalAmount: 400,
		Result: domain.ResultUndefined,
	}
}

func newResolutionFixture(t *testing.T, chain *fakeChain, cfg ResolutionConfig) (*ResolutionService, *fakeVerdicts, *fakePending, *captureArchiver) {
	t.Helper()
	verdicts := newFakeVerdicts()
	pending := newFakePending()
	arch := &captureArchiver{}
	svc := NewResolutionService(
		chain,
		&staticContext{data: "recent facts"},
		&staticJudge{verdict: domain.Verdict{Outcome: 1, Confidence: 0.9, Explanation: "clearly yes"}},
		verdicts,
		pending,
		newFakeCache(),
		&fakeLocks{},
		arch,
		nil,
		cfg,
		testLogger(),
	)
	return svc, verdicts, pending, arch
}

func TestProposeParksVerdictWithoutTouchingChain(t *testing.T) {
	chain := newFakeChain(endedPrediction(7))
	svc, verdicts, pending, arch := newResolutionFixture(t, chain, ResolutionConfig{MinConfidence: 0.6})

	f, tx, err := svc.Propose(context.Background(), 7)
	require.Nil(t, tx)
	require.NoError(t, err)

	assert.NotEmpty(t, f.ID)
	assert.Equal(t, uint64(7), f.PredictionID)
	assert.Equal(t, 1, f.Verdict.Outcome)
	assert.Equal(t, "recent facts", f.Context)

	// No resolution reached the chain.
	assert.Empty(t, chain.resolved)

	// Verdict recorded but not submitted.
	recs, err := verdicts.ListByPrediction(context.Background(), 7, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.False(t, recs[0].Submitted)

	// Parked and archived.
	_, err = pending.Get(context.Background(), 7)
	require.NoError(t, err)
	require.Len(t, arch.archived, 1)
	assert.Equal(t, f.ID, arch.archived[0].ID)
}

func TestProposeRejectsUnendedAndResolved(t *testing.T) {
	now := time.Now().Unix()

	running := endedPrediction(1)
	running.EndTime = now + 3600

	resolved := endedPrediction(2)
	resolved.State = domain.StateResolved
	resolved.Result = domain.ResultTrue

	chain := newFakeChain(running, resolved)
	svc, _, _, _ := newResolutionFixture(t, chain, ResolutionConfig{})

	_, _, err := svc.Propose(context.Background(), 1)
	assert.ErrorIs(t, err, domain.ErrPredictionNotEnded)

	_, _, err = svc.Propose(context.Background(), 2)
	assert.ErrorIs(t, err, domain.ErrAlreadyResolved)
}

func TestProposeAbortsWhenContextRetrievalFails(t *testing.T) {
	chain := newFakeChain(endedPrediction(5))
	verdicts := newFakeVerdicts()
	pending := newFakePending()
	judge := &staticJudge{verdict: domain.Verdict{Outcome: 1, Confidence: 0.9}}
	svc := NewResolutionService(
		chain,
		&staticContext{err: errors.New("perplexity: status 502")},
		judge,
		verdicts,
		pending,
		newFakeCache(),
		&fakeLocks{},
		nil,
		nil,
		ResolutionConfig{},
		testLogger(),
	)

	_, tx, err := svc.Propose(context.Background(), 5)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetch context")
	assert.Nil(t, tx)

	// No judgment, no parked verdict, no chain write.
	assert.Zero(t, judge.calls)
	_, err = pending.Get(context.Background(), 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, chain.resolved)
}

func TestProposeRefusesWhenLockHeld(t *testing.T) {
	chain := newFakeChain(endedPrediction(3))
	svc, _, _, _ := newResolutionFixture(t, chain, ResolutionConfig{})
	svc.locks = &fakeLocks{deny: true}

	_, _, err := svc.Propose(context.Background(), 3)
	assert.ErrorIs(t, err, domain.ErrLockHeld)
}

func TestExecuteSubmitsProposedOutcome(t *testing.T) {
	chain := newFakeChain(endedPrediction(9))
	svc, verdicts, pending, _ := newResolutionFixture(t, chain, ResolutionConfig{})

	f, _, err := svc.Propose(context.Background(), 9)
	require.NoError(t, err)

	tx, err := svc.Execute(context.Background(), 9, nil)
	require.NoError(t, err)
	assert.Equal(t, "0xresolve", tx.Hash)
	assert.Equal(t, domain.ResultTrue, chain.resolved[9])

	// Audit record stamped, pending entry gone.
	recs, err := verdicts.ListByPrediction(context.Background(), 9, domain.ListOpts{})
	require.NoError(t, err)
	require.Len(t, recs, 1)
	assert.True(t, recs[0].Submitted)
	assert.Equal(t, "0xresolve", recs[0].TxHash)

	_, err = pending.Get(context.Background(), f.PredictionID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestExecuteHonoursAdminOverride(t *testing.T) {
	chain := newFakeChain(endedPrediction(10))
	svc, _, _, _ := newResolutionFixture(t, chain, ResolutionConfig{})

	_, _, err := svc.Propose(context.Background(), 10)
	require.NoError(t, err)

	override := 0
	_, err = svc.Execute(context.Background(), 10, &override)
	require.NoError(t, err)
	assert.Equal(t, domain.ResultFalse, chain.resolved[10])
}

func TestExecuteWithoutProposalFails(t *testing.T) {
	chain := newFakeChain(endedPrediction(11))
	svc, _, _, _ := newResolutionFixture(t, chain, ResolutionConfig{})

	_, err := svc.Execute(context.Background(), 11, nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, chain.resolved)
}

func TestAutoSubmitResolvesInOneCall(t *testing.T) {
	chain := newFakeChain(endedPrediction(12))
	svc, _, pending, _ := newResolutionFixture(t, chain, ResolutionConfig{AutoSubmit: true})

	_, tx, err := svc.Propose(context.Background(), 12)
	require.NoError(t, err)
	require.NotNil(t, tx)
	assert.Equal(t, "0xresolve", tx.Hash)

	assert.Equal(t, domain.ResultTrue, chain.resolved[12])
	_, err = pending.Get(context.Background(), 12)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestProposeReplacesEarlierProposal(t *testing.T) {
	chain := newFakeChain(endedPrediction(13))
	svc, _, pending, _ := newResolutionFixture(t, chain, ResolutionConfig{})

	first, _, err := svc.Propose(context.Background(), 13)
	require.NoError(t, err)
	second, _, err := svc.Propose(context.Background(), 13)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	f, err := pending.Get(context.Background(), 13)
	require.NoError(t, err)
	assert.Equal(t, second.ID, f.ID)
}
