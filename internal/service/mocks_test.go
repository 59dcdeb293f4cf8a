package service

import (
	"context"
	"sync"
	"time"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// fakeChain implements domain.ChainClient with programmable state. Methods
// not overridden by a test panic via the embedded nil interface.
type fakeChain struct {
	domain.ChainClient

	mu          sync.Mutex
	preds       map[uint64]domain.Prediction
	fetchAllErr error
	resolved    map[uint64]domain.PredictionResult
	predicted   []uint64
	created     []domain.CreatePredictionParams
	resolveErr  error
	dailyErr    error
	dailyCalls  int
}

func newFakeChain(preds ...domain.Prediction) *fakeChain {
	m := make(map[uint64]domain.Prediction, len(preds))
	for _, p := range preds {
		m[p.ID] = p
	}
	return &fakeChain{preds: m, resolved: make(map[uint64]domain.PredictionResult)}
}

func (f *fakeChain) Name() string { return "fake" }

func (f *fakeChain) FetchPredictions(context.Context) ([]domain.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchAllErr != nil {
		return nil, f.fetchAllErr
	}
	out := make([]domain.Prediction, 0, len(f.preds))
	for _, p := range f.preds {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeChain) FetchPrediction(_ context.Context, id uint64) (domain.Prediction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.preds[id]
	if !ok {
		return domain.Prediction{}, domain.ErrNotFound
	}
	return p, nil
}

func (f *fakeChain) ResolvePrediction(_ context.Context, id uint64, result domain.PredictionResult) (domain.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resolveErr != nil {
		return domain.TxResult{}, f.resolveErr
	}
	f.resolved[id] = result
	return domain.TxResult{Hash: "0xresolve"}, nil
}

func (f *fakeChain) Predict(_ context.Context, id uint64, _ string, _ bool, _ uint64) (domain.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.predicted = append(f.predicted, id)
	return domain.TxResult{Hash: "0xpredict"}, nil
}

func (f *fakeChain) CreatePrediction(_ context.Context, params domain.CreatePredictionParams) (domain.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params)
	return domain.TxResult{Hash: "0xcreate"}, nil
}

func (f *fakeChain) ClaimDailyReward(context.Context, string) (domain.TxResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.dailyCalls++
	if f.dailyErr != nil {
		return domain.TxResult{}, f.dailyErr
	}
	return domain.TxResult{Hash: "0xdaily"}, nil
}

// fakeCache is an in-memory domain.PredictionCache.
type fakeCache struct {
	mu   sync.Mutex
	all  []domain.Prediction
	has  bool
	byID map[uint64]domain.Prediction

	setAllCalls     int
	invalidateCalls []uint64
	clearCalls      int
}

func newFakeCache() *fakeCache {
	return &fakeCache{byID: make(map[uint64]domain.Prediction)}
}

func (c *fakeCache) SetAll(_ context.Context, preds []domain.Prediction) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = preds
	c.has = true
	c.setAllCalls++
	c.byID = make(map[uint64]domain.Prediction, len(preds))
	for _, p := range preds {
		c.byID[p.ID] = p
	}
	return nil
}

func (c *fakeCache) GetAll(context.Context) ([]domain.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.has {
		return nil, domain.ErrNotFound
	}
	return c.all, nil
}

func (c *fakeCache) Get(_ context.Context, id uint64) (domain.Prediction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.byID[id]
	if !ok {
		return domain.Prediction{}, domain.ErrNotFound
	}
	return p, nil
}

func (c *fakeCache) Invalidate(_ context.Context, id uint64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.byID, id)
	c.has = false
	c.invalidateCalls = append(c.invalidateCalls, id)
	return nil
}

func (c *fakeCache) Clear(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.all = nil
	c.has = false
	c.clearCalls++
	return nil
}

// fakeVerdicts is an in-memory domain.VerdictStore.
type fakeVerdicts struct {
	mu     sync.Mutex
	nextID int64
	recs   map[int64]domain.VerdictRecord
}

func newFakeVerdicts() *fakeVerdicts {
	return &fakeVerdicts{recs: make(map[int64]domain.VerdictRecord)}
}

func (s *fakeVerdicts) Insert(_ context.Context, rec domain.VerdictRecord) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	rec.ID = s.nextID
	rec.CreatedAt = time.Now()
	s.recs[rec.ID] = rec
	return rec.ID, nil
}

func (s *fakeVerdicts) MarkSubmitted(_ context.Context, id int64, txHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recs[id]
	if !ok {
		return domain.ErrNotFound
	}
	rec.Submitted = true
	rec.TxHash = txHash
	s.recs[id] = rec
	return nil
}

func (s *fakeVerdicts) ListByPrediction(_ context.Context, predictionID uint64, _ domain.ListOpts) ([]domain.VerdictRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.VerdictRecord
	for _, r := range s.recs {
		if r.PredictionID == predictionID {
			out = append(out, r)
		}
	}
	return out, nil
}

// fakePending is an in-memory domain.FinalizationStore.
type fakePending struct {
	mu      sync.Mutex
	entries map[uint64]domain.PendingFinalization
}

func newFakePending() *fakePending {
	return &fakePending{entries: make(map[uint64]domain.PendingFinalization)}
}

func (s *fakePending) Put(_ context.Context, f domain.PendingFinalization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[f.PredictionID] = f
	return nil
}

func (s *fakePending) Get(_ context.Context, predictionID uint64) (domain.PendingFinalization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.entries[predictionID]
	if !ok {
		return domain.PendingFinalization{}, domain.ErrNotFound
	}
	return f, nil
}

func (s *fakePending) Delete(_ context.Context, predictionID uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, predictionID)
	return nil
}

// fakeLocks grants or denies every Acquire.
type fakeLocks struct {
	deny bool
}

func (l *fakeLocks) Acquire(context.Context, string, time.Duration) (func(), error) {
	if l.deny {
		return nil, domain.ErrLockHeld
	}
	return func() {}, nil
}

// fakeLimiter allows the first n calls per key.
type fakeLimiter struct {
	mu    sync.Mutex
	limit int
	seen  map[string]int
}

func newFakeLimiter(limit int) *fakeLimiter {
	return &fakeLimiter{limit: limit, seen: make(map[string]int)}
}

func (l *fakeLimiter) Allow(_ context.Context, key string, _ int, _ time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.seen[key]++
	return l.seen[key] <= l.limit, nil
}

// staticContext is an ai.ContextProvider returning a fixed string or error.
type staticContext struct {
	data string
	err  error
}

func (s *staticContext) RecentContext(context.Context, string) (string, error) {
	return s.data, s.err
}

// staticJudge returns a fixed verdict or error.
type staticJudge struct {
	verdict domain.Verdict
	err     error
	calls   int
}

func (j *staticJudge) DetermineOutcome(context.Context, string, string) (domain.Verdict, error) {
	j.calls++
	return j.verdict, j.err
}

// captureArchiver records archived finalizations.
type captureArchiver struct {
	mu       sync.Mutex
	archived []domain.PendingFinalization
}

func (a *captureArchiver) Archive(_ context.Context, f domain.PendingFinalization) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archived = append(a.archived, f)
	return nil
}
