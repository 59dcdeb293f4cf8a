package domain

import (
	"context"
	"io"
	"time"
)

// ListOpts carries pagination and time filtering for list queries.
type ListOpts struct {
	Limit  int
	Offset int
	Since  *time.Time
	Until  *time.Time
}

// VerdictRecord is one audit entry for an AI judge invocation.
type VerdictRecord struct {
	ID           int64     `json:"id"`
	PredictionID uint64    `json:"predictionId"`
	Outcome      int       `json:"outcome"`
	Confidence   float64   `json:"confidence"`
	Explanation  string    `json:"explanation"`
	Submitted    bool      `json:"submitted"` // whether the admin executed a resolution from it
	TxHash       string    `json:"txHash,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

// VerdictStore persists the audit trail of AI judge verdicts.
type VerdictStore interface {
	Insert(ctx context.Context, rec VerdictRecord) (int64, error)
	MarkSubmitted(ctx context.Context, id int64, txHash string) error
	ListByPrediction(ctx context.Context, predictionID uint64, opts ListOpts) ([]VerdictRecord, error)
}

// ProposalStore persists AI-generated market proposals for later review.
type ProposalStore interface {
	InsertBatch(ctx context.Context, topic string, proposals []MarketProposal) error
	ListByTopic(ctx context.Context, topic string, opts ListOpts) ([]MarketProposal, error)
}

// PredictionCache is a read-through cache over chain snapshots.
type PredictionCache interface {
	SetAll(ctx context.Context, preds []Prediction) error
	GetAll(ctx context.Context) ([]Prediction, error)
	Get(ctx context.Context, id uint64) (Prediction, error)
	Invalidate(ctx context.Context, id uint64) error
	// Clear drops the full snapshot so the next list read falls through to
	// the chain. Per-id entries are left to expire.
	Clear(ctx context.Context) error
}

// FinalizationStore holds proposed resolutions between the propose and
// confirm steps. Entries expire if never confirmed.
type FinalizationStore interface {
	Put(ctx context.Context, f PendingFinalization) error
	Get(ctx context.Context, predictionID uint64) (PendingFinalization, error)
	Delete(ctx context.Context, predictionID uint64) error
}

// RateLimiter limits request rates per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// LockManager provides distributed locks so only one worker drives a given
// prediction's resolution at a time.
type LockManager interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error)
}

// BlobWriter uploads objects to blob storage.
type BlobWriter interface {
	Put(ctx context.Context, path string, data io.Reader, contentType string) error
}
