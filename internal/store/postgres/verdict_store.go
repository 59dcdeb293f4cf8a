package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// VerdictStore implements domain.VerdictStore using PostgreSQL. Every judge
// invocation is recorded here whether or not it ever reaches the chain.
type VerdictStore struct {
	pool *pgxpool.Pool
}

// NewVerdictStore creates a new VerdictStore backed by the given pool.
func NewVerdictStore(pool *pgxpool.Pool) *VerdictStore {
	return &VerdictStore{pool: pool}
}

// Insert appends a verdict audit record and returns its id.
func (s *VerdictStore) Insert(ctx context.Context, rec domain.VerdictRecord) (int64, error) {
	const query = `
		INSERT INTO verdicts (prediction_id, outcome, confidence, explanation)
		VALUES ($1, $2, $3, $4)
		RETURNING id`

	var id int64
	err := s.pool.QueryRow(ctx, query,
		rec.PredictionID, rec.Outcome, rec.Confidence, rec.Explanation,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("postgres: insert verdict for prediction %d: %w", rec.PredictionID, err)
	}
	return id, nil
}

// MarkSubmitted flags a verdict as the one that drove an on-chain resolution
// and records the transaction hash.
func (s *VerdictStore) MarkSubmitted(ctx context.Context, id int64, txHash string) error {
	const query = `UPDATE verdicts SET submitted = TRUE, tx_hash = $2 WHERE id = $1`

	tag, err := s.pool.Exec(ctx, query, id, txHash)
	if err != nil {
		return fmt.Errorf("postgres: mark verdict %d submitted: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: mark verdict %d submitted: %w", id, domain.ErrNotFound)
	}
	return nil
}

// ListByPrediction returns the verdict history for one prediction, newest
// first.
func (s *VerdictStore) ListByPrediction(ctx context.Context, predictionID uint64, opts domain.ListOpts) ([]domain.VerdictRecord, error) {
	query := `
		SELECT id, prediction_id, outcome, confidence, explanation, submitted, COALESCE(tx_hash, ''), created_at
		FROM verdicts
		WHERE prediction_id = $1`
	args := []any{predictionID}
	argIdx := 2

	if opts.Since != nil {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, *opts.Since)
		argIdx++
	}
	if opts.Until != nil {
		query += fmt.Sprintf(" AND created_at <= $%d", argIdx)
		args = append(args, *opts.Until)
		argIdx++
	}

	query += " ORDER BY created_at DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argIdx)
		args = append(args, opts.Limit)
		argIdx++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argIdx)
		args = append(args, opts.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: list verdicts for prediction %d: %w", predictionID, err)
	}
	defer rows.Close()

	var recs []domain.VerdictRecord
	for rows.Next() {
		var r domain.VerdictRecord
		if err := rows.Scan(&r.ID, &r.PredictionID, &r.Outcome, &r.Confidence, &r.Explanation, &r.Submitted, &r.TxHash, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: scan verdict: %w", err)
		}
		recs = append(recs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list verdicts rows: %w", err)
	}
	return recs, nil
}

// Compile-time interface check.
var _ domain.VerdictStore = (*VerdictStore)(nil)
