package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/hashpredict/internal/domain"
)

// ProposalStore implements domain.ProposalStore using PostgreSQL. Generated
// market candidates are kept for later review and creation.
type ProposalStore struct {
	pool *pgxpool.Pool
}

// NewProposalStore creates a new ProposalStore backed by the given pool.
func NewProposalStore(pool *pgxpool.Pool) *ProposalStore {
	return &ProposalStore{pool: pool}
}

// InsertBatch stores one generation run's proposals under the topic that
// produced them.
func (s *ProposalStore) InsertBatch(ctx context.Context, topic string, proposals []domain.MarketProposal) error {
	if len(proposals) == 0 {
		return nil
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("postgres: begin proposal batch: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	const query = `
		INSERT INTO market_proposals (topic, description, duration_secs, tags)
		VALUES ($1, $2, $3, $4)`

	for _, p := range proposals {
		if _, err := tx.Exec(ctx, query, topic, p.Description, p.Duration, p.Tags); err != nil {
			return fmt.Errorf("postgres: insert proposal %q: %w", p.Description, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("postgres: commit proposal batch: %w", err)
	}
	return nil
}

// ListByTopic returns stored proposals for a topic, newest first. The fixed
// proposal defaults are reapplied on the way out; only the model-produced
// fields are persisted.
func (s *ProposalStore) ListByTopic(ctx context.Context, topic string, opts domain.ListOpts) ([]domain.MarketProposal, error) {
	query := `
		SELECT description, duration_secs, tags
		FROM market_proposals
		WHERE topic = $1
		ORDER BY created_at DESC`
	args := []any{topic}
	argIdx := 2

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
		return nil, fmt.Errorf("postgres: list proposals for topic %q: %w", topic, err)
	}
	defer rows.Close()

	var proposals []domain.MarketProposal
	for rows.Next() {
		p := domain.MarketProposal{
			MinVotes:       domain.ProposalMinVotes,
			MaxVotes:       domain.ProposalMaxVotes,
			PredictionType: domain.ProposalPredictionType,
			OptionsCount:   domain.ProposalOptionsCount,
		}
		if err := rows.Scan(&p.Description, &p.Duration, &p.Tags); err != nil {
			return nil, fmt.Errorf("postgres: scan proposal: %w", err)
		}
		proposals = append(proposals, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: list proposals rows: %w", err)
	}
	return proposals, nil
}

// Compile-time interface check.
var _ domain.ProposalStore = (*ProposalStore)(nil)
