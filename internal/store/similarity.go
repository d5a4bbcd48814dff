package store

import (
	"context"
	"errors"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SimilarityOverrideStore struct {
	db *pgxpool.Pool
}

func NewSimilarityOverrideStore(db *pgxpool.Pool) *SimilarityOverrideStore {
	return &SimilarityOverrideStore{db: db}
}

func (s *SimilarityOverrideStore) Create(ctx context.Context, o *domain.EquivalenceOverride) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO equivalence_overrides (belief_id, argument_a, argument_b, pro_score, con_score, resolved)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING id, created_at`,
		o.BeliefID, o.ArgumentA, o.ArgumentB, o.ProScore, o.ConScore, o.Resolved,
	).Scan(&o.ID, &o.CreatedAt)
}

const overrideColumns = `id, belief_id, argument_a, argument_b, pro_score, con_score, resolved, similarity, created_at, resolved_at`

func scanOverride(row pgx.Row) (*domain.EquivalenceOverride, error) {
	o := &domain.EquivalenceOverride{}
	err := row.Scan(&o.ID, &o.BeliefID, &o.ArgumentA, &o.ArgumentB, &o.ProScore, &o.ConScore, &o.Resolved, &o.Similarity, &o.CreatedAt, &o.ResolvedAt)
	if err != nil {
		return nil, err
	}
	return o, nil
}

func (s *SimilarityOverrideStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.EquivalenceOverride, error) {
	o, err := scanOverride(s.db.QueryRow(ctx,
		`SELECT `+overrideColumns+` FROM equivalence_overrides WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return o, nil
}

func (s *SimilarityOverrideStore) ListByBelief(ctx context.Context, beliefID uuid.UUID) ([]*domain.EquivalenceOverride, error) {
	return s.list(ctx,
		`SELECT `+overrideColumns+` FROM equivalence_overrides WHERE belief_id = $1 ORDER BY created_at ASC`,
		beliefID)
}

func (s *SimilarityOverrideStore) ListByArgument(ctx context.Context, argumentID uuid.UUID) ([]*domain.EquivalenceOverride, error) {
	return s.list(ctx,
		`SELECT `+overrideColumns+` FROM equivalence_overrides WHERE argument_a = $1 OR argument_b = $1 ORDER BY created_at ASC`,
		argumentID)
}

func (s *SimilarityOverrideStore) list(ctx context.Context, query string, arg any) ([]*domain.EquivalenceOverride, error) {
	rows, err := s.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var overrides []*domain.EquivalenceOverride
	for rows.Next() {
		o, err := scanOverride(rows)
		if err != nil {
			return nil, err
		}
		overrides = append(overrides, o)
	}
	return overrides, rows.Err()
}

// Vote adds weight to one side of an unresolved override.
func (s *SimilarityOverrideStore) Vote(ctx context.Context, id uuid.UUID, pro bool, weight float64) error {
	column := "con_score"
	if pro {
		column = "pro_score"
	}
	tag, err := s.db.Exec(ctx,
		`UPDATE equivalence_overrides SET `+column+` = `+column+` + $2 WHERE id = $1 AND NOT resolved`,
		id, weight,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Resolve records the community-derived similarity for an override and
// freezes it. A resolved override no longer accepts votes.
func (s *SimilarityOverrideStore) Resolve(ctx context.Context, id uuid.UUID, similarity float64, resolvedAt time.Time) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE equivalence_overrides
		 SET resolved = TRUE, similarity = $2, resolved_at = $3
		 WHERE id = $1 AND NOT resolved`,
		id, similarity, resolvedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ domain.SimilarityOverrideStore = (*SimilarityOverrideStore)(nil)
