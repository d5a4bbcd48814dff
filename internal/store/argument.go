package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	pgvector "github.com/pgvector/pgvector-go"
)

type ArgumentStore struct {
	db *pgxpool.Pool
}

func NewArgumentStore(db *pgxpool.Pool) *ArgumentStore {
	return &ArgumentStore{db: db}
}

func (s *ArgumentStore) Create(ctx context.Context, a *domain.Argument) error {
	if a.State == "" {
		a.State = domain.ArgumentActive
	}

	var embedding *pgvector.Vector
	if len(a.Embedding) > 0 {
		v := pgvector.NewVector(a.Embedding)
		embedding = &v
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin argument create: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx,
		`INSERT INTO arguments (belief_id, parent_id, claim, inference, conclusion, polarity, state, embedding,
		                        evidence_strength, logical_coherence, linkage_relevance, uniqueness, importance, rank_score)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		 RETURNING id, created_at, updated_at`,
		a.BeliefID, a.ParentID, a.Claim, a.Inference, a.Conclusion, a.Polarity, a.State, embedding,
		a.Scores.EvidenceStrength, a.Scores.LogicalCoherence, a.Scores.LinkageRelevance,
		a.Scores.Uniqueness, a.Scores.Importance, a.RankScore,
	).Scan(&a.ID, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return err
	}

	for _, dep := range a.DependsOn {
		if _, err := tx.Exec(ctx,
			`INSERT INTO argument_dependencies (argument_id, depends_on_id)
			 VALUES ($1, $2)
			 ON CONFLICT (argument_id, depends_on_id) DO NOTHING`,
			a.ID, dep,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

const argumentColumns = `id, belief_id, parent_id, claim, inference, conclusion, polarity, state,
	evidence_strength, logical_coherence, linkage_relevance, uniqueness, importance, rank_score,
	created_at, updated_at`

func scanArgument(row pgx.Row) (*domain.Argument, error) {
	a := &domain.Argument{}
	err := row.Scan(
		&a.ID, &a.BeliefID, &a.ParentID, &a.Claim, &a.Inference, &a.Conclusion, &a.Polarity, &a.State,
		&a.Scores.EvidenceStrength, &a.Scores.LogicalCoherence, &a.Scores.LinkageRelevance,
		&a.Scores.Uniqueness, &a.Scores.Importance, &a.RankScore,
		&a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *ArgumentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Argument, error) {
	a, err := scanArgument(s.db.QueryRow(ctx,
		`SELECT `+argumentColumns+` FROM arguments WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	deps, err := s.dependencies(ctx, []uuid.UUID{a.ID})
	if err != nil {
		return nil, err
	}
	a.DependsOn = deps[a.ID]
	return a, nil
}

// ListByBelief returns the belief's full argument set including archived
// rows so history stays visible; scoring filters them out itself. Stored
// embeddings ride along to spare re-embedding unchanged arguments.
func (s *ArgumentStore) ListByBelief(ctx context.Context, beliefID uuid.UUID) ([]*domain.Argument, error) {
	rows, err := s.db.Query(ctx,
		`SELECT `+argumentColumns+`, embedding FROM arguments WHERE belief_id = $1 ORDER BY created_at ASC`,
		beliefID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var args []*domain.Argument
	var ids []uuid.UUID
	for rows.Next() {
		a := &domain.Argument{}
		var embedding *pgvector.Vector
		if err := rows.Scan(
			&a.ID, &a.BeliefID, &a.ParentID, &a.Claim, &a.Inference, &a.Conclusion, &a.Polarity, &a.State,
			&a.Scores.EvidenceStrength, &a.Scores.LogicalCoherence, &a.Scores.LinkageRelevance,
			&a.Scores.Uniqueness, &a.Scores.Importance, &a.RankScore,
			&a.CreatedAt, &a.UpdatedAt, &embedding,
		); err != nil {
			return nil, err
		}
		if embedding != nil {
			a.Embedding = embedding.Slice()
		}
		args = append(args, a)
		ids = append(ids, a.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	deps, err := s.dependencies(ctx, ids)
	if err != nil {
		return nil, err
	}
	for _, a := range args {
		a.DependsOn = deps[a.ID]
	}
	return args, nil
}

func (s *ArgumentStore) dependencies(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]uuid.UUID, error) {
	out := make(map[uuid.UUID][]uuid.UUID)
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := s.db.Query(ctx,
		`SELECT argument_id, depends_on_id FROM argument_dependencies WHERE argument_id = ANY($1)`,
		ids,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var argID, depID uuid.UUID
		if err := rows.Scan(&argID, &depID); err != nil {
			return nil, err
		}
		out[argID] = append(out[argID], depID)
	}
	return out, rows.Err()
}

func (s *ArgumentStore) UpdateState(ctx context.Context, id uuid.UUID, state domain.ArgumentState) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET state = $2, updated_at = NOW() WHERE id = $1`,
		id, state,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *ArgumentStore) UpdateEmbedding(ctx context.Context, id uuid.UUID, embedding []float32) error {
	vec := pgvector.NewVector(embedding)
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET embedding = $2, updated_at = NOW() WHERE id = $1`,
		id, vec,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// AddDependency records a depends-on edge. Re-adding an existing edge is a
// no-op; acyclicity is checked by the caller against the in-memory graph.
func (s *ArgumentStore) AddDependency(ctx context.Context, argumentID, dependsOnID uuid.UUID) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO argument_dependencies (argument_id, depends_on_id)
		 VALUES ($1, $2)
		 ON CONFLICT (argument_id, depends_on_id) DO NOTHING`,
		argumentID, dependsOnID,
	)
	return err
}

// ArchiveByBelief moves every argument under the belief to the archived
// state instead of deleting rows, preserving audit history.
func (s *ArgumentStore) ArchiveByBelief(ctx context.Context, beliefID uuid.UUID) (int64, error) {
	tag, err := s.db.Exec(ctx,
		`UPDATE arguments SET state = $2, updated_at = NOW() WHERE belief_id = $1 AND state != $2`,
		beliefID, domain.ArgumentArchived,
	)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

var _ domain.ArgumentStore = (*ArgumentStore)(nil)
