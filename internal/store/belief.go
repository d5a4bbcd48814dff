package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type BeliefStore struct {
	db *pgxpool.Pool
}

func NewBeliefStore(db *pgxpool.Pool) *BeliefStore {
	return &BeliefStore{db: db}
}

func (s *BeliefStore) Create(ctx context.Context, b *domain.Belief) error {
	if b.State == "" {
		b.State = domain.BeliefActive
	}
	if b.ConclusionScore == 0 {
		b.ConclusionScore = domain.NeutralConclusionScore
	}

	return s.db.QueryRow(ctx,
		`INSERT INTO beliefs (statement, state, conclusion_score, stability_score, score_unstable)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id, created_at, updated_at`,
		b.Statement, b.State, b.ConclusionScore, b.StabilityScore, b.ScoreUnstable,
	).Scan(&b.ID, &b.CreatedAt, &b.UpdatedAt)
}

func (s *BeliefStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Belief, error) {
	b := &domain.Belief{}
	err := s.db.QueryRow(ctx,
		`SELECT id, statement, state, conclusion_score, stability_score, score_unstable, created_at, updated_at
		 FROM beliefs WHERE id = $1`,
		id,
	).Scan(&b.ID, &b.Statement, &b.State, &b.ConclusionScore, &b.StabilityScore, &b.ScoreUnstable, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return b, nil
}

func (s *BeliefStore) List(ctx context.Context, limit int) ([]domain.Belief, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.Query(ctx,
		`SELECT id, statement, state, conclusion_score, stability_score, score_unstable, created_at, updated_at
		 FROM beliefs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var beliefs []domain.Belief
	for rows.Next() {
		var b domain.Belief
		if err := rows.Scan(&b.ID, &b.Statement, &b.State, &b.ConclusionScore, &b.StabilityScore, &b.ScoreUnstable, &b.CreatedAt, &b.UpdatedAt); err != nil {
			return nil, err
		}
		beliefs = append(beliefs, b)
	}
	return beliefs, rows.Err()
}

func (s *BeliefStore) ListActiveIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id FROM beliefs WHERE state = $1`,
		domain.BeliefActive,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (s *BeliefStore) UpdateState(ctx context.Context, id uuid.UUID, state domain.BeliefState) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE beliefs SET state = $2, updated_at = NOW() WHERE id = $1`,
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

// WriteScores persists one pipeline run atomically: the belief's headline
// scores and every argument's sub-score vector and rank in one transaction,
// so readers never observe a half-applied rescore.
func (s *BeliefStore) WriteScores(ctx context.Context, scores *domain.BeliefScores) error {
	tx, err := s.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin score write: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx,
		`UPDATE beliefs
		 SET conclusion_score = $2, stability_score = $3, score_unstable = $4, updated_at = NOW()
		 WHERE id = $1`,
		scores.BeliefID, scores.ConclusionScore, scores.StabilityScore, scores.ScoreUnstable,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	for argID, as := range scores.ArgumentScores {
		if _, err := tx.Exec(ctx,
			`UPDATE arguments
			 SET evidence_strength = $2, logical_coherence = $3, linkage_relevance = $4,
			     uniqueness = $5, importance = $6, rank_score = $7, updated_at = NOW()
			 WHERE id = $1`,
			argID,
			as.Scores.EvidenceStrength, as.Scores.LogicalCoherence, as.Scores.LinkageRelevance,
			as.Scores.Uniqueness, as.Scores.Importance, as.RankScore,
		); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

var _ domain.BeliefStore = (*BeliefStore)(nil)
