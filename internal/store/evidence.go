package store

import (
	"context"
	"errors"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EvidenceStore struct {
	db *pgxpool.Pool
}

func NewEvidenceStore(db *pgxpool.Pool) *EvidenceStore {
	return &EvidenceStore{db: db}
}

func (s *EvidenceStore) Create(ctx context.Context, e *domain.Evidence) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO evidence (argument_id, title, url, tier, credibility, verifications, disputes)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING id, created_at, updated_at`,
		e.ArgumentID, e.Title, e.URL, e.Tier, e.Credibility, e.Verifications, e.Disputes,
	).Scan(&e.ID, &e.CreatedAt, &e.UpdatedAt)
}

func (s *EvidenceStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Evidence, error) {
	e := &domain.Evidence{}
	err := s.db.QueryRow(ctx,
		`SELECT id, argument_id, title, url, tier, credibility, verifications, disputes, created_at, updated_at
		 FROM evidence WHERE id = $1`,
		id,
	).Scan(&e.ID, &e.ArgumentID, &e.Title, &e.URL, &e.Tier, &e.Credibility, &e.Verifications, &e.Disputes, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func (s *EvidenceStore) ListByArgument(ctx context.Context, argumentID uuid.UUID) ([]*domain.Evidence, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, argument_id, title, url, tier, credibility, verifications, disputes, created_at, updated_at
		 FROM evidence WHERE argument_id = $1 ORDER BY created_at ASC`,
		argumentID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*domain.Evidence
	for rows.Next() {
		e := &domain.Evidence{}
		if err := rows.Scan(&e.ID, &e.ArgumentID, &e.Title, &e.URL, &e.Tier, &e.Credibility, &e.Verifications, &e.Disputes, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		items = append(items, e)
	}
	return items, rows.Err()
}

func (s *EvidenceStore) UpdateCredibility(ctx context.Context, id uuid.UUID, credibility, verifications, disputes int) error {
	tag, err := s.db.Exec(ctx,
		`UPDATE evidence
		 SET credibility = $2, verifications = $3, disputes = $4, updated_at = NOW()
		 WHERE id = $1`,
		id, credibility, verifications, disputes,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var _ domain.EvidenceStore = (*EvidenceStore)(nil)
