package store

import (
	"context"
	"time"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ScoreHistoryStore struct {
	db *pgxpool.Pool
}

func NewScoreHistoryStore(db *pgxpool.Pool) *ScoreHistoryStore {
	return &ScoreHistoryStore{db: db}
}

func (s *ScoreHistoryStore) Append(ctx context.Context, snap *domain.ScoreSnapshot) error {
	breakdown := snap.Breakdown
	if len(breakdown) == 0 {
		breakdown = []byte("{}")
	}
	return s.db.QueryRow(ctx,
		`INSERT INTO score_history (belief_id, conclusion_score, breakdown, recorded_at)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id`,
		snap.BeliefID, snap.ConclusionScore, breakdown, snap.RecordedAt,
	).Scan(&snap.ID)
}

func (s *ScoreHistoryStore) ListSince(ctx context.Context, beliefID uuid.UUID, since time.Time) ([]domain.ScoreSnapshot, error) {
	rows, err := s.db.Query(ctx,
		`SELECT id, belief_id, conclusion_score, breakdown, recorded_at
		 FROM score_history
		 WHERE belief_id = $1 AND recorded_at >= $2
		 ORDER BY recorded_at ASC`,
		beliefID, since,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var snaps []domain.ScoreSnapshot
	for rows.Next() {
		var snap domain.ScoreSnapshot
		if err := rows.Scan(&snap.ID, &snap.BeliefID, &snap.ConclusionScore, &snap.Breakdown, &snap.RecordedAt); err != nil {
			return nil, err
		}
		snaps = append(snaps, snap)
	}
	return snaps, rows.Err()
}

var _ domain.ScoreHistoryStore = (*ScoreHistoryStore)(nil)
