package store

import (
	"context"

	"github.com/credence-io/credence/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

type EngagementStore struct {
	db *pgxpool.Pool
}

func NewEngagementStore(db *pgxpool.Pool) *EngagementStore {
	return &EngagementStore{db: db}
}

func (s *EngagementStore) Record(ctx context.Context, e *domain.EngagementEvent) error {
	return s.db.QueryRow(ctx,
		`INSERT INTO engagement_events (belief_id, event_type, reader_id, read_seconds)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, created_at`,
		e.BeliefID, e.Type, e.ReaderID, e.ReadSeconds,
	).Scan(&e.ID, &e.CreatedAt)
}

// Stats aggregates the belief's engagement signals in one pass. Open flags
// are raised flags minus resolutions, floored at zero.
func (s *EngagementStore) Stats(ctx context.Context, beliefID uuid.UUID) (*domain.EngagementStats, error) {
	stats := &domain.EngagementStats{BeliefID: beliefID}
	err := s.db.QueryRow(ctx,
		`SELECT
			COALESCE(SUM(read_seconds) FILTER (WHERE event_type = 'read'), 0),
			COUNT(DISTINCT reader_id) FILTER (WHERE event_type = 'read' AND reader_id != ''),
			COUNT(*) FILTER (WHERE event_type = 'evaluation'),
			COUNT(*) FILTER (WHERE event_type = 'expert_review'),
			GREATEST(
				COUNT(*) FILTER (WHERE event_type = 'quality_flag') -
				COUNT(*) FILTER (WHERE event_type = 'flag_resolved'), 0),
			COUNT(*) FILTER (WHERE event_type = 'downvote')
		 FROM engagement_events WHERE belief_id = $1`,
		beliefID,
	).Scan(
		&stats.TotalReadSeconds,
		&stats.DistinctReaders,
		&stats.ArgumentsEvaluated,
		&stats.ExpertReviews,
		&stats.OpenQualityFlags,
		&stats.LowQualityDownvotes,
	)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

var _ domain.EngagementStore = (*EngagementStore)(nil)
