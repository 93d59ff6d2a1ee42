package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

// ActivityRepository aggregates the per-user contribution counters badges are measured on.
type ActivityRepository struct {
	db *sqlx.DB
}

// NewActivityRepository constructs the repository.
func NewActivityRepository(db *sqlx.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

// Snapshot loads the current metrics of a user in a single round trip.
// The level is recomputed from the XP total rather than read from the denormalized column.
func (r *ActivityRepository) Snapshot(ctx context.Context, userID string) (*models.MetricsSnapshot, error) {
	const query = `SELECT u.id AS user_id,
    u.xp_points AS xp_earned,
    u.consecutive_active_days AS consecutive_days,
    u.total_active_days AS total_active_days,
    (SELECT COUNT(*) FROM materials m WHERE m.uploaded_by = u.id) AS materials_uploaded,
    (SELECT COUNT(*) FROM forum_discussions d WHERE d.user_id = u.id) AS discussions_created,
    (SELECT COUNT(*) FROM forum_comments c WHERE c.user_id = u.id) AS comments_posted,
    (SELECT COUNT(*) FROM quiz_attempts q WHERE q.user_id = u.id) AS quizzes_completed,
    (SELECT COUNT(*) FROM exercises e WHERE e.created_by = u.id) AS exercises_created,
    (SELECT COUNT(*) FROM projects p WHERE p.user_id = u.id) AS projects_created
FROM users u WHERE u.id = $1`

	var snapshot models.MetricsSnapshot
	if err := r.db.GetContext(ctx, &snapshot, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("load metrics snapshot: %w", err)
	}
	snapshot.LevelReached = int64(models.LevelOf(snapshot.XPEarned))
	return &snapshot, nil
}
