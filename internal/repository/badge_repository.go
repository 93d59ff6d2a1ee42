package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

// BadgeRepository reads the badge catalog and records earned badges.
type BadgeRepository struct {
	db *sqlx.DB
}

// NewBadgeRepository constructs the repository.
func NewBadgeRepository(db *sqlx.DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// ListCatalog returns every badge definition ordered by threshold.
func (r *BadgeRepository) ListCatalog(ctx context.Context) ([]models.BadgeDefinition, error) {
	const query = `SELECT id, name, description, icon, requirement_type, requirement_value, admin_only, rarity
FROM badges ORDER BY requirement_value ASC, name ASC`
	var badges []models.BadgeDefinition
	if err := r.db.SelectContext(ctx, &badges, query); err != nil {
		return nil, fmt.Errorf("list badge catalog: %w", err)
	}
	return badges, nil
}

// ListEarned returns the badges a user already owns.
func (r *BadgeRepository) ListEarned(ctx context.Context, userID string) ([]models.EarnedBadge, error) {
	const query = `SELECT user_id, badge_id, earned_at FROM user_badges WHERE user_id = $1 ORDER BY earned_at ASC`
	var earned []models.EarnedBadge
	if err := r.db.SelectContext(ctx, &earned, query, userID); err != nil {
		return nil, fmt.Errorf("list earned badges: %w", err)
	}
	return earned, nil
}

// CountEarned returns how many badges a user owns.
func (r *BadgeRepository) CountEarned(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM user_badges WHERE user_id = $1`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count earned badges: %w", err)
	}
	return total, nil
}

// Award inserts the (user, badge) pairs that do not exist yet and returns the
// badge IDs that were actually inserted. Existing rows keep their earned_at.
func (r *BadgeRepository) Award(ctx context.Context, userID string, badgeIDs []string, earnedAt time.Time) ([]string, error) {
	if len(badgeIDs) == 0 {
		return nil, nil
	}
	const query = `INSERT INTO user_badges (user_id, badge_id, earned_at)
SELECT $1, badge_id, $3 FROM unnest($2::uuid[]) AS badge_id
ON CONFLICT (user_id, badge_id) DO NOTHING
RETURNING badge_id`

	var inserted []string
	if err := r.db.SelectContext(ctx, &inserted, query, userID, pq.Array(badgeIDs), earnedAt); err != nil {
		return nil, fmt.Errorf("award badges: %w", err)
	}
	return inserted, nil
}
