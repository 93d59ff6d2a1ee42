package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-gamification-api/internal/dto"
	"github.com/noah-isme/sma-gamification-api/internal/models"
)

// ProgressionRepository owns the XP columns of the users table.
type ProgressionRepository struct {
	db *sqlx.DB
}

// NewProgressionRepository creates a new instance of ProgressionRepository.
func NewProgressionRepository(db *sqlx.DB) *ProgressionRepository {
	return &ProgressionRepository{db: db}
}

const progressionColumns = `id, full_name, avatar_url, role, xp_points, level, consecutive_active_days, total_active_days, last_active_on`

// FindByID returns the progression view of a user.
func (r *ProgressionRepository) FindByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + progressionColumns + ` FROM users WHERE id = $1 LIMIT 1`
	var user models.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find user progression: %w", err)
	}
	return &user, nil
}

// IncrementXP adds amount to the user's total in a single statement and returns
// the stored total and level. The level is derived from the incremented total in
// the same statement, and the activity streak counters are rolled forward for day.
// sql.ErrNoRows is returned when no non-admin user matches id.
func (r *ProgressionRepository) IncrementXP(ctx context.Context, id string, amount int64, day time.Time) (int64, int, error) {
	const query = `UPDATE users SET
    xp_points = xp_points + $2,
    level = (xp_points + $2) / $3 + 1,
    total_active_days = total_active_days + CASE WHEN last_active_on = $4::date THEN 0 ELSE 1 END,
    consecutive_active_days = CASE
        WHEN last_active_on = $4::date THEN consecutive_active_days
        WHEN last_active_on = $4::date - 1 THEN consecutive_active_days + 1
        ELSE 1
    END,
    last_active_on = $4::date,
    updated_at = $5
WHERE id = $1 AND role <> 'admin'
RETURNING xp_points, level`

	var (
		total int64
		level int
	)
	row := r.db.QueryRowxContext(ctx, query, id, amount, models.XPPerLevel, day.UTC().Format("2006-01-02"), time.Now().UTC())
	if err := row.Scan(&total, &level); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, 0, err
		}
		return 0, 0, fmt.Errorf("increment xp: %w", err)
	}
	return total, level, nil
}

// Leaderboard returns the top users by XP. Admin accounts are excluded.
func (r *ProgressionRepository) Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	query := fmt.Sprintf(`SELECT RANK() OVER (ORDER BY xp_points DESC) AS rank, id, full_name, avatar_url, xp_points, level
FROM users WHERE role <> 'admin' ORDER BY xp_points DESC, full_name ASC LIMIT %d`, limit)

	var entries []dto.LeaderboardEntry
	if err := r.db.SelectContext(ctx, &entries, query); err != nil {
		return nil, fmt.Errorf("list leaderboard: %w", err)
	}
	return entries, nil
}

// Rank returns the 1-based leaderboard position of the user.
func (r *ProgressionRepository) Rank(ctx context.Context, id string) (int, error) {
	const query = `SELECT COUNT(*) + 1 FROM users
WHERE role <> 'admin' AND xp_points > (SELECT xp_points FROM users WHERE id = $1)`
	var rank int
	if err := r.db.GetContext(ctx, &rank, query, id); err != nil {
		return 0, fmt.Errorf("rank user: %w", err)
	}
	return rank, nil
}
