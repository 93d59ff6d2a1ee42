package dto

import (
	"time"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

// AwardRequest is the input of a single progression event.
type AwardRequest struct {
	UserID    string            `json:"user_id" validate:"required"`
	XPAmount  int64             `json:"xp_amount" validate:"gte=0"`
	Reason    string            `json:"reason" validate:"required,reason_tag"`
	RelatedID *string           `json:"related_id,omitempty"`
	ActionKey string            `json:"action_key,omitempty" validate:"omitempty,max=128"`
	Facts     models.EventFacts `json:"-"`
	// OneTime keeps the action key claimed forever and refuses the award when the
	// key cannot be checked.
	OneTime bool `json:"-"`
}

// AwardResult is returned to the calling feature for optimistic UI feedback.
type AwardResult struct {
	Success           bool                     `json:"success"`
	XPGranted         int64                    `json:"xp_granted"`
	NewTotal          int64                    `json:"new_total"`
	OldLevel          int                      `json:"old_level"`
	NewLevel          int                      `json:"new_level"`
	LeveledUp         bool                     `json:"leveled_up"`
	Tier              string                   `json:"tier,omitempty"`
	NewlyEarnedBadges []models.BadgeDefinition `json:"newly_earned_badges"`
}

// ActionAwardRequest awards the XP configured for a named portal action.
type ActionAwardRequest struct {
	Action    string  `json:"action" validate:"required"`
	RelatedID *string `json:"related_id,omitempty"`
	ActionKey string  `json:"action_key,omitempty" validate:"omitempty,max=128"`
}

// QuizCompletion describes a finished quiz attempt.
type QuizCompletion struct {
	UserID     string  `json:"-" validate:"required"`
	QuizID     string  `json:"quiz_id" validate:"required"`
	AttemptID  string  `json:"attempt_id,omitempty" validate:"omitempty,max=120"`
	Percentage float64 `json:"percentage" validate:"gte=0,lte=100"`
	Difficulty string  `json:"difficulty" validate:"required"`
}

// ProgressionSummary is the read model for a user's progression.
type ProgressionSummary struct {
	UserID                string               `json:"user_id"`
	FullName              string               `json:"full_name"`
	Role                  models.UserRole      `json:"role"`
	Progress              models.LevelProgress `json:"progress"`
	Rank                  int                  `json:"rank"`
	ConsecutiveActiveDays int                  `json:"consecutive_active_days"`
	TotalActiveDays       int                  `json:"total_active_days"`
	BadgesEarned          int                  `json:"badges_earned"`
}

// LeaderboardEntry is one row of the XP leaderboard.
type LeaderboardEntry struct {
	Rank      int     `json:"rank" db:"rank"`
	UserID    string  `json:"user_id" db:"id"`
	FullName  string  `json:"full_name" db:"full_name"`
	AvatarURL *string `json:"avatar_url,omitempty" db:"avatar_url"`
	XPPoints  int64   `json:"xp_points" db:"xp_points"`
	Level     int     `json:"level" db:"level"`
	Tier      string  `json:"tier" db:"-"`
}

// Leaderboard is the cached leaderboard payload.
type Leaderboard struct {
	Entries     []LeaderboardEntry `json:"entries"`
	GeneratedAt time.Time          `json:"generated_at"`
}
