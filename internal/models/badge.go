package models

import "time"

// RequirementType names the metric a badge threshold is measured against.
// The set is open: catalog rows may carry types this service does not know yet.
type RequirementType string

const (
	RequirementMaterialsUploaded  RequirementType = "materials_uploaded"
	RequirementDiscussionsCreated RequirementType = "discussions_created"
	RequirementCommentsPosted     RequirementType = "comments_posted"
	RequirementQuizzesCompleted   RequirementType = "quizzes_completed"
	RequirementXPEarned           RequirementType = "xp_earned"
	RequirementLevelReached       RequirementType = "level_reached"
	RequirementConsecutiveDays    RequirementType = "consecutive_days"
	RequirementTotalActiveDays    RequirementType = "total_active_days"
	RequirementPerfectQuiz        RequirementType = "perfect_quiz"
	RequirementHardQuiz           RequirementType = "hard_quiz"
	RequirementExercisesCreated   RequirementType = "exercises_created"
	RequirementProjectsCreated    RequirementType = "projects_created"
)

// BadgeDefinition is a row of the badge catalog.
type BadgeDefinition struct {
	ID               string          `db:"id" json:"id"`
	Name             string          `db:"name" json:"name"`
	Description      string          `db:"description" json:"description"`
	Icon             *string         `db:"icon" json:"icon,omitempty"`
	RequirementType  RequirementType `db:"requirement_type" json:"requirement_type"`
	RequirementValue int64           `db:"requirement_value" json:"requirement_value"`
	AdminOnly        bool            `db:"admin_only" json:"admin_only"`
	Rarity           *string         `db:"rarity" json:"rarity,omitempty"`
}

// EarnedBadge records that a user owns a badge.
type EarnedBadge struct {
	UserID   string    `db:"user_id" json:"user_id"`
	BadgeID  string    `db:"badge_id" json:"badge_id"`
	EarnedAt time.Time `db:"earned_at" json:"earned_at"`
}

// MetricsSnapshot holds the counters badge thresholds are compared against.
type MetricsSnapshot struct {
	UserID             string `db:"user_id" json:"user_id"`
	MaterialsUploaded  int64  `db:"materials_uploaded" json:"materials_uploaded"`
	DiscussionsCreated int64  `db:"discussions_created" json:"discussions_created"`
	CommentsPosted     int64  `db:"comments_posted" json:"comments_posted"`
	QuizzesCompleted   int64  `db:"quizzes_completed" json:"quizzes_completed"`
	ExercisesCreated   int64  `db:"exercises_created" json:"exercises_created"`
	ProjectsCreated    int64  `db:"projects_created" json:"projects_created"`
	XPEarned           int64  `db:"xp_earned" json:"xp_earned"`
	LevelReached       int64  `db:"level_reached" json:"level_reached"`
	ConsecutiveDays    int64  `db:"consecutive_days" json:"consecutive_days"`
	TotalActiveDays    int64  `db:"total_active_days" json:"total_active_days"`

	// Facts carries per-action values such as perfect_quiz.
	Facts EventFacts `db:"-" json:"facts,omitempty"`
}

// EventFacts are metric values only known to the action that triggered an award.
type EventFacts map[RequirementType]int64

// Value returns the metric backing rt. The boolean is false for unknown types.
func (m MetricsSnapshot) Value(rt RequirementType) (int64, bool) {
	var base int64
	known := true
	switch rt {
	case RequirementMaterialsUploaded:
		base = m.MaterialsUploaded
	case RequirementDiscussionsCreated:
		base = m.DiscussionsCreated
	case RequirementCommentsPosted:
		base = m.CommentsPosted
	case RequirementQuizzesCompleted:
		base = m.QuizzesCompleted
	case RequirementExercisesCreated:
		base = m.ExercisesCreated
	case RequirementProjectsCreated:
		base = m.ProjectsCreated
	case RequirementXPEarned:
		base = m.XPEarned
	case RequirementLevelReached:
		base = m.LevelReached
	case RequirementConsecutiveDays:
		base = m.ConsecutiveDays
	case RequirementTotalActiveDays:
		base = m.TotalActiveDays
	case RequirementPerfectQuiz, RequirementHardQuiz:
		// event-only metrics, zero unless supplied as facts
	default:
		known = false
	}

	if fact, ok := m.Facts[rt]; ok {
		if fact > base {
			base = fact
		}
		known = true
	}
	return base, known
}

// Qualifies reports whether the snapshot meets the badge threshold.
func (m MetricsSnapshot) Qualifies(badge BadgeDefinition) bool {
	value, known := m.Value(badge.RequirementType)
	if !known {
		return false
	}
	return value >= badge.RequirementValue
}
