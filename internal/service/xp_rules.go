package service

import (
	"math"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

// Portal actions with a fixed XP value.
const (
	ActionUploadMaterial   = "upload_material"
	ActionViewMaterial     = "view_material"
	ActionDownloadMaterial = "download_material"
	ActionViewExercise     = "view_exercise"
	ActionLikeExercise     = "like_exercise"
	ActionCreateExercise   = "create_exercise"
	ActionCreateDiscussion = "create_discussion"
	ActionForumComment     = "forum_comment"
	ActionMaterialComment  = "material_comment"
	ActionCompleteProfile  = "complete_profile"
	ActionCreateQuiz       = "create_quiz"
	ActionCompleteQuiz     = "complete_quiz"
)

// ActionRule is the reward of a portal action. A non-empty Roles list restricts who
// may claim it, and a non-empty OnceKey makes the reward one-time per user.
type ActionRule struct {
	Reason  string
	XP      int64
	Roles   []models.UserRole
	OnceKey string
}

// Allows reports whether role may claim the action.
func (r ActionRule) Allows(role models.UserRole) bool {
	if len(r.Roles) == 0 {
		return true
	}
	for _, allowed := range r.Roles {
		if allowed == role {
			return true
		}
	}
	return false
}

var quizAuthorRoles = []models.UserRole{models.RoleTeacher, models.RoleStaff, models.RoleAdmin}

var actionRules = map[string]ActionRule{
	ActionUploadMaterial:   {Reason: "upload_material", XP: 20},
	ActionViewMaterial:     {Reason: "view_material", XP: 1},
	ActionDownloadMaterial: {Reason: "download_material", XP: 5},
	ActionViewExercise:     {Reason: "view_exercise", XP: 2},
	ActionLikeExercise:     {Reason: "like_exercise", XP: 2},
	ActionCreateExercise:   {Reason: "create_exercise", XP: 25},
	ActionCreateDiscussion: {Reason: "create_discussion", XP: 15},
	ActionForumComment:     {Reason: "comment", XP: 8},
	ActionMaterialComment:  {Reason: "comment", XP: 5},
	ActionCompleteProfile:  {Reason: "complete_profile", XP: 100, OnceKey: "profile:complete"},
	ActionCreateQuiz:       {Reason: "create_quiz", XP: 50, Roles: quizAuthorRoles},
}

// LookupAction returns the fixed reward of action. Quiz completion is scored
// separately and is not part of the table.
func LookupAction(action string) (ActionRule, bool) {
	rule, ok := actionRules[strings.ToLower(strings.TrimSpace(action))]
	return rule, ok
}

// Quiz difficulties.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

func difficultyMultiplier(difficulty string) float64 {
	switch normalizeDifficulty(difficulty) {
	case DifficultyMedium:
		return 1.5
	case DifficultyHard:
		return 2
	default:
		return 1
	}
}

func normalizeDifficulty(difficulty string) string {
	return strings.ToLower(strings.TrimSpace(difficulty))
}

// QuizXP scores a completed quiz: one point per full 10%, a bonus of 10 from 90%
// and 5 from 70%, all scaled by the difficulty multiplier and floored.
func QuizXP(percentage float64, difficulty string) int64 {
	if percentage < 0 {
		percentage = 0
	}
	if percentage > 100 {
		percentage = 100
	}
	base := math.Floor(percentage / 10)
	var bonus float64
	switch {
	case percentage >= 90:
		bonus = 10
	case percentage >= 70:
		bonus = 5
	}
	return int64(math.Floor((base + bonus) * difficultyMultiplier(difficulty)))
}

// QuizFacts returns the event-only badge metrics of a quiz attempt.
func QuizFacts(percentage float64, difficulty string) models.EventFacts {
	facts := models.EventFacts{}
	if percentage == 100 {
		facts[models.RequirementPerfectQuiz] = 1
	}
	if normalizeDifficulty(difficulty) == DifficultyHard && percentage >= 80 {
		facts[models.RequirementHardQuiz] = 1
	}
	return facts
}

var reasonTagPattern = regexp.MustCompile(`^[a-z][a-z0-9_]{0,63}$`)

func validateReasonTag(fl validator.FieldLevel) bool {
	return reasonTagPattern.MatchString(fl.Field().String())
}
