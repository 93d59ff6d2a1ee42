package service

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

func TestQuizXP(t *testing.T) {
	cases := []struct {
		percentage float64
		difficulty string
		want       int64
	}{
		{100, DifficultyHard, 40},
		{100, DifficultyEasy, 20},
		{95, DifficultyMedium, 28},
		{85, DifficultyMedium, 19},
		{70, DifficultyEasy, 12},
		{69.9, DifficultyEasy, 6},
		{45, DifficultyHard, 8},
		{0, DifficultyHard, 0},
		{100, "legendary", 20},
		{80, " HARD ", 26},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, QuizXP(tc.percentage, tc.difficulty), "%v%% %s", tc.percentage, tc.difficulty)
	}
}

func TestQuizFacts(t *testing.T) {
	facts := QuizFacts(100, DifficultyHard)
	assert.Equal(t, int64(1), facts[models.RequirementPerfectQuiz])
	assert.Equal(t, int64(1), facts[models.RequirementHardQuiz])

	facts = QuizFacts(79, DifficultyHard)
	assert.Empty(t, facts)

	facts = QuizFacts(100, DifficultyEasy)
	_, hard := facts[models.RequirementHardQuiz]
	assert.False(t, hard)
}

func TestLookupAction(t *testing.T) {
	rule, ok := LookupAction("Upload_Material")
	assert.True(t, ok)
	assert.Equal(t, int64(20), rule.XP)

	rule, ok = LookupAction(ActionMaterialComment)
	assert.True(t, ok)
	assert.Equal(t, "comment", rule.Reason)
	assert.Equal(t, int64(5), rule.XP)

	_, ok = LookupAction(ActionCompleteQuiz)
	assert.False(t, ok)
}

func TestActionRuleRoles(t *testing.T) {
	rule, ok := LookupAction(ActionCreateQuiz)
	assert.True(t, ok)
	assert.False(t, rule.Allows(models.RoleStudent))
	assert.False(t, rule.Allows(models.RoleHacker))
	assert.True(t, rule.Allows(models.RoleTeacher))
	assert.True(t, rule.Allows(models.RoleAdmin))

	rule, _ = LookupAction(ActionViewMaterial)
	assert.True(t, rule.Allows(models.RoleStudent))
	assert.Empty(t, rule.OnceKey)

	rule, _ = LookupAction(ActionCompleteProfile)
	assert.Equal(t, "profile:complete", rule.OnceKey)
}
