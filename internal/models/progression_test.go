package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLevelOf(t *testing.T) {
	cases := map[int64]int{0: 1, 499: 1, 500: 2, 999: 2, 1000: 3, 99_500: 200, 100_000: 201}
	for xp, want := range cases {
		assert.Equal(t, want, LevelOf(xp), "xp=%d", xp)
	}
}

func TestLevelOfMonotonic(t *testing.T) {
	prev := LevelOf(0)
	for xp := int64(1); xp <= 5_000; xp++ {
		level := LevelOf(xp)
		assert.GreaterOrEqual(t, level, prev, "xp=%d", xp)
		prev = level
	}
}

func TestTierOfBoundaries(t *testing.T) {
	assert.Equal(t, "Normal", TierOf(1).Name)
	assert.Equal(t, "Normal", TierOf(9).Name)
	assert.Equal(t, "Pro", TierOf(10).Name)
	assert.Equal(t, "Pro", TierOf(29).Name)
	assert.Equal(t, "Elite", TierOf(30).Name)
	assert.Equal(t, "Master", TierOf(60).Name)
	assert.Equal(t, "Supreme", TierOf(100).Name)
	assert.Equal(t, "Supreme", TierOf(200).Name)
	// past the last range the lowest tier is reused
	assert.Equal(t, "Normal", TierOf(201).Name)
}

func TestProgressOf(t *testing.T) {
	p := ProgressOf(1250)
	assert.Equal(t, 3, p.Level)
	assert.Equal(t, int64(1000), p.LevelStartXP)
	assert.Equal(t, int64(1500), p.NextLevelXP)
	assert.Equal(t, int64(250), p.XPIntoLevel)
	assert.Equal(t, int64(250), p.XPToNextLevel)
	assert.InDelta(t, 0.5, p.ProgressRatio, 1e-9)
	assert.Equal(t, "Normal", p.Tier)
}

func TestRoleEarnsXP(t *testing.T) {
	assert.False(t, RoleAdmin.EarnsXP())
	assert.True(t, RoleStudent.EarnsXP())
	assert.True(t, RoleHacker.CanSeeAdminBadges())
	assert.False(t, RoleTeacher.CanSeeAdminBadges())
	assert.False(t, UserRole("SUPERADMIN").Valid())
}
