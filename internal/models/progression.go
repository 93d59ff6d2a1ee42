package models

// XPPerLevel is the cumulative XP step between two consecutive levels.
const XPPerLevel = 500

// LevelOf derives the level from cumulative XP. Levels start at 1.
func LevelOf(xp int64) int {
	if xp < 0 {
		xp = 0
	}
	return int(xp/XPPerLevel) + 1
}

// LevelThreshold returns the cumulative XP needed to reach level.
func LevelThreshold(level int) int64 {
	if level <= 1 {
		return 0
	}
	return int64(level-1) * XPPerLevel
}

// Tier is a cosmetic grouping of contiguous level ranges.
type Tier struct {
	Name     string `json:"name"`
	MinLevel int    `json:"min_level"`
	MaxLevel int    `json:"max_level"`
}

// Tiers are ordered from lowest to highest.
var Tiers = []Tier{
	{Name: "Normal", MinLevel: 1, MaxLevel: 9},
	{Name: "Pro", MinLevel: 10, MaxLevel: 29},
	{Name: "Elite", MinLevel: 30, MaxLevel: 59},
	{Name: "Master", MinLevel: 60, MaxLevel: 99},
	{Name: "Supreme", MinLevel: 100, MaxLevel: 200},
}

// TierOf returns the first tier whose range contains level.
// Levels outside every range (above 200) fall back to the lowest tier.
func TierOf(level int) Tier {
	for _, t := range Tiers {
		if level >= t.MinLevel && level <= t.MaxLevel {
			return t
		}
	}
	return Tiers[0]
}

// LevelProgress describes where a cumulative XP total sits inside its level.
type LevelProgress struct {
	Level         int     `json:"level"`
	Tier          string  `json:"tier"`
	XPTotal       int64   `json:"xp_total"`
	LevelStartXP  int64   `json:"level_start_xp"`
	NextLevelXP   int64   `json:"next_level_xp"`
	XPIntoLevel   int64   `json:"xp_into_level"`
	XPToNextLevel int64   `json:"xp_to_next_level"`
	ProgressRatio float64 `json:"progress_ratio"`
}

// ProgressOf computes the level progress for xp.
func ProgressOf(xp int64) LevelProgress {
	if xp < 0 {
		xp = 0
	}
	level := LevelOf(xp)
	start := LevelThreshold(level)
	next := LevelThreshold(level + 1)
	into := xp - start
	return LevelProgress{
		Level:         level,
		Tier:          TierOf(level).Name,
		XPTotal:       xp,
		LevelStartXP:  start,
		NextLevelXP:   next,
		XPIntoLevel:   into,
		XPToNextLevel: next - xp,
		ProgressRatio: float64(into) / float64(next-start),
	}
}

// GrantResult is the outcome of a ledger increment.
type GrantResult struct {
	Applied   bool  `json:"applied"`
	OldTotal  int64 `json:"old_total"`
	NewTotal  int64 `json:"new_total"`
	OldLevel  int   `json:"old_level"`
	NewLevel  int   `json:"new_level"`
	LeveledUp bool  `json:"leveled_up"`
}
