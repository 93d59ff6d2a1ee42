package dto

import (
	"time"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

// BadgeProgress is a catalog badge annotated with the viewer's progress.
type BadgeProgress struct {
	models.BadgeDefinition
	Earned             bool       `json:"earned"`
	EarnedAt           *time.Time `json:"earned_at,omitempty"`
	Progress           int64      `json:"progress"`
	ProgressPercentage float64    `json:"progress_percentage"`
}

// BadgeOverview groups badges into earned and locked lists.
type BadgeOverview struct {
	Earned []BadgeProgress `json:"earned"`
	Locked []BadgeProgress `json:"locked"`
}
