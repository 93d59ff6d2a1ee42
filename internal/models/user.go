package models

import "time"

// UserRole represents the closed set of portal roles.
type UserRole string

const (
	RoleStudent UserRole = "student"
	RoleTeacher UserRole = "teacher"
	RoleAdmin   UserRole = "admin"
	RoleHacker  UserRole = "hacker"
	RoleStaff   UserRole = "staff"
)

// Valid reports whether the role belongs to the known set.
func (r UserRole) Valid() bool {
	switch r {
	case RoleStudent, RoleTeacher, RoleAdmin, RoleHacker, RoleStaff:
		return true
	}
	return false
}

// EarnsXP reports whether awards may target the role. Admin accounts never accrue XP.
func (r UserRole) EarnsXP() bool {
	return r != RoleAdmin
}

// CanSeeAdminBadges reports whether admin-only badges are visible to the role.
func (r UserRole) CanSeeAdminBadges() bool {
	return r == RoleAdmin || r == RoleHacker
}

// User is the progression subset of a row in the users table.
type User struct {
	ID                    string     `db:"id" json:"id"`
	FullName              string     `db:"full_name" json:"full_name"`
	AvatarURL             *string    `db:"avatar_url" json:"avatar_url,omitempty"`
	Role                  UserRole   `db:"role" json:"role"`
	XPPoints              int64      `db:"xp_points" json:"xp_points"`
	Level                 int        `db:"level" json:"level"`
	ConsecutiveActiveDays int        `db:"consecutive_active_days" json:"consecutive_active_days"`
	TotalActiveDays       int        `db:"total_active_days" json:"total_active_days"`
	LastActiveOn          *time.Time `db:"last_active_on" json:"last_active_on,omitempty"`
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
