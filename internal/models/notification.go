package models

import "time"

// NotificationType classifies notifications shown to a user.
type NotificationType string

const (
	NotificationXPEarned          NotificationType = "xp_earned"
	NotificationLevelUp           NotificationType = "level_up"
	NotificationBadgeEarned       NotificationType = "badge_earned"
	NotificationCommentReply      NotificationType = "comment_reply"
	NotificationExerciseCompleted NotificationType = "exercise_completed"
	NotificationQuizCompleted     NotificationType = "quiz_completed"
	NotificationMaterialUploaded  NotificationType = "material_uploaded"
	NotificationDiscussionCreated NotificationType = "discussion_created"
)

// DefaultNotificationTitle is used for types without a dedicated title.
const DefaultNotificationTitle = "Notification"

var notificationTitles = map[NotificationType]string{
	NotificationXPEarned:          "XP Earned",
	NotificationBadgeEarned:       "New Badge",
	NotificationLevelUp:           "Level Up",
	NotificationCommentReply:      "New Reply",
	NotificationExerciseCompleted: "Exercise Completed",
	NotificationQuizCompleted:     "Quiz Completed",
	NotificationMaterialUploaded:  "Material Uploaded",
	NotificationDiscussionCreated: "Discussion Created",
}

// Title returns the fixed headline for the notification type.
func (t NotificationType) Title() string {
	if title, ok := notificationTitles[t]; ok {
		return title
	}
	return DefaultNotificationTitle
}

// Notification is a user-visible record in the notifications table.
type Notification struct {
	ID        string           `db:"id" json:"id"`
	UserID    string           `db:"user_id" json:"user_id"`
	Type      NotificationType `db:"type" json:"type"`
	Title     string           `db:"title" json:"title"`
	Message   string           `db:"message" json:"message"`
	RelatedID *string          `db:"related_id" json:"related_id,omitempty"`
	IsRead    bool             `db:"is_read" json:"is_read"`
	CreatedAt time.Time        `db:"created_at" json:"created_at"`
}

// NotificationFilter captures listing criteria for a user's notifications.
type NotificationFilter struct {
	UnreadOnly bool
	Type       *NotificationType
	Page       int
	PageSize   int
}
