package service

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

type notificationRepository interface {
	Create(ctx context.Context, n *models.Notification) error
	List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error)
	CountUnread(ctx context.Context, userID string) (int, error)
	Exists(ctx context.Context, userID, id string) (bool, error)
	MarkRead(ctx context.Context, userID, id string) (int64, error)
	MarkAllRead(ctx context.Context, userID string) (int64, error)
	Delete(ctx context.Context, userID, id string) (int64, error)
}

// NotificationService writes and manages user notifications.
type NotificationService struct {
	repo     notificationRepository
	logger   *zap.Logger
	pageSize int
}

// NewNotificationService constructs the service. pageSize is the default listing size.
func NewNotificationService(repo notificationRepository, logger *zap.Logger, pageSize int) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NotificationService{repo: repo, logger: logger, pageSize: pageSize}
}

// Emit stores a new unread notification. The title comes from the type.
func (s *NotificationService) Emit(ctx context.Context, userID string, nType models.NotificationType, message string, relatedID *string) (*models.Notification, error) {
	ctx, span := tracer.Start(ctx, "notify.emit", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.String("notification.type", string(nType)),
	))
	defer span.End()

	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user id is required")
	}

	notification := &models.Notification{
		UserID:    userID,
		Type:      nType,
		Title:     nType.Title(),
		Message:   message,
		RelatedID: relatedID,
	}
	if err := s.repo.Create(ctx, notification); err != nil {
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notification")
	}
	return notification, nil
}

// List returns a page of the user's notifications, newest first.
func (s *NotificationService) List(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, *models.Pagination, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 || filter.PageSize > 100 {
		filter.PageSize = s.pageSize
	}
	if filter.Type != nil && strings.TrimSpace(string(*filter.Type)) == "" {
		filter.Type = nil
	}

	items, total, err := s.repo.List(ctx, userID, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	if items == nil {
		items = []models.Notification{}
	}
	return items, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: total}, nil
}

// UnreadCount returns how many notifications the user has not read yet.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	count, err := s.repo.CountUnread(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count notifications")
	}
	return count, nil
}

// MarkRead flags a notification as read. Marking an already read notification is a no-op;
// notifications of other users are reported as not found.
func (s *NotificationService) MarkRead(ctx context.Context, userID, id string) error {
	affected, err := s.repo.MarkRead(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification")
	}
	if affected > 0 {
		return nil
	}
	exists, err := s.repo.Exists(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
	}
	return nil
}

// MarkAllRead flags every unread notification of the user and returns how many changed.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) (int64, error) {
	affected, err := s.repo.MarkAllRead(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications")
	}
	return affected, nil
}

// Delete removes a notification of the user. Deleting a missing notification is a no-op.
func (s *NotificationService) Delete(ctx context.Context, userID, id string) error {
	affected, err := s.repo.Delete(ctx, userID, id)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notification")
	}
	if affected == 0 {
		s.logger.Debug("notification delete matched nothing", zap.String("user_id", userID), zap.String("notification_id", id))
	}
	return nil
}
