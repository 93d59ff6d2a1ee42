package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

type fakeNotificationRepo struct {
	items      map[string]*models.Notification
	createErr  error
	lastFilter models.NotificationFilter
}

func newFakeNotificationRepo(items ...models.Notification) *fakeNotificationRepo {
	repo := &fakeNotificationRepo{items: map[string]*models.Notification{}}
	for i := range items {
		n := items[i]
		repo.items[n.ID] = &n
	}
	return repo
}

func (f *fakeNotificationRepo) Create(_ context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	if n.ID == "" {
		n.ID = "generated"
	}
	f.items[n.ID] = n
	return nil
}

func (f *fakeNotificationRepo) List(_ context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	f.lastFilter = filter
	var out []models.Notification
	for _, n := range f.items {
		if n.UserID == userID && (!filter.UnreadOnly || !n.IsRead) {
			out = append(out, *n)
		}
	}
	return out, len(out), nil
}

func (f *fakeNotificationRepo) CountUnread(_ context.Context, userID string) (int, error) {
	count := 0
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}

func (f *fakeNotificationRepo) Exists(_ context.Context, userID, id string) (bool, error) {
	n, ok := f.items[id]
	return ok && n.UserID == userID, nil
}

func (f *fakeNotificationRepo) MarkRead(_ context.Context, userID, id string) (int64, error) {
	n, ok := f.items[id]
	if !ok || n.UserID != userID || n.IsRead {
		return 0, nil
	}
	n.IsRead = true
	return 1, nil
}

func (f *fakeNotificationRepo) MarkAllRead(_ context.Context, userID string) (int64, error) {
	var affected int64
	for _, n := range f.items {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			affected++
		}
	}
	return affected, nil
}

func (f *fakeNotificationRepo) Delete(_ context.Context, userID, id string) (int64, error) {
	n, ok := f.items[id]
	if !ok || n.UserID != userID {
		return 0, nil
	}
	delete(f.items, id)
	return 1, nil
}

func TestEmitUsesTypeTitle(t *testing.T) {
	repo := newFakeNotificationRepo()
	svc := NewNotificationService(repo, nil, 0)

	n, err := svc.Emit(context.Background(), "u1", models.NotificationBadgeEarned, "You earned the badge: Starter", nil)
	require.NoError(t, err)
	assert.Equal(t, "New Badge", n.Title)
	assert.False(t, n.IsRead)

	n, err = svc.Emit(context.Background(), "u1", models.NotificationType("announcement"), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, models.DefaultNotificationTitle, n.Title)
}

func TestEmitFailure(t *testing.T) {
	repo := newFakeNotificationRepo()
	repo.createErr = errors.New("insert failed")
	svc := NewNotificationService(repo, nil, 0)

	_, err := svc.Emit(context.Background(), "u1", models.NotificationXPEarned, "x", nil)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)

	_, err = svc.Emit(context.Background(), " ", models.NotificationXPEarned, "x", nil)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNotificationListDefaults(t *testing.T) {
	repo := newFakeNotificationRepo(
		models.Notification{ID: "n1", UserID: "u1"},
		models.Notification{ID: "n2", UserID: "u1", IsRead: true},
		models.Notification{ID: "n3", UserID: "u2"},
	)
	svc := NewNotificationService(repo, nil, 15)

	items, pagination, err := svc.List(context.Background(), "u1", models.NotificationFilter{UnreadOnly: true})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 15, pagination.PageSize)
	assert.Equal(t, 1, pagination.TotalCount)
	assert.Equal(t, 15, repo.lastFilter.PageSize)
}

func TestMarkReadIsIdempotentAndOwnerScoped(t *testing.T) {
	repo := newFakeNotificationRepo(models.Notification{ID: "n1", UserID: "u1"})
	svc := NewNotificationService(repo, nil, 0)

	require.NoError(t, svc.MarkRead(context.Background(), "u1", "n1"))
	assert.True(t, repo.items["n1"].IsRead)
	require.NoError(t, svc.MarkRead(context.Background(), "u1", "n1"))

	err := svc.MarkRead(context.Background(), "u2", "n1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestMarkAllReadAndUnreadCount(t *testing.T) {
	repo := newFakeNotificationRepo(
		models.Notification{ID: "n1", UserID: "u1"},
		models.Notification{ID: "n2", UserID: "u1"},
		models.Notification{ID: "n3", UserID: "u2"},
	)
	svc := NewNotificationService(repo, nil, 0)

	count, err := svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	affected, err := svc.MarkAllRead(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), affected)

	count, err = svc.UnreadCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
	assert.False(t, repo.items["n3"].IsRead)
}

func TestDeleteNotification(t *testing.T) {
	repo := newFakeNotificationRepo(models.Notification{ID: "n1", UserID: "u1"})
	svc := NewNotificationService(repo, nil, 0)

	require.NoError(t, svc.Delete(context.Background(), "u2", "n1"))
	assert.Contains(t, repo.items, "n1")

	require.NoError(t, svc.Delete(context.Background(), "u1", "n1"))
	assert.NotContains(t, repo.items, "n1")
	require.NoError(t, svc.Delete(context.Background(), "u1", "n1"))
}
