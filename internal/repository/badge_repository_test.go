package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gamification-api/internal/models"
)

func TestListCatalog(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "description", "icon", "requirement_type", "requirement_value", "admin_only", "rarity"}).
		AddRow("b1", "First Upload", "Upload one material", nil, "materials_uploaded", 1, false, "common").
		AddRow("b2", "Class Hacker", "Secret", nil, "unknown_metric", 1, true, nil)
	mock.ExpectQuery(regexp.QuoteMeta("FROM badges ORDER BY requirement_value ASC, name ASC")).WillReturnRows(rows)

	badges, err := repo.ListCatalog(context.Background())
	require.NoError(t, err)
	require.Len(t, badges, 2)
	assert.Equal(t, models.RequirementMaterialsUploaded, badges[0].RequirementType)
	assert.True(t, badges[1].AdminOnly)
	assert.Nil(t, badges[1].Rarity)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardReturnsOnlyInsertedBadges(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	earnedAt := time.Now().UTC()
	mock.ExpectQuery(`INSERT INTO user_badges .* ON CONFLICT \(user_id, badge_id\) DO NOTHING\s+RETURNING badge_id`).
		WithArgs("u1", sqlmock.AnyArg(), earnedAt).
		WillReturnRows(sqlmock.NewRows([]string{"badge_id"}).AddRow("b2"))

	inserted, err := repo.Award(context.Background(), "u1", []string{"b1", "b2"}, earnedAt)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2"}, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAwardWithoutBadgesSkipsQuery(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	inserted, err := repo.Award(context.Background(), "u1", nil, time.Now())
	require.NoError(t, err)
	assert.Empty(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListEarnedAndCount(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewBadgeRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id, badge_id, earned_at FROM user_badges WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "badge_id", "earned_at"}).AddRow("u1", "b1", now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM user_badges WHERE user_id = $1")).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	earned, err := repo.ListEarned(context.Background(), "u1")
	require.NoError(t, err)
	assert.Len(t, earned, 1)

	total, err := repo.CountEarned(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
