package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

// memoryLedgerStore applies increments under a lock, mirroring the single UPDATE statement.
type memoryLedgerStore struct {
	mu           sync.Mutex
	users        map[string]*models.User
	findErr      error
	incrementErr error
	increments   int
}

func newMemoryLedgerStore(users ...models.User) *memoryLedgerStore {
	store := &memoryLedgerStore{users: map[string]*models.User{}}
	for i := range users {
		u := users[i]
		store.users[u.ID] = &u
	}
	return store
}

func (m *memoryLedgerStore) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.findErr != nil {
		return nil, m.findErr
	}
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *user
	return &clone, nil
}

func (m *memoryLedgerStore) IncrementXP(_ context.Context, id string, amount int64, _ time.Time) (int64, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.increments++
	if m.incrementErr != nil {
		return 0, 0, m.incrementErr
	}
	user, ok := m.users[id]
	if !ok || user.Role == models.RoleAdmin {
		return 0, 0, sql.ErrNoRows
	}
	user.XPPoints += amount
	user.Level = models.LevelOf(user.XPPoints)
	return user.XPPoints, user.Level, nil
}

func TestGrantXPConcurrentGrantsSum(t *testing.T) {
	store := newMemoryLedgerStore(models.User{ID: "u1", Role: models.RoleStudent, Level: 1})
	svc := NewLedgerService(store, nil)

	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.GrantXP(context.Background(), "u1", 10)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(20), store.users["u1"].XPPoints)
	assert.Equal(t, 1, store.users["u1"].Level)
}

func TestGrantXPLevelsUp(t *testing.T) {
	store := newMemoryLedgerStore(models.User{ID: "u1", Role: models.RoleStudent, XPPoints: 490, Level: 1})
	svc := NewLedgerService(store, nil)

	result, err := svc.GrantXP(context.Background(), "u1", 20)
	require.NoError(t, err)
	assert.True(t, result.Applied)
	assert.Equal(t, int64(490), result.OldTotal)
	assert.Equal(t, int64(510), result.NewTotal)
	assert.Equal(t, 1, result.OldLevel)
	assert.Equal(t, 2, result.NewLevel)
	assert.True(t, result.LeveledUp)
}

func TestGrantXPAdminIsExempt(t *testing.T) {
	store := newMemoryLedgerStore(models.User{ID: "admin", Role: models.RoleAdmin, XPPoints: 0, Level: 1})
	svc := NewLedgerService(store, nil)

	result, err := svc.GrantXP(context.Background(), "admin", 50)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, int64(0), result.NewTotal)
	assert.Zero(t, store.increments)
}

func TestGrantXPRejectsNegativeAmount(t *testing.T) {
	store := newMemoryLedgerStore(models.User{ID: "u1", Role: models.RoleStudent})
	svc := NewLedgerService(store, nil)

	_, err := svc.GrantXP(context.Background(), "u1", -5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.increments)
}

func TestGrantXPUnknownUser(t *testing.T) {
	store := newMemoryLedgerStore()
	svc := NewLedgerService(store, nil)

	_, err := svc.GrantXP(context.Background(), "ghost", 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	assert.Zero(t, store.increments)
}

func TestGrantXPStoreFailure(t *testing.T) {
	store := newMemoryLedgerStore(models.User{ID: "u1", Role: models.RoleStudent})
	store.incrementErr = errors.New("connection reset")
	svc := NewLedgerService(store, nil)

	_, err := svc.GrantXP(context.Background(), "u1", 5)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestGrantXPUserPromotedBetweenReadAndWrite(t *testing.T) {
	store := newMemoryLedgerStore(models.User{ID: "u1", Role: models.RoleStudent, XPPoints: 30})
	store.incrementErr = sql.ErrNoRows
	svc := NewLedgerService(store, nil)

	result, err := svc.GrantXP(context.Background(), "u1", 5)
	require.NoError(t, err)
	assert.False(t, result.Applied)
	assert.Equal(t, int64(30), result.NewTotal)
}
