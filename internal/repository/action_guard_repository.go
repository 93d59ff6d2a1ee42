package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrActionGuardDisabled is returned by Claim when no Redis client is configured.
var ErrActionGuardDisabled = errors.New("action guard disabled: redis is not configured")

// ActionGuardRepository claims per-action keys so a user action is rewarded once.
type ActionGuardRepository struct {
	client *redis.Client
	prefix string
}

// NewActionGuardRepository constructs the guard. With a nil client every claim fails
// with ErrActionGuardDisabled, so callers decide whether to proceed unguarded.
func NewActionGuardRepository(client *redis.Client) *ActionGuardRepository {
	return &ActionGuardRepository{client: client, prefix: "progression:action"}
}

func (r *ActionGuardRepository) key(userID, actionKey string) string {
	return fmt.Sprintf("%s:%s:%s", r.prefix, userID, actionKey)
}

// Claim records the action key for ttl, or forever when ttl is zero. It returns
// false when the key was already claimed.
func (r *ActionGuardRepository) Claim(ctx context.Context, userID, actionKey string, ttl time.Duration) (bool, error) {
	if r.client == nil {
		return false, ErrActionGuardDisabled
	}
	ok, err := r.client.SetNX(ctx, r.key(userID, actionKey), time.Now().UTC().Format(time.RFC3339), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("claim action key: %w", err)
	}
	return ok, nil
}

// Release drops a claimed key so the action can be retried.
func (r *ActionGuardRepository) Release(ctx context.Context, userID, actionKey string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, r.key(userID, actionKey)).Err(); err != nil {
		return fmt.Errorf("release action key: %w", err)
	}
	return nil
}
