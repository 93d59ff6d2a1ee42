package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

type stubCacheRepo struct {
	getErr     error
	deleteErr  error
	setTTL     time.Duration
	deleted    []string
	patterns   []string
	getPayload string
}

func (s *stubCacheRepo) Get(_ context.Context, _ string, dest interface{}) error {
	if s.getErr != nil {
		return s.getErr
	}
	if ptr, ok := dest.(*string); ok {
		*ptr = s.getPayload
	}
	return nil
}

func (s *stubCacheRepo) Set(_ context.Context, _ string, _ interface{}, ttl time.Duration) error {
	s.setTTL = ttl
	return nil
}

func (s *stubCacheRepo) Delete(_ context.Context, keys ...string) error {
	s.deleted = append(s.deleted, keys...)
	return s.deleteErr
}

func (s *stubCacheRepo) DeleteByPattern(_ context.Context, pattern string) error {
	s.patterns = append(s.patterns, pattern)
	return nil
}

func TestCacheServiceHitAndMiss(t *testing.T) {
	repo := &stubCacheRepo{getPayload: "cached"}
	metrics := NewMetricsService()
	svc := NewCacheService(repo, metrics, time.Minute, nil, true)

	var value string
	hit, err := svc.Get(context.Background(), "k", &value)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "cached", value)

	repo.getErr = appErrors.ErrCacheMiss
	hit, err = svc.Get(context.Background(), "k", &value)
	require.NoError(t, err)
	assert.False(t, hit)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheHits))
	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.cacheMisses))
	assert.Equal(t, 0.5, metrics.Snapshot().CacheHitRatio)
}

func TestCacheServiceDefaultTTLAndDisabled(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, 0, nil, true)
	require.NoError(t, svc.Set(context.Background(), "k", 1, 0))
	assert.Equal(t, 2*time.Minute, repo.setTTL)

	disabled := NewCacheService(repo, nil, 0, nil, false)
	hit, err := disabled.Get(context.Background(), "k", new(string))
	require.NoError(t, err)
	assert.False(t, hit)
	require.NoError(t, disabled.Invalidate(context.Background(), "p:*", "k"))
	assert.Empty(t, repo.deleted)
}

func TestCacheServiceInvalidate(t *testing.T) {
	repo := &stubCacheRepo{}
	svc := NewCacheService(repo, nil, 0, nil, true)

	require.NoError(t, svc.Invalidate(context.Background(), leaderboardCachePattern, SummaryCacheKey("u1")))
	assert.Equal(t, []string{"gamification:summary:u1"}, repo.deleted)
	assert.Equal(t, []string{"gamification:leaderboard:*"}, repo.patterns)

	repo.deleteErr = errors.New("redis down")
	assert.Error(t, svc.Invalidate(context.Background(), leaderboardCachePattern, "x"))
}
