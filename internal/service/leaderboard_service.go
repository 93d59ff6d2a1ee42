package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-gamification-api/internal/dto"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

const (
	leaderboardCachePattern = "gamification:leaderboard:*"
	summaryCachePrefix      = "gamification:summary:"
)

// LeaderboardCacheKey is the cache key of a leaderboard of the given size.
func LeaderboardCacheKey(limit int) string {
	return fmt.Sprintf("gamification:leaderboard:%d", limit)
}

// SummaryCacheKey is the cache key of a user's progression summary.
func SummaryCacheKey(userID string) string {
	return summaryCachePrefix + userID
}

type progressionReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Leaderboard(ctx context.Context, limit int) ([]dto.LeaderboardEntry, error)
	Rank(ctx context.Context, id string) (int, error)
}

type badgeCounter interface {
	CountEarned(ctx context.Context, userID string) (int, error)
}

type readCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

// LeaderboardConfig tunes the read surfaces.
type LeaderboardConfig struct {
	Size     int
	CacheTTL time.Duration
}

// LeaderboardService serves the progression summary and leaderboard, cached in Redis.
type LeaderboardService struct {
	repo   progressionReader
	badges badgeCounter
	cache  readCache
	logger *zap.Logger
	config LeaderboardConfig
	now    func() time.Time
}

// NewLeaderboardService constructs the read service.
func NewLeaderboardService(repo progressionReader, badges badgeCounter, cache readCache, logger *zap.Logger, cfg LeaderboardConfig) *LeaderboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Size <= 0 || cfg.Size > 100 {
		cfg.Size = 10
	}
	return &LeaderboardService{repo: repo, badges: badges, cache: cache, logger: logger, config: cfg, now: time.Now}
}

// Summary returns xp, level, tier, rank and badge count of a user. The boolean reports a cache hit.
func (s *LeaderboardService) Summary(ctx context.Context, userID string) (*dto.ProgressionSummary, bool, error) {
	key := SummaryCacheKey(userID)
	var cached dto.ProgressionSummary
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	var (
		user   *models.User
		rank   int
		badges int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		user, err = s.repo.FindByID(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		rank, err = s.repo.Rank(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		badges, err = s.badges.CountEarned(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load progression summary")
	}

	if !user.Role.EarnsXP() {
		rank = 0
	}
	summary := &dto.ProgressionSummary{
		UserID:                user.ID,
		FullName:              user.FullName,
		Role:                  user.Role,
		Progress:              models.ProgressOf(user.XPPoints),
		Rank:                  rank,
		ConsecutiveActiveDays: user.ConsecutiveActiveDays,
		TotalActiveDays:       user.TotalActiveDays,
		BadgesEarned:          badges,
	}
	if err := s.cache.Set(ctx, key, summary, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache progression summary", zap.String("user_id", userID), zap.Error(err))
	}
	return summary, false, nil
}

// Leaderboard returns the top users by XP. A non-positive limit uses the configured size.
func (s *LeaderboardService) Leaderboard(ctx context.Context, limit int) (*dto.Leaderboard, bool, error) {
	if limit <= 0 || limit > 100 {
		limit = s.config.Size
	}
	key := LeaderboardCacheKey(limit)
	var cached dto.Leaderboard
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return &cached, true, nil
	}

	entries, err := s.repo.Leaderboard(ctx, limit)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load leaderboard")
	}
	if entries == nil {
		entries = []dto.LeaderboardEntry{}
	}
	for i := range entries {
		entries[i].Tier = models.TierOf(entries[i].Level).Name
	}

	board := &dto.Leaderboard{Entries: entries, GeneratedAt: s.now().UTC()}
	if err := s.cache.Set(ctx, key, board, s.config.CacheTTL); err != nil {
		s.logger.Warn("failed to cache leaderboard", zap.Error(err))
	}
	return board, false, nil
}
