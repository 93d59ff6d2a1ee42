package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/sma-gamification-api/internal/dto"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

type badgeRepository interface {
	ListCatalog(ctx context.Context) ([]models.BadgeDefinition, error)
	ListEarned(ctx context.Context, userID string) ([]models.EarnedBadge, error)
	Award(ctx context.Context, userID string, badgeIDs []string, earnedAt time.Time) ([]string, error)
}

type activityRepository interface {
	Snapshot(ctx context.Context, userID string) (*models.MetricsSnapshot, error)
}

// BadgeService evaluates badge thresholds and reports badge progress.
type BadgeService struct {
	badges   badgeRepository
	activity activityRepository
	logger   *zap.Logger
	now      func() time.Time
}

// NewBadgeService constructs the badge evaluator.
func NewBadgeService(badges badgeRepository, activity activityRepository, logger *zap.Logger) *BadgeService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BadgeService{badges: badges, activity: activity, logger: logger, now: time.Now}
}

type badgeState struct {
	catalog  []models.BadgeDefinition
	earned   map[string]time.Time
	snapshot *models.MetricsSnapshot
}

func (s *BadgeService) loadState(ctx context.Context, userID string) (*badgeState, error) {
	var (
		state  badgeState
		earned []models.EarnedBadge
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		catalog, err := s.badges.ListCatalog(gctx)
		state.catalog = catalog
		return err
	})
	g.Go(func() error {
		rows, err := s.badges.ListEarned(gctx, userID)
		earned = rows
		return err
	})
	g.Go(func() error {
		snapshot, err := s.activity.Snapshot(gctx, userID)
		state.snapshot = snapshot
		return err
	})
	if err := g.Wait(); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load badge state")
	}

	state.earned = make(map[string]time.Time, len(earned))
	for _, e := range earned {
		state.earned[e.BadgeID] = e.EarnedAt
	}
	return &state, nil
}

// EvaluateBadges awards every catalog badge whose threshold the user now meets
// and returns only the badges earned by this call. facts are merged over the
// stored metrics for event-only requirements such as perfect_quiz.
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID string, facts models.EventFacts) ([]models.BadgeDefinition, error) {
	ctx, span := tracer.Start(ctx, "badges.evaluate", trace.WithAttributes(attribute.String("user.id", userID)))
	defer span.End()

	state, err := s.loadState(ctx, userID)
	if err != nil {
		recordSpanError(span, err)
		return nil, err
	}
	state.snapshot.Facts = facts

	var candidates []string
	for _, badge := range state.catalog {
		if _, owned := state.earned[badge.ID]; owned {
			continue
		}
		if state.snapshot.Qualifies(badge) {
			candidates = append(candidates, badge.ID)
		}
	}
	if len(candidates) == 0 {
		return []models.BadgeDefinition{}, nil
	}

	inserted, err := s.badges.Award(ctx, userID, candidates, s.now().UTC())
	if err != nil {
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to award badges")
	}

	insertedSet := make(map[string]struct{}, len(inserted))
	for _, id := range inserted {
		insertedSet[id] = struct{}{}
	}
	newlyEarned := make([]models.BadgeDefinition, 0, len(inserted))
	for _, badge := range state.catalog {
		if _, ok := insertedSet[badge.ID]; ok {
			newlyEarned = append(newlyEarned, badge)
		}
	}
	span.SetAttributes(attribute.Int("badges.earned", len(newlyEarned)))
	return newlyEarned, nil
}

// ListWithProgress returns the catalog split into earned and locked badges with the
// user's progress towards each. Admin-only badges are hidden from viewers that are
// neither admin nor hacker.
func (s *BadgeService) ListWithProgress(ctx context.Context, userID string, viewerRole models.UserRole) (*dto.BadgeOverview, error) {
	state, err := s.loadState(ctx, userID)
	if err != nil {
		return nil, err
	}

	overview := &dto.BadgeOverview{Earned: []dto.BadgeProgress{}, Locked: []dto.BadgeProgress{}}
	for _, badge := range state.catalog {
		if badge.AdminOnly && !viewerRole.CanSeeAdminBadges() {
			continue
		}
		progress, _ := state.snapshot.Value(badge.RequirementType)
		item := dto.BadgeProgress{
			BadgeDefinition:    badge,
			Progress:           progress,
			ProgressPercentage: progressPercentage(progress, badge.RequirementValue),
		}
		if earnedAt, ok := state.earned[badge.ID]; ok {
			earnedAt := earnedAt
			item.Earned = true
			item.EarnedAt = &earnedAt
			item.ProgressPercentage = 100
			overview.Earned = append(overview.Earned, item)
			continue
		}
		overview.Locked = append(overview.Locked, item)
	}
	return overview, nil
}

func progressPercentage(progress, required int64) float64 {
	if required <= 0 {
		return 100
	}
	pct := float64(progress) / float64(required) * 100
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
