package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gamification-api/internal/dto"
	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

type xpLedger interface {
	GrantXP(ctx context.Context, userID string, amount int64) (*models.GrantResult, error)
}

type badgeEvaluator interface {
	EvaluateBadges(ctx context.Context, userID string, facts models.EventFacts) ([]models.BadgeDefinition, error)
}

type notificationEmitter interface {
	Emit(ctx context.Context, userID string, nType models.NotificationType, message string, relatedID *string) (*models.Notification, error)
}

type actionGuard interface {
	Claim(ctx context.Context, userID, actionKey string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, userID, actionKey string) error
}

type cacheInvalidator interface {
	Invalidate(ctx context.Context, pattern string, keys ...string) error
}

// ProgressionConfig tunes the orchestrator.
type ProgressionConfig struct {
	ActionKeyTTL time.Duration
}

// ProgressionService is the single entry point feature code calls to reward a user.
// Only the ledger step can fail an award; badge evaluation, notifications and cache
// invalidation run afterwards and their failures are logged and counted.
type ProgressionService struct {
	ledger    xpLedger
	evaluator badgeEvaluator
	notifier  notificationEmitter
	guard     actionGuard
	cache     cacheInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    ProgressionConfig
}

// NewProgressionService wires the orchestrator. guard and cache may be nil.
func NewProgressionService(
	ledger xpLedger,
	evaluator badgeEvaluator,
	notifier notificationEmitter,
	guard actionGuard,
	cache cacheInvalidator,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg ProgressionConfig,
) *ProgressionService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	if err := validate.RegisterValidation("reason_tag", validateReasonTag); err != nil {
		logger.Warn("failed to register reason_tag validation", zap.Error(err))
	}
	if cfg.ActionKeyTTL <= 0 {
		cfg.ActionKeyTTL = 10 * time.Minute
	}
	return &ProgressionService{
		ledger:    ledger,
		evaluator: evaluator,
		notifier:  notifier,
		guard:     guard,
		cache:     cache,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
	}
}

// AwardProgression grants XP, evaluates badges and emits notifications in that order.
// Admin targets yield Success=false without side effects.
func (s *ProgressionService) AwardProgression(ctx context.Context, req dto.AwardRequest) (*dto.AwardResult, error) {
	ctx, span := tracer.Start(ctx, "progression.award", trace.WithAttributes(
		attribute.String("user.id", req.UserID),
		attribute.String("award.reason", req.Reason),
		attribute.Int64("award.xp", req.XPAmount),
	))
	defer span.End()

	if strings.TrimSpace(req.UserID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "an authenticated user is required")
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid award payload")
	}

	if req.OneTime && req.ActionKey == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "one-time awards require an action key")
	}
	if req.OneTime && s.guard == nil {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "one-time awards cannot be verified right now")
	}

	claimed := false
	if req.ActionKey != "" && s.guard != nil {
		ttl := s.config.ActionKeyTTL
		if req.OneTime {
			ttl = 0
		}
		ok, err := s.guard.Claim(ctx, req.UserID, req.ActionKey, ttl)
		switch {
		case err != nil && req.OneTime:
			s.sideEffectFailed(StageActionGuard, "failed to claim one-time action key", err, zap.String("action_key", req.ActionKey))
			recordSpanError(span, err)
			return nil, appErrors.Wrap(err, appErrors.ErrUnavailable.Code, appErrors.ErrUnavailable.Status, "one-time awards cannot be verified right now")
		case err != nil:
			s.sideEffectFailed(StageActionGuard, "failed to claim action key", err, zap.String("action_key", req.ActionKey))
		case !ok:
			return nil, appErrors.Clone(appErrors.ErrDuplicateAction, fmt.Sprintf("action %q was already rewarded", req.ActionKey))
		default:
			claimed = true
		}
	}

	grant, err := s.ledger.GrantXP(ctx, req.UserID, req.XPAmount)
	if err != nil {
		if claimed {
			if releaseErr := s.guard.Release(ctx, req.UserID, req.ActionKey); releaseErr != nil {
				s.logger.Warn("failed to release action key", zap.String("action_key", req.ActionKey), zap.Error(releaseErr))
			}
		}
		recordSpanError(span, err)
		return nil, err
	}

	result := &dto.AwardResult{
		NewTotal:          grant.NewTotal,
		OldLevel:          grant.OldLevel,
		NewLevel:          grant.NewLevel,
		Tier:              models.TierOf(grant.NewLevel).Name,
		NewlyEarnedBadges: []models.BadgeDefinition{},
	}
	if !grant.Applied {
		s.metrics.RecordExemptAward()
		span.SetAttributes(attribute.Bool("award.exempt", true))
		return result, nil
	}

	result.Success = true
	result.XPGranted = req.XPAmount
	result.LeveledUp = grant.LeveledUp
	s.metrics.RecordXPAwarded(req.Reason, req.XPAmount)
	if grant.LeveledUp {
		s.metrics.RecordLevelUp()
	}

	badges, err := s.evaluator.EvaluateBadges(ctx, req.UserID, req.Facts)
	if err != nil {
		s.sideEffectFailed(StageEvaluate, "failed to evaluate badges", err, zap.String("user_id", req.UserID))
	} else {
		result.NewlyEarnedBadges = badges
		for _, badge := range badges {
			s.metrics.RecordBadgeEarned(badge.Name)
		}
	}

	s.emit(ctx, StageNotifyXP, req.UserID, models.NotificationXPEarned,
		fmt.Sprintf("You earned %d XP for: %s", req.XPAmount, req.Reason), req.RelatedID)
	if grant.LeveledUp {
		s.emit(ctx, StageNotifyLevelUp, req.UserID, models.NotificationLevelUp,
			fmt.Sprintf("Congratulations! You reached level %d!", grant.NewLevel), nil)
	}
	for _, badge := range result.NewlyEarnedBadges {
		badgeID := badge.ID
		s.emit(ctx, StageNotifyBadge, req.UserID, models.NotificationBadgeEarned,
			fmt.Sprintf("You earned the badge: %s", badge.Name), &badgeID)
	}

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, leaderboardCachePattern, SummaryCacheKey(req.UserID)); err != nil {
			s.sideEffectFailed(StageCacheInvalidate, "failed to invalidate progression cache", err)
		}
	}

	span.SetAttributes(
		attribute.Bool("award.leveled_up", result.LeveledUp),
		attribute.Int("award.badges", len(result.NewlyEarnedBadges)),
	)
	return result, nil
}

// AwardAction rewards a named portal action with its fixed XP value on behalf of
// the acting user. Role-restricted actions are refused for other roles, and one-time
// actions always use their fixed key regardless of the key the caller sent.
func (s *ProgressionService) AwardAction(ctx context.Context, userID string, role models.UserRole, req dto.ActionAwardRequest) (*dto.AwardResult, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "an authenticated user is required")
	}
	rule, ok := LookupAction(req.Action)
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unknown action %q", req.Action))
	}
	if !rule.Allows(role) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, fmt.Sprintf("role %q may not claim action %q", role, req.Action))
	}

	award := dto.AwardRequest{
		UserID:    userID,
		XPAmount:  rule.XP,
		Reason:    rule.Reason,
		RelatedID: req.RelatedID,
		ActionKey: req.ActionKey,
	}
	if rule.OnceKey != "" {
		award.ActionKey = rule.OnceKey
		award.OneTime = true
	}
	return s.AwardProgression(ctx, award)
}

// AwardQuizCompletion scores a finished quiz and rewards it. The attempt id, when
// present, guards the attempt against being rewarded twice.
func (s *ProgressionService) AwardQuizCompletion(ctx context.Context, quiz dto.QuizCompletion) (*dto.AwardResult, error) {
	if strings.TrimSpace(quiz.UserID) == "" {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "an authenticated user is required")
	}
	if err := s.validator.Struct(quiz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid quiz completion payload")
	}

	req := dto.AwardRequest{
		UserID:    quiz.UserID,
		XPAmount:  QuizXP(quiz.Percentage, quiz.Difficulty),
		Reason:    ActionCompleteQuiz,
		RelatedID: &quiz.QuizID,
		Facts:     QuizFacts(quiz.Percentage, quiz.Difficulty),
	}
	if quiz.AttemptID != "" {
		req.ActionKey = "quiz:" + quiz.AttemptID
	}
	return s.AwardProgression(ctx, req)
}

func (s *ProgressionService) emit(ctx context.Context, stage, userID string, nType models.NotificationType, message string, relatedID *string) {
	if _, err := s.notifier.Emit(ctx, userID, nType, message, relatedID); err != nil {
		s.sideEffectFailed(stage, "failed to emit notification", err, zap.String("user_id", userID), zap.String("type", string(nType)))
	}
}

func (s *ProgressionService) sideEffectFailed(stage, msg string, err error, fields ...zap.Field) {
	s.metrics.RecordSideEffectFailure(stage)
	s.logger.Warn(msg, append(fields, zap.String("stage", stage), zap.Error(err))...)
}
