package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-gamification-api/internal/models"
	appErrors "github.com/noah-isme/sma-gamification-api/pkg/errors"
)

type ledgerStore interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	IncrementXP(ctx context.Context, id string, amount int64, day time.Time) (int64, int, error)
}

// LedgerService grants XP and keeps the stored level consistent with the total.
type LedgerService struct {
	store  ledgerStore
	logger *zap.Logger
	now    func() time.Time
}

// NewLedgerService constructs the XP ledger.
func NewLedgerService(store ledgerStore, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{store: store, logger: logger, now: time.Now}
}

// GrantXP adds amount to the user's total. Admin accounts are left untouched and
// reported with Applied=false. The increment is applied by the store as a relative
// delta, so concurrent grants for the same user never lose an update.
func (s *LedgerService) GrantXP(ctx context.Context, userID string, amount int64) (*models.GrantResult, error) {
	ctx, span := tracer.Start(ctx, "ledger.grant", trace.WithAttributes(
		attribute.String("user.id", userID),
		attribute.Int64("xp.amount", amount),
	))
	defer span.End()

	if amount < 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "xp amount must not be negative")
	}

	user, err := s.store.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	unchanged := &models.GrantResult{
		OldTotal: user.XPPoints,
		NewTotal: user.XPPoints,
		OldLevel: models.LevelOf(user.XPPoints),
		NewLevel: models.LevelOf(user.XPPoints),
	}
	if !user.Role.EarnsXP() {
		span.SetAttributes(attribute.Bool("xp.exempt", true))
		return unchanged, nil
	}

	total, level, err := s.store.IncrementXP(ctx, userID, amount, s.now())
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// deleted or promoted to admin since the read
			s.logger.Info("xp grant matched no eligible user", zap.String("user_id", userID))
			return unchanged, nil
		}
		recordSpanError(span, err)
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to grant xp")
	}

	oldTotal := total - amount
	oldLevel := models.LevelOf(oldTotal)
	result := &models.GrantResult{
		Applied:   true,
		OldTotal:  oldTotal,
		NewTotal:  total,
		OldLevel:  oldLevel,
		NewLevel:  level,
		LeveledUp: level > oldLevel,
	}
	span.SetAttributes(attribute.Int64("xp.total", total), attribute.Int("xp.level", level))
	return result, nil
}
