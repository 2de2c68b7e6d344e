package out

import (
	"context"

	"studystreak/internal/modules/streak/domain"
	"studystreak/internal/platform/calendar"
)

// AggregateStore persists one UserAggregate per user. Get returns
// apperrors.ErrNotFound for unknown users and Create returns
// apperrors.ErrAlreadyExists for known ones.
type AggregateStore interface {
	Create(ctx context.Context, user domain.UserAggregate) error
	Get(ctx context.Context, userID string) (domain.UserAggregate, error)
	Save(ctx context.Context, user domain.UserAggregate) error
}

// Ledger is append-only: entries are never updated or deleted.
type Ledger interface {
	Append(ctx context.Context, entry domain.SessionEntry) error
	List(ctx context.Context, userID string, from, to calendar.Day) ([]domain.SessionEntry, error)
}

type ActivityFeed interface {
	Emit(ctx context.Context, activity domain.Activity) error
	Recent(ctx context.Context, userIDs []string, limit int) ([]domain.Activity, error)
}

// Recorder receives engine observations for metrics.
type Recorder interface {
	SessionCompleted(durationSeconds int, firstOfDay bool)
	CoinsEarned(n int)
	CharacterUnlocked(characterID string)
	StreakEvent(event string)
	ActivityEmitFailed()
	ReconcileWrite(kind string)
}
