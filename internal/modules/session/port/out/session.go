package out

import (
	"context"

	"studystreak/internal/modules/session/domain"
)

type ActiveSessionStore interface {
	SaveActive(ctx context.Context, session domain.ActiveSession) error
	LoadActive(ctx context.Context, userID string) (domain.ActiveSession, error)
	ClearActive(ctx context.Context, userID string) error
}
