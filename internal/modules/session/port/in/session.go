package in

import (
	"context"

	"studystreak/internal/modules/session/dto"
)

type Usecase interface {
	Start(ctx context.Context, input dto.StartInput) (dto.StartOutput, error)
	End(ctx context.Context, input dto.EndInput) (dto.EndOutput, error)
	Cancel(ctx context.Context, userID string) error
	GetActive(ctx context.Context, userID string) (dto.ActiveSessionOutput, error)
}
