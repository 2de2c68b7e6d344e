package in

import (
	"context"

	"studystreak/internal/modules/streak/dto"
)

type Usecase interface {
	Register(ctx context.Context, input dto.RegisterInput) (dto.UserOutput, error)
	GetUser(ctx context.Context, userID string) (dto.UserOutput, error)
	CompleteSession(ctx context.Context, input dto.CompleteSessionInput) (dto.CompleteSessionOutput, error)
	ValidateStreak(ctx context.Context, userID string) (dto.ValidateOutput, error)
	RepairStreak(ctx context.Context, userID string) (dto.UserOutput, error)
	SyncToday(ctx context.Context, userID string) (dto.SyncTodayOutput, error)
	SyncXP(ctx context.Context, userID string) (dto.SyncXPOutput, error)
	History(ctx context.Context, input dto.HistoryInput) (dto.HistoryOutput, error)
}

type SocialUsecase interface {
	Follow(ctx context.Context, input dto.FollowInput) (dto.FollowOutput, error)
	Unfollow(ctx context.Context, input dto.FollowInput) (dto.FollowOutput, error)
	Feed(ctx context.Context, input dto.FeedInput) ([]dto.ActivityOutput, error)
}
