package in

import (
	"context"

	"studystreak/internal/modules/streak/dto"
	streakin "studystreak/internal/modules/streak/port/in"
)

type CLIHandler struct {
	usecase streakin.Usecase
	social  streakin.SocialUsecase
}

func NewCLIHandler(usecase streakin.Usecase, social streakin.SocialUsecase) CLIHandler {
	return CLIHandler{usecase: usecase, social: social}
}

func (h CLIHandler) Register(ctx context.Context, userID string) (dto.UserOutput, error) {
	return h.usecase.Register(ctx, dto.RegisterInput{UserID: userID})
}

func (h CLIHandler) Show(ctx context.Context, userID string) (dto.UserOutput, error) {
	return h.usecase.GetUser(ctx, userID)
}

func (h CLIHandler) CompleteSession(ctx context.Context, userID string, durationSeconds int, subjectID, chapterID string) (dto.CompleteSessionOutput, error) {
	return h.usecase.CompleteSession(ctx, dto.CompleteSessionInput{
		UserID:          userID,
		DurationSeconds: durationSeconds,
		SubjectID:       subjectID,
		ChapterID:       chapterID,
	})
}

func (h CLIHandler) ValidateStreak(ctx context.Context, userID string) (dto.ValidateOutput, error) {
	return h.usecase.ValidateStreak(ctx, userID)
}

func (h CLIHandler) RepairStreak(ctx context.Context, userID string) (dto.UserOutput, error) {
	return h.usecase.RepairStreak(ctx, userID)
}

func (h CLIHandler) SyncToday(ctx context.Context, userID string) (dto.SyncTodayOutput, error) {
	return h.usecase.SyncToday(ctx, userID)
}

func (h CLIHandler) SyncXP(ctx context.Context, userID string) (dto.SyncXPOutput, error) {
	return h.usecase.SyncXP(ctx, userID)
}

func (h CLIHandler) History(ctx context.Context, userID string, days int) (dto.HistoryOutput, error) {
	return h.usecase.History(ctx, dto.HistoryInput{UserID: userID, Days: days})
}

func (h CLIHandler) Follow(ctx context.Context, userID, targetID string) (dto.FollowOutput, error) {
	return h.social.Follow(ctx, dto.FollowInput{UserID: userID, TargetID: targetID})
}

func (h CLIHandler) Unfollow(ctx context.Context, userID, targetID string) (dto.FollowOutput, error) {
	return h.social.Unfollow(ctx, dto.FollowInput{UserID: userID, TargetID: targetID})
}

func (h CLIHandler) Feed(ctx context.Context, userID string, limit int) ([]dto.ActivityOutput, error) {
	return h.social.Feed(ctx, dto.FeedInput{UserID: userID, Limit: limit})
}
