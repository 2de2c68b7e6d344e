package usecase

import (
	"context"
	"fmt"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	progressiondto "studystreak/internal/modules/progression/dto"
	progressionin "studystreak/internal/modules/progression/port/in"
	"studystreak/internal/modules/streak/domain"
	"studystreak/internal/modules/streak/dto"
	streakin "studystreak/internal/modules/streak/port/in"
	"studystreak/internal/modules/streak/service"
	apperrors "studystreak/internal/platform/errors"
	"studystreak/internal/platform/slug"
)

var validate = validator.New()

type Interactor struct {
	streak      *service.StreakService
	reconcile   *service.ReconcileService
	social      *service.SocialService
	progression progressionin.Usecase
	syncs       singleflight.Group
}

func NewInteractor(streak *service.StreakService, reconcile *service.ReconcileService, social *service.SocialService, progression progressionin.Usecase) *Interactor {
	return &Interactor{streak: streak, reconcile: reconcile, social: social, progression: progression}
}

var (
	_ streakin.Usecase       = (*Interactor)(nil)
	_ streakin.SocialUsecase = (*Interactor)(nil)
)

func (i *Interactor) Register(ctx context.Context, input dto.RegisterInput) (dto.UserOutput, error) {
	if err := check(input); err != nil {
		return dto.UserOutput{}, err
	}
	user, err := i.streak.Register(ctx, input.UserID)
	if err != nil {
		return dto.UserOutput{}, err
	}
	return i.userOutput(user), nil
}

func (i *Interactor) GetUser(ctx context.Context, userID string) (dto.UserOutput, error) {
	user, err := i.streak.Get(ctx, userID)
	if err != nil {
		return dto.UserOutput{}, err
	}
	return i.userOutput(user), nil
}

func (i *Interactor) CompleteSession(ctx context.Context, input dto.CompleteSessionInput) (dto.CompleteSessionOutput, error) {
	if err := check(input); err != nil {
		return dto.CompleteSessionOutput{}, err
	}
	subjectID, chapterID := slug.Make(input.SubjectID), slug.Make(input.ChapterID)
	var (
		res service.CompletionResult
		err error
	)
	if input.SessionID != "" {
		res, err = i.streak.CompleteSessionWithID(ctx, input.SessionID, input.UserID, input.DurationSeconds, subjectID, chapterID)
	} else {
		res, err = i.streak.CompleteSession(ctx, input.UserID, input.DurationSeconds, subjectID, chapterID)
	}
	if err != nil {
		return dto.CompleteSessionOutput{}, err
	}
	c := res.Completion
	out := dto.CompleteSessionOutput{
		SessionID:     res.SessionID,
		NoOp:          c.NoOp,
		FirstOfDay:    c.FirstOfDay,
		EarnedCoins:   c.EarnedCoins,
		XPCharacterID: c.XPCharacterID,
		XPEarned:      c.XPEarned,
		StreakReset:   c.StreakReset,
		User:          i.userOutput(res.User),
	}
	if c.Unlocked != nil {
		out.Unlocked = &progressiondto.CharacterOutput{
			ID:        c.Unlocked.ID,
			Name:      c.Unlocked.Name,
			UnlockDay: c.Unlocked.UnlockDay,
			WorldID:   c.Unlocked.WorldID,
		}
	}
	return out, nil
}

func (i *Interactor) ValidateStreak(ctx context.Context, userID string) (dto.ValidateOutput, error) {
	user, res, err := i.streak.ValidateStreak(ctx, userID)
	if err != nil {
		return dto.ValidateOutput{}, err
	}
	return dto.ValidateOutput{
		Broken:         res.Broken,
		Frozen:         res.Frozen,
		PreviousStreak: res.PreviousStreak,
		User:           i.userOutput(user),
	}, nil
}

func (i *Interactor) RepairStreak(ctx context.Context, userID string) (dto.UserOutput, error) {
	user, err := i.streak.RepairStreak(ctx, userID)
	if err != nil {
		return dto.UserOutput{}, err
	}
	return i.userOutput(user), nil
}

// SyncToday collapses concurrent syncs of the same user into one. The shared
// call runs detached from the first caller's cancellation so the callers
// collapsed onto it are not failed by it.
func (i *Interactor) SyncToday(ctx context.Context, userID string) (dto.SyncTodayOutput, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := i.syncs.Do("today:"+userID, func() (any, error) {
		return i.reconcile.SyncToday(shared, userID)
	})
	if err != nil {
		return dto.SyncTodayOutput{}, err
	}
	res := v.(service.TodaySync)
	return dto.SyncTodayOutput{Date: res.Date.String(), Today: res.Today, Total: res.Total, Written: res.Written}, nil
}

func (i *Interactor) SyncXP(ctx context.Context, userID string) (dto.SyncXPOutput, error) {
	shared := context.WithoutCancel(ctx)
	v, err, _ := i.syncs.Do("xp:"+userID, func() (any, error) {
		return i.reconcile.SyncXP(shared, userID)
	})
	if err != nil {
		return dto.SyncXPOutput{}, err
	}
	res := v.(service.XPTopUp)
	return dto.SyncXPOutput{CharacterID: res.CharacterID, Amount: res.Amount, Target: res.Target, Current: res.Current}, nil
}

func (i *Interactor) History(ctx context.Context, input dto.HistoryInput) (dto.HistoryOutput, error) {
	if err := check(input); err != nil {
		return dto.HistoryOutput{}, err
	}
	series, err := i.reconcile.History(ctx, input.UserID, input.Days)
	if err != nil {
		return dto.HistoryOutput{}, err
	}
	out := dto.HistoryOutput{UserID: input.UserID, Days: make([]dto.DayOutput, 0, len(series))}
	for _, day := range series {
		out.Days = append(out.Days, dto.DayOutput{Date: day.Date.String(), Minutes: day.Minutes, Sessions: day.Sessions})
		out.TotalMinutes += day.Minutes
		if day.Sessions > 0 {
			out.ActiveDays++
		}
	}
	return out, nil
}

func (i *Interactor) Follow(ctx context.Context, input dto.FollowInput) (dto.FollowOutput, error) {
	if err := check(input); err != nil {
		return dto.FollowOutput{}, err
	}
	changed, err := i.social.Follow(ctx, input.UserID, input.TargetID)
	if err != nil {
		return dto.FollowOutput{}, err
	}
	return dto.FollowOutput{Changed: changed}, nil
}

func (i *Interactor) Unfollow(ctx context.Context, input dto.FollowInput) (dto.FollowOutput, error) {
	if err := check(input); err != nil {
		return dto.FollowOutput{}, err
	}
	changed, err := i.social.Unfollow(ctx, input.UserID, input.TargetID)
	if err != nil {
		return dto.FollowOutput{}, err
	}
	return dto.FollowOutput{Changed: changed}, nil
}

func (i *Interactor) Feed(ctx context.Context, input dto.FeedInput) ([]dto.ActivityOutput, error) {
	if err := check(input); err != nil {
		return nil, err
	}
	activities, err := i.social.Feed(ctx, input.UserID, input.Limit)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ActivityOutput, 0, len(activities))
	for _, a := range activities {
		out = append(out, dto.ActivityOutput{
			ID:           a.ID,
			UserID:       a.UserID,
			Kind:         string(a.Kind),
			Date:         a.Date.String(),
			Minutes:      a.Minutes,
			Streak:       a.Streak,
			CharacterID:  a.CharacterID,
			TargetUserID: a.TargetUserID,
			CreatedAt:    a.CreatedAt,
		})
	}
	return out, nil
}

// userOutput derives the level from the active character's XP.
func (i *Interactor) userOutput(u domain.UserAggregate) dto.UserOutput {
	out := dto.UserOutput{
		UserID:               u.UserID,
		StreakCurrent:        u.StreakCurrent,
		StreakLongest:        u.StreakLongest,
		LastStudyDate:        u.LastStudyDate.String(),
		FrozenStreak:         u.FrozenStreak,
		StreakBreakDate:      u.StreakBreakDate.String(),
		BankedSeconds:        u.BankedSeconds,
		Coins:                u.Coins,
		TotalStudyMinutes:    u.TotalStudyMinutes,
		TodayStudyMinutes:    u.TodayStudyMinutes,
		CharacterXP:          u.CharacterXP.Clone(),
		UnlockedCharacterIDs: append([]string{}, u.UnlockedCharacterIDs...),
		TotalCharacters:      u.TotalCharacters,
		Following:            append([]string{}, u.Following...),
		Followers:            append([]string{}, u.Followers...),
		CreatedAt:            u.CreatedAt,
	}
	if i.progression != nil {
		out.ActiveCharacter = i.progression.ActiveCharacter(u.StreakCurrent)
		out.Level = i.progression.Level(float64(u.CharacterXP.Get(out.ActiveCharacter.ID)))
	}
	return out
}

func check(input any) error {
	if err := validate.Struct(input); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	return nil
}
