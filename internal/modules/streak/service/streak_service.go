package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"studystreak/internal/modules/streak/domain"
	apperrors "studystreak/internal/platform/errors"
)

type StreakService struct {
	deps Deps
}

func NewStreakService(deps Deps) *StreakService {
	return &StreakService{deps: deps.withDefaults()}
}

// CompletionResult is the committed outcome of one session.
type CompletionResult struct {
	SessionID  string
	Completion domain.Completion
	User       domain.UserAggregate
}

func (s *StreakService) Register(ctx context.Context, userID string) (domain.UserAggregate, error) {
	if userID == "" {
		userID = s.deps.IDs.New()
	}
	user := domain.NewUserAggregate(userID, s.deps.Calendar.Now())
	if err := s.deps.Users.Create(ctx, user); err != nil {
		return domain.UserAggregate{}, err
	}
	s.deps.Logger.Info("user registered", slog.String("user_id", userID))
	return user, nil
}

func (s *StreakService) Get(ctx context.Context, userID string) (domain.UserAggregate, error) {
	if userID == "" {
		return domain.UserAggregate{}, fmt.Errorf("%w: user id is required", apperrors.ErrInvalidInput)
	}
	return s.deps.Users.Get(ctx, userID)
}

// CompleteSession records a finished focus session. The aggregate update and
// the ledger append commit together; activity events follow the commit and
// never fail the call.
func (s *StreakService) CompleteSession(ctx context.Context, userID string, durationSeconds int, subjectID, chapterID string) (CompletionResult, error) {
	return s.CompleteSessionWithID(ctx, s.deps.IDs.New(), userID, durationSeconds, subjectID, chapterID)
}

// CompleteSessionWithID records the session under a caller chosen ledger id.
// Completing the same id twice fails with apperrors.ErrAlreadyExists and
// leaves the aggregate untouched.
func (s *StreakService) CompleteSessionWithID(ctx context.Context, sessionID, userID string, durationSeconds int, subjectID, chapterID string) (CompletionResult, error) {
	if sessionID == "" {
		return CompletionResult{}, fmt.Errorf("%w: session id is required", apperrors.ErrInvalidInput)
	}
	if userID == "" {
		return CompletionResult{}, fmt.Errorf("%w: user id is required", apperrors.ErrInvalidInput)
	}
	if durationSeconds < 0 {
		return CompletionResult{}, fmt.Errorf("%w: duration must be non-negative, got %d", apperrors.ErrInvalidInput, durationSeconds)
	}
	ctx, span := tracer().Start(ctx, "streak.CompleteSession",
		trace.WithAttributes(
			attribute.String("user_id", userID),
			attribute.Int("duration_seconds", durationSeconds),
		),
	)
	defer span.End()

	today := s.deps.Calendar.Today()
	now := s.deps.Calendar.Now()
	entry := domain.SessionEntry{
		ID:              sessionID,
		UserID:          userID,
		Date:            today,
		DurationSeconds: durationSeconds,
		SubjectID:       subjectID,
		ChapterID:       chapterID,
		CreatedAt:       now,
	}

	result := CompletionResult{SessionID: entry.ID}
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		user, err := s.deps.Users.Get(txCtx, userID)
		if err != nil {
			return err
		}
		completion := domain.PlanCompletion(user, durationSeconds, today, s.deps.Catalog)
		if !completion.NoOp {
			completion.ApplyTo(&user)
			user.UpdatedAt = now
			if err := s.deps.Users.Save(txCtx, user); err != nil {
				return err
			}
		}
		if err := s.deps.Ledger.Append(txCtx, entry); err != nil {
			return err
		}
		result.Completion = completion
		result.User = user
		return nil
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "complete session failed")
		return CompletionResult{}, err
	}

	c := result.Completion
	span.SetAttributes(
		attribute.Bool("noop", c.NoOp),
		attribute.Bool("first_of_day", c.FirstOfDay),
		attribute.Int("streak", result.User.StreakCurrent),
	)
	s.emit(ctx, domain.Activity{
		UserID:  userID,
		Kind:    domain.ActivitySessionCompleted,
		Minutes: c.SessionMinutes,
		Streak:  result.User.StreakCurrent,
	})
	if c.NoOp {
		s.deps.Logger.Debug("empty session logged", slog.String("user_id", userID), slog.String("session_id", entry.ID))
		return result, nil
	}

	s.deps.Recorder.SessionCompleted(durationSeconds, c.FirstOfDay)
	s.deps.Recorder.CoinsEarned(c.EarnedCoins)
	if c.StreakReset {
		s.deps.Recorder.StreakEvent("reset")
	}

	if c.Unlocked != nil {
		s.deps.Recorder.CharacterUnlocked(c.Unlocked.ID)
		s.emit(ctx, domain.Activity{
			UserID:      userID,
			Kind:        domain.ActivityLevelUp,
			Streak:      result.User.StreakCurrent,
			CharacterID: c.Unlocked.ID,
		})
		s.deps.Logger.Info("character unlocked",
			slog.String("user_id", userID),
			slog.String("character_id", c.Unlocked.ID),
			slog.Int("streak", result.User.StreakCurrent),
		)
	}
	return result, nil
}

// ValidateStreak breaks a lapsed streak and returns the resulting aggregate.
func (s *StreakService) ValidateStreak(ctx context.Context, userID string) (domain.UserAggregate, domain.ValidationResult, error) {
	ctx, span := tracer().Start(ctx, "streak.ValidateStreak", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	today := s.deps.Calendar.Today()
	var (
		user domain.UserAggregate
		res  domain.ValidationResult
	)
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.deps.Users.Get(txCtx, userID)
		if err != nil {
			return err
		}
		res = domain.ValidateStreak(&user, today)
		if !res.Broken && !res.Frozen {
			return nil
		}
		user.UpdatedAt = s.deps.Calendar.Now()
		return s.deps.Users.Save(txCtx, user)
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "validate streak failed")
		return domain.UserAggregate{}, domain.ValidationResult{}, err
	}
	if res.Broken {
		s.deps.Recorder.StreakEvent("broken")
	}
	if res.Frozen {
		s.deps.Recorder.StreakEvent("frozen")
		s.deps.Logger.Info("streak frozen",
			slog.String("user_id", userID),
			slog.Int("frozen_streak", user.FrozenStreak),
		)
	}
	return user, res, nil
}

// RepairStreak buys back the frozen streak.
func (s *StreakService) RepairStreak(ctx context.Context, userID string) (domain.UserAggregate, error) {
	ctx, span := tracer().Start(ctx, "streak.RepairStreak", trace.WithAttributes(attribute.String("user_id", userID)))
	defer span.End()

	today := s.deps.Calendar.Today()
	var user domain.UserAggregate
	err := s.deps.Tx.Within(ctx, func(txCtx context.Context) error {
		var err error
		user, err = s.deps.Users.Get(txCtx, userID)
		if err != nil {
			return err
		}
		if err := domain.RepairStreak(&user, today, s.deps.RepairCost); err != nil {
			return err
		}
		user.UpdatedAt = s.deps.Calendar.Now()
		return s.deps.Users.Save(txCtx, user)
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrInsufficientFunds) && !errors.Is(err, apperrors.ErrNothingToRepair) {
			span.RecordError(err)
		}
		span.SetStatus(codes.Error, "repair streak failed")
		return domain.UserAggregate{}, err
	}
	s.deps.Recorder.StreakEvent("repaired")
	s.emit(ctx, domain.Activity{
		UserID: userID,
		Kind:   domain.ActivityStreakRepaired,
		Streak: user.StreakCurrent,
	})
	return user, nil
}

// emit writes a feed event outside any transaction. Failures are logged and counted only.
func (s *StreakService) emit(ctx context.Context, activity domain.Activity) {
	emitActivity(ctx, s.deps, activity)
}

func emitActivity(ctx context.Context, deps Deps, activity domain.Activity) {
	if deps.Feed == nil {
		return
	}
	activity.ID = deps.IDs.New()
	activity.Date = deps.Calendar.Today()
	activity.CreatedAt = deps.Calendar.Now()
	if err := deps.Feed.Emit(ctx, activity); err != nil {
		deps.Recorder.ActivityEmitFailed()
		deps.Logger.Warn("activity emit failed",
			slog.String("user_id", activity.UserID),
			slog.String("kind", string(activity.Kind)),
			slog.Any("error", err),
		)
	}
}
