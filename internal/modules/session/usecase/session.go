package usecase

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	sessiondto "studystreak/internal/modules/session/dto"
	sessionin "studystreak/internal/modules/session/port/in"
	sessionout "studystreak/internal/modules/session/port/out"
	"studystreak/internal/modules/session/service"
	streakdto "studystreak/internal/modules/streak/dto"
	streakin "studystreak/internal/modules/streak/port/in"
	apperrors "studystreak/internal/platform/errors"
)

var validate = validator.New()

type Interactor struct {
	svc         *service.SessionService
	streak      streakin.Usecase
	activeStore sessionout.ActiveSessionStore
}

func NewInteractor(svc *service.SessionService, streak streakin.Usecase, activeStore sessionout.ActiveSessionStore) sessionin.Usecase {
	return &Interactor{svc: svc, streak: streak, activeStore: activeStore}
}

func (i *Interactor) Start(ctx context.Context, input sessiondto.StartInput) (sessiondto.StartOutput, error) {
	if err := validate.Struct(input); err != nil {
		return sessiondto.StartOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if i.streak != nil {
		if _, err := i.streak.GetUser(ctx, input.UserID); err != nil {
			return sessiondto.StartOutput{}, err
		}
	}
	_, err := i.activeStore.LoadActive(ctx, input.UserID)
	if err == nil {
		return sessiondto.StartOutput{}, apperrors.ErrActiveSessionExists
	}
	if !errors.Is(err, apperrors.ErrNoActiveSession) {
		return sessiondto.StartOutput{}, err
	}

	active, err := i.svc.Start(ctx, input.UserID, input.SubjectID, input.ChapterID, input.PlannedSeconds)
	if err != nil {
		return sessiondto.StartOutput{}, err
	}
	if err := i.activeStore.SaveActive(ctx, active); err != nil {
		return sessiondto.StartOutput{}, err
	}
	return sessiondto.StartOutput{
		SessionID:      active.SessionID,
		UserID:         active.UserID,
		StartedAt:      active.StartedAt,
		PlannedSeconds: active.PlannedSeconds,
	}, nil
}

// End stops the running timer and completes a session of the elapsed length.
// The ledger entry is keyed by the timer's session id, so a retry after a
// failed clear cannot record the same timer twice.
func (i *Interactor) End(ctx context.Context, input sessiondto.EndInput) (sessiondto.EndOutput, error) {
	if err := validate.Struct(input); err != nil {
		return sessiondto.EndOutput{}, fmt.Errorf("%w: %v", apperrors.ErrInvalidInput, err)
	}
	if i.streak == nil {
		return sessiondto.EndOutput{}, fmt.Errorf("streak usecase is not configured")
	}
	active, err := i.activeStore.LoadActive(ctx, input.UserID)
	if err != nil {
		return sessiondto.EndOutput{}, err
	}
	if input.SessionID != "" && input.SessionID != active.SessionID {
		return sessiondto.EndOutput{}, fmt.Errorf("%w: session id mismatch", apperrors.ErrInvalidInput)
	}

	duration := i.svc.Elapsed(active)
	result, err := i.streak.CompleteSession(ctx, streakdto.CompleteSessionInput{
		UserID:          active.UserID,
		DurationSeconds: duration,
		SubjectID:       active.SubjectID,
		ChapterID:       active.ChapterID,
		SessionID:       active.SessionID,
	})
	if errors.Is(err, apperrors.ErrAlreadyExists) {
		if clearErr := i.activeStore.ClearActive(ctx, input.UserID); clearErr != nil {
			return sessiondto.EndOutput{}, clearErr
		}
		return sessiondto.EndOutput{}, fmt.Errorf("session %s was already recorded: %w", active.SessionID, err)
	}
	if err != nil {
		return sessiondto.EndOutput{}, err
	}
	if err := i.activeStore.ClearActive(ctx, input.UserID); err != nil {
		return sessiondto.EndOutput{}, err
	}
	return sessiondto.EndOutput{SessionID: active.SessionID, DurationSeconds: duration, Result: result}, nil
}

// Cancel drops the running timer without recording anything.
func (i *Interactor) Cancel(ctx context.Context, userID string) error {
	if _, err := i.activeStore.LoadActive(ctx, userID); err != nil {
		return err
	}
	return i.activeStore.ClearActive(ctx, userID)
}

func (i *Interactor) GetActive(ctx context.Context, userID string) (sessiondto.ActiveSessionOutput, error) {
	active, err := i.activeStore.LoadActive(ctx, userID)
	if err != nil {
		return sessiondto.ActiveSessionOutput{}, err
	}
	elapsed, remaining := i.svc.Snapshot(active)
	return sessiondto.ActiveSessionOutput{
		SessionID:      active.SessionID,
		UserID:         active.UserID,
		SubjectID:      active.SubjectID,
		ChapterID:      active.ChapterID,
		StartedAt:      active.StartedAt,
		PlannedSeconds: active.PlannedSeconds,
		ElapsedSeconds: elapsed,
		Remaining:      remaining,
	}, nil
}
