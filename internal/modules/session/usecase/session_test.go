package usecase_test

import (
	"context"
	"errors"
	"testing"
	"time"

	sessionout "studystreak/internal/modules/session/adapter/out"
	sessiondto "studystreak/internal/modules/session/dto"
	"studystreak/internal/modules/session/service"
	"studystreak/internal/modules/session/usecase"
	streakdto "studystreak/internal/modules/streak/dto"
	apperrors "studystreak/internal/platform/errors"
)

type fakeClock struct {
	values []time.Time
	idx    int
}

func (f *fakeClock) Now() time.Time {
	if f.idx >= len(f.values) {
		return f.values[len(f.values)-1]
	}
	v := f.values[f.idx]
	f.idx++
	return v
}

type fakeID struct{}

func (fakeID) New() string { return "sess-1" }

type fakeStreak struct {
	completed []streakdto.CompleteSessionInput
	fail      error
}

func (f *fakeStreak) Register(context.Context, streakdto.RegisterInput) (streakdto.UserOutput, error) {
	return streakdto.UserOutput{}, nil
}
func (f *fakeStreak) GetUser(_ context.Context, userID string) (streakdto.UserOutput, error) {
	if userID == "ghost" {
		return streakdto.UserOutput{}, apperrors.ErrNotFound
	}
	return streakdto.UserOutput{UserID: userID}, nil
}
func (f *fakeStreak) CompleteSession(_ context.Context, input streakdto.CompleteSessionInput) (streakdto.CompleteSessionOutput, error) {
	if f.fail != nil {
		return streakdto.CompleteSessionOutput{}, f.fail
	}
	for _, done := range f.completed {
		if input.SessionID != "" && done.SessionID == input.SessionID {
			return streakdto.CompleteSessionOutput{}, apperrors.ErrAlreadyExists
		}
	}
	f.completed = append(f.completed, input)
	return streakdto.CompleteSessionOutput{SessionID: "ledger-1", FirstOfDay: true}, nil
}
func (f *fakeStreak) ValidateStreak(context.Context, string) (streakdto.ValidateOutput, error) {
	return streakdto.ValidateOutput{}, nil
}
func (f *fakeStreak) RepairStreak(context.Context, string) (streakdto.UserOutput, error) {
	return streakdto.UserOutput{}, nil
}
func (f *fakeStreak) SyncToday(context.Context, string) (streakdto.SyncTodayOutput, error) {
	return streakdto.SyncTodayOutput{}, nil
}
func (f *fakeStreak) SyncXP(context.Context, string) (streakdto.SyncXPOutput, error) {
	return streakdto.SyncXPOutput{}, nil
}
func (f *fakeStreak) History(context.Context, streakdto.HistoryInput) (streakdto.HistoryOutput, error) {
	return streakdto.HistoryOutput{}, nil
}

func TestSessionLifecycleCompletesElapsedSeconds(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clk := &fakeClock{values: []time.Time{
		time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 25, 10, 10, 0, 0, time.UTC),
		time.Date(2026, 2, 25, 10, 25, 30, 0, time.UTC),
	}}
	streak := &fakeStreak{}
	uc := usecase.NewInteractor(service.NewSessionService(clk, fakeID{}), streak, sessionout.NewFileActiveSessionStore(dir))

	start, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "u1", SubjectID: "math"})
	if err != nil {
		t.Fatalf("start session: %v", err)
	}
	if start.SessionID == "" {
		t.Fatalf("session id must be set")
	}

	active, err := uc.GetActive(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get active session: %v", err)
	}
	if active.SessionID != start.SessionID || active.ElapsedSeconds != 600 {
		t.Fatalf("unexpected active session: %+v", active)
	}

	end, err := uc.End(context.Background(), sessiondto.EndInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("end session: %v", err)
	}
	if end.DurationSeconds != 1530 {
		t.Fatalf("expected 1530 seconds, got %d", end.DurationSeconds)
	}
	if len(streak.completed) != 1 || streak.completed[0].SubjectID != "math" || streak.completed[0].DurationSeconds != 1530 {
		t.Fatalf("expected one completion for math, got %+v", streak.completed)
	}
	if _, err := uc.GetActive(context.Background(), "u1"); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected no active session after end, got %v", err)
	}
}

func TestStartFailsWhenActiveExistsOrUserUnknown(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clk := &fakeClock{values: []time.Time{time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC)}}
	uc := usecase.NewInteractor(service.NewSessionService(clk, fakeID{}), &fakeStreak{}, sessionout.NewFileActiveSessionStore(dir))

	if _, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "u1", PlannedSeconds: 1500}); err != nil {
		t.Fatalf("first start should succeed: %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "u1"}); !errors.Is(err, apperrors.ErrActiveSessionExists) {
		t.Fatalf("expected active session exists error, got %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "u2"}); err != nil {
		t.Fatalf("another user may start: %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "ghost"}); !errors.Is(err, apperrors.ErrNotFound) {
		t.Fatalf("expected not found for unknown user, got %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "a/b"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("expected invalid input for path-like id, got %v", err)
	}
}

func TestEndKeepsTimerWhenCompletionFails(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()
	clk := &fakeClock{values: []time.Time{
		time.Date(2026, 2, 25, 10, 0, 0, 0, time.UTC),
		time.Date(2026, 2, 25, 10, 5, 0, 0, time.UTC),
	}}
	streak := &fakeStreak{fail: apperrors.ErrTransientIO}
	uc := usecase.NewInteractor(service.NewSessionService(clk, fakeID{}), streak, sessionout.NewFileActiveSessionStore(dir))

	if _, err := uc.End(context.Background(), sessiondto.EndInput{UserID: "u1"}); !errors.Is(err, apperrors.ErrNoActiveSession) {
		t.Fatalf("expected no active session error, got %v", err)
	}
	if _, err := uc.Start(context.Background(), sessiondto.StartInput{UserID: "u1"}); err != nil {
		t.Fatalf("start: %v", err)
	}
	if _, err := uc.End(context.Background(), sessiondto.EndInput{UserID: "u1", SessionID: "other"}); !errors.Is(err, apperrors.ErrInvalidInput) {
		t.Fatalf("mismatched session id should fail, got %v", err)
	}
	if _, err := uc.End(context.Background(), sessiondto.EndInput{UserID: "u1"}); !errors.Is(err, apperrors.ErrTransientIO) {
		t.Fatalf("expected storage failure, got %v", err)
	}
	if _, err := uc.GetActive(context.Background(), "u1"); err != nil {
		t.Fatalf("timer must survive a failed completion: %v", err)
	}

	streak.fail = nil
	end, err := uc.End(context.Background(), sessiondto.EndInput{UserID: "u1"})
	if err != nil {
		t.Fatalf("retry end: %v", err)
	}
	if end.DurationSeconds != 300 {
		t.Fatalf("expected 300 seconds, got %d", end.DurationSeconds)
	}
}
