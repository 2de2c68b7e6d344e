package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/require"

	progression "studystreak/internal/modules/progression/domain"
	sessiondto "studystreak/internal/modules/session/dto"
	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/clock"
	apperrors "studystreak/internal/platform/errors"
	"studystreak/internal/ui/components"
)

type fakeStreak struct {
	followed []string
	synced   int
}

func (f *fakeStreak) Show(_ context.Context, userID string) (streakdto.UserOutput, error) {
	return streakdto.UserOutput{UserID: userID}, nil
}
func (f *fakeStreak) ValidateStreak(context.Context, string) (streakdto.ValidateOutput, error) {
	return streakdto.ValidateOutput{Frozen: true, PreviousStreak: 6}, nil
}
func (f *fakeStreak) RepairStreak(context.Context, string) (streakdto.UserOutput, error) {
	return streakdto.UserOutput{}, apperrors.ErrInsufficientFunds
}
func (f *fakeStreak) SyncToday(context.Context, string) (streakdto.SyncTodayOutput, error) {
	f.synced++
	return streakdto.SyncTodayOutput{Today: 12, Total: 40}, nil
}
func (f *fakeStreak) SyncXP(context.Context, string) (streakdto.SyncXPOutput, error) {
	return streakdto.SyncXPOutput{}, nil
}
func (f *fakeStreak) History(_ context.Context, userID string, _ int) (streakdto.HistoryOutput, error) {
	return streakdto.HistoryOutput{UserID: userID}, nil
}
func (f *fakeStreak) Follow(_ context.Context, _, targetID string) (streakdto.FollowOutput, error) {
	f.followed = append(f.followed, targetID)
	return streakdto.FollowOutput{Changed: true}, nil
}
func (f *fakeStreak) Unfollow(context.Context, string, string) (streakdto.FollowOutput, error) {
	return streakdto.FollowOutput{}, nil
}
func (f *fakeStreak) Feed(context.Context, string, int) ([]streakdto.ActivityOutput, error) {
	return nil, nil
}

type fakeSession struct{ started []int }

func (f *fakeSession) Start(_ context.Context, userID, _, _ string, planned int) (sessiondto.StartOutput, error) {
	f.started = append(f.started, planned)
	return sessiondto.StartOutput{SessionID: "s1", UserID: userID, StartedAt: time.Now(), PlannedSeconds: planned}, nil
}
func (f *fakeSession) End(context.Context, string, string) (sessiondto.EndOutput, error) {
	return sessiondto.EndOutput{}, nil
}
func (f *fakeSession) Cancel(context.Context, string) error { return nil }
func (f *fakeSession) GetActive(context.Context, string) (sessiondto.ActiveSessionOutput, error) {
	return sessiondto.ActiveSessionOutput{}, apperrors.ErrNoActiveSession
}

func newModel(t *testing.T) (Model, *fakeStreak, *fakeSession) {
	t.Helper()
	catalog, err := progression.NewCatalog([]progression.Character{{ID: "sprout", Name: "Sprout", UnlockDay: 1}})
	require.NoError(t, err)
	streak, session := &fakeStreak{}, &fakeSession{}
	cal := calendar.New(clock.Fixed(time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)), time.UTC)
	return NewModel("u1", streak, session, cal, catalog), streak, session
}

func submit(t *testing.T, m Model, input string) (Model, tea.Cmd) {
	t.Helper()
	next, cmd := m.Update(components.PaletteSubmitMsg{Input: input})
	return next.(Model), cmd
}

func TestPaletteFollowReportsChange(t *testing.T) {
	t.Parallel()
	m, streak, _ := newModel(t)

	m, cmd := submit(t, m, "follow bea")
	require.NotNil(t, cmd)
	next, refresh := m.Update(cmd())
	m = next.(Model)

	require.Equal(t, []string{"bea"}, streak.followed)
	require.Equal(t, "followed bea", m.status)
	require.NotNil(t, refresh)
}

func TestPaletteValidateDescribesFrozenStreak(t *testing.T) {
	t.Parallel()
	m, _, _ := newModel(t)

	m, cmd := submit(t, m, "streak:validate")
	next, _ := m.Update(cmd())
	require.Contains(t, next.(Model).status, "frozen")
}

func TestPaletteShowsUsecaseErrors(t *testing.T) {
	t.Parallel()
	m, _, _ := newModel(t)

	m, cmd := submit(t, m, "streak:repair")
	next, refresh := m.Update(cmd())
	require.Equal(t, apperrors.ErrInsufficientFunds.Error(), next.(Model).status)
	require.Nil(t, refresh)
}

func TestPaletteSessionStartParsesMinutes(t *testing.T) {
	t.Parallel()
	m, _, session := newModel(t)
	m.activeTab = tabFeed

	m, cmd := submit(t, m, "session:start 50 linear algebra")
	require.Equal(t, tabFocus, m.activeTab)
	msg := cmd()
	require.Equal(t, []int{3000}, session.started)

	next, _ := m.Update(msg)
	active, ok := next.(Model).focusView.Active()
	require.True(t, ok)
	require.Equal(t, "linear algebra", active.SubjectID)
}

func TestPaletteRejectsBadArguments(t *testing.T) {
	t.Parallel()
	m, _, _ := newModel(t)

	m, cmd := submit(t, m, "history zero")
	require.Nil(t, cmd)
	require.Equal(t, "usage: history <days>", m.status)

	m, _ = submit(t, m, "unfollow")
	require.Equal(t, "usage: unfollow <user>", m.status)

	m, _ = submit(t, m, "teleport")
	require.Equal(t, "unknown command: teleport", m.status)
}

func TestTabCycles(t *testing.T) {
	t.Parallel()
	m, _, _ := newModel(t)
	for _, want := range []tabID{tabHistory, tabFeed, tabFocus} {
		next, _ := m.Update(tea.KeyMsg{Type: tea.KeyTab})
		m = next.(Model)
		require.Equal(t, want, m.activeTab)
	}
}
