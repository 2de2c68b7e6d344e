package usecase_test

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	progression "studystreak/internal/modules/progression/domain"
	progressionusecase "studystreak/internal/modules/progression/usecase"
	streakstore "studystreak/internal/modules/streak/adapter/out"
	"studystreak/internal/modules/streak/domain"
	"studystreak/internal/modules/streak/dto"
	"studystreak/internal/modules/streak/service"
	"studystreak/internal/modules/streak/usecase"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/clock"
	"studystreak/internal/platform/docstore/sqlite"
	apperrors "studystreak/internal/platform/errors"
	"studystreak/internal/platform/metrics"
)

type fakeID struct {
	mu sync.Mutex
	n  int
}

func (f *fakeID) New() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.n++
	return fmt.Sprintf("id-%04d", f.n)
}

func newInteractor(t *testing.T) (*usecase.Interactor, service.Deps) {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	catalog, err := progression.NewCatalog([]progression.Character{
		{ID: "sprout", Name: "Sprout", UnlockDay: 1, WorldID: "meadow"},
		{ID: "pebble", Name: "Pebble", UnlockDay: 3, WorldID: "meadow"},
	})
	require.NoError(t, err)
	deps := service.Deps{
		Calendar: calendar.New(clock.Fixed(time.Date(2024, 1, 10, 12, 0, 0, 0, time.UTC)), time.UTC),
		IDs:      &fakeID{},
		Catalog:  catalog,
		Tx:       store,
		Users:    streakstore.NewDocAggregateStore(store),
		Ledger:   streakstore.NewDocLedger(store),
		Feed:     streakstore.NewDocActivityFeed(store),
		Recorder: metrics.NewRegistry(),
	}
	uc := usecase.NewInteractor(
		service.NewStreakService(deps),
		service.NewReconcileService(deps),
		service.NewSocialService(deps),
		progressionusecase.NewInteractor(catalog),
	)
	return uc, deps
}

func TestCompleteSessionOutputCarriesUnlockAndLevel(t *testing.T) {
	t.Parallel()
	uc, _ := newInteractor(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterInput{UserID: "u1"})
	require.NoError(t, err)

	out, err := uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "u1", DurationSeconds: 3000, SubjectID: "math"})
	require.NoError(t, err)
	require.NotEmpty(t, out.SessionID)
	require.True(t, out.FirstOfDay)
	require.Equal(t, 50, out.EarnedCoins)
	require.Equal(t, 500, out.XPEarned)
	require.NotNil(t, out.Unlocked)
	require.Equal(t, "Sprout", out.Unlocked.Name)
	require.Equal(t, "sprout", out.User.ActiveCharacter.ID)
	require.Equal(t, 3, out.User.Level.CurrentLevel)
	require.Equal(t, 1, out.User.StreakCurrent)

	user, err := uc.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 500, user.CharacterXP["sprout"])
	require.Equal(t, "2024-01-10", user.LastStudyDate)
}

func TestInputValidation(t *testing.T) {
	t.Parallel()
	uc, _ := newInteractor(t)
	ctx := context.Background()

	_, err := uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "", DurationSeconds: 60})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "u1", DurationSeconds: -1})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "u1", DurationSeconds: 90000})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.Follow(ctx, dto.FollowInput{UserID: "u1", TargetID: "u1"})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.History(ctx, dto.HistoryInput{UserID: "u1", Days: 400})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.Feed(ctx, dto.FeedInput{UserID: "u1", Limit: 500})
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = uc.GetUser(ctx, "")
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestConcurrentSyncTodayWritesOnce(t *testing.T) {
	t.Parallel()
	uc, deps := newInteractor(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterInput{UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, deps.Ledger.Append(ctx, domain.SessionEntry{
		ID: "lost", UserID: "u1", Date: "2024-01-10", DurationSeconds: 600, CreatedAt: time.Now(),
	}))

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		written int
	)
	for n := 0; n < 6; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			out, err := uc.SyncToday(ctx, "u1")
			if err != nil {
				t.Errorf("sync today: %v", err)
				return
			}
			if out.Written {
				mu.Lock()
				written++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	user, err := uc.GetUser(ctx, "u1")
	require.NoError(t, err)
	require.InDelta(t, 10.0, user.TodayStudyMinutes, 1e-9)
	require.InDelta(t, 10.0, user.TotalStudyMinutes, 1e-9)
	require.GreaterOrEqual(t, written, 1)

	xp, err := uc.SyncXP(ctx, "u1")
	require.NoError(t, err)
	require.Equal(t, 100, xp.Amount)
	require.Equal(t, "sprout", xp.CharacterID)
}

func TestSyncSurvivesCancelledCaller(t *testing.T) {
	t.Parallel()
	uc, deps := newInteractor(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterInput{UserID: "u1"})
	require.NoError(t, err)
	require.NoError(t, deps.Ledger.Append(ctx, domain.SessionEntry{
		ID: "lost", UserID: "u1", Date: "2024-01-10", DurationSeconds: 300, CreatedAt: time.Now(),
	}))

	cancelled, cancel := context.WithCancel(ctx)
	cancel()

	out, err := uc.SyncToday(cancelled, "u1")
	require.NoError(t, err)
	require.True(t, out.Written)
	require.InDelta(t, 5.0, out.Today, 1e-9)

	xp, err := uc.SyncXP(cancelled, "u1")
	require.NoError(t, err)
	require.Equal(t, 50, xp.Amount)
}

func TestHistoryAndFeed(t *testing.T) {
	t.Parallel()
	uc, _ := newInteractor(t)
	ctx := context.Background()
	for _, id := range []string{"ada", "bo"} {
		_, err := uc.Register(ctx, dto.RegisterInput{UserID: id})
		require.NoError(t, err)
	}
	follow, err := uc.Follow(ctx, dto.FollowInput{UserID: "ada", TargetID: "bo"})
	require.NoError(t, err)
	require.True(t, follow.Changed)

	_, err = uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "bo", DurationSeconds: 1200})
	require.NoError(t, err)
	_, err = uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "bo", DurationSeconds: 600})
	require.NoError(t, err)

	history, err := uc.History(ctx, dto.HistoryInput{UserID: "bo", Days: 3})
	require.NoError(t, err)
	require.Len(t, history.Days, 3)
	require.Equal(t, 1, history.ActiveDays)
	require.InDelta(t, 30.0, history.TotalMinutes, 1e-9)
	require.Equal(t, 2, history.Days[2].Sessions)

	feed, err := uc.Feed(ctx, dto.FeedInput{UserID: "ada", Limit: 20})
	require.NoError(t, err)
	require.Len(t, feed, 4)

	unfollow, err := uc.Unfollow(ctx, dto.FollowInput{UserID: "ada", TargetID: "bo"})
	require.NoError(t, err)
	require.True(t, unfollow.Changed)
	feed, err = uc.Feed(ctx, dto.FeedInput{UserID: "ada"})
	require.NoError(t, err)
	require.Len(t, feed, 1)
	require.Equal(t, "followed", feed[0].Kind)
}

func TestRepairThroughInteractor(t *testing.T) {
	t.Parallel()
	uc, _ := newInteractor(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterInput{UserID: "u1"})
	require.NoError(t, err)
	_, err = uc.RepairStreak(ctx, "u1")
	require.ErrorIs(t, err, apperrors.ErrNothingToRepair)

	out, err := uc.ValidateStreak(ctx, "u1")
	require.NoError(t, err)
	require.False(t, out.Broken)
}

func TestCompleteSessionNormalizesSubjectKeys(t *testing.T) {
	t.Parallel()
	uc, deps := newInteractor(t)
	ctx := context.Background()
	_, err := uc.Register(ctx, dto.RegisterInput{UserID: "u1"})
	require.NoError(t, err)

	_, err = uc.CompleteSession(ctx, dto.CompleteSessionInput{UserID: "u1", DurationSeconds: 60, SubjectID: "Linear Algebra", ChapterID: "Ch. 2"})
	require.NoError(t, err)

	entries, err := deps.Ledger.List(ctx, "u1", "2024-01-10", "2024-01-10")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, "linear-algebra", entries[0].SubjectID)
	require.Equal(t, "ch-2", entries[0].ChapterID)
}
