package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"studystreak/internal/modules/streak/domain"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/docstore/badger"
	apperrors "studystreak/internal/platform/errors"
)

func appendEntry(t *testing.T, e *env, id, userID string, day calendar.Day, seconds int) {
	t.Helper()
	require.NoError(t, e.deps.Ledger.Append(context.Background(), domain.SessionEntry{
		ID:              id,
		UserID:          userID,
		Date:            day,
		DurationSeconds: seconds,
		CreatedAt:       time.Now(),
	}))
}

func TestSyncTodayHealsMissingMinutes(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "u1")
	e.complete(t, "u1", 600)
	appendEntry(t, e, "lost", "u1", "2024-01-10", 120)

	out, err := e.recon.SyncToday(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, out.Written)
	require.InDelta(t, 12.0, out.Today, 1e-9)
	require.InDelta(t, 12.0, out.Total, 1e-9)

	u := e.user(t, "u1")
	require.InDelta(t, 12.0, u.TodayStudyMinutes, 1e-9)
	require.InDelta(t, 12.0, u.TotalStudyMinutes, 1e-9)
	require.Equal(t, []string{"today"}, e.recorder.writes)

	again, err := e.recon.SyncToday(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, again.Written)
	require.Len(t, e.recorder.writes, 1)
}

func TestSyncTodayNeverDropsTotalBelowToday(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "u1")
	u := e.user(t, "u1")
	u.TodayStudyMinutes, u.TodayDate, u.TotalStudyMinutes = 50, "2024-01-10", 50
	require.NoError(t, e.deps.Users.Save(context.Background(), u))
	appendEntry(t, e, "s1", "u1", "2024-01-10", 1800)

	out, err := e.recon.SyncToday(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, out.Written)
	require.InDelta(t, 30.0, out.Today, 1e-9)
	require.InDelta(t, 30.0, out.Total, 1e-9)
}

func TestSyncTodayIgnoresStaleTodayBaseline(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "u1")
	e.complete(t, "u1", 1200)

	e.clock.set("2024-01-11")
	appendEntry(t, e, "s2", "u1", "2024-01-11", 300)

	out, err := e.recon.SyncToday(context.Background(), "u1")
	require.NoError(t, err)
	require.True(t, out.Written)
	require.InDelta(t, 5.0, out.Today, 1e-9)
	require.InDelta(t, 25.0, out.Total, 1e-9)
	require.EqualValues(t, "2024-01-11", e.user(t, "u1").TodayDate)
}

func TestSyncTodayWithinEpsilonDoesNotWrite(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "u1")
	e.complete(t, "u1", 90)
	u := e.user(t, "u1")
	u.TodayStudyMinutes += 0.005
	u.TotalStudyMinutes += 0.005
	require.NoError(t, e.deps.Users.Save(context.Background(), u))

	out, err := e.recon.SyncToday(context.Background(), "u1")
	require.NoError(t, err)
	require.False(t, out.Written)
	require.InDelta(t, 1.505, e.user(t, "u1").TodayStudyMinutes, 1e-9)
}

func TestSyncXPTopsUpOnly(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "u1")
	u := e.user(t, "u1")
	u.StreakCurrent, u.StreakLongest, u.LastStudyDate = 4, 4, "2024-01-10"
	u.TotalStudyMinutes = 12.34
	u.CharacterXP = domain.XPMap{"sprout": 20}
	require.NoError(t, e.deps.Users.Save(context.Background(), u))

	top, err := e.recon.SyncXP(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, 123, top.Target)
	require.Equal(t, 103, top.Amount)
	require.Equal(t, "pebble", top.CharacterID)
	require.Equal(t, 123, e.user(t, "u1").CharacterXP.Total())

	u = e.user(t, "u1")
	u.CharacterXP.Add("sprout", 500)
	require.NoError(t, e.deps.Users.Save(context.Background(), u))
	top, err = e.recon.SyncXP(context.Background(), "u1")
	require.NoError(t, err)
	require.Zero(t, top.Amount)
	require.Equal(t, 623, e.user(t, "u1").CharacterXP.Total())
}

func TestHistorySeriesIncludesEmptyDays(t *testing.T) {
	t.Parallel()
	e := newEnv(t)
	e.register(t, "u1")
	appendEntry(t, e, "a", "u1", "2024-01-04", 600)
	appendEntry(t, e, "b", "u1", "2024-01-08", 60)
	appendEntry(t, e, "c", "u1", "2024-01-08", 30)
	appendEntry(t, e, "d", "u1", "2024-01-10", 1200)
	appendEntry(t, e, "x", "u2", "2024-01-10", 1200)

	series, err := e.recon.History(context.Background(), "u1", 5)
	require.NoError(t, err)
	require.Len(t, series, 5)
	require.EqualValues(t, "2024-01-06", series[0].Date)
	require.EqualValues(t, "2024-01-10", series[4].Date)
	require.Equal(t, 2, series[2].Sessions)
	require.InDelta(t, 1.5, series[2].Minutes, 1e-9)
	require.Zero(t, series[3].Sessions)
	require.InDelta(t, 20.0, series[4].Minutes, 1e-9)

	week, err := e.recon.History(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, week, 7)

	_, err = e.recon.History(context.Background(), "u1", 1000)
	require.ErrorIs(t, err, apperrors.ErrInvalidInput)
	_, err = e.recon.History(context.Background(), "ghost", 7)
	require.ErrorIs(t, err, apperrors.ErrNotFound)
}

func ledgerMinutes(t *testing.T, e *env, userID string) float64 {
	t.Helper()
	entries, err := e.deps.Ledger.List(context.Background(), userID, "", "")
	require.NoError(t, err)
	seconds := 0
	for _, entry := range entries {
		seconds += entry.DurationSeconds
	}
	return float64(seconds) / 60
}

func TestTotalMatchesLedgerAcrossRepairAndSync(t *testing.T) {
	t.Parallel()
	backends := map[string]func(t *testing.T) *env{
		"sqlite": func(t *testing.T) *env { return newEnv(t) },
		"badger": func(t *testing.T) *env {
			store, err := badger.Open(badger.InMemoryConfig())
			require.NoError(t, err)
			t.Cleanup(func() { _ = store.Close() })
			return newEnvWithStore(t, store)
		},
	}
	for name, open := range backends {
		open := open
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			e := open(t)
			e.register(t, "u1")

			e.clock.set("2024-01-10")
			e.complete(t, "u1", 1800)
			e.clock.set("2024-01-11")
			e.complete(t, "u1", 60)

			e.clock.set("2024-01-14")
			_, res, err := e.streak.ValidateStreak(ctx, "u1")
			require.NoError(t, err)
			require.True(t, res.Frozen)
			stored := e.user(t, "u1")
			stored.Coins = 500
			require.NoError(t, e.deps.Users.Save(ctx, stored))
			_, err = e.streak.RepairStreak(ctx, "u1")
			require.NoError(t, err)

			e.complete(t, "u1", 600)
			u := e.user(t, "u1")
			require.InDelta(t, 10.0, u.TodayStudyMinutes, 1e-9)
			require.InDelta(t, ledgerMinutes(t, e, "u1"), u.TotalStudyMinutes, 1e-9)

			out, err := e.recon.SyncToday(ctx, "u1")
			require.NoError(t, err)
			require.False(t, out.Written)
			require.InDelta(t, 10.0, out.Today, 1e-9)
			require.InDelta(t, 41.0, out.Total, 1e-9)

			e.clock.set("2024-01-15")
			e.complete(t, "u1", 300)
			_, err = e.recon.SyncToday(ctx, "u1")
			require.NoError(t, err)
			u = e.user(t, "u1")
			require.InDelta(t, ledgerMinutes(t, e, "u1"), u.TotalStudyMinutes, 1e-9)
			require.InDelta(t, 46.0, u.TotalStudyMinutes, 1e-9)
		})
	}
}
