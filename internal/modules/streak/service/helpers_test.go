package service_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	progression "studystreak/internal/modules/progression/domain"
	streakstore "studystreak/internal/modules/streak/adapter/out"
	"studystreak/internal/modules/streak/domain"
	"studystreak/internal/modules/streak/service"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/docstore"
	"studystreak/internal/platform/docstore/sqlite"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(day string) {
	t, err := time.Parse(calendar.Layout, day)
	if err != nil {
		panic(err)
	}
	c.mu.Lock()
	c.now = t.Add(10 * time.Hour)
	c.mu.Unlock()
}

type seqID struct {
	mu sync.Mutex
	n  int
}

func (s *seqID) New() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	return fmt.Sprintf("id-%04d", s.n)
}

type recorder struct {
	mu       sync.Mutex
	sessions int
	coins    int
	unlocks  []string
	events   []string
	failures int
	writes   []string
}

func (r *recorder) SessionCompleted(int, bool) { r.mu.Lock(); r.sessions++; r.mu.Unlock() }
func (r *recorder) CoinsEarned(n int)          { r.mu.Lock(); r.coins += n; r.mu.Unlock() }
func (r *recorder) CharacterUnlocked(id string) {
	r.mu.Lock()
	r.unlocks = append(r.unlocks, id)
	r.mu.Unlock()
}
func (r *recorder) StreakEvent(e string) { r.mu.Lock(); r.events = append(r.events, e); r.mu.Unlock() }
func (r *recorder) ActivityEmitFailed()  { r.mu.Lock(); r.failures++; r.mu.Unlock() }
func (r *recorder) ReconcileWrite(k string) {
	r.mu.Lock()
	r.writes = append(r.writes, k)
	r.mu.Unlock()
}

type failingFeed struct{}

func (failingFeed) Emit(context.Context, domain.Activity) error {
	return errors.New("feed unavailable")
}

func (failingFeed) Recent(context.Context, []string, int) ([]domain.Activity, error) {
	return nil, errors.New("feed unavailable")
}

type env struct {
	clock    *fakeClock
	store    docstore.Store
	deps     service.Deps
	recorder *recorder
	streak   *service.StreakService
	recon    *service.ReconcileService
	social   *service.SocialService
}

func testCatalog(t *testing.T) *progression.Catalog {
	t.Helper()
	catalog, err := progression.NewCatalog([]progression.Character{
		{ID: "sprout", Name: "Sprout", UnlockDay: 1, WorldID: "meadow"},
		{ID: "pebble", Name: "Pebble", UnlockDay: 3, WorldID: "meadow"},
		{ID: "clover", Name: "Clover", UnlockDay: 6, WorldID: "meadow"},
	})
	require.NoError(t, err)
	return catalog
}

func newEnv(t *testing.T, mutate ...func(*service.Deps)) *env {
	t.Helper()
	store, err := sqlite.Open(sqlite.MemoryPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return newEnvWithStore(t, store, mutate...)
}

func newEnvWithStore(t *testing.T, store docstore.Store, mutate ...func(*service.Deps)) *env {
	t.Helper()
	clk := &fakeClock{}
	clk.set("2024-01-10")
	rec := &recorder{}
	deps := service.Deps{
		Calendar: calendar.New(clk, time.UTC),
		IDs:      &seqID{},
		Catalog:  testCatalog(t),
		Tx:       store,
		Users:    streakstore.NewDocAggregateStore(store),
		Ledger:   streakstore.NewDocLedger(store),
		Feed:     streakstore.NewDocActivityFeed(store),
		Recorder: rec,
	}
	for _, m := range mutate {
		m(&deps)
	}
	return &env{
		clock:    clk,
		store:    store,
		deps:     deps,
		recorder: rec,
		streak:   service.NewStreakService(deps),
		recon:    service.NewReconcileService(deps),
		social:   service.NewSocialService(deps),
	}
}

func (e *env) register(t *testing.T, userID string) {
	t.Helper()
	_, err := e.streak.Register(context.Background(), userID)
	require.NoError(t, err)
}

func (e *env) complete(t *testing.T, userID string, seconds int) service.CompletionResult {
	t.Helper()
	res, err := e.streak.CompleteSession(context.Background(), userID, seconds, "", "")
	require.NoError(t, err)
	return res
}

func (e *env) user(t *testing.T, userID string) domain.UserAggregate {
	t.Helper()
	u, err := e.deps.Users.Get(context.Background(), userID)
	require.NoError(t, err)
	return u
}
