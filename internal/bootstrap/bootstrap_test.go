package bootstrap

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	streakdto "studystreak/internal/modules/streak/dto"
	"studystreak/internal/platform/config"
)

func newTestApp(t *testing.T, backend string) *App {
	t.Helper()
	t.Setenv("STUDYSTREAK_BACKEND", backend)
	cfg, err := config.New(t.TempDir())
	require.NoError(t, err)
	cfg.HTTP.RateLimit = 0
	cfg.Log.Level = "error"

	app, err := New(cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = app.Close() })
	return app
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAPIRoundTrip(t *testing.T) {
	for _, backend := range []string{config.BackendSQLite, config.BackendBadger} {
		t.Run(backend, func(t *testing.T) {
			app := newTestApp(t, backend)
			router := app.Router()

			rec := do(t, router, http.MethodPost, "/api/users", `{"user_id":"ana"}`)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

			rec = do(t, router, http.MethodPost, "/api/users", `{"user_id":"ana"}`)
			require.Equal(t, http.StatusConflict, rec.Code)

			rec = do(t, router, http.MethodPost, "/api/users/ana/sessions", `{"duration_seconds":1500,"subject_id":"math"}`)
			require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
			var completed streakdto.CompleteSessionOutput
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &completed))
			require.Equal(t, 25, completed.EarnedCoins)
			require.Equal(t, 1, completed.User.StreakCurrent)

			rec = do(t, router, http.MethodGet, "/api/users/ana/history?days=3", "")
			require.Equal(t, http.StatusOK, rec.Code)
			var history streakdto.HistoryOutput
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &history))
			require.Len(t, history.Days, 3)
			require.Equal(t, 1, history.ActiveDays)

			rec = do(t, router, http.MethodGet, "/api/users/nobody", "")
			require.Equal(t, http.StatusNotFound, rec.Code)

			rec = do(t, router, http.MethodGet, "/metrics", "")
			require.Equal(t, http.StatusOK, rec.Code)
			require.Contains(t, rec.Body.String(), "studystreak_sessions_completed_total")
		})
	}
}

func TestSessionTimerCompletesThroughStreak(t *testing.T) {
	app := newTestApp(t, config.BackendSQLite)
	ctx := context.Background()

	_, err := app.StreakCLI.Register(ctx, "ben")
	require.NoError(t, err)
	started, err := app.SessionCLI.Start(ctx, "ben", "", "", 0)
	require.NoError(t, err)

	ended, err := app.SessionCLI.End(ctx, "ben", started.SessionID)
	require.NoError(t, err)
	require.Equal(t, started.SessionID, ended.SessionID)
	require.NotEmpty(t, ended.Result.SessionID)

	_, err = app.SessionCLI.GetActive(ctx, "ben")
	require.Error(t, err)
}

func TestCatalogPathOverridesDefault(t *testing.T) {
	_, err := loadCatalog("does-not-exist.yaml")
	require.Error(t, err)

	catalog, err := loadCatalog("")
	require.NoError(t, err)
	require.NotEmpty(t, catalog.Characters())
}
