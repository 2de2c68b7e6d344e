package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gin-gonic/gin"

	progressioninadapter "studystreak/internal/modules/progression/adapter/in"
	progressionoutadapter "studystreak/internal/modules/progression/adapter/out"
	progression "studystreak/internal/modules/progression/domain"
	progressionusecase "studystreak/internal/modules/progression/usecase"
	sessioninadapter "studystreak/internal/modules/session/adapter/in"
	sessionoutadapter "studystreak/internal/modules/session/adapter/out"
	sessionservice "studystreak/internal/modules/session/service"
	sessionusecase "studystreak/internal/modules/session/usecase"
	streakinadapter "studystreak/internal/modules/streak/adapter/in"
	streakoutadapter "studystreak/internal/modules/streak/adapter/out"
	streakservice "studystreak/internal/modules/streak/service"
	streakusecase "studystreak/internal/modules/streak/usecase"
	"studystreak/internal/platform/calendar"
	"studystreak/internal/platform/clock"
	"studystreak/internal/platform/config"
	"studystreak/internal/platform/docstore"
	badgerstore "studystreak/internal/platform/docstore/badger"
	sqlitestore "studystreak/internal/platform/docstore/sqlite"
	"studystreak/internal/platform/httpx"
	"studystreak/internal/platform/id"
	"studystreak/internal/platform/logging"
	"studystreak/internal/platform/metrics"
	uiapp "studystreak/internal/ui/app"
)

type App struct {
	Config   config.Config
	Logger   *slog.Logger
	Calendar calendar.Calendar
	Catalog  *progression.Catalog
	Metrics  *metrics.Registry

	StreakCLI      streakinadapter.CLIHandler
	SessionCLI     sessioninadapter.CLIHandler
	ProgressionCLI progressioninadapter.CLIHandler

	streakHTTP      streakinadapter.HTTPHandler
	progressionHTTP progressioninadapter.HTTPHandler
	store           docstore.Store
}

func New(cfg config.Config) (*App, error) {
	logger := logging.New(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}
	cal := calendar.New(clock.SystemClock{}, loc)
	ids := id.UUID{}

	catalog, err := loadCatalog(cfg.Catalog)
	if err != nil {
		return nil, fmt.Errorf("load character catalog: %w", err)
	}
	store, err := openStore(cfg, logger)
	if err != nil {
		return nil, err
	}

	registry := metrics.NewRegistry()
	deps := streakservice.Deps{
		Calendar:   cal,
		IDs:        ids,
		Catalog:    catalog,
		Tx:         store,
		Users:      streakoutadapter.NewDocAggregateStore(store),
		Ledger:     streakoutadapter.NewDocLedger(store),
		Feed:       streakoutadapter.NewDocActivityFeed(store),
		Recorder:   registry,
		Logger:     logger,
		RepairCost: cfg.RepairCost,
	}

	progressionUC := progressionusecase.NewInteractor(catalog)
	streakUC := streakusecase.NewInteractor(
		streakservice.NewStreakService(deps),
		streakservice.NewReconcileService(deps),
		streakservice.NewSocialService(deps),
		progressionUC,
	)
	sessionUC := sessionusecase.NewInteractor(
		sessionservice.NewSessionService(clock.SystemClock{}, ids),
		streakUC,
		sessionoutadapter.NewFileActiveSessionStore(cfg.DataDir),
	)

	logger.Debug("studystreak ready",
		slog.String("backend", cfg.Backend),
		slog.String("db_path", cfg.DBPath),
		slog.String("timezone", loc.String()),
		slog.Int("characters", len(catalog.Characters())),
	)

	return &App{
		Config:          cfg,
		Logger:          logger,
		Calendar:        cal,
		Catalog:         catalog,
		Metrics:         registry,
		StreakCLI:       streakinadapter.NewCLIHandler(streakUC, streakUC),
		SessionCLI:      sessioninadapter.NewCLIHandler(sessionUC),
		ProgressionCLI:  progressioninadapter.NewCLIHandler(progressionUC),
		streakHTTP:      streakinadapter.NewHTTPHandler(streakUC, streakUC),
		progressionHTTP: progressioninadapter.NewHTTPHandler(progressionUC),
		store:           store,
	}, nil
}

func (a *App) Close() error {
	return a.store.Close()
}

func loadCatalog(path string) (*progression.Catalog, error) {
	if path == "" {
		return progressionoutadapter.DefaultCatalog()
	}
	return progressionoutadapter.LoadCatalog(path)
}

func openStore(cfg config.Config, logger *slog.Logger) (docstore.Store, error) {
	switch cfg.Backend {
	case config.BackendBadger:
		bcfg := badgerstore.DefaultConfig(cfg.DBPath)
		bcfg.Logger = logger.With(slog.String("component", "badger"))
		store, err := badgerstore.Open(bcfg)
		if err != nil {
			return nil, fmt.Errorf("open badger store: %w", err)
		}
		return store, nil
	default:
		if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db dir: %w", err)
		}
		store, err := sqlitestore.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		return store, nil
	}
}

// Router exposes the JSON API under /api and prometheus metrics at /metrics.
func (a *App) Router() *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery(), httpx.RequestLogger(a.Logger))

	api := r.Group("/api")
	if a.Config.HTTP.RateLimit > 0 {
		api.Use(httpx.NewRateLimiter(a.Config.HTTP.RateLimit, a.Config.HTTP.Burst).Middleware())
	}
	a.streakHTTP.Register(api)
	a.progressionHTTP.Register(api)

	r.GET("/metrics", gin.WrapH(a.Metrics.Handler()))
	r.GET("/healthz", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	return r
}

// Serve runs the HTTP API until ctx is cancelled.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.HTTP.Addr,
		Handler:           a.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		a.Logger.Info("http listening", slog.String("addr", srv.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown http: %w", err)
		}
		return nil
	}
}

func RunTUI(userID string, app *App) error {
	model := uiapp.NewModel(userID, app.StreakCLI, app.SessionCLI, app.Calendar, app.Catalog)
	program := tea.NewProgram(model, tea.WithAltScreen())
	_, err := program.Run()
	return err
}
