package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/predict-it/predict-it/app/database"
	"github.com/predict-it/predict-it/app/eventbus"
	"github.com/predict-it/predict-it/app/modules/groundtruth"
	"github.com/predict-it/predict-it/app/modules/leaderboard"
	"github.com/predict-it/predict-it/app/modules/scoring"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/httpx"
	"github.com/predict-it/predict-it/app/shared/identity"
	"github.com/predict-it/predict-it/config"
)

// App holds the shared infrastructure and the three modules.
type App struct {
	Config        *config.Config
	Observability observability.Observability
	DB            *bun.DB
	EventBus      *eventbus.EventBus
	Router        chi.Router

	GroundTruthModule *groundtruth.Module
	ScoringModule     *scoring.Module
	LeaderboardModule *leaderboard.Module
}

// Initialize builds the application. When db is nil the Postgres connection is
// opened from cfg and migrations are applied.
func (app *App) Initialize(ctx context.Context, cfg *config.Config, obs observability.Observability, db *bun.DB) error {
	app.Config = cfg
	app.Observability = obs
	logger := obs.Logger

	if db == nil {
		var err error
		db, err = database.Open(ctx, cfg.Postgres.DSN)
		if err != nil {
			return err
		}
		if err := database.MigrateAll(ctx, db, logger); err != nil {
			_ = db.Close()
			return fmt.Errorf("failed to run migrations: %w", err)
		}
	}
	app.DB = db

	bus, err := eventbus.New(eventbus.Config{NATSURL: cfg.NATS.URL, CloseTimeout: cfg.NATS.CloseTimeout}, logger)
	if err != nil {
		return fmt.Errorf("failed to create event bus: %w", err)
	}
	app.EventBus = bus

	app.Router = app.newHTTPRouter()
	authenticate := identity.Authenticate(identity.NewProvider(cfg.JWT.Secret, cfg.JWT.Issuer), logger)

	if err := app.initializeModules(ctx, authenticate); err != nil {
		_ = bus.Close()
		return err
	}

	logger.InfoContext(ctx, "Application initialized",
		slog.String("transport", bus.Transport()),
		slog.String("metric", cfg.Scoring.Metric),
	)
	return nil
}

func (app *App) newHTTPRouter() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(httpx.CORSMiddleware(app.Config.HTTP.AllowedOrigins))

	r.Handle("/metrics", observability.Handler(app.Observability.Registry))
	r.Get("/healthz", app.handleHealth)
	return r
}

func (app *App) initializeModules(ctx context.Context, authenticate func(http.Handler) http.Handler) error {
	var err error

	app.GroundTruthModule, err = groundtruth.NewModule(ctx, app.Config, app.Observability, app.EventBus, app.Router, authenticate, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize ground truth module: %w", err)
	}

	app.ScoringModule, err = scoring.NewModule(ctx, app.Config, app.Observability, app.EventBus,
		app.GroundTruthModule.GetService(), app.Router, authenticate, app.DB)
	if err != nil {
		return fmt.Errorf("failed to initialize scoring module: %w", err)
	}

	app.LeaderboardModule, err = leaderboard.NewModule(ctx, app.Config, app.Observability,
		app.EventBus.Subscriber(), app.ScoringModule.GetRepository(), app.GroundTruthModule.GetService(),
		app.Router, authenticate)
	if err != nil {
		return fmt.Errorf("failed to initialize leaderboard module: %w", err)
	}
	app.ScoringModule.AddInvalidator(app.LeaderboardModule.GetService())
	return nil
}

// Run serves HTTP and consumes events until ctx is cancelled, then shuts down.
func (app *App) Run(ctx context.Context) error {
	logger := app.Observability.Logger
	srv := &http.Server{
		Addr:              app.Config.HTTP.Addr,
		Handler:           app.Router,
		ReadHeaderTimeout: app.Config.HTTP.ReadHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.LeaderboardModule.Run(gctx)
	})

	g.Go(func() error {
		logger.InfoContext(gctx, "HTTP server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), app.Config.HTTP.ShutdownTimeout)
		defer cancel()
		logger.Info("Shutting down HTTP server")
		return srv.Shutdown(shutdownCtx)
	})

	err := g.Wait()
	app.Close()
	return err
}

// Close releases the event bus, the module routers and the database.
func (app *App) Close() {
	logger := app.Observability.Logger
	if app.LeaderboardModule != nil {
		if err := app.LeaderboardModule.Close(); err != nil {
			logger.Error("Error closing leaderboard module", observability.ErrorAttr(err))
		}
	}
	if app.EventBus != nil {
		if err := app.EventBus.Close(); err != nil {
			logger.Error("Error closing event bus", observability.ErrorAttr(err))
		}
	}
	if app.DB != nil {
		if err := app.DB.Close(); err != nil {
			logger.Error("Error closing database", observability.ErrorAttr(err))
		}
	}
}

type healthResponse struct {
	Status    string    `json:"status"`
	Transport string    `json:"transport"`
	Time      time.Time `json:"time"`
}

func (app *App) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()
	if err := app.DB.PingContext(ctx); err != nil {
		httpx.Error(w, http.StatusServiceUnavailable, "database_unavailable", err.Error())
		return
	}
	httpx.JSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Transport: app.EventBus.Transport(),
		Time:      time.Now().UTC(),
	})
}
