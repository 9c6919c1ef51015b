package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/go-chi/chi/v5"

	"github.com/predict-it/predict-it/app/eventbus"
	leaderboardservice "github.com/predict-it/predict-it/app/modules/leaderboard/application"
	"github.com/predict-it/predict-it/app/modules/leaderboard/infrastructure/adapters"
	leaderboardhandlers "github.com/predict-it/predict-it/app/modules/leaderboard/infrastructure/handlers"
	leaderboardrouter "github.com/predict-it/predict-it/app/modules/leaderboard/infrastructure/router"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/identity"
	"github.com/predict-it/predict-it/config"
)

// Module represents the leaderboard module.
type Module struct {
	service    leaderboardservice.Service
	handlers   leaderboardhandlers.Handlers
	router     *leaderboardrouter.LeaderboardRouter
	eventRoute *message.Router
	cancelFunc context.CancelFunc
	logger     *slog.Logger
}

// NewModule creates the leaderboard module, registers its HTTP routes and
// subscribes its cache invalidation handlers.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	subscriber message.Subscriber,
	submissions scoringdb.Repository,
	truth leaderboardservice.GroundTruthReader,
	httpRouter chi.Router,
	authenticate func(http.Handler) http.Handler,
) (*Module, error) {
	logger := obs.Logger.With("module", "leaderboard")
	logger.InfoContext(ctx, "Initializing leaderboard module")

	metric, err := scoringdomain.ParseMetric(cfg.Scoring.Metric)
	if err != nil {
		return nil, fmt.Errorf("leaderboard metric: %w", err)
	}

	service := leaderboardservice.NewLeaderboardService(
		adapters.NewSubmissionReaderAdapter(submissions),
		truth,
		metric,
		logger,
		obs.Metrics,
		observability.Tracer("leaderboard"),
	)
	handlers := leaderboardhandlers.NewLeaderboardHandlers(service, logger)

	eventRoute, err := eventbus.NewRouter(logger, cfg.NATS.CloseTimeout)
	if err != nil {
		return nil, fmt.Errorf("failed to create leaderboard event router: %w", err)
	}
	router := leaderboardrouter.NewLeaderboardRouter(logger, eventRoute, subscriber, obs.Registry)
	if err := router.Configure(ctx, handlers); err != nil {
		return nil, fmt.Errorf("failed to configure leaderboard router: %w", err)
	}

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(authenticate)

			r.Get("/api/leaderboard", handlers.HandleLeaderboard)
			r.Get("/api/leaderboard/chart.png", handlers.HandleChart)
			r.With(identity.RequireRole(identity.RoleAdmin)).Get("/api/admin/leaderboard/export", handlers.HandleExport)
		})
	}

	return &Module{
		service:    service,
		handlers:   handlers,
		router:     router,
		eventRoute: eventRoute,
		logger:     logger,
	}, nil
}

// Run consumes leaderboard events until ctx is cancelled.
func (m *Module) Run(ctx context.Context) error {
	m.logger.InfoContext(ctx, "Starting leaderboard module")

	ctx, cancel := context.WithCancel(ctx)
	m.cancelFunc = cancel
	defer cancel()

	if err := m.eventRoute.Run(ctx); err != nil {
		return fmt.Errorf("leaderboard event router: %w", err)
	}
	m.logger.InfoContext(ctx, "Leaderboard module stopped")
	return nil
}

// Running is closed once event handlers are subscribed.
func (m *Module) Running() chan struct{} {
	return m.eventRoute.Running()
}

// Close stops the leaderboard module.
func (m *Module) Close() error {
	if m.cancelFunc != nil {
		m.cancelFunc()
	}
	if m.router != nil {
		if err := m.router.Close(); err != nil {
			m.logger.Error("Error stopping leaderboard router", observability.ErrorAttr(err))
			return fmt.Errorf("error stopping router: %w", err)
		}
	}
	return nil
}

// GetService returns the leaderboard service.
func (m *Module) GetService() leaderboardservice.Service {
	return m.service
}
