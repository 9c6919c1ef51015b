package scoring

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"
	"golang.org/x/time/rate"

	scoringservice "github.com/predict-it/predict-it/app/modules/scoring/application"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/modules/scoring/infrastructure/adapters"
	scoringhandlers "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/handlers"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/httpx"
	"github.com/predict-it/predict-it/app/shared/identity"
	"github.com/predict-it/predict-it/config"
)

// Module wires submission scoring.
type Module struct {
	service  *scoringservice.SubmissionService
	repo     scoringdb.Repository
	handlers *scoringhandlers.ScoringHandlers
	limiter  *httpx.KeyedRateLimiter
}

// NewModule creates the scoring module and registers the student routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	publisher scoringservice.EventPublisher,
	truth adapters.GroundTruthReader,
	httpRouter chi.Router,
	authenticate func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With("module", "scoring")

	metric, err := scoringdomain.ParseMetric(cfg.Scoring.Metric)
	if err != nil {
		return nil, fmt.Errorf("scoring metric: %w", err)
	}
	logger.InfoContext(ctx, "Initializing scoring module", "metric", metric.String())

	repo := scoringdb.NewRepository(db)
	service := scoringservice.NewSubmissionService(
		repo,
		adapters.NewGroundTruthAdapter(truth),
		metric,
		logger,
		obs.Metrics,
		observability.Tracer("scoring"),
		db,
		publisher,
	)
	handlers := scoringhandlers.NewScoringHandlers(service, logger, cfg.HTTP.UploadLimitBytes)

	limiter := httpx.NewKeyedRateLimiter(rate.Limit(cfg.HTTP.SubmitsPerMinute/60), cfg.HTTP.SubmitBurst)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(identity.RequireRole(identity.RoleStudent))

			r.With(httpx.RateLimitMiddleware(limiter, studentKey)).Post("/api/submit", handlers.HandleSubmit)
			r.Get("/api/submissions", handlers.HandleHistory)
		})
	}

	return &Module{service: service, repo: repo, handlers: handlers, limiter: limiter}, nil
}

// studentKey rate limits per authenticated student, falling back to the client IP.
func studentKey(r *http.Request) string {
	if caller, ok := identity.FromContext(r.Context()); ok {
		return "student:" + caller.UserID
	}
	return "ip:" + httpx.ClientIP(r)
}

// GetService returns the scoring service.
func (m *Module) GetService() scoringservice.Service {
	return m.service
}

// GetRepository returns the submission repository for read-side consumers.
func (m *Module) GetRepository() scoringdb.Repository {
	return m.repo
}

// AddInvalidator registers an in-process cache that must be dropped as soon as
// a submission is stored. The SubmissionScoredV1 event still reaches other
// replicas through the bus.
func (m *Module) AddInvalidator(inv scoringservice.StandingsInvalidator) {
	m.service.AddInvalidator(inv)
}
