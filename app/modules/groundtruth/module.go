package groundtruth

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/uptrace/bun"

	groundtruthservice "github.com/predict-it/predict-it/app/modules/groundtruth/application"
	groundtruthhandlers "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/handlers"
	groundtruthdb "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/identity"
	"github.com/predict-it/predict-it/config"
)

// Module wires the ground truth store.
type Module struct {
	service  groundtruthservice.Service
	handlers *groundtruthhandlers.GroundTruthHandlers
}

// NewModule creates the ground truth module and registers its admin routes.
func NewModule(
	ctx context.Context,
	cfg *config.Config,
	obs observability.Observability,
	publisher groundtruthservice.EventPublisher,
	httpRouter chi.Router,
	authenticate func(http.Handler) http.Handler,
	db *bun.DB,
) (*Module, error) {
	logger := obs.Logger.With("module", "groundtruth")
	logger.InfoContext(ctx, "Initializing ground truth module")

	service := groundtruthservice.NewGroundTruthService(
		groundtruthdb.NewRepository(db),
		logger,
		obs.Metrics,
		observability.Tracer("groundtruth"),
		db,
		publisher,
	)
	handlers := groundtruthhandlers.NewGroundTruthHandlers(service, logger, cfg.HTTP.UploadLimitBytes)

	if httpRouter != nil {
		httpRouter.Group(func(r chi.Router) {
			r.Use(authenticate)
			r.Use(identity.RequireRole(identity.RoleAdmin))

			r.Post("/api/admin/ground-truth", handlers.HandleUpload)
			r.Get("/api/admin/ground-truth", handlers.HandleHistory)
			r.Get("/api/admin/settings", handlers.HandleGetSettings)
			r.Post("/api/admin/configure-columns", handlers.HandleConfigureColumns)
		})
	}

	return &Module{service: service, handlers: handlers}, nil
}

// GetService returns the ground truth service for use by other modules.
func (m *Module) GetService() groundtruthservice.Service {
	return m.service
}
