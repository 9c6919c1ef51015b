package leaderboardrouter

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/predict-it/predict-it/app/eventbus"
	leaderboardhandlers "github.com/predict-it/predict-it/app/modules/leaderboard/infrastructure/handlers"
	"github.com/predict-it/predict-it/app/observability"
)

// LeaderboardRouter binds leaderboard event handlers to a watermill router.
type LeaderboardRouter struct {
	logger             *slog.Logger
	Router             *message.Router
	subscriber         message.Subscriber
	prometheusRegistry *prometheus.Registry
}

// NewLeaderboardRouter creates a new instance of the router. A nil registry
// disables router metrics.
func NewLeaderboardRouter(
	logger *slog.Logger,
	router *message.Router,
	subscriber message.Subscriber,
	prometheusRegistry *prometheus.Registry,
) *LeaderboardRouter {
	return &LeaderboardRouter{
		logger:             logger,
		Router:             router,
		subscriber:         subscriber,
		prometheusRegistry: prometheusRegistry,
	}
}

// Configure sets up the middlewares and registers all module-specific event handlers.
func (r *LeaderboardRouter) Configure(ctx context.Context, handlers leaderboardhandlers.Handlers) error {
	if r.prometheusRegistry != nil {
		r.logger.InfoContext(ctx, "Adding Prometheus router metrics middleware for Leaderboard")
		builder := metrics.NewPrometheusMetricsBuilder(r.prometheusRegistry, "predictit", "events")
		builder.AddPrometheusRouterMetrics(r.Router)
	}

	r.Router.AddMiddleware(
		middleware.CorrelationID,
		middleware.Recoverer,
	)

	return r.RegisterHandlers(ctx, handlers)
}

// handlerDeps provides a scannable structure for the registerHandler helper.
type handlerDeps struct {
	router     *message.Router
	subscriber message.Subscriber
	logger     *slog.Logger
}

// registerHandler is a generic helper to reduce boilerplate when adding topics to the router.
func registerHandler[T any](
	deps handlerDeps,
	topic string,
	handler func(context.Context, *T) error,
) {
	handlerName := "leaderboard." + topic
	deps.router.AddNoPublisherHandler(
		handlerName,
		topic,
		deps.subscriber,
		func(msg *message.Message) error {
			ctx, payload, err := eventbus.Decode[T](msg)
			if err != nil {
				// A payload that cannot be decoded will never succeed; drop it.
				deps.logger.ErrorContext(ctx, "Dropping undecodable event",
					observability.CorrelationID(ctx),
					observability.ErrorAttr(err),
				)
				return nil
			}
			return handler(ctx, payload)
		},
	)
}

// RegisterHandlers binds event topics to their corresponding handler logic.
func (r *LeaderboardRouter) RegisterHandlers(ctx context.Context, handlers leaderboardhandlers.Handlers) error {
	r.logger.InfoContext(ctx, "Registering Leaderboard Event Handlers")

	deps := handlerDeps{
		router:     r.Router,
		subscriber: r.subscriber,
		logger:     r.logger,
	}

	registerHandler(deps, eventbus.SubmissionScoredV1, handlers.HandleSubmissionScored)
	registerHandler(deps, eventbus.GroundTruthActivatedV1, handlers.HandleGroundTruthActivated)

	return nil
}

// Close stops the router and cleans up resources.
func (r *LeaderboardRouter) Close() error {
	return r.Router.Close()
}
