package leaderboardservice

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	leaderboarddomain "github.com/predict-it/predict-it/app/modules/leaderboard/domain"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/observability"
)

const serviceName = "LeaderboardService"

// LeaderboardService implements the Service interface. Standings are cached
// until invalidated by a scored submission or a ground truth change.
type LeaderboardService struct {
	submissions SubmissionReader
	truth       GroundTruthReader
	metric      scoringdomain.Metric
	logger      *slog.Logger
	metrics     observability.LeaderboardMetrics
	tracer      trace.Tracer
	palette     ChartPalette
	now         func() time.Time

	mu         sync.Mutex
	cached     *Standings
	generation uint64
}

var _ Service = (*LeaderboardService)(nil)

// NewLeaderboardService creates a new LeaderboardService.
func NewLeaderboardService(
	submissions SubmissionReader,
	truth GroundTruthReader,
	metric scoringdomain.Metric,
	logger *slog.Logger,
	metrics observability.LeaderboardMetrics,
	tracer trace.Tracer,
) *LeaderboardService {
	if logger == nil {
		logger = slog.Default()
	}
	if !metric.Valid() {
		metric = scoringdomain.MetricRMSE
	}
	return &LeaderboardService{
		submissions: submissions,
		truth:       truth,
		metric:      metric,
		logger:      logger,
		metrics:     metrics,
		tracer:      tracer,
		palette:     DefaultPalette(),
		now:         time.Now,
	}
}

func (s *LeaderboardService) Standings(ctx context.Context) (Standings, error) {
	var out Standings
	err := s.observe(ctx, "Standings", func(ctx context.Context) error {
		var err error
		out, err = s.standings(ctx)
		return err
	})
	return out, err
}

func (s *LeaderboardService) standings(ctx context.Context) (Standings, error) {
	s.mu.Lock()
	if s.cached != nil {
		cached := *s.cached
		s.mu.Unlock()
		if s.metrics != nil {
			s.metrics.RecordCacheHit(ctx)
		}
		return cached, nil
	}
	generation := s.generation
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordCacheMiss(ctx)
	}

	subs, err := s.submissions.ScoredSubmissions(ctx, s.metric)
	if err != nil {
		return Standings{}, fmt.Errorf("failed to read submissions: %w", err)
	}
	built := Standings{
		Metric:    s.metric,
		Direction: s.metric.Direction().String(),
		Entries:   leaderboarddomain.Build(subs, s.metric.Direction()),
		BuiltAt:   s.now().UTC(),
	}

	s.mu.Lock()
	// An invalidation during the read means built may be stale; serve it once without caching.
	if s.generation == generation {
		s.cached = &built
	}
	s.mu.Unlock()

	s.logger.DebugContext(ctx, "Leaderboard rebuilt",
		observability.CorrelationID(ctx),
		slog.String("metric", string(s.metric)),
		slog.Int("entries", len(built.Entries)),
	)
	return built, nil
}

func (s *LeaderboardService) Overview(ctx context.Context) (Overview, error) {
	var out Overview
	err := s.observe(ctx, "Overview", func(ctx context.Context) error {
		standings, err := s.standings(ctx)
		if err != nil {
			return err
		}
		stats, err := s.submissions.Statistics(ctx)
		if err != nil {
			return fmt.Errorf("failed to read statistics: %w", err)
		}
		out = Overview{Standings: standings, Statistics: stats}

		gt, err := s.truth.Current(ctx)
		switch {
		case err == nil:
			summary := gt.Summary()
			out.GroundTruth = &summary
		case errors.Is(err, scoringdomain.ErrNoGroundTruth):
		default:
			return fmt.Errorf("failed to read ground truth: %w", err)
		}
		return nil
	})
	return out, err
}

func (s *LeaderboardService) Invalidate(ctx context.Context, reason string) {
	s.mu.Lock()
	s.cached = nil
	s.generation++
	s.mu.Unlock()

	if s.metrics != nil {
		s.metrics.RecordCacheInvalidation(ctx, reason)
	}
	s.logger.DebugContext(ctx, "Leaderboard cache invalidated",
		observability.CorrelationID(ctx),
		slog.String("reason", reason),
	)
}

// observe wraps an operation with a span, operation metrics, and panic recovery.
func (s *LeaderboardService) observe(ctx context.Context, operationName string, op func(ctx context.Context) error) (err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("metric", string(s.metric)),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
		start := time.Now()
		defer func() {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(start))
		}()
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
		}
		if err != nil {
			s.logger.ErrorContext(ctx, "Operation failed with error",
				observability.CorrelationID(ctx),
				slog.String("operation", operationName),
				observability.ErrorAttr(err),
			)
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			return
		}
		if s.metrics != nil {
			s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
		}
	}()

	if err = op(ctx); err != nil {
		return fmt.Errorf("%s: %w", operationName, err)
	}
	return nil
}
