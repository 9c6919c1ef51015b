package scoringservice

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/predict-it/predict-it/app/eventbus"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/results"
)

const serviceName = "SubmissionService"

// SubmissionService implements the Service interface.
type SubmissionService struct {
	repo      scoringdb.Repository
	truth     GroundTruthSource
	metric    scoringdomain.Metric
	logger    *slog.Logger
	metrics   observability.ScoringMetrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher EventPublisher
	now       func() time.Time

	invalidators []StandingsInvalidator
}

var _ Service = (*SubmissionService)(nil)

// NewSubmissionService creates a new SubmissionService. An invalid metric falls back to rmse.
func NewSubmissionService(
	repo scoringdb.Repository,
	truth GroundTruthSource,
	metric scoringdomain.Metric,
	logger *slog.Logger,
	metrics observability.ScoringMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	publisher EventPublisher,
) *SubmissionService {
	if logger == nil {
		logger = slog.Default()
	}
	if !metric.Valid() {
		metric = scoringdomain.MetricRMSE
	}
	return &SubmissionService{
		repo:      repo,
		truth:     truth,
		metric:    metric,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *SubmissionService) Metric() scoringdomain.Metric { return s.metric }

// AddInvalidator registers a cache to drop after each stored submission.
// Register before serving; the list is not guarded.
func (s *SubmissionService) AddInvalidator(inv StandingsInvalidator) {
	if inv != nil {
		s.invalidators = append(s.invalidators, inv)
	}
}

// Submit runs a full scoring attempt and stores the submission only on success.
func (s *SubmissionService) Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error) {
	result, err := withTelemetry(s, ctx, "Submit", req.StudentID, func(ctx context.Context) (results.OperationResult[SubmitResult, error], error) {
		return s.submitLogic(ctx, req)
	})
	out, err := results.Unwrap(result, err)
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRejection(ctx, string(scoringdomain.KindOf(err)))
		}
		return SubmitResult{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordScore(ctx, string(out.Result.Metric), out.Result.Score)
	}
	for _, inv := range s.invalidators {
		inv.Invalidate(ctx, eventbus.SubmissionScoredV1)
	}
	s.publish(ctx, eventbus.SubmissionScoredV1, eventbus.SubmissionScoredPayload{
		SubmissionID:  out.Submission.ID.String(),
		StudentID:     out.Submission.StudentID,
		GroundTruthID: out.Submission.GroundTruthID,
		Metric:        string(out.Result.Metric),
		Score:         out.Result.Score,
		ScoredAt:      out.Submission.CreatedAt,
	})
	return out, nil
}

func (s *SubmissionService) submitLogic(ctx context.Context, req SubmitRequest) (results.OperationResult[SubmitResult, error], error) {
	fail := func(err error) (results.OperationResult[SubmitResult, error], error) {
		return results.FailureResult[SubmitResult, error](err), nil
	}

	truth, err := s.truth.ActiveGroundTruth(ctx)
	if err != nil {
		if scoringdomain.IsScoringFailure(err) {
			return fail(err)
		}
		return results.OperationResult[SubmitResult, error]{}, fmt.Errorf("failed to load ground truth: %w", err)
	}

	prefs, err := s.truth.ColumnPreferences(ctx)
	if err != nil {
		return results.OperationResult[SubmitResult, error]{}, fmt.Errorf("failed to load column settings: %w", err)
	}

	prediction, err := scoringdomain.ParseTable(req.Text)
	if err != nil {
		return fail(err)
	}

	scored, err := scoringdomain.Score(prediction, truth.Table, prefs, s.metric)
	if err != nil {
		return fail(err)
	}

	now := s.now().UTC()
	score := scored.Score
	row := &scoringdb.Submission{
		ID:            uuid.New(),
		StudentID:     req.StudentID,
		GroundTruthID: truth.ID,
		Filename:      scoringdomain.StoredFilename(req.StudentID, now),
		Metric:        string(scored.Metric),
		Score:         &score,
		Rows:          scored.Rows,
		Alignment:     string(scored.Alignment),
		CreatedAt:     now,
	}

	createTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[SubmitResult, error], error) {
		if err := s.repo.Create(ctx, db, row); err != nil {
			return results.OperationResult[SubmitResult, error]{}, err
		}
		return results.SuccessResult[SubmitResult, error](SubmitResult{Submission: row.ToDomain(), Result: scored}), nil
	}
	out, err := runInTx(s, ctx, createTx)
	if err != nil {
		return out, err
	}

	s.logger.InfoContext(ctx, "Submission scored",
		observability.CorrelationID(ctx),
		slog.String("student_id", req.StudentID),
		slog.Int64("ground_truth_id", truth.ID),
		slog.String("metric", string(scored.Metric)),
		slog.Float64("score", scored.Score),
		slog.Int("rows", scored.Rows),
		slog.String("alignment", string(scored.Alignment)),
	)
	return out, nil
}

// History returns the student's submissions and best score under the active metric.
func (s *SubmissionService) History(ctx context.Context, studentID string) (StudentHistory, error) {
	result, err := withTelemetry(s, ctx, "History", studentID, func(ctx context.Context) (results.OperationResult[StudentHistory, error], error) {
		rows, err := s.repo.ListByStudent(ctx, nil, studentID)
		if err != nil {
			return results.OperationResult[StudentHistory, error]{}, err
		}

		history := StudentHistory{
			StudentID:   studentID,
			Metric:      s.metric,
			Submissions: make([]scoringdomain.Submission, 0, len(rows)),
		}
		direction := s.metric.Direction()
		for i := range rows {
			sub := rows[i].ToDomain()
			history.Submissions = append(history.Submissions, sub)
			if sub.Metric != s.metric || !sub.Scored() {
				continue
			}
			if history.BestScore == nil || direction.Better(*sub.Score, *history.BestScore) {
				best := *sub.Score
				history.BestScore = &best
			}
		}
		return results.SuccessResult[StudentHistory, error](history), nil
	})
	return results.Unwrap(result, err)
}

func (s *SubmissionService) publish(ctx context.Context, topic string, payload any) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, topic, payload); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event",
			observability.CorrelationID(ctx),
			slog.String("topic", topic),
			observability.ErrorAttr(err),
		)
	}
}

// -----------------------------------------------------------------------------
// Generic Helpers (Defined as functions because methods cannot have type params)
// -----------------------------------------------------------------------------

type operationFunc[S any, F any] func(ctx context.Context) (results.OperationResult[S, F], error)

// withTelemetry wraps a service operation with tracing, metrics, and panic recovery.
func withTelemetry[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("student_id", identifier),
		))
	} else {
		span = trace.SpanFromContext(ctx)
	}
	defer span.End()

	if s.metrics != nil {
		s.metrics.RecordOperationAttempt(ctx, operationName, serviceName)
	}

	startTime := time.Now()
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordOperationDuration(ctx, operationName, serviceName, time.Since(startTime))
		}
	}()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in %s: %v", operationName, r)
			s.logger.ErrorContext(ctx, "Critical panic recovered",
				observability.CorrelationID(ctx),
				slog.String("student_id", identifier),
				observability.ErrorAttr(err),
			)
			if s.metrics != nil {
				s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
			}
			span.RecordError(err)
			result = results.OperationResult[S, F]{}
		}
	}()

	result, err = op(ctx)

	if err != nil {
		wrappedErr := fmt.Errorf("%s: %w", operationName, err)
		s.logger.ErrorContext(ctx, "Operation failed with error",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("student_id", identifier),
			observability.ErrorAttr(wrappedErr),
		)
		if s.metrics != nil {
			s.metrics.RecordOperationFailure(ctx, operationName, serviceName)
		}
		span.RecordError(wrappedErr)
		return result, wrappedErr
	}

	if result.IsFailure() {
		s.logger.WarnContext(ctx, "Operation returned failure result",
			observability.CorrelationID(ctx),
			slog.String("operation", operationName),
			slog.String("student_id", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
		span.SetAttributes(attribute.String("failure_kind", failureKind(*result.Failure)))
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

func failureKind(failure any) string {
	if err, ok := failure.(error); ok {
		return string(scoringdomain.KindOf(err))
	}
	return ""
}

// runInTx runs fn inside a transaction when a database is configured.
func runInTx[S any, F any](
	s *SubmissionService,
	ctx context.Context,
	fn func(ctx context.Context, db bun.IDB) (results.OperationResult[S, F], error),
) (results.OperationResult[S, F], error) {
	if s.db == nil {
		return fn(ctx, nil)
	}

	var result results.OperationResult[S, F]
	err := s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		var txErr error
		result, txErr = fn(ctx, tx)
		return txErr
	})
	return result, err
}
