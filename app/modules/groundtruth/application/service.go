package groundtruthservice

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/predict-it/predict-it/app/eventbus"
	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
	groundtruthdb "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/results"
)

const serviceName = "GroundTruthService"

// GroundTruthService implements the Service interface.
type GroundTruthService struct {
	repo      groundtruthdb.Repository
	logger    *slog.Logger
	metrics   observability.GroundTruthMetrics
	tracer    trace.Tracer
	db        *bun.DB
	publisher EventPublisher
	now       func() time.Time
}

var _ Service = (*GroundTruthService)(nil)

// NewGroundTruthService creates a new GroundTruthService. publisher may be nil.
func NewGroundTruthService(
	repo groundtruthdb.Repository,
	logger *slog.Logger,
	metrics observability.GroundTruthMetrics,
	tracer trace.Tracer,
	db *bun.DB,
	publisher EventPublisher,
) *GroundTruthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroundTruthService{
		repo:      repo,
		logger:    logger,
		metrics:   metrics,
		tracer:    tracer,
		db:        db,
		publisher: publisher,
		now:       time.Now,
	}
}

// Activate validates the upload as a table, then deactivates every version and
// inserts the new one in a single transaction.
func (s *GroundTruthService) Activate(ctx context.Context, upload Upload) (groundtruthdomain.GroundTruth, error) {
	activateTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[groundtruthdomain.GroundTruth, error], error) {
		return s.activateLogic(ctx, db, upload)
	}

	result, err := withTelemetry(s, ctx, "Activate", upload.Filename, func(ctx context.Context) (results.OperationResult[groundtruthdomain.GroundTruth, error], error) {
		return runInTx(s, ctx, activateTx)
	})
	gt, err := results.Unwrap(result, err)
	if err != nil {
		return groundtruthdomain.GroundTruth{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordActivation(ctx, gt.Rows)
	}
	s.publish(ctx, eventbus.GroundTruthActivatedV1, eventbus.GroundTruthActivatedPayload{
		GroundTruthID: gt.ID,
		Filename:      gt.Filename,
		Rows:          gt.Rows,
		ActivatedAt:   gt.CreatedAt,
	})
	return gt, nil
}

func (s *GroundTruthService) activateLogic(ctx context.Context, db bun.IDB, upload Upload) (results.OperationResult[groundtruthdomain.GroundTruth, error], error) {
	table, err := scoringdomain.ParseTable(upload.Text)
	if err != nil {
		return results.FailureResult[groundtruthdomain.GroundTruth, error](err), nil
	}

	if err := s.repo.LockForActivation(ctx, db); err != nil {
		return results.OperationResult[groundtruthdomain.GroundTruth, error]{}, err
	}
	if err := s.repo.DeactivateAll(ctx, db); err != nil {
		return results.OperationResult[groundtruthdomain.GroundTruth, error]{}, err
	}

	now := s.now().UTC()
	row := &groundtruthdb.GroundTruth{
		Filename:  groundtruthdomain.StoredFilename(now),
		Data:      upload.Text,
		Rows:      table.Len(),
		Columns:   table.Columns(),
		IsActive:  true,
		CreatedAt: now,
	}
	if err := s.repo.Create(ctx, db, row); err != nil {
		return results.OperationResult[groundtruthdomain.GroundTruth, error]{}, err
	}

	s.logger.InfoContext(ctx, "Ground truth activated",
		observability.CorrelationID(ctx),
		slog.Int64("ground_truth_id", row.ID),
		slog.String("uploaded_filename", upload.Filename),
		slog.String("uploaded_by", upload.UploadedBy),
		slog.Int("rows", row.Rows),
	)
	return results.SuccessResult[groundtruthdomain.GroundTruth, error](row.ToDomain()), nil
}

// Current returns the active version.
func (s *GroundTruthService) Current(ctx context.Context) (groundtruthdomain.GroundTruth, error) {
	result, err := withTelemetry(s, ctx, "Current", "active", func(ctx context.Context) (results.OperationResult[groundtruthdomain.GroundTruth, error], error) {
		row, err := s.repo.GetActive(ctx, nil)
		if err != nil {
			if errors.Is(err, groundtruthdb.ErrNoActiveGroundTruth) {
				return results.FailureResult[groundtruthdomain.GroundTruth, error](scoringdomain.ErrNoGroundTruth), nil
			}
			return results.OperationResult[groundtruthdomain.GroundTruth, error]{}, fmt.Errorf("failed to get active ground truth: %w", err)
		}
		return results.SuccessResult[groundtruthdomain.GroundTruth, error](row.ToDomain()), nil
	})
	return results.Unwrap(result, err)
}

// Get returns a version by id, active or not.
func (s *GroundTruthService) Get(ctx context.Context, id int64) (groundtruthdomain.GroundTruth, error) {
	result, err := withTelemetry(s, ctx, "Get", fmt.Sprint(id), func(ctx context.Context) (results.OperationResult[groundtruthdomain.GroundTruth, error], error) {
		row, err := s.repo.GetByID(ctx, nil, id)
		if err != nil {
			if errors.Is(err, groundtruthdb.ErrNotFound) {
				return results.FailureResult[groundtruthdomain.GroundTruth, error](err), nil
			}
			return results.OperationResult[groundtruthdomain.GroundTruth, error]{}, err
		}
		return results.SuccessResult[groundtruthdomain.GroundTruth, error](row.ToDomain()), nil
	})
	return results.Unwrap(result, err)
}

// History lists all versions newest first.
func (s *GroundTruthService) History(ctx context.Context) ([]groundtruthdomain.Summary, error) {
	result, err := withTelemetry(s, ctx, "History", "all", func(ctx context.Context) (results.OperationResult[[]groundtruthdomain.Summary, error], error) {
		rows, err := s.repo.List(ctx, nil)
		if err != nil {
			return results.OperationResult[[]groundtruthdomain.Summary, error]{}, err
		}
		out := make([]groundtruthdomain.Summary, 0, len(rows))
		for i := range rows {
			out = append(out, rows[i].ToDomain().Summary())
		}
		return results.SuccessResult[[]groundtruthdomain.Summary, error](out), nil
	})
	return results.Unwrap(result, err)
}

// ColumnSettings reads the column configuration, falling back to defaults.
func (s *GroundTruthService) ColumnSettings(ctx context.Context) (groundtruthdomain.ColumnSettings, error) {
	values, err := s.repo.GetSettings(ctx, nil, groundtruthdomain.SettingIDColumn, groundtruthdomain.SettingValueColumn)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to read column settings", observability.CorrelationID(ctx), observability.ErrorAttr(err))
		return groundtruthdomain.ColumnSettings{}, fmt.Errorf("failed to read column settings: %w", err)
	}
	return groundtruthdomain.SettingsFromMap(values), nil
}

// ConfigureColumns writes both column names in one transaction.
func (s *GroundTruthService) ConfigureColumns(ctx context.Context, settings groundtruthdomain.ColumnSettings) (groundtruthdomain.ColumnSettings, error) {
	configureTx := func(ctx context.Context, db bun.IDB) (results.OperationResult[groundtruthdomain.ColumnSettings, error], error) {
		normalized, err := settings.Normalize()
		if err != nil {
			return results.FailureResult[groundtruthdomain.ColumnSettings, error](err), nil
		}
		if err := s.repo.UpsertSetting(ctx, db, groundtruthdomain.SettingIDColumn, normalized.IDColumn); err != nil {
			return results.OperationResult[groundtruthdomain.ColumnSettings, error]{}, err
		}
		if err := s.repo.UpsertSetting(ctx, db, groundtruthdomain.SettingValueColumn, normalized.ValueColumn); err != nil {
			return results.OperationResult[groundtruthdomain.ColumnSettings, error]{}, err
		}
		return results.SuccessResult[groundtruthdomain.ColumnSettings, error](normalized), nil
	}

	result, err := withTelemetry(s, ctx, "ConfigureColumns", settings.ValueColumn, func(ctx context.Context) (results.OperationResult[groundtruthdomain.ColumnSettings, error], error) {
		return runInTx(s, ctx, configureTx)
	})
	saved, err := results.Unwrap(result, err)
	if err != nil {
		return groundtruthdomain.ColumnSettings{}, err
	}

	s.publish(ctx, eventbus.ColumnsConfiguredV1, eventbus.ColumnsConfiguredPayload{
		IDColumn:    saved.IDColumn,
		ValueColumn: saved.ValueColumn,
	})
	return saved, nil
}

func (s *GroundTruthService) publish(ctx context.Context, topic string, payload any) {
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
	s *GroundTruthService,
	ctx context.Context,
	operationName string,
	identifier string,
	op operationFunc[S, F],
) (result results.OperationResult[S, F], err error) {
	var span trace.Span
	if s.tracer != nil {
		ctx, span = s.tracer.Start(ctx, operationName, trace.WithAttributes(
			attribute.String("operation", operationName),
			attribute.String("identifier", identifier),
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
				slog.String("identifier", identifier),
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
			slog.String("identifier", identifier),
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
			slog.String("identifier", identifier),
			slog.Any("failure_payload", *result.Failure),
		)
	}

	if s.metrics != nil {
		s.metrics.RecordOperationSuccess(ctx, operationName, serviceName)
	}
	return result, nil
}

// runInTx runs fn inside a transaction when a database is configured.
func runInTx[S any, F any](
	s *GroundTruthService,
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
		if txErr == nil && result.IsFailure() {
			return errRollback
		}
		return txErr
	})
	if errors.Is(err, errRollback) {
		return result, nil
	}
	return result, err
}

// errRollback aborts a transaction whose operation returned a business failure.
var errRollback = errors.New("rollback on failure result")
