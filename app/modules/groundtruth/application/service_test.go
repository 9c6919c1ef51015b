package groundtruthservice

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/predict-it/predict-it/app/eventbus"
	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
	groundtruthdb "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/observability"
)

func newTestService(repo *FakeGroundTruthRepo, pub *FakePublisher) *GroundTruthService {
	var publisher EventPublisher
	if pub != nil {
		publisher = pub
	}
	s := NewGroundTruthService(
		repo,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		observability.NoopMetrics{},
		noop.NewTracerProvider().Tracer("test"),
		nil,
		publisher,
	)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestGroundTruthService_Activate(t *testing.T) {
	ctx := context.Background()

	t.Run("second activation replaces the first", func(t *testing.T) {
		repo := NewFakeGroundTruthRepo()
		pub := &FakePublisher{}
		s := newTestService(repo, pub)

		gt1, err := s.Activate(ctx, Upload{Filename: "answers.csv", Text: "id,value\n1,1\n2,2\n"})
		require.NoError(t, err)
		gt2, err := s.Activate(ctx, Upload{Filename: "answers_v2.csv", Text: "id,value\n1,1\n2,3\n3,4\n"})
		require.NoError(t, err)

		assert.Equal(t, 1, repo.ActiveCount())

		current, err := s.Current(ctx)
		require.NoError(t, err)
		assert.Equal(t, gt2.ID, current.ID)
		assert.Equal(t, 3, current.Rows)
		assert.Equal(t, []string{"id", "value"}, current.Columns)

		old, err := s.Get(ctx, gt1.ID)
		require.NoError(t, err)
		assert.False(t, old.IsActive)
		assert.Equal(t, "id,value\n1,1\n2,2\n", old.Data)

		assert.Equal(t, []string{eventbus.GroundTruthActivatedV1, eventbus.GroundTruthActivatedV1}, pub.Topics())
		assert.Equal(t, []string{
			"LockForActivation", "DeactivateAll", "Create",
			"LockForActivation", "DeactivateAll", "Create",
			"GetActive", "GetByID",
		}, repo.Trace())
	})

	t.Run("stored filename is timestamped", func(t *testing.T) {
		s := newTestService(NewFakeGroundTruthRepo(), nil)
		gt, err := s.Activate(ctx, Upload{Filename: "answers.csv", Text: "id,value\n1,1\n"})
		require.NoError(t, err)
		assert.Equal(t, "ground_truth_20260301_120100.csv", gt.Filename)
	})

	t.Run("unparsable upload leaves the store untouched", func(t *testing.T) {
		repo := NewFakeGroundTruthRepo()
		pub := &FakePublisher{}
		s := newTestService(repo, pub)

		_, err := s.Activate(ctx, Upload{Filename: "empty.csv", Text: "id,value\n"})
		assert.ErrorIs(t, err, scoringdomain.ErrMalformedCSV)
		assert.Empty(t, repo.Trace())
		assert.Empty(t, pub.Topics())
	})

	t.Run("storage failure is propagated", func(t *testing.T) {
		repo := NewFakeGroundTruthRepo()
		repo.CreateFunc = func(ctx context.Context, db bun.IDB, gt *groundtruthdb.GroundTruth) error {
			return errors.New("disk full")
		}
		pub := &FakePublisher{}
		s := newTestService(repo, pub)

		_, err := s.Activate(ctx, Upload{Filename: "answers.csv", Text: "id,value\n1,1\n"})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.Equal(t, scoringdomain.KindStorageFailure, scoringdomain.KindOf(err))
		assert.Empty(t, pub.Topics())
	})

	t.Run("publish failure does not fail activation", func(t *testing.T) {
		pub := &FakePublisher{err: errors.New("nats down")}
		s := newTestService(NewFakeGroundTruthRepo(), pub)
		_, err := s.Activate(ctx, Upload{Filename: "answers.csv", Text: "id,value\n1,1\n"})
		assert.NoError(t, err)
	})
}

func TestGroundTruthService_Current(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing activated yet", func(t *testing.T) {
		s := newTestService(NewFakeGroundTruthRepo(), nil)
		_, err := s.Current(ctx)
		assert.ErrorIs(t, err, scoringdomain.ErrNoGroundTruth)
		assert.Equal(t, scoringdomain.KindNoGroundTruth, scoringdomain.KindOf(err))
	})

	t.Run("repository error", func(t *testing.T) {
		repo := NewFakeGroundTruthRepo()
		repo.GetActiveFunc = func(ctx context.Context, db bun.IDB) (*groundtruthdb.GroundTruth, error) {
			return nil, errors.New("connection reset")
		}
		s := newTestService(repo, nil)
		_, err := s.Current(ctx)
		require.Error(t, err)
		assert.NotErrorIs(t, err, scoringdomain.ErrNoGroundTruth)
	})
}

func TestGroundTruthService_GetUnknown(t *testing.T) {
	s := newTestService(NewFakeGroundTruthRepo(), nil)
	_, err := s.Get(context.Background(), 42)
	assert.ErrorIs(t, err, groundtruthdb.ErrNotFound)
}

func TestGroundTruthService_History(t *testing.T) {
	ctx := context.Background()
	s := newTestService(NewFakeGroundTruthRepo(), nil)
	for _, text := range []string{"v\n1\n", "v\n1\n2\n", "v\n1\n2\n3\n"} {
		_, err := s.Activate(ctx, Upload{Filename: "gt.csv", Text: text})
		require.NoError(t, err)
	}

	history, err := s.History(ctx)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.Equal(t, 3, history[0].Rows)
	assert.True(t, history[0].IsActive)
	assert.False(t, history[1].IsActive)
	assert.False(t, history[2].IsActive)
}

func TestGroundTruthService_ColumnSettings(t *testing.T) {
	ctx := context.Background()

	t.Run("defaults before first write", func(t *testing.T) {
		s := newTestService(NewFakeGroundTruthRepo(), nil)
		got, err := s.ColumnSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, groundtruthdomain.DefaultColumnSettings(), got)
	})

	t.Run("configure then read", func(t *testing.T) {
		pub := &FakePublisher{}
		s := newTestService(NewFakeGroundTruthRepo(), pub)
		saved, err := s.ConfigureColumns(ctx, groundtruthdomain.ColumnSettings{IDColumn: "", ValueColumn: " price "})
		require.NoError(t, err)
		assert.Equal(t, groundtruthdomain.ColumnSettings{IDColumn: "id", ValueColumn: "price"}, saved)

		got, err := s.ColumnSettings(ctx)
		require.NoError(t, err)
		assert.Equal(t, saved, got)
		assert.Equal(t, []string{eventbus.ColumnsConfiguredV1}, pub.Topics())
	})

	t.Run("value column required", func(t *testing.T) {
		repo := NewFakeGroundTruthRepo()
		s := newTestService(repo, nil)
		_, err := s.ConfigureColumns(ctx, groundtruthdomain.ColumnSettings{IDColumn: "key"})
		assert.ErrorIs(t, err, groundtruthdomain.ErrInvalidColumnSettings)
		assert.NotContains(t, repo.Trace(), "UpsertSetting")
	})

	t.Run("read failure", func(t *testing.T) {
		repo := NewFakeGroundTruthRepo()
		repo.GetSettingsFunc = func(ctx context.Context, db bun.IDB, keys ...string) (map[string]string, error) {
			return nil, errors.New("timeout")
		}
		s := newTestService(repo, nil)
		_, err := s.ColumnSettings(ctx)
		assert.Error(t, err)
	})
}
