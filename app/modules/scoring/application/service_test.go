package scoringservice

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
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
)

const truthCSV = "id,value\n1,1\n2,2\n3,3\n"

func newTestService(repo *FakeSubmissionRepo, truth GroundTruthSource, metric scoringdomain.Metric, pub *FakePublisher, metrics *FakeMetrics) *SubmissionService {
	s := NewSubmissionService(
		repo,
		truth,
		metric,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics,
		noop.NewTracerProvider().Tracer("test"),
		nil,
		pub,
	)
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time {
		clock = clock.Add(time.Minute)
		return clock
	}
	return s
}

func TestSubmissionService_Submit(t *testing.T) {
	ctx := context.Background()

	t.Run("scores and stores a valid prediction", func(t *testing.T) {
		repo := NewFakeSubmissionRepo()
		pub := &FakePublisher{}
		metrics := &FakeMetrics{}
		s := newTestService(repo, WithTruth(7, truthCSV), scoringdomain.MetricRMSE, pub, metrics)

		out, err := s.Submit(ctx, SubmitRequest{StudentID: "alice", Filename: "mine.csv", Text: "id,value\n3,3.5\n1,1.5\n2,2.5\n"})
		require.NoError(t, err)

		assert.InDelta(t, 0.5, out.Result.Score, 1e-12)
		assert.Equal(t, scoringdomain.AlignIDSorted, out.Result.Alignment)
		assert.Equal(t, 3, out.Result.Rows)
		assert.Equal(t, "alice", out.Submission.StudentID)
		assert.Equal(t, int64(7), out.Submission.GroundTruthID)
		assert.Equal(t, "user_alice_20260301_120100.csv", out.Submission.Filename)
		require.NotNil(t, out.Submission.Score)
		assert.InDelta(t, 0.5, *out.Submission.Score, 1e-12)

		assert.Equal(t, 1, repo.Count())
		assert.Equal(t, []string{eventbus.SubmissionScoredV1}, pub.Topics())
		payload, ok := pub.Payloads()[0].(eventbus.SubmissionScoredPayload)
		require.True(t, ok)
		assert.Equal(t, "alice", payload.StudentID)
		assert.Equal(t, "rmse", payload.Metric)
		assert.Len(t, metrics.Scores(), 1)
		assert.Empty(t, metrics.Rejections())
	})

	failures := []struct {
		name  string
		truth GroundTruthSource
		text  string
		kind  scoringdomain.ErrorKind
		check func(t *testing.T, err error)
	}{
		{
			name:  "no ground truth",
			truth: &FakeGroundTruthSource{},
			text:  "id,value\n1,1\n",
			kind:  scoringdomain.KindNoGroundTruth,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "no ground truth available, contact admin")
			},
		},
		{
			name:  "empty upload",
			truth: WithTruth(1, truthCSV),
			text:  "",
			kind:  scoringdomain.KindMalformedCSV,
		},
		{
			name:  "no usable value column",
			truth: WithTruth(1, truthCSV),
			text:  "name,comment\na,x\nb,y\n",
			kind:  scoringdomain.KindColumnNotFound,
			check: func(t *testing.T, err error) {
				assert.Contains(t, err.Error(), "Available columns: name, comment")
			},
		},
		{
			name:  "every value missing",
			truth: WithTruth(1, truthCSV),
			text:  "id,value\n1,\n2,\n3,\n",
			kind:  scoringdomain.KindNoValidData,
		},
		{
			name:  "row count mismatch",
			truth: WithTruth(1, "id,value\n1,1\n2,2\n3,3\n4,4\n"),
			text:  "id,value\n1,1\n2,2\n3,3\n4,4\n5,5\n",
			kind:  scoringdomain.KindRowCountMismatch,
			check: func(t *testing.T, err error) {
				var mismatch *scoringdomain.RowCountMismatchError
				require.ErrorAs(t, err, &mismatch)
				assert.Equal(t, 5, mismatch.Predicted)
				assert.Equal(t, 4, mismatch.Truth)
			},
		},
	}

	for _, tc := range failures {
		t.Run(tc.name, func(t *testing.T) {
			repo := NewFakeSubmissionRepo()
			pub := &FakePublisher{}
			metrics := &FakeMetrics{}
			s := newTestService(repo, tc.truth, scoringdomain.MetricRMSE, pub, metrics)

			_, err := s.Submit(ctx, SubmitRequest{StudentID: "bob", Filename: "p.csv", Text: tc.text})
			require.Error(t, err)
			assert.Equal(t, tc.kind, scoringdomain.KindOf(err))
			assert.True(t, scoringdomain.IsScoringFailure(err))
			if tc.check != nil {
				tc.check(t, err)
			}

			assert.Zero(t, repo.Count())
			assert.NotContains(t, repo.Trace(), "Create")
			assert.Empty(t, pub.Topics())
			assert.Equal(t, []string{string(tc.kind)}, metrics.Rejections())
		})
	}

	t.Run("storage failure is not a scoring failure", func(t *testing.T) {
		repo := NewFakeSubmissionRepo()
		repo.CreateFunc = func(context.Context, bun.IDB, *scoringdb.Submission) error {
			return errors.New("connection reset")
		}
		pub := &FakePublisher{}
		metrics := &FakeMetrics{}
		s := newTestService(repo, WithTruth(1, truthCSV), scoringdomain.MetricRMSE, pub, metrics)

		_, err := s.Submit(ctx, SubmitRequest{StudentID: "carol", Text: "id,value\n1,1\n2,2\n3,3\n"})
		require.Error(t, err)
		assert.False(t, scoringdomain.IsScoringFailure(err))
		assert.Equal(t, scoringdomain.KindStorageFailure, scoringdomain.KindOf(err))
		assert.Empty(t, pub.Topics())
		assert.Equal(t, []string{"storage_failure"}, metrics.Rejections())
	})

	t.Run("ground truth lookup failure is a storage failure", func(t *testing.T) {
		truth := &FakeGroundTruthSource{ActiveFunc: func(context.Context) (ActiveGroundTruth, error) {
			return ActiveGroundTruth{}, errors.New("database is down")
		}}
		s := newTestService(NewFakeSubmissionRepo(), truth, scoringdomain.MetricRMSE, &FakePublisher{}, &FakeMetrics{})

		_, err := s.Submit(ctx, SubmitRequest{StudentID: "dave", Text: "id,value\n1,1\n"})
		require.Error(t, err)
		assert.Equal(t, scoringdomain.KindStorageFailure, scoringdomain.KindOf(err))
	})

	t.Run("publish failure does not fail the submission", func(t *testing.T) {
		repo := NewFakeSubmissionRepo()
		pub := &FakePublisher{PublishFunc: func(context.Context, string, any) error {
			return errors.New("broker unavailable")
		}}
		s := newTestService(repo, WithTruth(1, truthCSV), scoringdomain.MetricMAE, pub, &FakeMetrics{})

		out, err := s.Submit(ctx, SubmitRequest{StudentID: "erin", Text: "id,value\n1,2\n2,2\n3,3\n"})
		require.NoError(t, err)
		assert.InDelta(t, 1.0/3.0, out.Result.Score, 1e-12)
		assert.Equal(t, 1, repo.Count())
	})

	t.Run("cached standings are dropped before Submit returns", func(t *testing.T) {
		repo := NewFakeSubmissionRepo()
		pub := &FakePublisher{}
		var storedAtInvalidation, publishedAtInvalidation int
		inv := &FakeInvalidator{InvalidateFunc: func(context.Context, string) {
			storedAtInvalidation = repo.Count()
			publishedAtInvalidation = len(pub.Topics())
		}}
		s := newTestService(repo, WithTruth(1, truthCSV), scoringdomain.MetricRMSE, pub, &FakeMetrics{})
		s.AddInvalidator(inv)

		_, err := s.Submit(ctx, SubmitRequest{StudentID: "gina", Text: "id,value\n1,1\n2,2\n3,3\n"})
		require.NoError(t, err)

		assert.Equal(t, []string{eventbus.SubmissionScoredV1}, inv.Reasons())
		assert.Equal(t, 1, storedAtInvalidation)
		assert.Zero(t, publishedAtInvalidation)
	})

	t.Run("rejected submission leaves cached standings alone", func(t *testing.T) {
		inv := &FakeInvalidator{}
		s := newTestService(NewFakeSubmissionRepo(), WithTruth(1, truthCSV), scoringdomain.MetricRMSE, &FakePublisher{}, &FakeMetrics{})
		s.AddInvalidator(inv)

		_, err := s.Submit(ctx, SubmitRequest{StudentID: "hank", Text: "id,value\n1,\n2,\n3,\n"})
		require.Error(t, err)
		assert.Empty(t, inv.Reasons())
	})

	t.Run("configured value column is honoured", func(t *testing.T) {
		truth := WithTruth(1, "id,target\n1,10\n2,20\n")
		truth.PreferencesFunc = func(context.Context) (scoringdomain.ColumnPreferences, error) {
			return scoringdomain.ColumnPreferences{ValueColumn: "target"}, nil
		}
		s := newTestService(NewFakeSubmissionRepo(), truth, scoringdomain.MetricMAE, &FakePublisher{}, &FakeMetrics{})

		out, err := s.Submit(ctx, SubmitRequest{StudentID: "finn", Text: "id,target\n1,11\n2,21\n"})
		require.NoError(t, err)
		assert.InDelta(t, 1.0, out.Result.Score, 1e-12)
		assert.Equal(t, "target", out.Result.PredictionColumns.Value)
	})
}

func TestSubmissionService_History(t *testing.T) {
	ctx := context.Background()

	t.Run("best score follows metric direction", func(t *testing.T) {
		cases := []struct {
			metric scoringdomain.Metric
			truth  string
			preds  []string
			best   float64
		}{
			{
				metric: scoringdomain.MetricRMSE,
				truth:  truthCSV,
				preds:  []string{"id,value\n1,2\n2,3\n3,4\n", "id,value\n1,1\n2,2\n3,3.3\n", "id,value\n1,1.5\n2,2.5\n3,3.5\n"},
				best:   0.1732050807568877,
			},
			{
				metric: scoringdomain.MetricAccuracy,
				truth:  "id,label\n1,1\n2,0\n3,1\n4,0\n",
				preds:  []string{"id,label\n1,1\n2,1\n3,1\n4,1\n", "id,label\n1,1\n2,0\n3,1\n4,1\n", "id,label\n1,0\n2,1\n3,0\n4,1\n"},
				best:   0.75,
			},
		}

		for _, tc := range cases {
			t.Run(string(tc.metric), func(t *testing.T) {
				repo := NewFakeSubmissionRepo()
				s := newTestService(repo, WithTruth(1, tc.truth), tc.metric, &FakePublisher{}, &FakeMetrics{})

				for _, p := range tc.preds {
					_, err := s.Submit(ctx, SubmitRequest{StudentID: "gail", Text: p})
					require.NoError(t, err)
				}

				history, err := s.History(ctx, "gail")
				require.NoError(t, err)
				require.NotNil(t, history.BestScore)
				assert.InDelta(t, tc.best, *history.BestScore, 1e-9)
				require.Len(t, history.Submissions, len(tc.preds))
				assert.True(t, history.Submissions[0].CreatedAt.After(history.Submissions[1].CreatedAt))
			})
		}
	})

	t.Run("no submissions yields no best score", func(t *testing.T) {
		s := newTestService(NewFakeSubmissionRepo(), WithTruth(1, truthCSV), scoringdomain.MetricRMSE, &FakePublisher{}, &FakeMetrics{})

		history, err := s.History(ctx, "nobody")
		require.NoError(t, err)
		assert.Nil(t, history.BestScore)
		assert.Empty(t, history.Submissions)
	})

	t.Run("repository errors propagate", func(t *testing.T) {
		repo := NewFakeSubmissionRepo()
		repo.ListByStudentFunc = func(context.Context, bun.IDB, string) ([]scoringdb.Submission, error) {
			return nil, errors.New("timeout")
		}
		s := newTestService(repo, WithTruth(1, truthCSV), scoringdomain.MetricRMSE, &FakePublisher{}, &FakeMetrics{})

		_, err := s.History(ctx, "gail")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "timeout")
	})
}
