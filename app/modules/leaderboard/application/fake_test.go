package leaderboardservice

import (
	"context"
	"sync"

	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
	leaderboarddomain "github.com/predict-it/predict-it/app/modules/leaderboard/domain"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/observability"
)

// FakeSubmissionReader serves a fixed submission list and counts reads.
type FakeSubmissionReader struct {
	mu    sync.Mutex
	reads int
	subs  []leaderboarddomain.ScoredSubmission

	ScoredFunc     func(ctx context.Context, metric scoringdomain.Metric) ([]leaderboarddomain.ScoredSubmission, error)
	StatisticsFunc func(ctx context.Context) (Statistics, error)
}

func (f *FakeSubmissionReader) Add(sub leaderboarddomain.ScoredSubmission) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subs = append(f.subs, sub)
}

func (f *FakeSubmissionReader) ScoredSubmissions(ctx context.Context, metric scoringdomain.Metric) ([]leaderboarddomain.ScoredSubmission, error) {
	f.mu.Lock()
	f.reads++
	f.mu.Unlock()
	if f.ScoredFunc != nil {
		return f.ScoredFunc(ctx, metric)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]leaderboarddomain.ScoredSubmission(nil), f.subs...), nil
}

func (f *FakeSubmissionReader) Statistics(ctx context.Context) (Statistics, error) {
	if f.StatisticsFunc != nil {
		return f.StatisticsFunc(ctx)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	students := map[string]struct{}{}
	for _, s := range f.subs {
		students[s.StudentID] = struct{}{}
	}
	return Statistics{Students: len(students), Submissions: len(f.subs)}, nil
}

func (f *FakeSubmissionReader) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// FakeGroundTruthReader returns a fixed ground truth or error.
type FakeGroundTruthReader struct {
	GroundTruth groundtruthdomain.GroundTruth
	Err         error
}

func (f *FakeGroundTruthReader) Current(context.Context) (groundtruthdomain.GroundTruth, error) {
	return f.GroundTruth, f.Err
}

// FakeMetrics records cache activity.
type FakeMetrics struct {
	observability.NoopMetrics
	mu            sync.Mutex
	hits, misses  int
	invalidations []string
}

func (f *FakeMetrics) RecordCacheHit(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.hits++
}

func (f *FakeMetrics) RecordCacheMiss(context.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.misses++
}

func (f *FakeMetrics) RecordCacheInvalidation(_ context.Context, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations = append(f.invalidations, reason)
}
