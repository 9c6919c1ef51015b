package scoringservice

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
	"github.com/predict-it/predict-it/app/observability"
)

// ------------------------
// Fake Submission Repo
// ------------------------

// FakeSubmissionRepo keeps submissions in memory. Func fields override a method.
type FakeSubmissionRepo struct {
	mu    sync.Mutex
	trace []string
	rows  []scoringdb.Submission

	CreateFunc        func(ctx context.Context, db bun.IDB, sub *scoringdb.Submission) error
	ListByStudentFunc func(ctx context.Context, db bun.IDB, studentID string) ([]scoringdb.Submission, error)
}

func NewFakeSubmissionRepo() *FakeSubmissionRepo {
	return &FakeSubmissionRepo{trace: []string{}}
}

func (f *FakeSubmissionRepo) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeSubmissionRepo) Create(ctx context.Context, db bun.IDB, sub *scoringdb.Submission) error {
	f.record("Create")
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, sub)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, *sub)
	return nil
}

func (f *FakeSubmissionRepo) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*scoringdb.Submission, error) {
	f.record("GetByID")
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].ID == id {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, scoringdb.ErrNotFound
}

func (f *FakeSubmissionRepo) ListByStudent(ctx context.Context, db bun.IDB, studentID string) ([]scoringdb.Submission, error) {
	f.record("ListByStudent")
	if f.ListByStudentFunc != nil {
		return f.ListByStudentFunc(ctx, db, studentID)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scoringdb.Submission
	for _, row := range f.rows {
		if row.StudentID == studentID {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *FakeSubmissionRepo) ListScored(ctx context.Context, db bun.IDB, metric string) ([]scoringdb.Submission, error) {
	f.record("ListScored")
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []scoringdb.Submission
	for _, row := range f.rows {
		if row.Metric == metric && row.Score != nil {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *FakeSubmissionRepo) Stats(ctx context.Context, db bun.IDB) (scoringdb.Statistics, error) {
	f.record("Stats")
	f.mu.Lock()
	defer f.mu.Unlock()
	students := map[string]struct{}{}
	for _, row := range f.rows {
		students[row.StudentID] = struct{}{}
	}
	return scoringdb.Statistics{Students: len(students), Submissions: len(f.rows)}, nil
}

func (f *FakeSubmissionRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeSubmissionRepo) Count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.rows)
}

var _ scoringdb.Repository = (*FakeSubmissionRepo)(nil)

// ------------------------
// Fake Ground Truth Source
// ------------------------

type FakeGroundTruthSource struct {
	ActiveFunc      func(ctx context.Context) (ActiveGroundTruth, error)
	PreferencesFunc func(ctx context.Context) (scoringdomain.ColumnPreferences, error)
}

// WithTruth returns a source serving text as ground truth version id.
func WithTruth(id int64, text string) *FakeGroundTruthSource {
	table, err := scoringdomain.ParseTable(text)
	if err != nil {
		panic(err)
	}
	return &FakeGroundTruthSource{
		ActiveFunc: func(context.Context) (ActiveGroundTruth, error) {
			return ActiveGroundTruth{ID: id, Table: table}, nil
		},
	}
}

func (f *FakeGroundTruthSource) ActiveGroundTruth(ctx context.Context) (ActiveGroundTruth, error) {
	if f.ActiveFunc != nil {
		return f.ActiveFunc(ctx)
	}
	return ActiveGroundTruth{}, scoringdomain.ErrNoGroundTruth
}

func (f *FakeGroundTruthSource) ColumnPreferences(ctx context.Context) (scoringdomain.ColumnPreferences, error) {
	if f.PreferencesFunc != nil {
		return f.PreferencesFunc(ctx)
	}
	return scoringdomain.ColumnPreferences{ValueColumn: "value"}, nil
}

var _ GroundTruthSource = (*FakeGroundTruthSource)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type FakePublisher struct {
	mu       sync.Mutex
	topics   []string
	payloads []any

	PublishFunc func(ctx context.Context, topic string, payload any) error
}

func (f *FakePublisher) Publish(ctx context.Context, topic string, payload any) error {
	f.mu.Lock()
	f.topics = append(f.topics, topic)
	f.payloads = append(f.payloads, payload)
	f.mu.Unlock()
	if f.PublishFunc != nil {
		return f.PublishFunc(ctx, topic, payload)
	}
	return nil
}

func (f *FakePublisher) Topics() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.topics...)
}

func (f *FakePublisher) Payloads() []any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]any(nil), f.payloads...)
}

// ------------------------
// Fake Metrics
// ------------------------

type FakeMetrics struct {
	observability.NoopMetrics
	mu         sync.Mutex
	rejections []string
	scores     []float64
}

func (f *FakeMetrics) RecordRejection(_ context.Context, kind string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rejections = append(f.rejections, kind)
}

func (f *FakeMetrics) RecordScore(_ context.Context, _ string, score float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scores = append(f.scores, score)
}

func (f *FakeMetrics) Rejections() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.rejections...)
}

func (f *FakeMetrics) Scores() []float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]float64(nil), f.scores...)
}

// ------------------------
// Fake Invalidator
// ------------------------

type FakeInvalidator struct {
	mu      sync.Mutex
	reasons []string

	InvalidateFunc func(ctx context.Context, reason string)
}

func (f *FakeInvalidator) Invalidate(ctx context.Context, reason string) {
	f.mu.Lock()
	f.reasons = append(f.reasons, reason)
	f.mu.Unlock()
	if f.InvalidateFunc != nil {
		f.InvalidateFunc(ctx, reason)
	}
}

func (f *FakeInvalidator) Reasons() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.reasons...)
}

var _ StandingsInvalidator = (*FakeInvalidator)(nil)
