package groundtruthservice

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/uptrace/bun"

	groundtruthdb "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories"
)

// ------------------------
// Fake Ground Truth Repo
// ------------------------

// FakeGroundTruthRepo keeps versions in memory. Func fields override a method.
type FakeGroundTruthRepo struct {
	mu       sync.Mutex
	trace    []string
	rows     []groundtruthdb.GroundTruth
	settings map[string]string
	nextID   int64

	DeactivateAllFunc func(ctx context.Context, db bun.IDB) error
	CreateFunc        func(ctx context.Context, db bun.IDB, gt *groundtruthdb.GroundTruth) error
	GetActiveFunc     func(ctx context.Context, db bun.IDB) (*groundtruthdb.GroundTruth, error)
	GetSettingsFunc   func(ctx context.Context, db bun.IDB, keys ...string) (map[string]string, error)
	UpsertSettingFunc func(ctx context.Context, db bun.IDB, key, value string) error
}

func NewFakeGroundTruthRepo() *FakeGroundTruthRepo {
	return &FakeGroundTruthRepo{
		trace:    []string{},
		settings: map[string]string{},
	}
}

func (f *FakeGroundTruthRepo) record(step string) {
	f.trace = append(f.trace, step)
}

// --- Repository Interface Implementation ---

func (f *FakeGroundTruthRepo) LockForActivation(ctx context.Context, db bun.IDB) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("LockForActivation")
	return nil
}

func (f *FakeGroundTruthRepo) DeactivateAll(ctx context.Context, db bun.IDB) error {
	f.mu.Lock()
	f.record("DeactivateAll")
	f.mu.Unlock()
	if f.DeactivateAllFunc != nil {
		return f.DeactivateAllFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		f.rows[i].IsActive = false
	}
	return nil
}

func (f *FakeGroundTruthRepo) Create(ctx context.Context, db bun.IDB, gt *groundtruthdb.GroundTruth) error {
	f.mu.Lock()
	f.record("Create")
	f.mu.Unlock()
	if f.CreateFunc != nil {
		return f.CreateFunc(ctx, db, gt)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	gt.ID = f.nextID
	if gt.CreatedAt.IsZero() {
		gt.CreatedAt = time.Now()
	}
	f.rows = append(f.rows, *gt)
	return nil
}

func (f *FakeGroundTruthRepo) GetActive(ctx context.Context, db bun.IDB) (*groundtruthdb.GroundTruth, error) {
	f.mu.Lock()
	f.record("GetActive")
	f.mu.Unlock()
	if f.GetActiveFunc != nil {
		return f.GetActiveFunc(ctx, db)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.rows {
		if f.rows[i].IsActive {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, groundtruthdb.ErrNoActiveGroundTruth
}

func (f *FakeGroundTruthRepo) GetByID(ctx context.Context, db bun.IDB, id int64) (*groundtruthdb.GroundTruth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("GetByID")
	for i := range f.rows {
		if f.rows[i].ID == id {
			row := f.rows[i]
			return &row, nil
		}
	}
	return nil, groundtruthdb.ErrNotFound
}

func (f *FakeGroundTruthRepo) List(ctx context.Context, db bun.IDB) ([]groundtruthdb.GroundTruth, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.record("List")
	out := make([]groundtruthdb.GroundTruth, len(f.rows))
	copy(out, f.rows)
	sort.SliceStable(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	for i := range out {
		out[i].Data = ""
	}
	return out, nil
}

func (f *FakeGroundTruthRepo) GetSettings(ctx context.Context, db bun.IDB, keys ...string) (map[string]string, error) {
	f.mu.Lock()
	f.record("GetSettings")
	f.mu.Unlock()
	if f.GetSettingsFunc != nil {
		return f.GetSettingsFunc(ctx, db, keys...)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	out := map[string]string{}
	for _, k := range keys {
		if v, ok := f.settings[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (f *FakeGroundTruthRepo) UpsertSetting(ctx context.Context, db bun.IDB, key, value string) error {
	f.mu.Lock()
	f.record("UpsertSetting")
	f.mu.Unlock()
	if f.UpsertSettingFunc != nil {
		return f.UpsertSettingFunc(ctx, db, key, value)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.settings[key] = value
	return nil
}

// --- Accessors for assertions ---

func (f *FakeGroundTruthRepo) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeGroundTruthRepo) ActiveCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.rows {
		if r.IsActive {
			n++
		}
	}
	return n
}

var _ groundtruthdb.Repository = (*FakeGroundTruthRepo)(nil)

// ------------------------
// Fake Publisher
// ------------------------

type publishedEvent struct {
	Topic   string
	Payload any
}

type FakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
	err    error
}

func (p *FakePublisher) Publish(_ context.Context, topic string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{Topic: topic, Payload: payload})
	return p.err
}

func (p *FakePublisher) Topics() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Topic)
	}
	return out
}

var _ EventPublisher = (*FakePublisher)(nil)
