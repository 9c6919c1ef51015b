package leaderboardhandlers

import (
	"context"
	"io"
	"sync"

	leaderboardservice "github.com/predict-it/predict-it/app/modules/leaderboard/application"
)

type FakeService struct {
	mu            sync.Mutex
	invalidations []string

	StandingsFunc  func(ctx context.Context) (leaderboardservice.Standings, error)
	OverviewFunc   func(ctx context.Context) (leaderboardservice.Overview, error)
	ExportCSVFunc  func(ctx context.Context, w io.Writer) error
	ExportXLSXFunc func(ctx context.Context, w io.Writer) error
	ChartFunc      func(ctx context.Context, n int) ([]byte, error)
}

func (f *FakeService) Standings(ctx context.Context) (leaderboardservice.Standings, error) {
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx)
	}
	return leaderboardservice.Standings{}, nil
}

func (f *FakeService) Overview(ctx context.Context) (leaderboardservice.Overview, error) {
	if f.OverviewFunc != nil {
		return f.OverviewFunc(ctx)
	}
	return leaderboardservice.Overview{}, nil
}

func (f *FakeService) Invalidate(_ context.Context, reason string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invalidations = append(f.invalidations, reason)
}

func (f *FakeService) ExportCSV(ctx context.Context, w io.Writer) error {
	if f.ExportCSVFunc != nil {
		return f.ExportCSVFunc(ctx, w)
	}
	return nil
}

func (f *FakeService) ExportXLSX(ctx context.Context, w io.Writer) error {
	if f.ExportXLSXFunc != nil {
		return f.ExportXLSXFunc(ctx, w)
	}
	return nil
}

func (f *FakeService) Chart(ctx context.Context, n int) ([]byte, error) {
	if f.ChartFunc != nil {
		return f.ChartFunc(ctx, n)
	}
	return []byte("\x89PNG"), nil
}

func (f *FakeService) Invalidations() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.invalidations...)
}

var _ leaderboardservice.Service = (*FakeService)(nil)
