package scoringhandlers

import (
	"context"

	scoringservice "github.com/predict-it/predict-it/app/modules/scoring/application"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

type FakeService struct {
	SubmitFunc  func(ctx context.Context, req scoringservice.SubmitRequest) (scoringservice.SubmitResult, error)
	HistoryFunc func(ctx context.Context, studentID string) (scoringservice.StudentHistory, error)
}

func (f *FakeService) Submit(ctx context.Context, req scoringservice.SubmitRequest) (scoringservice.SubmitResult, error) {
	if f.SubmitFunc != nil {
		return f.SubmitFunc(ctx, req)
	}
	return scoringservice.SubmitResult{}, nil
}

func (f *FakeService) History(ctx context.Context, studentID string) (scoringservice.StudentHistory, error) {
	if f.HistoryFunc != nil {
		return f.HistoryFunc(ctx, studentID)
	}
	return scoringservice.StudentHistory{StudentID: studentID}, nil
}

func (f *FakeService) Metric() scoringdomain.Metric { return scoringdomain.MetricRMSE }

var _ scoringservice.Service = (*FakeService)(nil)
