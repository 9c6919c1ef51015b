package groundtruthhandlers

import (
	"context"

	groundtruthservice "github.com/predict-it/predict-it/app/modules/groundtruth/application"
	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
)

type FakeService struct {
	ActivateFunc         func(ctx context.Context, upload groundtruthservice.Upload) (groundtruthdomain.GroundTruth, error)
	CurrentFunc          func(ctx context.Context) (groundtruthdomain.GroundTruth, error)
	GetFunc              func(ctx context.Context, id int64) (groundtruthdomain.GroundTruth, error)
	HistoryFunc          func(ctx context.Context) ([]groundtruthdomain.Summary, error)
	ColumnSettingsFunc   func(ctx context.Context) (groundtruthdomain.ColumnSettings, error)
	ConfigureColumnsFunc func(ctx context.Context, settings groundtruthdomain.ColumnSettings) (groundtruthdomain.ColumnSettings, error)
}

func (f *FakeService) Activate(ctx context.Context, upload groundtruthservice.Upload) (groundtruthdomain.GroundTruth, error) {
	if f.ActivateFunc != nil {
		return f.ActivateFunc(ctx, upload)
	}
	return groundtruthdomain.GroundTruth{}, nil
}

func (f *FakeService) Current(ctx context.Context) (groundtruthdomain.GroundTruth, error) {
	if f.CurrentFunc != nil {
		return f.CurrentFunc(ctx)
	}
	return groundtruthdomain.GroundTruth{}, nil
}

func (f *FakeService) Get(ctx context.Context, id int64) (groundtruthdomain.GroundTruth, error) {
	if f.GetFunc != nil {
		return f.GetFunc(ctx, id)
	}
	return groundtruthdomain.GroundTruth{}, nil
}

func (f *FakeService) History(ctx context.Context) ([]groundtruthdomain.Summary, error) {
	if f.HistoryFunc != nil {
		return f.HistoryFunc(ctx)
	}
	return nil, nil
}

func (f *FakeService) ColumnSettings(ctx context.Context) (groundtruthdomain.ColumnSettings, error) {
	if f.ColumnSettingsFunc != nil {
		return f.ColumnSettingsFunc(ctx)
	}
	return groundtruthdomain.DefaultColumnSettings(), nil
}

func (f *FakeService) ConfigureColumns(ctx context.Context, settings groundtruthdomain.ColumnSettings) (groundtruthdomain.ColumnSettings, error) {
	if f.ConfigureColumnsFunc != nil {
		return f.ConfigureColumnsFunc(ctx, settings)
	}
	return settings, nil
}

var _ groundtruthservice.Service = (*FakeService)(nil)
