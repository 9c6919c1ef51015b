package adapters

import (
	"context"
	"fmt"
	"sync"

	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
	scoringservice "github.com/predict-it/predict-it/app/modules/scoring/application"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// GroundTruthReader is the part of the ground truth service scoring depends on.
type GroundTruthReader interface {
	Current(ctx context.Context) (groundtruthdomain.GroundTruth, error)
	ColumnSettings(ctx context.Context) (groundtruthdomain.ColumnSettings, error)
}

// GroundTruthAdapter adapts the ground truth service to the scoring GroundTruthSource port.
// The parsed table of the active version is kept until a different version becomes active.
type GroundTruthAdapter struct {
	reader GroundTruthReader

	mu      sync.Mutex
	cacheID int64
	cached  *scoringdomain.Table
}

// NewGroundTruthAdapter constructs a new adapter.
func NewGroundTruthAdapter(reader GroundTruthReader) *GroundTruthAdapter {
	return &GroundTruthAdapter{reader: reader}
}

var _ scoringservice.GroundTruthSource = (*GroundTruthAdapter)(nil)

func (a *GroundTruthAdapter) ActiveGroundTruth(ctx context.Context) (scoringservice.ActiveGroundTruth, error) {
	gt, err := a.reader.Current(ctx)
	if err != nil {
		return scoringservice.ActiveGroundTruth{}, err
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.cached != nil && a.cacheID == gt.ID {
		return scoringservice.ActiveGroundTruth{ID: gt.ID, Table: a.cached}, nil
	}

	table, err := gt.Table()
	if err != nil {
		// A stored version that no longer parses is a storage fault, not a bad upload.
		return scoringservice.ActiveGroundTruth{}, fmt.Errorf("stored ground truth %d: %v", gt.ID, err)
	}
	a.cacheID, a.cached = gt.ID, table
	return scoringservice.ActiveGroundTruth{ID: gt.ID, Table: table}, nil
}

func (a *GroundTruthAdapter) ColumnPreferences(ctx context.Context) (scoringdomain.ColumnPreferences, error) {
	settings, err := a.reader.ColumnSettings(ctx)
	if err != nil {
		return scoringdomain.ColumnPreferences{}, err
	}
	return settings.Preferences(), nil
}
