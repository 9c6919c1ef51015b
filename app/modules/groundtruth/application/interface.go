package groundtruthservice

import (
	"context"

	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
)

// Service is the ground truth store: versioned reference answers with a single
// active version, plus the column settings scoring reads.
type Service interface {
	// Activate stores a new version and makes it the only active one.
	Activate(ctx context.Context, upload Upload) (groundtruthdomain.GroundTruth, error)

	// Current returns the active version or scoringdomain.ErrNoGroundTruth.
	Current(ctx context.Context) (groundtruthdomain.GroundTruth, error)

	// Get returns any version by id.
	Get(ctx context.Context, id int64) (groundtruthdomain.GroundTruth, error)

	// History lists every version, newest first.
	History(ctx context.Context) ([]groundtruthdomain.Summary, error)

	// ColumnSettings returns the configured columns, or defaults.
	ColumnSettings(ctx context.Context) (groundtruthdomain.ColumnSettings, error)

	// ConfigureColumns replaces both column settings at once.
	ConfigureColumns(ctx context.Context, settings groundtruthdomain.ColumnSettings) (groundtruthdomain.ColumnSettings, error)
}

// Upload is a ground truth file handed in by an admin.
type Upload struct {
	Filename   string
	Text       string
	UploadedBy string
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}
