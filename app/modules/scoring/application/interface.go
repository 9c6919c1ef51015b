package scoringservice

import (
	"context"

	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// Service scores prediction uploads and keeps the scored ones.
type Service interface {
	// Submit scores a prediction CSV against the active ground truth. Scoring
	// failures are returned as errors classified by scoringdomain.KindOf and
	// leave nothing behind.
	Submit(ctx context.Context, req SubmitRequest) (SubmitResult, error)

	// History returns a student's submissions and their best score.
	History(ctx context.Context, studentID string) (StudentHistory, error)

	// Metric is the metric new submissions are scored with.
	Metric() scoringdomain.Metric
}

// SubmitRequest is one prediction upload.
type SubmitRequest struct {
	StudentID string
	Filename  string
	Text      string
}

// SubmitResult is a stored, scored submission.
type SubmitResult struct {
	Submission scoringdomain.Submission `json:"submission"`
	Result     scoringdomain.Result     `json:"result"`
}

// StudentHistory lists a student's submissions, newest first.
type StudentHistory struct {
	StudentID   string                     `json:"student_id"`
	Metric      scoringdomain.Metric       `json:"metric"`
	BestScore   *float64                   `json:"best_score"`
	Submissions []scoringdomain.Submission `json:"submissions"`
}

// ActiveGroundTruth is the reference table scoring compares against.
type ActiveGroundTruth struct {
	ID    int64
	Table *scoringdomain.Table
}

// GroundTruthSource supplies the active ground truth and column preferences.
type GroundTruthSource interface {
	// ActiveGroundTruth returns scoringdomain.ErrNoGroundTruth when none is active.
	ActiveGroundTruth(ctx context.Context) (ActiveGroundTruth, error)
	ColumnPreferences(ctx context.Context) (scoringdomain.ColumnPreferences, error)
}

// EventPublisher publishes domain events.
type EventPublisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// StandingsInvalidator drops cached standings. Submit calls it after a
// submission commits so reads in the same process see the new score.
type StandingsInvalidator interface {
	Invalidate(ctx context.Context, reason string)
}
