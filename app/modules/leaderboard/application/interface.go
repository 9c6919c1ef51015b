package leaderboardservice

import (
	"context"
	"io"
	"time"

	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
	leaderboarddomain "github.com/predict-it/predict-it/app/modules/leaderboard/domain"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// Service builds the leaderboard from stored submissions.
type Service interface {
	// Standings returns the ranked entries for the configured metric.
	Standings(ctx context.Context) (Standings, error)

	// Overview adds platform statistics and the active ground truth to the standings.
	Overview(ctx context.Context) (Overview, error)

	// Invalidate drops cached standings so the next read rebuilds them.
	Invalidate(ctx context.Context, reason string)

	// ExportCSV writes the standings as CSV.
	ExportCSV(ctx context.Context, w io.Writer) error

	// ExportXLSX writes the standings as an Excel workbook.
	ExportXLSX(ctx context.Context, w io.Writer) error

	// Chart renders the best scores of the top n students as a PNG bar chart.
	Chart(ctx context.Context, n int) ([]byte, error)
}

// Standings is the ranked view under one metric.
type Standings struct {
	Metric    scoringdomain.Metric      `json:"metric"`
	Direction string                    `json:"direction"`
	Entries   []leaderboarddomain.Entry `json:"entries"`
	BuiltAt   time.Time                 `json:"built_at"`
}

// Statistics counts activity on the platform.
type Statistics struct {
	Students    int `json:"students"`
	Submissions int `json:"submissions"`
}

// Overview is the admin view of the leaderboard.
type Overview struct {
	Standings
	Statistics  Statistics                 `json:"statistics"`
	GroundTruth *groundtruthdomain.Summary `json:"ground_truth"`
}

// SubmissionReader reads scored submissions.
type SubmissionReader interface {
	ScoredSubmissions(ctx context.Context, metric scoringdomain.Metric) ([]leaderboarddomain.ScoredSubmission, error)
	Statistics(ctx context.Context) (Statistics, error)
}

// GroundTruthReader reads the active ground truth.
type GroundTruthReader interface {
	Current(ctx context.Context) (groundtruthdomain.GroundTruth, error)
}
