package adapters

import (
	"context"

	leaderboardservice "github.com/predict-it/predict-it/app/modules/leaderboard/application"
	leaderboarddomain "github.com/predict-it/predict-it/app/modules/leaderboard/domain"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
)

// SubmissionReaderAdapter adapts the submission repository to the leaderboard SubmissionReader port.
type SubmissionReaderAdapter struct {
	repo scoringdb.Repository
}

func NewSubmissionReaderAdapter(repo scoringdb.Repository) *SubmissionReaderAdapter {
	return &SubmissionReaderAdapter{repo: repo}
}

var _ leaderboardservice.SubmissionReader = (*SubmissionReaderAdapter)(nil)

func (a *SubmissionReaderAdapter) ScoredSubmissions(ctx context.Context, metric scoringdomain.Metric) ([]leaderboarddomain.ScoredSubmission, error) {
	rows, err := a.repo.ListScored(ctx, nil, string(metric))
	if err != nil {
		return nil, err
	}

	out := make([]leaderboarddomain.ScoredSubmission, 0, len(rows))
	for _, row := range rows {
		if row.Score == nil {
			continue
		}
		out = append(out, leaderboarddomain.ScoredSubmission{
			StudentID:   row.StudentID,
			Score:       *row.Score,
			SubmittedAt: row.CreatedAt,
		})
	}
	return out, nil
}

func (a *SubmissionReaderAdapter) Statistics(ctx context.Context) (leaderboardservice.Statistics, error) {
	stats, err := a.repo.Stats(ctx, nil)
	if err != nil {
		return leaderboardservice.Statistics{}, err
	}
	return leaderboardservice.Statistics{Students: stats.Students, Submissions: stats.Submissions}, nil
}
