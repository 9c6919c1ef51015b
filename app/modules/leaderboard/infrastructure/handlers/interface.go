package leaderboardhandlers

import (
	"context"
	"net/http"

	"github.com/predict-it/predict-it/app/eventbus"
)

// Handlers defines the leaderboard HTTP endpoints and event handlers.
type Handlers interface {
	// --- HTTP ---

	HandleLeaderboard(w http.ResponseWriter, r *http.Request)
	HandleExport(w http.ResponseWriter, r *http.Request)
	HandleChart(w http.ResponseWriter, r *http.Request)

	// --- EVENTS ---

	// HandleSubmissionScored drops cached standings after a new score is stored.
	HandleSubmissionScored(ctx context.Context, payload *eventbus.SubmissionScoredPayload) error

	// HandleGroundTruthActivated drops cached standings after a new version goes live.
	HandleGroundTruthActivated(ctx context.Context, payload *eventbus.GroundTruthActivatedPayload) error
}
