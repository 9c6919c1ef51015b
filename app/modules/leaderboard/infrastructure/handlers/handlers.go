package leaderboardhandlers

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/predict-it/predict-it/app/eventbus"
	leaderboardservice "github.com/predict-it/predict-it/app/modules/leaderboard/application"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/httpx"
)

const maxChartSize = 50

// LeaderboardHandlers serves the leaderboard and reacts to events that change it.
type LeaderboardHandlers struct {
	leaderboardService leaderboardservice.Service
	logger             *slog.Logger
	now                func() time.Time
}

// NewLeaderboardHandlers creates a new instance of LeaderboardHandlers.
func NewLeaderboardHandlers(leaderboardService leaderboardservice.Service, logger *slog.Logger) Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &LeaderboardHandlers{
		leaderboardService: leaderboardService,
		logger:             logger,
		now:                time.Now,
	}
}

// HandleLeaderboard returns the ranked standings with statistics and the active ground truth.
func (h *LeaderboardHandlers) HandleLeaderboard(w http.ResponseWriter, r *http.Request) {
	overview, err := h.leaderboardService.Overview(r.Context())
	if err != nil {
		httpx.Internal(w, r, h.logger, "Leaderboard failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, overview)
}

// HandleExport downloads the standings as CSV (default) or XLSX.
func (h *LeaderboardHandlers) HandleExport(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "csv"
	}

	var (
		buf         bytes.Buffer
		err         error
		contentType string
	)
	switch format {
	case "csv":
		contentType = "text/csv; charset=utf-8"
		err = h.leaderboardService.ExportCSV(r.Context(), &buf)
	case "xlsx":
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
		err = h.leaderboardService.ExportXLSX(r.Context(), &buf)
	default:
		httpx.Error(w, http.StatusBadRequest, "invalid_request", "format must be csv or xlsx")
		return
	}
	if err != nil {
		httpx.Internal(w, r, h.logger, "Leaderboard export failed", err)
		return
	}

	filename := fmt.Sprintf("leaderboard_%s.%s", h.now().UTC().Format("20060102_150405"), format)
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// HandleChart renders the top students as a PNG bar chart. ?top=N picks how many.
func (h *LeaderboardHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	top := 0
	if raw := r.URL.Query().Get("top"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > maxChartSize {
			httpx.Error(w, http.StatusBadRequest, "invalid_request", fmt.Sprintf("top must be between 1 and %d", maxChartSize))
			return
		}
		top = n
	}

	png, err := h.leaderboardService.Chart(r.Context(), top)
	if err != nil {
		httpx.Internal(w, r, h.logger, "Leaderboard chart failed", err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

func (h *LeaderboardHandlers) HandleSubmissionScored(ctx context.Context, payload *eventbus.SubmissionScoredPayload) error {
	h.logger.InfoContext(ctx, "Received SubmissionScored event",
		observability.CorrelationID(ctx),
		slog.String("student_id", payload.StudentID),
		slog.String("metric", payload.Metric),
	)
	h.leaderboardService.Invalidate(ctx, eventbus.SubmissionScoredV1)
	return nil
}

func (h *LeaderboardHandlers) HandleGroundTruthActivated(ctx context.Context, payload *eventbus.GroundTruthActivatedPayload) error {
	h.logger.InfoContext(ctx, "Received GroundTruthActivated event",
		observability.CorrelationID(ctx),
		slog.Int64("ground_truth_id", payload.GroundTruthID),
	)
	h.leaderboardService.Invalidate(ctx, eventbus.GroundTruthActivatedV1)
	return nil
}
