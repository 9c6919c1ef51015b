package scoringhandlers

import (
	"log/slog"
	"net/http"

	scoringservice "github.com/predict-it/predict-it/app/modules/scoring/application"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/httpx"
	"github.com/predict-it/predict-it/app/shared/identity"
)

// ScoringHandlers serves the student submission endpoints.
type ScoringHandlers struct {
	service     scoringservice.Service
	logger      *slog.Logger
	uploadLimit int64
}

// NewScoringHandlers creates a new ScoringHandlers instance.
func NewScoringHandlers(service scoringservice.Service, logger *slog.Logger, uploadLimit int64) *ScoringHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &ScoringHandlers{service: service, logger: logger, uploadLimit: uploadLimit}
}

// SubmitResponse is returned for a scored submission.
type SubmitResponse struct {
	Message    string                   `json:"message"`
	Score      float64                  `json:"score"`
	Metric     scoringdomain.Metric     `json:"metric"`
	Submission scoringdomain.Submission `json:"submission"`
	Details    scoringdomain.Result     `json:"details"`
}

// StatusForKind maps a scoring failure to its HTTP status.
func StatusForKind(kind scoringdomain.ErrorKind) int {
	switch kind {
	case scoringdomain.KindNoGroundTruth:
		return http.StatusConflict
	case scoringdomain.KindInvalidMetric:
		return http.StatusBadRequest
	case scoringdomain.KindMalformedCSV,
		scoringdomain.KindColumnNotFound,
		scoringdomain.KindNoValidData,
		scoringdomain.KindRowCountMismatch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// HandleSubmit scores the uploaded prediction file for the calling student.
func (h *ScoringHandlers) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	caller, ok := identity.FromContext(ctx)
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	upload, err := httpx.ReadCSVUpload(w, r, "file", h.uploadLimit)
	if err != nil {
		httpx.Error(w, httpx.UploadStatus(err), "invalid_upload", err.Error())
		return
	}

	out, err := h.service.Submit(ctx, scoringservice.SubmitRequest{
		StudentID: caller.UserID,
		Filename:  upload.Filename,
		Text:      upload.Text,
	})
	if err != nil {
		kind := scoringdomain.KindOf(err)
		if kind == scoringdomain.KindStorageFailure {
			httpx.Internal(w, r, h.logger, "Submission failed", err)
			return
		}
		h.logger.InfoContext(ctx, "Submission rejected",
			observability.CorrelationID(ctx),
			slog.String("student_id", caller.UserID),
			slog.String("kind", string(kind)),
		)
		httpx.Error(w, StatusForKind(kind), string(kind), err.Error())
		return
	}

	httpx.JSON(w, http.StatusCreated, SubmitResponse{
		Message:    "submission scored",
		Score:      out.Result.Score,
		Metric:     out.Result.Metric,
		Submission: out.Submission,
		Details:    out.Result,
	})
}

// HandleHistory lists the calling student's submissions.
func (h *ScoringHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	caller, ok := identity.FromContext(r.Context())
	if !ok {
		httpx.Error(w, http.StatusUnauthorized, "unauthorized", "authentication required")
		return
	}

	history, err := h.service.History(r.Context(), caller.UserID)
	if err != nil {
		httpx.Internal(w, r, h.logger, "Submission history failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, history)
}
