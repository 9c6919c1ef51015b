package groundtruthhandlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-playground/validator/v10"

	groundtruthservice "github.com/predict-it/predict-it/app/modules/groundtruth/application"
	groundtruthdomain "github.com/predict-it/predict-it/app/modules/groundtruth/domain"
	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/app/shared/httpx"
	"github.com/predict-it/predict-it/app/shared/identity"
)

// GroundTruthHandlers serves the admin ground truth and column settings endpoints.
type GroundTruthHandlers struct {
	service     groundtruthservice.Service
	logger      *slog.Logger
	validate    *validator.Validate
	uploadLimit int64
}

// NewGroundTruthHandlers creates a new GroundTruthHandlers instance.
func NewGroundTruthHandlers(service groundtruthservice.Service, logger *slog.Logger, uploadLimit int64) *GroundTruthHandlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &GroundTruthHandlers{
		service:     service,
		logger:      logger,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		uploadLimit: uploadLimit,
	}
}

// ConfigureColumnsRequest is the body of POST /api/admin/configure-columns.
type ConfigureColumnsRequest struct {
	IDColumn    string `json:"id_column" validate:"max=128"`
	ValueColumn string `json:"value_column" validate:"required,max=128"`
}

// UploadResponse is returned after a ground truth upload.
type UploadResponse struct {
	Message     string                    `json:"message"`
	GroundTruth groundtruthdomain.Summary `json:"ground_truth"`
	Columns     []string                  `json:"columns"`
}

// HandleUpload activates an uploaded CSV as the new ground truth.
func (h *GroundTruthHandlers) HandleUpload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	upload, err := httpx.ReadCSVUpload(w, r, "file", h.uploadLimit)
	if err != nil {
		httpx.Error(w, httpx.UploadStatus(err), "invalid_upload", err.Error())
		return
	}

	caller, _ := identity.FromContext(ctx)
	gt, err := h.service.Activate(ctx, groundtruthservice.Upload{
		Filename:   upload.Filename,
		Text:       upload.Text,
		UploadedBy: caller.UserID,
	})
	if err != nil {
		if errors.Is(err, scoringdomain.ErrMalformedCSV) {
			httpx.Error(w, http.StatusUnprocessableEntity, string(scoringdomain.KindMalformedCSV), err.Error())
			return
		}
		httpx.Internal(w, r, h.logger, "Ground truth upload failed", err)
		return
	}

	httpx.JSON(w, http.StatusCreated, UploadResponse{
		Message:     "ground truth uploaded",
		GroundTruth: gt.Summary(),
		Columns:     gt.Columns,
	})
}

// HandleHistory lists every ground truth version.
func (h *GroundTruthHandlers) HandleHistory(w http.ResponseWriter, r *http.Request) {
	history, err := h.service.History(r.Context())
	if err != nil {
		httpx.Internal(w, r, h.logger, "Ground truth history failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"ground_truths": history})
}

// HandleGetSettings returns the column settings.
func (h *GroundTruthHandlers) HandleGetSettings(w http.ResponseWriter, r *http.Request) {
	settings, err := h.service.ColumnSettings(r.Context())
	if err != nil {
		httpx.Internal(w, r, h.logger, "Reading column settings failed", err)
		return
	}
	httpx.JSON(w, http.StatusOK, settings)
}

// HandleConfigureColumns replaces the column settings.
func (h *GroundTruthHandlers) HandleConfigureColumns(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var req ConfigureColumnsRequest
	if err := httpx.DecodeJSON(w, r, &req, 1<<16); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		httpx.Error(w, http.StatusBadRequest, "invalid_request", groundtruthdomain.ErrInvalidColumnSettings.Error())
		return
	}

	saved, err := h.service.ConfigureColumns(ctx, groundtruthdomain.ColumnSettings{
		IDColumn:    req.IDColumn,
		ValueColumn: req.ValueColumn,
	})
	if err != nil {
		if errors.Is(err, groundtruthdomain.ErrInvalidColumnSettings) {
			httpx.Error(w, http.StatusBadRequest, "invalid_request", err.Error())
			return
		}
		httpx.Internal(w, r, h.logger, "Configuring columns failed", err)
		return
	}

	h.logger.InfoContext(ctx, "Column settings updated",
		observability.CorrelationID(ctx),
		slog.String("id_column", saved.IDColumn),
		slog.String("value_column", saved.ValueColumn),
	)
	httpx.JSON(w, http.StatusOK, saved)
}
