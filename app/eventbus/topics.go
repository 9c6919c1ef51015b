package eventbus

import "time"

// Topics published by the modules.
const (
	SubmissionScoredV1     = "submission.scored.v1"
	GroundTruthActivatedV1 = "groundtruth.activated.v1"
	ColumnsConfiguredV1    = "columns.configured.v1"
)

// SubmissionScoredPayload is published after a scored submission is stored.
type SubmissionScoredPayload struct {
	SubmissionID  string    `json:"submission_id"`
	StudentID     string    `json:"student_id"`
	GroundTruthID int64     `json:"ground_truth_id"`
	Metric        string    `json:"metric"`
	Score         float64   `json:"score"`
	ScoredAt      time.Time `json:"scored_at"`
}

// GroundTruthActivatedPayload is published after a ground truth version becomes active.
type GroundTruthActivatedPayload struct {
	GroundTruthID int64     `json:"ground_truth_id"`
	Filename      string    `json:"filename"`
	Rows          int       `json:"rows"`
	ActivatedAt   time.Time `json:"activated_at"`
}

// ColumnsConfiguredPayload is published after the column settings change.
type ColumnsConfiguredPayload struct {
	IDColumn    string `json:"id_column"`
	ValueColumn string `json:"value_column"`
}
