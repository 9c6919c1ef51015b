package scoringdomain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Submission is a scored prediction upload. Failed attempts never become submissions.
type Submission struct {
	ID            uuid.UUID `json:"id"`
	StudentID     string    `json:"student_id"`
	GroundTruthID int64     `json:"ground_truth_id"`
	Filename      string    `json:"filename"`
	Metric        Metric    `json:"metric"`
	Score         *float64  `json:"score"`
	CreatedAt     time.Time `json:"created_at"`
}

// Scored reports whether the submission carries a score.
func (s Submission) Scored() bool { return s.Score != nil }

// StoredFilename is the name a prediction upload is kept under.
func StoredFilename(studentID string, at time.Time) string {
	return fmt.Sprintf("user_%s_%s.csv", studentID, at.UTC().Format("20060102_150405"))
}
