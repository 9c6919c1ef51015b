package scoringdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	scoringdomain "github.com/predict-it/predict-it/app/modules/scoring/domain"
)

// Submission is a stored scored prediction.
type Submission struct {
	bun.BaseModel `bun:"table:submissions,alias:sub"`

	ID            uuid.UUID `bun:"id,pk,type:uuid"`
	StudentID     string    `bun:"student_id,notnull"`
	GroundTruthID int64     `bun:"ground_truth_id,notnull"`
	Filename      string    `bun:"filename,notnull"`
	Metric        string    `bun:"metric,notnull"`
	Score         *float64  `bun:"score"`
	Rows          int       `bun:"row_count,notnull,default:0"`
	Alignment     string    `bun:"alignment"`
	CreatedAt     time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

func (s *Submission) ToDomain() scoringdomain.Submission {
	return scoringdomain.Submission{
		ID:            s.ID,
		StudentID:     s.StudentID,
		GroundTruthID: s.GroundTruthID,
		Filename:      s.Filename,
		Metric:        scoringdomain.Metric(s.Metric),
		Score:         s.Score,
		CreatedAt:     s.CreatedAt,
	}
}

// Statistics summarises the submissions table.
type Statistics struct {
	Students    int `bun:"students"`
	Submissions int `bun:"submissions"`
}
