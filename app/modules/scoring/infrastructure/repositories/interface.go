package scoringdb

import (
	"context"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Repository defines the contract for submission persistence.
type Repository interface {
	// Create stores a scored submission.
	Create(ctx context.Context, db bun.IDB, sub *Submission) error

	// GetByID returns a single submission.
	GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Submission, error)

	// ListByStudent returns a student's submissions newest first.
	ListByStudent(ctx context.Context, db bun.IDB, studentID string) ([]Submission, error)

	// ListScored returns every scored submission for metric, oldest first.
	ListScored(ctx context.Context, db bun.IDB, metric string) ([]Submission, error)

	// Stats counts distinct students and submissions.
	Stats(ctx context.Context, db bun.IDB) (Statistics, error)
}
