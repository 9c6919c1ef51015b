package scoringdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new submission repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) Create(ctx context.Context, db bun.IDB, sub *Submission) error {
	db = r.resolveDB(db)
	if sub.ID == uuid.Nil {
		sub.ID = uuid.New()
	}
	if sub.CreatedAt.IsZero() {
		sub.CreatedAt = time.Now().UTC()
	}
	if _, err := db.NewInsert().Model(sub).Exec(ctx); err != nil {
		return fmt.Errorf("failed to insert submission: %w", err)
	}
	return nil
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id uuid.UUID) (*Submission, error) {
	db = r.resolveDB(db)
	sub := new(Submission)
	err := db.NewSelect().
		Model(sub).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (r *Impl) ListByStudent(ctx context.Context, db bun.IDB, studentID string) ([]Submission, error) {
	db = r.resolveDB(db)
	var subs []Submission
	err := db.NewSelect().
		Model(&subs).
		Where("student_id = ?", studentID).
		OrderExpr("created_at DESC, id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions for student: %w", err)
	}
	return subs, nil
}

func (r *Impl) ListScored(ctx context.Context, db bun.IDB, metric string) ([]Submission, error) {
	db = r.resolveDB(db)
	var subs []Submission
	err := db.NewSelect().
		Model(&subs).
		Where("score IS NOT NULL").
		Where("metric = ?", metric).
		OrderExpr("created_at ASC, id").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list scored submissions: %w", err)
	}
	return subs, nil
}

func (r *Impl) Stats(ctx context.Context, db bun.IDB) (Statistics, error) {
	db = r.resolveDB(db)
	var stats Statistics
	err := db.NewSelect().
		Model((*Submission)(nil)).
		ColumnExpr("COUNT(DISTINCT student_id) AS students").
		ColumnExpr("COUNT(*) AS submissions").
		Where("score IS NOT NULL").
		Scan(ctx, &stats)
	if err != nil {
		return Statistics{}, fmt.Errorf("failed to count submissions: %w", err)
	}
	return stats, nil
}
