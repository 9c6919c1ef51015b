package groundtruthdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/uptrace/bun"
)

// Impl implements the Repository interface using Bun ORM.
type Impl struct {
	db bun.IDB
}

// NewRepository creates a new ground truth repository.
func NewRepository(db bun.IDB) Repository {
	return &Impl{db: db}
}

// resolveDB returns the provided db handle, falling back to the repository's
// default connection if db is nil.
func (r *Impl) resolveDB(db bun.IDB) bun.IDB {
	if db == nil {
		return r.db
	}
	return db
}

func (r *Impl) LockForActivation(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	if _, err := db.ExecContext(ctx, "LOCK TABLE ground_truths IN SHARE ROW EXCLUSIVE MODE"); err != nil {
		return fmt.Errorf("failed to lock ground_truths: %w", err)
	}
	return nil
}

func (r *Impl) DeactivateAll(ctx context.Context, db bun.IDB) error {
	db = r.resolveDB(db)
	_, err := db.NewUpdate().
		Model((*GroundTruth)(nil)).
		Set("is_active = ?", false).
		Where("is_active = ?", true).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to deactivate ground truths: %w", err)
	}
	return nil
}

func (r *Impl) Create(ctx context.Context, db bun.IDB, gt *GroundTruth) error {
	db = r.resolveDB(db)
	if gt.CreatedAt.IsZero() {
		gt.CreatedAt = time.Now().UTC()
	}
	_, err := db.NewInsert().
		Model(gt).
		Returning("id, created_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to insert ground truth: %w", err)
	}
	return nil
}

func (r *Impl) GetActive(ctx context.Context, db bun.IDB) (*GroundTruth, error) {
	db = r.resolveDB(db)
	gt := new(GroundTruth)
	err := db.NewSelect().
		Model(gt).
		Where("is_active = ?", true).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoActiveGroundTruth
		}
		return nil, fmt.Errorf("failed to get active ground truth: %w", err)
	}
	return gt, nil
}

func (r *Impl) GetByID(ctx context.Context, db bun.IDB, id int64) (*GroundTruth, error) {
	db = r.resolveDB(db)
	gt := new(GroundTruth)
	err := db.NewSelect().
		Model(gt).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get ground truth %d: %w", id, err)
	}
	return gt, nil
}

func (r *Impl) List(ctx context.Context, db bun.IDB) ([]GroundTruth, error) {
	db = r.resolveDB(db)
	var versions []GroundTruth
	err := db.NewSelect().
		Model(&versions).
		ExcludeColumn("data").
		OrderExpr("created_at DESC, id DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list ground truths: %w", err)
	}
	return versions, nil
}

func (r *Impl) GetSettings(ctx context.Context, db bun.IDB, keys ...string) (map[string]string, error) {
	db = r.resolveDB(db)
	var rows []Setting
	q := db.NewSelect().Model(&rows)
	if len(keys) > 0 {
		q = q.Where("setting_key IN (?)", bun.In(keys))
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("failed to get settings: %w", err)
	}

	out := make(map[string]string, len(rows))
	for _, row := range rows {
		out[row.Key] = row.Value
	}
	return out, nil
}

func (r *Impl) UpsertSetting(ctx context.Context, db bun.IDB, key, value string) error {
	db = r.resolveDB(db)
	setting := &Setting{Key: key, Value: value, UpdatedAt: time.Now().UTC()}
	_, err := db.NewInsert().
		Model(setting).
		On("CONFLICT (setting_key) DO UPDATE").
		Set("setting_value = EXCLUDED.setting_value").
		Set("updated_at = EXCLUDED.updated_at").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("failed to upsert setting %q: %w", key, err)
	}
	return nil
}
