package scoringmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"

	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating submissions table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.NewCreateTable().
				Model((*scoringdb.Submission)(nil)).
				IfNotExists().
				Exec(ctx); err != nil {
				return fmt.Errorf("failed to create submissions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_submissions_student_created
					ON submissions (student_id, created_at DESC);
				CREATE INDEX IF NOT EXISTS idx_submissions_metric_scored
					ON submissions (metric, created_at) WHERE score IS NOT NULL;
			`); err != nil {
				return fmt.Errorf("failed to create submissions indexes: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping submissions table...")
		_, err := db.NewDropTable().Model((*scoringdb.Submission)(nil)).IfExists().Cascade().Exec(ctx)
		if err != nil {
			return fmt.Errorf("failed to drop submissions table: %w", err)
		}
		return nil
	})
}
