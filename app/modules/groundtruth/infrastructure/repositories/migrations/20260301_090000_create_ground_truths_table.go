package groundtruthmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating ground_truths and settings tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS ground_truths (
					id BIGSERIAL PRIMARY KEY,
					filename TEXT NOT NULL,
					data TEXT NOT NULL,
					row_count INTEGER NOT NULL DEFAULT 0,
					columns TEXT[],
					is_active BOOLEAN NOT NULL DEFAULT FALSE,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create ground_truths table: %w", err)
			}

			// At most one active version, enforced by the database.
			if _, err := tx.ExecContext(ctx, `
				CREATE UNIQUE INDEX IF NOT EXISTS idx_ground_truths_single_active
				ON ground_truths (is_active) WHERE is_active;
			`); err != nil {
				return fmt.Errorf("failed to create single-active index: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS settings (
					setting_key TEXT PRIMARY KEY,
					setting_value TEXT NOT NULL,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
				INSERT INTO settings (setting_key, setting_value) VALUES
					('id_column', 'id'),
					('value_column', 'value')
				ON CONFLICT (setting_key) DO NOTHING;
			`); err != nil {
				return fmt.Errorf("failed to create settings table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping ground_truths and settings tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS settings;
				DROP TABLE IF EXISTS ground_truths;
			`); err != nil {
				return fmt.Errorf("failed to drop ground truth tables: %w", err)
			}
			return nil
		})
	})
}
