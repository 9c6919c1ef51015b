// Package database opens the Postgres connection and owns the per-module migrators.
package database

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/migrate"

	groundtruthdb "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories"
	groundtruthmigrations "github.com/predict-it/predict-it/app/modules/groundtruth/infrastructure/repositories/migrations"
	scoringdb "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories"
	scoringmigrations "github.com/predict-it/predict-it/app/modules/scoring/infrastructure/repositories/migrations"
)

// Open connects to Postgres through pgdriver and verifies the connection.
func Open(ctx context.Context, dsn string) (*bun.DB, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(
		pgdriver.WithDSN(dsn),
		pgdriver.WithTimeout(10*time.Second),
	))

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	db := bun.NewDB(sqldb, pgdialect.New())
	db.RegisterModel(
		(*groundtruthdb.GroundTruth)(nil),
		(*groundtruthdb.Setting)(nil),
		(*scoringdb.Submission)(nil),
	)
	return db, nil
}

// ModuleMigrator is one module's migration set.
type ModuleMigrator struct {
	Module   string
	Migrator *migrate.Migrator
}

// Migrators returns the migrators in dependency order. Each module keeps its own
// bookkeeping tables so groups roll back per module.
func Migrators(db *bun.DB) []ModuleMigrator {
	newMigrator := func(module string, migrations *migrate.Migrations) ModuleMigrator {
		return ModuleMigrator{
			Module: module,
			Migrator: migrate.NewMigrator(db, migrations,
				migrate.WithTableName("bun_migrations_"+module),
				migrate.WithLocksTableName("bun_migration_locks_"+module),
			),
		}
	}
	return []ModuleMigrator{
		newMigrator("groundtruth", groundtruthmigrations.Migrations),
		newMigrator("scoring", scoringmigrations.Migrations),
	}
}

// MigrateAll creates the bookkeeping tables and applies pending migrations for every module.
func MigrateAll(ctx context.Context, db *bun.DB, logger *slog.Logger) error {
	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("init migrations for %s: %w", m.Module, err)
		}
		group, err := m.Migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", m.Module, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", slog.String("module", m.Module))
			continue
		}
		logger.InfoContext(ctx, "Migrated module",
			slog.String("module", m.Module),
			slog.String("group", group.String()),
		)
	}
	return nil
}
