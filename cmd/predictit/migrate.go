package main

import (
	"fmt"
	"strings"

	"github.com/uptrace/bun"
	"github.com/urfave/cli/v2"

	"github.com/predict-it/predict-it/app/database"
)

func withDB(c *cli.Context, fn func(db *bun.DB) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	db, err := database.Open(c.Context, cfg.Postgres.DSN)
	if err != nil {
		return err
	}
	defer db.Close()
	return fn(db)
}

func findMigrator(db *bun.DB, module string) (database.ModuleMigrator, error) {
	for _, m := range database.Migrators(db) {
		if m.Module == module {
			return m, nil
		}
	}
	return database.ModuleMigrator{}, fmt.Errorf("invalid module name: %s", module)
}

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *bun.DB) error {
						for _, m := range database.Migrators(db) {
							fmt.Printf("Initializing migrations for module: %s\n", m.Module)
							if err := m.Migrator.Init(c.Context); err != nil {
								return fmt.Errorf("init %s: %w", m.Module, err)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *bun.DB) error {
						for _, m := range database.Migrators(db) {
							fmt.Printf("Running migrations for module: %s\n", m.Module)
							group, err := m.Migrator.Migrate(c.Context)
							if err != nil {
								return err
							}
							if group.IsZero() {
								fmt.Printf("No new migrations to run for module: %s\n", m.Module)
							} else {
								fmt.Printf("Migrated module: %s to %s\n", m.Module, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group of every module",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *bun.DB) error {
						migrators := database.Migrators(db)
						// Reverse order so dependants roll back first.
						for i := len(migrators) - 1; i >= 0; i-- {
							m := migrators[i]
							fmt.Printf("Rolling back migrations for module: %s\n", m.Module)
							group, err := m.Migrator.Rollback(c.Context)
							if err != nil {
								return err
							}
							if group.IsZero() {
								fmt.Printf("No groups to roll back for module: %s\n", m.Module)
							} else {
								fmt.Printf("Rolled back module: %s to %s\n", m.Module, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *bun.DB) error {
						m, err := findMigrator(db, c.Args().First())
						if err != nil {
							return err
						}
						name := strings.Join(c.Args().Tail(), "_")
						mf, err := m.Migrator.CreateGoMigration(c.Context, name)
						if err != nil {
							return err
						}
						fmt.Printf("Created migration for module %s: %s (%s)\n", m.Module, mf.Name, mf.Path)
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					return withDB(c, func(db *bun.DB) error {
						for _, m := range database.Migrators(db) {
							ms, err := m.Migrator.MigrationsWithStatus(c.Context)
							if err != nil {
								return err
							}
							fmt.Printf("%s: migrations %s, unapplied %s, last group %s\n",
								m.Module, ms, ms.Unapplied(), ms.LastGroup())
						}
						return nil
					})
				},
			},
		},
	}
}
