package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/predict-it/predict-it/app"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/config"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:  "predictit",
		Usage: "prediction scoring and leaderboard service",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"CONFIG_PATH"},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			migrateCommand(),
			scoreCommand(),
			tokenCommand(),
			leaderboardCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP API and event consumers",
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			obs := observability.New(os.Stdout, cfg.Observability.LogFormat, cfg.Observability.LogLevel)
			obs.Logger = obs.Logger.With("env", cfg.Observability.Environment)

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			application := &app.App{}
			if err := application.Initialize(ctx, cfg, obs, nil); err != nil {
				return fmt.Errorf("failed to initialize application: %w", err)
			}

			if err := application.Run(ctx); err != nil && ctx.Err() == nil {
				return err
			}
			obs.Logger.InfoContext(context.Background(), "Graceful shutdown complete")
			return nil
		},
	}
}
