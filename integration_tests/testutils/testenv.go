//go:build integration

// Package testutils starts the containers shared by the integration suites.
package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/uptrace/bun"

	"github.com/predict-it/predict-it/app/database"
	"github.com/predict-it/predict-it/app/observability"
	"github.com/predict-it/predict-it/config"
	"github.com/predict-it/predict-it/integration_tests/containers"
)

// TestEnvironment holds the containers and connections of one suite.
type TestEnvironment struct {
	Ctx           context.Context
	PgContainer   *postgres.PostgresContainer
	NatsContainer testcontainers.Container
	NatsURL       string
	DB            *bun.DB
	Config        *config.Config
	Observability observability.Observability
	Logger        *slog.Logger
}

// Options selects optional containers.
type Options struct {
	WithNATS bool
}

// NewTestEnvironment starts Postgres (and NATS when asked), applies every module's
// migrations and registers cleanup on t.
func NewTestEnvironment(t *testing.T, opts Options) *TestEnvironment {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithCancel(context.Background())
	env := &TestEnvironment{
		Ctx:           ctx,
		Observability: observability.NewNoop(),
		Logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	pgContainer, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		cancel()
		t.Fatalf("postgres: %v", err)
	}
	env.PgContainer = pgContainer

	if opts.WithNATS {
		natsContainer, natsURL, err := containers.SetupNatsContainer(ctx)
		if err != nil {
			_ = pgContainer.Terminate(ctx)
			cancel()
			t.Fatalf("nats: %v", err)
		}
		env.NatsContainer = natsContainer
		env.NatsURL = natsURL
	}

	env.Config = &config.Config{
		Postgres: config.PostgresConfig{DSN: dsn},
		NATS:     config.NATSConfig{URL: env.NatsURL, CloseTimeout: 5 * time.Second},
		HTTP: config.HTTPConfig{
			Addr:              "127.0.0.1:0",
			UploadLimitBytes:  1 << 20,
			SubmitsPerMinute:  600,
			SubmitBurst:       100,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
		},
		JWT:     config.JWTConfig{Secret: "integration-test-secret", Issuer: "predict-it", DefaultTTL: time.Hour},
		Scoring: config.ScoringConfig{Metric: "rmse"},
	}

	db, err := database.Open(ctx, dsn)
	if err != nil {
		env.terminate()
		cancel()
		t.Fatalf("open database: %v", err)
	}
	env.DB = db
	if err := database.MigrateAll(ctx, db, env.Logger); err != nil {
		env.terminate()
		cancel()
		t.Fatalf("migrate: %v", err)
	}

	t.Cleanup(func() {
		_ = env.DB.Close()
		env.terminate()
		cancel()
	})
	return env
}

// Reset empties every table between subtests.
func (env *TestEnvironment) Reset(t *testing.T) {
	t.Helper()
	_, err := env.DB.ExecContext(env.Ctx, "TRUNCATE TABLE submissions, ground_truths, settings RESTART IDENTITY")
	if err != nil {
		t.Fatalf("reset tables: %v", err)
	}
}

func (env *TestEnvironment) terminate() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if env.NatsContainer != nil {
		if err := env.NatsContainer.Terminate(ctx); err != nil {
			fmt.Printf("failed to terminate nats container: %v\n", err)
		}
	}
	if env.PgContainer != nil {
		if err := env.PgContainer.Terminate(ctx); err != nil {
			fmt.Printf("failed to terminate postgres container: %v\n", err)
		}
	}
}
