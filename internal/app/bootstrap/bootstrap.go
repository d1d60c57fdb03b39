package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	electionengine "ballot/contexts/governance/election-engine"
	postgresadapter "ballot/contexts/governance/election-engine/adapters/postgres"
	"ballot/contexts/governance/election-engine/application/workers"
	"ballot/internal/platform/config"
	"ballot/internal/platform/db"
	"ballot/internal/platform/httpserver"
	"ballot/internal/platform/messaging"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	// relay and audit are set in memory mode, where the outbox only lives
	// inside the API process.
	relay        *workers.OutboxRelay
	audit        *workers.ElectionAuditConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	outboxRelay  workers.OutboxRelay
	audit        workers.ElectionAuditConsumer
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI(ctx context.Context) (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}

	app := &APIApp{
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}

	var module electionengine.Module
	switch cfg.StoreDriver {
	case config.StoreDriverMemory:
		module = electionengine.NewInMemoryModule(nil, bus, logger)
		module.OutboxRelay.BatchSize = 100
		app.relay = &module.OutboxRelay
		app.audit = &module.AuditConsumer
	case config.StoreDriverPostgres:
		pg, repo, err := connectRepository(ctx, cfg, logger)
		if err != nil {
			return nil, err
		}
		app.postgres = pg
		module = electionengine.NewModule(postgresDependencies(cfg, repo, bus, logger))
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.StoreDriver)
	}

	app.server = httpserver.New(module, logger, normalizeAddr(cfg.HTTPPort))
	return app, nil
}

func BuildWorker(ctx context.Context) (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if cfg.StoreDriver != config.StoreDriverPostgres {
		return nil, errors.New("worker requires POSTGRES_DSN: the memory outbox is relayed by the api process")
	}

	bus, err := messaging.NewKafka(cfg.KafkaBrokers, logger)
	if err != nil {
		return nil, err
	}
	pg, repo, err := connectRepository(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	module := electionengine.NewModule(postgresDependencies(cfg, repo, bus, logger))
	relay := module.OutboxRelay
	relay.BatchSize = 100
	return &WorkerApp{
		postgres:     pg,
		outboxRelay:  relay,
		audit:        module.AuditConsumer,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func connectRepository(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
) (*db.Postgres, *postgresadapter.Repository, error) {
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, nil, errors.New("POSTGRES_DSN is required")
	}
	pg, err := db.Connect(ctx, cfg.PostgresDSN, db.Options{
		MaxOpenConns: cfg.DBMaxOpenConns,
		MaxIdleConns: cfg.DBMaxIdleConns,
		SlowQuery:    cfg.DBSlowQuery,
	}, logger)
	if err != nil {
		return nil, nil, err
	}
	repo := postgresadapter.NewRepository(pg.DB, logger)
	if cfg.AutoMigrate {
		if err := repo.AutoMigrate(ctx); err != nil {
			_ = pg.Close()
			return nil, nil, err
		}
	}
	return pg, repo, nil
}

func postgresDependencies(
	cfg config.Config,
	repo *postgresadapter.Repository,
	bus *messaging.Kafka,
	logger *slog.Logger,
) electionengine.Dependencies {
	return electionengine.Dependencies{
		Elections:      repo,
		OutboxReader:   repo,
		Publisher:      bus,
		Subscriber:     bus,
		Dedup:          repo,
		Clock:          postgresadapter.SystemClock{},
		IDGen:          postgresadapter.UUIDGenerator{},
		IdempotencyTTL: cfg.IdempotencyTTL,
		Logger:         logger,
	}
}

func (a *APIApp) Run(ctx context.Context) error {
	a.logger.Info("api app started",
		"event", "bootstrap_api_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"in_process_relay", a.relay != nil,
	)
	if a.audit != nil {
		if err := a.audit.Start(ctx); err != nil {
			return err
		}
	}
	if a.relay != nil {
		relay := *a.relay
		go func() {
			if err := relay.Run(ctx, a.pollInterval); err != nil && !errors.Is(err, context.Canceled) {
				a.logger.Error("in-process outbox relay stopped",
					"event", "bootstrap_api_relay_stopped",
					"module", "internal/app/bootstrap",
					"layer", "platform",
					"error", err.Error(),
				)
			}
		}()
	}
	return a.server.Start(ctx)
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"poll_interval", w.pollInterval.String(),
	)
	if err := w.audit.Start(ctx); err != nil {
		return err
	}
	err := w.outboxRelay.Run(ctx, w.pollInterval)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}
