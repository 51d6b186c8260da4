package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/allocator"
	"github.com/JEMeyer/ai-maestro/internal/config"
	"github.com/JEMeyer/ai-maestro/internal/fleet"
	"github.com/JEMeyer/ai-maestro/internal/inventory"
	"github.com/JEMeyer/ai-maestro/internal/journal"
	"github.com/JEMeyer/ai-maestro/internal/lock"
	"github.com/JEMeyer/ai-maestro/internal/metrics"
	"github.com/JEMeyer/ai-maestro/internal/mq"
	"github.com/JEMeyer/ai-maestro/internal/orchestrator"
	"github.com/JEMeyer/ai-maestro/internal/portpool"
	"github.com/JEMeyer/ai-maestro/internal/router"
	"github.com/JEMeyer/ai-maestro/internal/runtime"
	"github.com/JEMeyer/ai-maestro/internal/storage"
	"github.com/JEMeyer/ai-maestro/internal/storage/inmemory"
	"github.com/JEMeyer/ai-maestro/internal/storage/mongodb"
	"github.com/JEMeyer/ai-maestro/internal/storage/postgres"
)

// app holds the wired components shared by the subcommands
type app struct {
	cfg    *config.Config
	logger *slog.Logger

	db       storage.Database
	events   storage.EventRepository
	docker   *runtime.DockerClient
	pool     *portpool.Pool
	queue    mq.MessageQueue
	recorder *journal.Recorder
	sync     *router.Synchronizer
	locker   lock.Locker
	ops      *metrics.OperationMetrics
	orch     *orchestrator.Orchestrator

	// closers run in reverse order on shutdown
	closers []func() error
}

// newApp builds every component from cfg. On error everything opened so far
// is closed again.
func newApp(ctx context.Context, cfg *config.Config, logger *slog.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
		}
	}()

	if err := a.openDatabase(ctx); err != nil {
		return nil, err
	}
	if err := a.seedInventory(ctx); err != nil {
		return nil, err
	}
	if err := a.openJournal(); err != nil {
		return nil, err
	}

	a.docker, err = runtime.NewDockerClient(cfg.Runtime.Servers, cfg.Runtime.CallTimeout, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, a.docker.Close)

	a.pool, err = portpool.New(cfg.PortPool.Base, cfg.PortPool.Max)
	if err != nil {
		return nil, err
	}

	a.sync = router.NewSynchronizer(
		router.NewHTTPClient(cfg.Router.AdminURL, cfg.Router.Timeout, logger),
		a.docker,
		router.ContainerOptions{
			Name:  cfg.Router.ContainerName,
			Image: cfg.Router.Image,
			Port:  cfg.Router.Port,
		},
		logger,
	)

	switch cfg.Orchestrator.LockType {
	case "redis":
		a.locker, err = lock.NewRedisLocker(cfg.Redis.URL, cfg.Orchestrator.LockTTL, logger)
		if err != nil {
			return nil, err
		}
	default:
		a.locker = lock.NewMemoryLocker(logger)
	}
	a.closers = append(a.closers, a.locker.Close)

	a.ops = metrics.NewOperationMetrics()
	a.orch = orchestrator.New(orchestrator.Dependencies{
		DB:        a.db,
		Allocator: allocator.New(logger),
		Ports:     a.pool,
		Fleet:     fleet.NewManager(a.docker, cfg.Runtime.WorkerImage, logger),
		Router:    a.sync,
		Locker:    a.locker,
		Events:    journal.NewPublisher(a.queue, cfg.Queue.EventsTopic, logger),
		Metrics:   a.ops,
	}, orchestrator.Options{
		CompensateOnFailure: cfg.Orchestrator.CompensateOnFailure,
		LaunchConcurrency:   cfg.Orchestrator.LaunchConcurrency,
	}, logger)

	return a, nil
}

func (a *app) openDatabase(ctx context.Context) error {
	switch a.cfg.Database.Driver {
	case "postgres":
		db, err := postgres.Open(a.cfg.Database.URL, a.cfg.Database.MaxOpenConns, a.logger)
		if err != nil {
			return err
		}
		a.db = db
		a.closers = append(a.closers, db.Close)

		if a.cfg.Database.AutoMigrate {
			if err := db.Migrate(ctx); err != nil {
				return fmt.Errorf("failed to migrate database: %w", err)
			}
		}
		a.logger.Info("Using PostgreSQL storage", "max_open_conns", a.cfg.Database.MaxOpenConns)
	default:
		a.db = inmemory.NewDatabase()
		a.closers = append(a.closers, a.db.Close)
		a.logger.Info("Using in-memory storage")
	}
	return nil
}

func (a *app) seedInventory(ctx context.Context) error {
	if a.cfg.Database.InventoryFile == "" {
		return nil
	}
	inv, err := inventory.Load(a.cfg.Database.InventoryFile)
	if err != nil {
		return err
	}
	_, err = inventory.Seed(ctx, a.db, inv, a.logger)
	return err
}

// openJournal creates the event queue, the event store and the recorder
// that moves events from one to the other
func (a *app) openJournal() error {
	queue, err := mq.New(mq.Options{
		Type:       a.cfg.Queue.Type,
		BufferSize: a.cfg.Queue.BufferSize,
		Workers:    a.cfg.Queue.Workers,
		RedisURL:   a.cfg.Redis.URL,
	}, a.logger)
	if err != nil {
		return fmt.Errorf("failed to create message queue: %w", err)
	}
	a.queue = queue
	a.closers = append(a.closers, queue.Close)

	switch a.cfg.Journal.Type {
	case "mongodb":
		repo, err := mongodb.NewEventRepository(a.cfg.Journal.MongoURI, a.cfg.Journal.Database, a.cfg.Journal.Collection)
		if err != nil {
			return fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		a.events = repo
		a.closers = append(a.closers, func() error {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return repo.Close(ctx)
		})
		a.logger.Info("Using MongoDB event journal",
			"database", a.cfg.Journal.Database,
			"collection", a.cfg.Journal.Collection)
	default:
		a.events = inmemory.NewEventRepository()
	}

	a.recorder = journal.NewRecorder(a.queue, a.events, a.cfg.Queue.EventsTopic, a.cfg.Journal.MaxConcurrent, a.logger)
	return nil
}

// startJournal starts event delivery and recording. The returned stop
// function drains the queue before the recorder unsubscribes.
func (a *app) startJournal(ctx context.Context) (func(), error) {
	if err := a.queue.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start message queue: %w", err)
	}

	if err := a.recorder.Subscribe(ctx); err != nil {
		return nil, err
	}

	recCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := a.recorder.Run(recCtx); err != nil && !errors.Is(err, context.Canceled) {
			a.logger.Error("Event recorder stopped", "error", err)
		}
	}()

	return func() {
		if err := a.queue.Stop(); err != nil {
			a.logger.Warn("Failed to stop message queue", "error", err)
		}
		cancel()
		<-done
	}, nil
}

// Close releases every opened component
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Warn("Failed to close component", "error", err)
		}
	}
	a.closers = nil
}
