// Package postgres implements the orchestrator repositories on PostgreSQL via gorm.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/JEMeyer/ai-maestro/internal/domain"
	"github.com/JEMeyer/ai-maestro/internal/storage"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

type sessionKey struct{}

type session struct {
	owner *Database
	tx    *gorm.DB
}

// Database implements storage.Database on a gorm connection
type Database struct {
	db     *gorm.DB
	logger *slog.Logger

	deployments *DeploymentRepository
	workers     *WorkerRepository
	gpus        *GPURepository
	servers     *ServerRepository
}

// Open connects to PostgreSQL
func Open(url string, maxOpenConns int, logger *slog.Logger) (*Database, error) {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "postgres")

	logger.Info("Connecting to Postgres")
	db, err := gorm.Open(postgres.Open(url), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{SingularTable: true},
		Logger:         gormlogger.Default.LogMode(gormlogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Postgres: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if maxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(maxOpenConns)
		sqlDB.SetMaxIdleConns(maxOpenConns)
	}
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping Postgres: %w", err)
	}
	logger.Info("Successfully connected to Postgres")

	return New(db, logger), nil
}

// New wraps an existing gorm connection
func New(db *gorm.DB, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.Default()
	}
	d := &Database{db: db, logger: logger}
	d.deployments = &DeploymentRepository{d: d}
	d.workers = &WorkerRepository{d: d}
	d.gpus = &GPURepository{d: d}
	d.servers = &ServerRepository{d: d}
	return d
}

// Migrate creates or updates the schema
func (d *Database) Migrate(ctx context.Context) error {
	db := d.db.WithContext(ctx)
	if err := db.AutoMigrate(&GPUServer{}, &GPU{}, &Deployment{}, &DeploymentWorker{}); err != nil {
		return fmt.Errorf("failed to migrate schema: %w", err)
	}

	// At most one running worker per (server, port).
	if err := db.Exec(
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_running_worker_address
		 ON deployment_workers (server_name, port) WHERE status = 'running'`,
	).Error; err != nil {
		return fmt.Errorf("failed to create running address index: %w", err)
	}
	return nil
}

func (d *Database) Deployments() storage.DeploymentRepository { return d.deployments }
func (d *Database) Workers() storage.WorkerRepository         { return d.workers }
func (d *Database) GPUs() storage.GPURepository               { return d.gpus }
func (d *Database) Servers() storage.ServerRepository         { return d.servers }

// GetDB returns a connection bound to ctx
func (d *Database) GetDB(ctx context.Context) *gorm.DB {
	return d.db.WithContext(ctx)
}

// GetDBSession returns the transaction carried by ctx, or a plain connection
func (d *Database) GetDBSession(ctx context.Context) *gorm.DB {
	if s, ok := ctx.Value(sessionKey{}).(*session); ok && s.owner == d {
		return s.tx
	}
	return d.GetDB(ctx)
}

// StartTransaction begins a transaction and stores it in the returned ctx.
// finish commits when passed nil and rolls back otherwise. When ctx already
// carries a transaction it is reused and finish does nothing.
func (d *Database) StartTransaction(ctx context.Context) (context.Context, func(error) error, error) {
	if s, ok := ctx.Value(sessionKey{}).(*session); ok && s.owner == d {
		return ctx, func(err error) error { return err }, nil
	}

	tx := d.GetDB(ctx).Begin()
	if tx.Error != nil {
		return ctx, nil, fmt.Errorf("failed to begin transaction: %w", tx.Error)
	}

	ctx = context.WithValue(ctx, sessionKey{}, &session{owner: d, tx: tx})
	return ctx, func(err error) error {
		if err != nil {
			if rbErr := tx.Rollback().Error; rbErr != nil && !errors.Is(rbErr, gorm.ErrInvalidTransaction) {
				d.logger.Error("Rollback failed", "error", rbErr)
			}
			return err
		}
		if cErr := tx.Commit().Error; cErr != nil {
			return fmt.Errorf("failed to commit transaction: %w", cErr)
		}
		return nil
	}, nil
}

// WithinTx runs fn in one transaction
func (d *Database) WithinTx(ctx context.Context, fn func(ctx context.Context, tx storage.Store) error) (err error) {
	txCtx, finish, err := d.StartTransaction(ctx)
	if err != nil {
		return err
	}

	defer func() {
		if p := recover(); p != nil {
			_ = finish(fmt.Errorf("panic: %v", p))
			panic(p)
		}
	}()

	return finish(fn(txCtx, d))
}

// Close closes the underlying connection pool
func (d *Database) Close() error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// translate maps gorm errors onto domain errors
func translate(err error, what string) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%s: duplicate key: %w", what, domain.ErrInvalidInput)
	case errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%s: %w", what, domain.ErrNotFound)
	default:
		return fmt.Errorf("%w: %s: %v", domain.ErrDatabaseError, what, err)
	}
}
