package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/JEMeyer/ai-maestro/internal/api"
	"github.com/JEMeyer/ai-maestro/internal/metrics"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the orchestrator HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}
	slog.Info("Starting orchestrator",
		slog.String("service", "ai-maestro"),
		slog.String("version", version),
	)

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	gin.SetMode(cfg.Server.GinMode)

	a, err := newApp(ctx, cfg, slog.Default())
	if err != nil {
		slog.Error("Failed to initialize orchestrator", "error", err)
		return err
	}
	defer a.Close()

	stopJournal, err := a.startJournal(ctx)
	if err != nil {
		return err
	}
	defer stopJournal()

	if cfg.Router.Manage {
		if err := a.sync.Initialize(ctx); err != nil {
			slog.Error("Failed to initialize router container", "error", err)
			return err
		}
	}

	if cfg.Orchestrator.ReconcileOnStart {
		report, err := a.orch.Reconcile(ctx)
		if err != nil {
			slog.Error("Startup reconciliation failed", "error", err)
			return err
		}
		slog.Info("Startup reconciliation finished",
			"running_workers", report.RunningWorkers,
			"orphans", len(report.Orphans),
			"failed_deployments", len(report.Failed))
	}

	reg, err := metrics.NewRegistry(a.ops, metrics.NewFleetCollector(a.db, a.pool, slog.Default()))
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	router := api.NewRouter(api.Dependencies{
		Deployments: a.orch,
		Events:      a.events,
		GPUs:        a.db.GPUs(),
		Servers:     a.db.Servers(),
		Metrics:     metrics.Handler(reg),
	})

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + strconv.Itoa(cfg.Server.Port),
		Handler:      router.Engine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	slog.Info("Orchestrator initialized successfully",
		slog.String("address", srv.Addr),
		slog.String("endpoints", "/api/v1/deployments, /api/v1/gpus, /api/v1/servers"),
	)

	serveErr := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", slog.String("address", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serveErr:
		slog.Error("Failed to start HTTP server", slog.String("error", err.Error()))
		return err
	}

	slog.Info("Shutting down orchestrator...")

	// Give in-flight operations time to complete
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server forced to shutdown", slog.String("error", err.Error()))
		return err
	}

	slog.Info("Orchestrator stopped gracefully")
	return nil
}
