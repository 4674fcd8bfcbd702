package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"

	"caseflow.io/caseflow/internal/auth"
	config "caseflow.io/caseflow/internal/configs"
	httpapi "caseflow.io/caseflow/internal/http"
	"caseflow.io/caseflow/internal/metrics"
	repository "caseflow.io/caseflow/internal/repositories"
	"caseflow.io/caseflow/internal/services"
	"caseflow.io/caseflow/internal/workflow"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API server",
	Long:  "Starts the task workflow HTTP API and the notification worker pool",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if err := cfg.RequireJWTSecret(); err != nil {
			return err
		}

		database, err := config.NewDatabaseClient(cfg.DatabaseDSN)
		if err != nil {
			return err
		}
		taskRepo := repository.NewTaskRepository(database)

		sinks, closeSinks, err := buildSinks(cfg, logger)
		if err != nil {
			return err
		}
		defer closeSinks()

		outbox, redisClient, err := buildOutbox(cfg)
		if err != nil {
			return err
		}
		if redisClient != nil {
			defer redisClient.Close()
		}

		m := metrics.New()
		pool := services.NewPoolService(services.PoolConfig{
			Workers:      cfg.NotifyWorkers,
			QueueSize:    cfg.NotifyQueueSize,
			PollInterval: time.Duration(cfg.NotifyPollIntervalSeconds) * time.Second,
			PushToOutbox: outbox != nil,
		}, outbox, logger, m, sinks...)

		engine := workflow.NewEngine(workflow.Policy{DelegatedReview: cfg.DelegatedReview})
		taskService := services.NewTaskService(taskRepo, engine, pool, logger, m, cfg.ConflictRetries)

		e := echo.New()
		e.HidePort = true
		httpapi.Register(e, httpapi.NewHandler(taskService), auth.NewSigner(cfg.JWTSecret), m, logger, cfg.RateLimit)

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		go func() {
			logger.Info("HTTP server listening", slog.String("addr", cfg.AppURL))
			if err := e.Start(cfg.AppURL); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error("server stopped", slog.String("error", err.Error()))
				stop()
			}
		}()

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()

		if err := e.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", slog.String("error", err.Error()))
		}
		pool.Shutdown(shutdownCtx)

		logger.Info("HTTP server and notification pool shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
