package cmd

import (
	"context"
	"errors"
	"log/slog"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"caseflow.io/caseflow/internal/metrics"
	"caseflow.io/caseflow/internal/services"
)

var notifierCmd = &cobra.Command{
	Use:   "notifier",
	Short: "Deliver queued notifications",
	Long:  "Drains the Redis notification outbox and delivers each notice to the configured sinks",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, logger, err := loadConfig()
		if err != nil {
			return err
		}
		if !cfg.RedisEnabled {
			return errors.New("notifier requires REDIS_ENABLED=true")
		}

		sinks, closeSinks, err := buildSinks(cfg, logger)
		if err != nil {
			return err
		}
		defer closeSinks()

		outbox, redisClient, err := buildOutbox(cfg)
		if err != nil {
			return err
		}
		defer redisClient.Close()

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if n, err := outbox.Len(ctx); err == nil {
			logger.Info("notifier started", slog.Int64("pending", n), slog.String("key", cfg.RedisOutboxKey))
		} else {
			logger.Warn("outbox unreachable", slog.String("error", err.Error()))
		}

		pool := services.NewPoolService(services.PoolConfig{
			Workers:      cfg.NotifyWorkers,
			QueueSize:    cfg.NotifyQueueSize,
			PollInterval: time.Duration(cfg.NotifyPollIntervalSeconds) * time.Second,
		}, outbox, logger, metrics.New(), sinks...)

		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.ShutdownTimeoutSeconds)*time.Second)
		defer cancel()
		pool.Shutdown(shutdownCtx)

		logger.Info("notifier shut down gracefully")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(notifierCmd)
}
