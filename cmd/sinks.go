package cmd

import (
	"log/slog"

	"github.com/redis/rueidis"

	config "caseflow.io/caseflow/internal/configs"
	"caseflow.io/caseflow/internal/notifiers"
	"caseflow.io/caseflow/internal/queue"
)

// buildSinks wires the log sink plus mail and NATS when configured. The
// returned cleanup closes any connection it opened.
func buildSinks(cfg config.Config, logger *slog.Logger) ([]notifiers.Sink, func(), error) {
	sinks := []notifiers.Sink{notifiers.NewLogSink(logger)}
	cleanup := func() {}

	if cfg.SMTP.Enabled() {
		sinks = append(sinks, notifiers.NewMailSink(notifiers.MailConfig{
			Host:     cfg.SMTP.Host,
			Port:     cfg.SMTP.Port,
			Username: cfg.SMTP.Username,
			Password: cfg.SMTP.Password,
			From:     cfg.SMTP.From,
			Domain:   cfg.MailDomain,
		}))
		logger.Info("mail notifications enabled", slog.String("smtp_host", cfg.SMTP.Host))
	}

	if cfg.NATSURL != "" {
		nc, err := config.NewNATSConnection(cfg.NATSURL)
		if err != nil {
			return nil, cleanup, err
		}
		sinks = append(sinks, notifiers.NewNATSSink(nc, cfg.NATSSubjectPrefix))
		cleanup = func() {
			if err := nc.Drain(); err != nil {
				logger.Warn("nats drain failed", slog.String("error", err.Error()))
			}
		}
		logger.Info("nats notifications enabled", slog.String("subject_prefix", cfg.NATSSubjectPrefix))
	}

	return sinks, cleanup, nil
}

func buildOutbox(cfg config.Config) (queue.Outbox, rueidis.Client, error) {
	if !cfg.RedisEnabled {
		return nil, nil, nil
	}
	client, err := config.NewRedisClient(cfg.RedisAddr)
	if err != nil {
		return nil, nil, err
	}
	return queue.NewRedisOutbox(client, cfg.RedisOutboxKey), client, nil
}
