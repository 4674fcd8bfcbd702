package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

type Config struct {
	AppURL                 string
	DatabaseDSN            string
	RateLimit              int
	ShutdownTimeoutSeconds int
	LogLevel               slog.Level

	JWTSecret       string
	DelegatedReview bool
	ConflictRetries int

	NotifyWorkers             int
	NotifyQueueSize           int
	NotifyPollIntervalSeconds int

	RedisEnabled   bool
	RedisAddr      string
	RedisOutboxKey string

	NATSURL           string
	NATSSubjectPrefix string

	SMTP       SMTPConfig
	MailDomain string
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func (c SMTPConfig) Enabled() bool {
	return c.Host != ""
}

func Load() (Config, error) {
	appHost := getEnv("APP_HOST", "127.0.0.1")
	appPort := getEnv("APP_PORT", "8080")
	redisHost := getEnv("REDIS_HOST", "127.0.0.1")
	redisPort := getEnv("REDIS_PORT", "6379")

	var errs []error
	intVal := func(key string, def int) int {
		v, err := getEnvAsInt(key, def)
		errs = append(errs, err)
		return v
	}
	boolVal := func(key string, def bool) bool {
		v, err := getEnvAsBool(key, def)
		errs = append(errs, err)
		return v
	}

	level, err := parseLevel(getEnv("LOG_LEVEL", "info"))
	errs = append(errs, err)

	cfg := Config{
		AppURL:                 fmt.Sprintf("%s:%s", appHost, appPort),
		DatabaseDSN:            getEnv("DATABASE_DSN", "caseflow.db"),
		RateLimit:              intVal("RATE_LIMIT_PER_MINUTE", 120),
		ShutdownTimeoutSeconds: intVal("SHUTDOWN_TIMEOUT_SECONDS", 20),
		LogLevel:               level,

		JWTSecret:       getEnv("JWT_SECRET", ""),
		DelegatedReview: boolVal("DELEGATED_REVIEW", false),
		ConflictRetries: intVal("CONFLICT_RETRIES", 3),

		NotifyWorkers:             intVal("NOTIFY_WORKERS", 2),
		NotifyQueueSize:           intVal("NOTIFY_QUEUE_SIZE", 100),
		NotifyPollIntervalSeconds: intVal("NOTIFY_POLL_INTERVAL_SECONDS", 2),

		RedisEnabled:   boolVal("REDIS_ENABLED", false),
		RedisAddr:      fmt.Sprintf("%s:%s", redisHost, redisPort),
		RedisOutboxKey: getEnv("REDIS_OUTBOX_KEY", "caseflow:notifications"),

		NATSURL:           getEnv("NATS_URL", ""),
		NATSSubjectPrefix: getEnv("NATS_SUBJECT_PREFIX", "caseflow.tasks"),

		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", ""),
			Port:     intVal("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "caseflow@localhost"),
		},
		MailDomain: getEnv("MAIL_DOMAIN", ""),
	}

	if err := errors.Join(errs...); err != nil {
		return Config{}, err
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	var errs []error
	if cfg.DatabaseDSN == "" {
		errs = append(errs, errors.New("DATABASE_DSN must not be empty"))
	}
	if cfg.RateLimit <= 0 {
		errs = append(errs, errors.New("RATE_LIMIT_PER_MINUTE must be greater than 0"))
	}
	if cfg.ShutdownTimeoutSeconds <= 0 {
		errs = append(errs, errors.New("SHUTDOWN_TIMEOUT_SECONDS must be greater than 0"))
	}
	if cfg.ConflictRetries < 0 {
		errs = append(errs, errors.New("CONFLICT_RETRIES must not be negative"))
	}
	if cfg.NotifyWorkers <= 0 {
		errs = append(errs, errors.New("NOTIFY_WORKERS must be greater than 0"))
	}
	if cfg.NotifyQueueSize <= 0 {
		errs = append(errs, errors.New("NOTIFY_QUEUE_SIZE must be greater than 0"))
	}
	if cfg.NotifyPollIntervalSeconds <= 0 {
		errs = append(errs, errors.New("NOTIFY_POLL_INTERVAL_SECONDS must be greater than 0"))
	}
	if cfg.RedisEnabled && cfg.RedisOutboxKey == "" {
		errs = append(errs, errors.New("REDIS_OUTBOX_KEY must not be empty when REDIS_ENABLED is set"))
	}
	if cfg.SMTP.Enabled() && (cfg.SMTP.Port <= 0 || cfg.MailDomain == "") {
		errs = append(errs, errors.New("SMTP_PORT and MAIL_DOMAIN are required when SMTP_HOST is set"))
	}
	return errors.Join(errs...)
}

// RequireJWTSecret is checked by commands that verify or mint tokens.
func (c Config) RequireJWTSecret() error {
	if len(c.JWTSecret) < 16 {
		return errors.New("JWT_SECRET must be at least 16 characters")
	}
	return nil
}

func getEnv(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) (int, error) {
	if v := os.Getenv(key); v != "" {
		i, err := strconv.Atoi(v)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid integer value for %s", key)
		}
		return i, nil
	}
	return defaultVal, nil
}

func getEnvAsBool(key string, defaultVal bool) (bool, error) {
	if v := os.Getenv(key); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return defaultVal, fmt.Errorf("invalid boolean value for %s", key)
		}
		return b, nil
	}
	return defaultVal, nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q", s)
	}
	return level, nil
}
