// Package notifiers delivers workflow notices to people and other systems.
package notifiers

import (
	"context"
	"log/slog"

	"caseflow.io/caseflow/internal/workflow"
)

type Sink interface {
	Name() string
	Deliver(ctx context.Context, notice workflow.Notice) error
}

type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Name() string { return "log" }

func (s *LogSink) Deliver(ctx context.Context, notice workflow.Notice) error {
	s.logger.InfoContext(ctx, "task notice",
		slog.String("event", string(notice.Kind)),
		slog.String("task_id", notice.TaskID),
		slog.String("actor", notice.ActorID),
		slog.Any("recipients", notice.Recipients),
	)
	return nil
}
