package queue

import (
	"context"
	"errors"

	"caseflow.io/caseflow/internal/workflow"
)

// Outbox is a durable FIFO of notices waiting for delivery.
type Outbox interface {
	Push(ctx context.Context, notice workflow.Notice) error

	// Pop returns ErrOutboxEmpty when nothing is waiting.
	Pop(ctx context.Context) (workflow.Notice, error)

	Len(ctx context.Context) (int64, error)
}

var ErrOutboxEmpty = errors.New("notification outbox is empty")
