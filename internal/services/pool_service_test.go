package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow.io/caseflow/internal/constants"
	apperrors "caseflow.io/caseflow/internal/errors"
	"caseflow.io/caseflow/internal/metrics"
	"caseflow.io/caseflow/internal/queue"
	"caseflow.io/caseflow/internal/workflow"
)

type fakeSink struct {
	name string
	err  error

	mu       sync.Mutex
	received []workflow.Notice
}

func (s *fakeSink) Name() string { return s.name }

func (s *fakeSink) Deliver(_ context.Context, n workflow.Notice) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.received = append(s.received, n)
	return s.err
}

func (s *fakeSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.received)
}

func notice(taskID string) workflow.Notice {
	return workflow.Notice{
		Kind:       constants.NoticeApproved,
		TaskID:     taskID,
		Recipients: []string{"associate-a"},
		OccurredAt: time.Now().UTC(),
	}
}

func TestPoolService_DeliversToEverySink(t *testing.T) {
	broken := &fakeSink{name: "mail", err: errors.New("connection refused")}
	logSink := &fakeSink{name: "log"}
	pool := NewPoolService(PoolConfig{Workers: 2, QueueSize: 10}, nil, discardLogger(), metrics.New(), broken, logSink)

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, pool.Enqueue(context.Background(), notice(id)))
	}

	assert.Eventually(t, func() bool {
		return broken.count() == 3 && logSink.count() == 3
	}, time.Second, 10*time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	pool.Shutdown(ctx)
}

func TestPoolService_QueueFull(t *testing.T) {
	pool := NewPoolService(PoolConfig{Workers: 0, QueueSize: 1}, nil, discardLogger(), metrics.New())

	require.NoError(t, pool.Enqueue(context.Background(), notice("t1")))
	err := pool.Enqueue(context.Background(), notice("t2"))
	assert.ErrorIs(t, err, apperrors.ErrNotificationQueueFull)

	pool.Shutdown(context.Background())
}

func TestPoolService_EnqueueAfterShutdown(t *testing.T) {
	pool := NewPoolService(PoolConfig{Workers: 1, QueueSize: 1}, nil, discardLogger(), metrics.New())
	pool.Shutdown(context.Background())

	err := pool.Enqueue(context.Background(), notice("t1"))
	assert.ErrorIs(t, err, apperrors.ErrNotificationQueueFull)
}

func TestPoolService_OutboxDrain(t *testing.T) {
	ctx := context.Background()
	outbox := queue.NewMemoryOutbox()
	pool := NewPoolService(PoolConfig{
		Workers:      0,
		QueueSize:    2,
		PollInterval: time.Hour,
		PushToOutbox: true,
	}, outbox, discardLogger(), metrics.New())
	defer pool.Shutdown(ctx)

	for _, id := range []string{"t1", "t2", "t3"} {
		require.NoError(t, pool.Enqueue(ctx, notice(id)))
	}
	n, err := outbox.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	assert.Equal(t, 2, pool.drainOnce(ctx))

	n, err = outbox.Len(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
	assert.Equal(t, "t1", (<-pool.queue).TaskID)

	assert.Equal(t, 1, pool.drainOnce(ctx))
	assert.Equal(t, "t2", (<-pool.queue).TaskID)
	assert.Equal(t, "t3", (<-pool.queue).TaskID)
}
