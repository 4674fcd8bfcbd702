package queue

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"caseflow.io/caseflow/internal/workflow"
)

func TestMemoryOutbox_FIFO(t *testing.T) {
	ctx := context.Background()
	outbox := NewMemoryOutbox()

	_, err := outbox.Pop(ctx)
	assert.ErrorIs(t, err, ErrOutboxEmpty)

	require.NoError(t, outbox.Push(ctx, workflow.Notice{TaskID: "t1"}))
	require.NoError(t, outbox.Push(ctx, workflow.Notice{TaskID: "t2"}))

	n, err := outbox.Len(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	first, err := outbox.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t1", first.TaskID)

	second, err := outbox.Pop(ctx)
	require.NoError(t, err)
	assert.Equal(t, "t2", second.TaskID)
}
