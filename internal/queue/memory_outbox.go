package queue

import (
	"context"
	"sync"

	"caseflow.io/caseflow/internal/workflow"
)

// MemoryOutbox is an in-process Outbox for tests and single-node setups
// without Redis.
type MemoryOutbox struct {
	mu      sync.Mutex
	notices []workflow.Notice
}

func NewMemoryOutbox() *MemoryOutbox {
	return &MemoryOutbox{}
}

func (m *MemoryOutbox) Push(_ context.Context, notice workflow.Notice) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.notices = append(m.notices, notice)
	return nil
}

func (m *MemoryOutbox) Pop(_ context.Context) (workflow.Notice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.notices) == 0 {
		return workflow.Notice{}, ErrOutboxEmpty
	}
	n := m.notices[0]
	m.notices = m.notices[1:]
	return n, nil
}

func (m *MemoryOutbox) Len(_ context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return int64(len(m.notices)), nil
}
