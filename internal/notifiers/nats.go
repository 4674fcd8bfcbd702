package notifiers

import (
	"context"
	"encoding/json"
	"fmt"

	"caseflow.io/caseflow/internal/workflow"
)

// Publisher is the part of *nats.Conn the sink needs.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type NATSSink struct {
	conn   Publisher
	prefix string
}

func NewNATSSink(conn Publisher, subjectPrefix string) *NATSSink {
	return &NATSSink{conn: conn, prefix: subjectPrefix}
}

func (s *NATSSink) Name() string { return "nats" }

// Subject is prefix.<event>, e.g. caseflow.tasks.approved.
func (s *NATSSink) Subject(notice workflow.Notice) string {
	return s.prefix + "." + string(notice.Kind)
}

func (s *NATSSink) Deliver(ctx context.Context, notice workflow.Notice) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	data, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}
	return s.conn.Publish(s.Subject(notice), data)
}
