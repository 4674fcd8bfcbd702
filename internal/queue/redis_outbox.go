package queue

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/rueidis"

	"caseflow.io/caseflow/internal/workflow"
)

type RedisOutbox struct {
	client rueidis.Client
	key    string
}

func NewRedisOutbox(client rueidis.Client, key string) *RedisOutbox {
	return &RedisOutbox{
		client: client,
		key:    key,
	}
}

func (r *RedisOutbox) Push(ctx context.Context, notice workflow.Notice) error {
	payload, err := json.Marshal(notice)
	if err != nil {
		return fmt.Errorf("encode notice: %w", err)
	}

	cmd := r.client.B().Rpush().Key(r.key).Element(string(payload)).Build()
	return r.client.Do(ctx, cmd).Error()
}

func (r *RedisOutbox) Pop(ctx context.Context) (workflow.Notice, error) {
	cmd := r.client.B().Lpop().Key(r.key).Build()
	raw, err := r.client.Do(ctx, cmd).ToString()
	if err != nil {
		if rueidis.IsRedisNil(err) {
			return workflow.Notice{}, ErrOutboxEmpty
		}
		return workflow.Notice{}, err
	}

	var notice workflow.Notice
	if err := json.Unmarshal([]byte(raw), &notice); err != nil {
		return workflow.Notice{}, fmt.Errorf("decode notice: %w", err)
	}
	return notice, nil
}

func (r *RedisOutbox) Len(ctx context.Context) (int64, error) {
	cmd := r.client.B().Llen().Key(r.key).Build()
	return r.client.Do(ctx, cmd).AsInt64()
}
