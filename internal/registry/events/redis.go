package events

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/trigg3rX/triggerx-registry/pkg/logging"
	"github.com/trigg3rX/triggerx-registry/pkg/retry"
	"github.com/trigg3rX/triggerx-registry/pkg/types"
)

// StreamAdder is the part of the redis client the stream emitter needs.
type StreamAdder interface {
	XAdd(ctx context.Context, a *redis.XAddArgs) *redis.StringCmd
}

// RedisStreamEmitter appends every event to a redis stream as a JSON entry.
type RedisStreamEmitter struct {
	client      StreamAdder
	stream      string
	maxLen      int64
	retryConfig *retry.RetryConfig
	logger      logging.Logger
}

func NewRedisStreamEmitter(client StreamAdder, stream string, maxLen int64, logger logging.Logger) *RedisStreamEmitter {
	return &RedisStreamEmitter{
		client:      client,
		stream:      stream,
		maxLen:      maxLen,
		retryConfig: retry.DefaultRetryConfig(),
		logger:      logger,
	}
}

// WithRetryConfig replaces the retry policy used for each append.
func (r *RedisStreamEmitter) WithRetryConfig(cfg *retry.RetryConfig) *RedisStreamEmitter {
	r.retryConfig = cfg
	return r
}

func (r *RedisStreamEmitter) Emit(ctx context.Context, events []types.Event) error {
	for _, ev := range events {
		payload, err := json.Marshal(ev)
		if err != nil {
			return fmt.Errorf("failed to marshal event %s: %w", ev.Name, err)
		}
		args := &redis.XAddArgs{
			Stream: r.stream,
			MaxLen: r.maxLen,
			Approx: r.maxLen > 0,
			Values: map[string]interface{}{
				"name":       string(ev.Name),
				"task_id":    ev.TaskID,
				"height":     ev.Height,
				"event":      payload,
				"created_at": time.Now().Unix(),
			},
		}
		id, err := retry.Retry(ctx, func() (string, error) {
			return r.client.XAdd(ctx, args).Result()
		}, r.retryConfig, r.logger)
		if err != nil {
			r.logger.Error("Failed to add event to stream", "stream", r.stream, "event", ev.Name, "error", err)
			return fmt.Errorf("failed to add event %s to stream %s: %w", ev.Name, r.stream, err)
		}
		r.logger.Debug("Event added to stream", "stream", r.stream, "event", ev.Name, "id", id)
	}
	return nil
}
