package results

import (
	"context"
	"fmt"

	"github.com/jason-s-yu/memorama/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultQueue is the Redis list the statistics consumer pops from.
const DefaultQueue = "memorama_results"

// RedisRecorder pushes each result as JSON onto a Redis list.
type RedisRecorder struct {
	rdb   redis.Cmdable
	queue string
}

func NewRedisRecorder(rdb redis.Cmdable, queue string) *RedisRecorder {
	if queue == "" {
		queue = DefaultQueue
	}
	return &RedisRecorder{rdb: rdb, queue: queue}
}

func (r *RedisRecorder) Record(ctx context.Context, result models.MatchResult) error {
	data, err := encode(result)
	if err != nil {
		return err
	}
	if err := r.rdb.RPush(ctx, r.queue, data).Err(); err != nil {
		return fmt.Errorf("failed to RPush to Redis list '%s': %w", r.queue, err)
	}
	return nil
}
