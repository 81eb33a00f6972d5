// internal/cache/redis.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/memorama/internal/identity"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// DefaultNameTTL is how long a resolved display name stays cached.
const DefaultNameTTL = 10 * time.Minute

const namePrefix = "memorama:name:"

// Connect creates a Redis client and pings it.
func Connect(ctx context.Context, addr string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return rdb, nil
}

// NameCache is a read-through Redis cache in front of a NameSource. Redis
// failures fall back to the source; they never fail a lookup.
type NameCache struct {
	rdb    redis.Cmdable
	source identity.NameSource
	ttl    time.Duration
	logger *logrus.Logger
}

func NewNameCache(rdb redis.Cmdable, source identity.NameSource, ttl time.Duration, logger *logrus.Logger) *NameCache {
	if ttl <= 0 {
		ttl = DefaultNameTTL
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &NameCache{rdb: rdb, source: source, ttl: ttl, logger: logger}
}

func (c *NameCache) DisplayName(ctx context.Context, id uuid.UUID) (string, error) {
	key := namePrefix + id.String()

	name, err := c.rdb.Get(ctx, key).Result()
	if err == nil {
		return name, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.logger.WithFields(logrus.Fields{"user": id.String(), "error": err}).Warn("name cache read failed")
	}

	name, err = c.source.DisplayName(ctx, id)
	if err != nil {
		return "", err
	}
	if err := c.rdb.Set(ctx, key, name, c.ttl).Err(); err != nil {
		c.logger.WithFields(logrus.Fields{"user": id.String(), "error": err}).Warn("name cache write failed")
	}
	return name, nil
}

var _ identity.NameSource = (*NameCache)(nil)
