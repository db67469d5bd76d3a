package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/studioops/videopilot/pkg/models"
)

// Cache is the shared operation-store and caching interface. Render-operation
// descriptors live here rather than in process memory so every serving process
// observes the same state; entries carry a fixed TTL and simply disappear once
// it elapses. Implementations must be safe for concurrent use.
type Cache interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
	PutOperation(ctx context.Context, op *models.Operation, ttl time.Duration) error
	GetOperation(ctx context.Context, name string) (*models.Operation, bool, error)
	IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error)
}

// RedisCache implements the Cache interface using go-redis/v9.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a new RedisCache from a Redis URL.
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return val, true, nil
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.client.Del(ctx, key).Err()
}

// PutOperation stores the descriptor under its operation name with the given
// TTL. Callers rewriting a descriptor pass the remaining lifetime, not a fresh
// one: expiry stays anchored to SubmittedAt regardless of how often the
// operation is polled.
func (c *RedisCache) PutOperation(ctx context.Context, op *models.Operation, ttl time.Duration) error {
	data, err := json.Marshal(op)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, OperationKey(op.Name), data, ttl).Err()
}

// GetOperation returns the descriptor for an operation name. An expired or
// never-written descriptor is reported as absent, not as an error.
func (c *RedisCache) GetOperation(ctx context.Context, name string) (*models.Operation, bool, error) {
	val, err := c.client.Get(ctx, OperationKey(name)).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	var op models.Operation
	if err := json.Unmarshal(val, &op); err != nil {
		return nil, false, err
	}
	return &op, true, nil
}

func (c *RedisCache) IncrWithExpiry(ctx context.Context, key string, expiry time.Duration) (int64, error) {
	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.Expire(ctx, key, expiry)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}

var _ Cache = (*RedisCache)(nil)
