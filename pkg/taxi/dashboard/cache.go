package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/aware37/projet-big-data-cytech-25-taxi/pkg/taxi/support/util/exception"
)

const cacheKeyPrefix = "taxi:dashboard:"

// Cache stores encoded query results. Get reports whether key was found.
type Cache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Close() error
}

// CacheKey identifies the result of query name for a normalized month selection.
func CacheKey(name string, months []string) string {
	return cacheKeyPrefix + name + ":" + strings.Join(months, ",")
}

// RedisCache is a Cache backed by Redis, values stored as JSON.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects to url (redis://[:password@]host:port/db). The
// connection is not checked until first use.
func NewRedisCache(url string) (*RedisCache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, exception.New(exception.KindConfig, moduleName, "invalid redis_url", err)
	}
	return &RedisCache{client: redis.NewClient(opts)}, nil
}

func (c *RedisCache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	val, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(val, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, data, ttl).Err()
}

func (c *RedisCache) Close() error {
	return c.client.Close()
}

// NoCache never stores anything.
type NoCache struct{}

func (NoCache) Get(context.Context, string, interface{}) (bool, error)          { return false, nil }
func (NoCache) Set(context.Context, string, interface{}, time.Duration) error { return nil }
func (NoCache) Close() error                                                  { return nil }

var (
	_ Cache = (*RedisCache)(nil)
	_ Cache = NoCache{}
)
