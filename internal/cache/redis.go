package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"

	"github.com/sells-group/hotleads/internal/resilience"
)

// dialRetry covers a Redis container that is still starting when the CLI runs.
var dialRetry = resilience.RetryConfig{
	MaxAttempts: 3,
	Delay:       500 * time.Millisecond,
	OnRetry:     resilience.RetryLogger("redis", "ping"),
}

// Redis is a Cache backed by a shared Redis server. Keys are namespaced by
// prefix so purging one cache leaves the others intact.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis wraps client, storing keys under "hotleads:<namespace>:".
func NewRedis(client *redis.Client, namespace string) *Redis {
	return &Redis{client: client, prefix: "hotleads:" + namespace + ":"}
}

// DialRedis parses url, connects and pings the server, retrying transient
// connection failures.
func DialRedis(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse redis url")
	}
	client := redis.NewClient(opts)
	err = resilience.Do(ctx, dialRetry, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})
	if err != nil {
		client.Close() //nolint:errcheck
		return nil, eris.Wrap(err, "cache: redis ping")
	}
	return client, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, eris.Wrap(err, "cache: redis get")
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return eris.Wrap(r.client.Set(ctx, r.prefix+key, value, ttl).Err(), "cache: redis set")
}

func (r *Redis) Purge(ctx context.Context) error {
	iter := r.client.Scan(ctx, 0, r.prefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return eris.Wrap(err, "cache: redis scan")
	}
	if len(keys) == 0 {
		return nil
	}
	return eris.Wrap(r.client.Del(ctx, keys...).Err(), "cache: redis purge")
}
