package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	redis "github.com/redis/go-redis/v9"
)

// Deduper remembers keys for a limited time.
type Deduper interface {
	// Claim reports whether key was unclaimed, claiming it for ttl.
	Claim(ctx context.Context, key string, ttl time.Duration) (bool, error)
}

type MemoryDeduper struct {
	clock clockwork.Clock

	mu      sync.Mutex
	expires map[string]time.Time
}

func NewMemoryDeduper(clock clockwork.Clock) *MemoryDeduper {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	return &MemoryDeduper{
		clock:   clock,
		expires: map[string]time.Time{},
	}
}

func (d *MemoryDeduper) Claim(_ context.Context, key string, ttl time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	now := d.clock.Now()

	for k, expiry := range d.expires {
		if !now.Before(expiry) {
			delete(d.expires, k)
		}
	}

	if _, ok := d.expires[key]; ok {
		return false, nil
	}

	d.expires[key] = now.Add(ttl)

	return true, nil
}

const redisKeyPrefix = "taskflow:due:"

// RedisDeduper shares claims between scheduler replicas.
type RedisDeduper struct {
	client redis.UniversalClient
}

func NewRedisDeduper(client redis.UniversalClient) *RedisDeduper {
	return &RedisDeduper{client: client}
}

// NewRedisDeduperFromURL connects to a redis:// URL and pings the server.
func NewRedisDeduperFromURL(ctx context.Context, url string) (*RedisDeduper, error) {
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}

	client := redis.NewClient(options)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()

		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisDeduper(client), nil
}

func (d *RedisDeduper) Claim(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := d.client.SetNX(ctx, redisKeyPrefix+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}

	return ok, nil
}

func (d *RedisDeduper) Close() error {
	return d.client.Close()
}
