package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/erp/wmsconnector/internal/domain/wms"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultGuardKeyPrefix namespaces guard keys in a shared Redis
const DefaultGuardKeyPrefix = "wmsconnector:guard:"

// releaseScript deletes the key only while it still holds our token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisPushGuard implements wms.PushGuard with SET NX leases in Redis.
// It serializes pushes across every connector instance sharing the Redis.
type RedisPushGuard struct {
	client    *redis.Client
	keyPrefix string

	mu     sync.Mutex
	tokens map[string]string
}

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisPushGuard connects to Redis and verifies the connection
func NewRedisPushGuard(cfg RedisConfig) (*RedisPushGuard, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return NewRedisPushGuardWithClient(client, DefaultGuardKeyPrefix), nil
}

// NewRedisPushGuardWithClient creates a guard with an existing Redis client
func NewRedisPushGuardWithClient(client *redis.Client, keyPrefix string) *RedisPushGuard {
	if keyPrefix == "" {
		keyPrefix = DefaultGuardKeyPrefix
	}
	return &RedisPushGuard{
		client:    client,
		keyPrefix: keyPrefix,
		tokens:    make(map[string]string),
	}
}

// Acquire sets the key with a fresh token if it does not exist
func (g *RedisPushGuard) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()

	ok, err := g.client.SetNX(ctx, g.keyPrefix+key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to acquire push guard %s: %w", key, err)
	}
	if !ok {
		return false, nil
	}

	g.mu.Lock()
	g.tokens[key] = token
	g.mu.Unlock()
	return true, nil
}

// Release deletes the key if this guard still owns it.
// A lease that expired and was taken by another worker is left alone.
func (g *RedisPushGuard) Release(ctx context.Context, key string) error {
	g.mu.Lock()
	token, owned := g.tokens[key]
	delete(g.tokens, key)
	g.mu.Unlock()

	if !owned {
		return nil
	}

	if err := releaseScript.Run(ctx, g.client, []string{g.keyPrefix + key}, token).Err(); err != nil {
		return fmt.Errorf("failed to release push guard %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (g *RedisPushGuard) Close() error {
	return g.client.Close()
}

var _ wms.PushGuard = (*RedisPushGuard)(nil)
