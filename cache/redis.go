package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by GetJSON when the key is absent.
var ErrMiss = errors.New("cache miss")

// releaseScript deletes a lock only while it still holds our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisCache holds the job lock and cached league standings.
type RedisCache struct {
	client *redis.Client

	mu     sync.Mutex
	tokens map[string]string
}

// NewRedisCache creates a new Redis cache connection
func NewRedisCache(redisURL string) (*RedisCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("ping redis: %w", err)
	}

	return NewWithClient(client), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client) *RedisCache {
	return &RedisCache{client: client, tokens: map[string]string{}}
}

// Close closes the Redis connection
func (rc *RedisCache) Close() error {
	return rc.client.Close()
}

// HealthCheck pings Redis to verify connection
func (rc *RedisCache) HealthCheck(ctx context.Context) error {
	return rc.client.Ping(ctx).Err()
}

// Acquire takes a named lock for ttl. It reports false when another holder
// has it.
func (rc *RedisCache) Acquire(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	token := uuid.NewString()
	ok, err := rc.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil || !ok {
		return false, err
	}
	rc.mu.Lock()
	rc.tokens[key] = token
	rc.mu.Unlock()
	return true, nil
}

// Release drops a lock taken with Acquire. A lock that expired and was
// taken by someone else is left alone.
func (rc *RedisCache) Release(ctx context.Context, key string) error {
	rc.mu.Lock()
	token, ok := rc.tokens[key]
	delete(rc.tokens, key)
	rc.mu.Unlock()
	if !ok {
		return nil
	}
	return releaseScript.Run(ctx, rc.client, []string{key}, token).Err()
}

// SetJSON stores v encoded as JSON with a TTL.
func (rc *RedisCache) SetJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	return rc.client.Set(ctx, key, data, ttl).Err()
}

// GetJSON decodes the value at key into v.
func (rc *RedisCache) GetJSON(ctx context.Context, key string, v interface{}) error {
	data, err := rc.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

// Delete removes keys, typically after the data behind them changed.
func (rc *RedisCache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return rc.client.Del(ctx, keys...).Err()
}

// DeletePattern removes every key matching pattern.
func (rc *RedisCache) DeletePattern(ctx context.Context, pattern string) error {
	iter := rc.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	return rc.Delete(ctx, keys...)
}

// StandingsKey is the cache key of a league table.
func StandingsKey(leagueID int64) string {
	return fmt.Sprintf("standings:%d", leagueID)
}
