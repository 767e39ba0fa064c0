package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vietddude/queryproxy/internal/core/domain"
)

// Redis is a Store backed by Redis; expiry is delegated to the server TTL.
type Redis struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedis creates a Redis-backed cache and verifies connectivity.
func NewRedis(cfg Config) (*Redis, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if cfg.RedisPassword != "" {
		opts.Password = cfg.RedisPassword
	}

	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	ttl := cfg.TTL
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Redis{rdb: rdb, ttl: ttl}, nil
}

func (r *Redis) Get(ctx context.Context, key string) (*domain.QueryResult, bool, error) {
	val, err := r.rdb.Get(ctx, redisKey(key)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get failed: %w", err)
	}

	var result domain.QueryResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, false, fmt.Errorf("corrupt cache entry: %w", err)
	}
	return &result, true, nil
}

func (r *Redis) Put(ctx context.Context, key string, result *domain.QueryResult) error {
	encoded, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err := r.rdb.Set(ctx, redisKey(key), encoded, r.ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.rdb.Close()
}

// redisKey hashes the statement-derived key; SQL text is arbitrarily long and
// should not appear verbatim in the keyspace.
func redisKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return "queryproxy:result:" + hex.EncodeToString(sum[:])
}
