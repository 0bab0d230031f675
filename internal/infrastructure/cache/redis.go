package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

const (
	idempotencyNamespace = "purchase:"
	memoNamespace        = "memo:"
)

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(ctx context.Context, cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", cfg.Addr(), err)
	}
	return client, nil
}

// RedisIdempotencyStore implements IdempotencyStore using Redis.
// Claims are shared by every process using the same server and prefix.
type RedisIdempotencyStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisIdempotencyStore creates a store on an existing client
func NewRedisIdempotencyStore(client *redis.Client, keyPrefix string) *RedisIdempotencyStore {
	return &RedisIdempotencyStore{
		client:    client,
		keyPrefix: keyPrefix + idempotencyNamespace,
	}
}

// MarkProcessed claims key with SETNX and a TTL in one atomic operation
func (s *RedisIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, s.keyPrefix+key, "1", ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to claim %s: %w", key, err)
	}
	return ok, nil
}

// IsProcessed checks if key is claimed
func (s *RedisIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	n, err := s.client.Exists(ctx, s.keyPrefix+key).Result()
	if err != nil {
		return false, fmt.Errorf("failed to check claim %s: %w", key, err)
	}
	return n > 0, nil
}

// Release drops the claim on key
func (s *RedisIdempotencyStore) Release(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to release claim %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisIdempotencyStore) Close() error {
	return s.client.Close()
}

// RedisMemoStore implements MemoStore using Redis
type RedisMemoStore struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisMemoStore creates a memo store on an existing client
func NewRedisMemoStore(client *redis.Client, keyPrefix string) *RedisMemoStore {
	return &RedisMemoStore{
		client:    client,
		keyPrefix: keyPrefix + memoNamespace,
	}
}

// Get returns the cached value
func (s *RedisMemoStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	b, err := s.client.Get(ctx, s.keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read memo %s: %w", key, err)
	}
	return b, true, nil
}

// Set stores value with a TTL
func (s *RedisMemoStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write memo %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client
func (s *RedisMemoStore) Close() error {
	return s.client.Close()
}

var (
	_ shipment.IdempotencyStore = (*RedisIdempotencyStore)(nil)
	_ shipment.MemoStore        = (*RedisMemoStore)(nil)
)
