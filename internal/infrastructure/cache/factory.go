// Package cache provides the purchase idempotency store and the memo store
// used by the batch pipeline, in memory or backed by Redis.
package cache

import (
	"context"
	"encoding/hex"
	"fmt"

	"github.com/erp/bulkship/internal/domain/shipment"
	"github.com/erp/bulkship/internal/infrastructure/config"
	"go.uber.org/zap"
	"golang.org/x/crypto/blake2b"
)

// Stores bundles the stores a batch service needs
type Stores struct {
	Idempotency shipment.IdempotencyStore
	Memo        shipment.MemoStore
}

// Close closes both stores
func (s Stores) Close() error {
	var firstErr error
	for _, c := range []interface{ Close() error }{s.Idempotency, s.Memo} {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Factory creates stores based on configuration
type Factory struct {
	cfg                   config.RedisConfig
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// FactoryOption is a functional option for configuring the factory
type FactoryOption func(*Factory)

// WithLogger sets the logger for the factory
func WithLogger(logger *zap.Logger) FactoryOption {
	return func(f *Factory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to in-memory stores when Redis is unavailable.
// Default is true
func WithInMemoryFallback(allow bool) FactoryOption {
	return func(f *Factory) {
		f.allowInMemoryFallback = allow
	}
}

// NewFactory creates a new store factory
func NewFactory(cfg config.RedisConfig, opts ...FactoryOption) *Factory {
	f := &Factory{
		cfg:                   cfg,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// InMemory returns process-local stores
func (f *Factory) InMemory() Stores {
	return Stores{
		Idempotency: NewInMemoryIdempotencyStore(),
		Memo:        NewInMemoryMemoStore(),
	}
}

// Create returns Redis-backed stores when Redis is enabled and reachable.
// Otherwise it falls back to in-memory stores if allowed.
func (f *Factory) Create(ctx context.Context) (Stores, error) {
	if !f.cfg.Enabled {
		f.logger.Debug("Redis disabled, using in-memory stores")
		return f.InMemory(), nil
	}

	client, err := NewRedisClient(ctx, f.cfg)
	if err != nil {
		if !f.allowInMemoryFallback {
			return Stores{}, fmt.Errorf("failed to create Redis stores: %w", err)
		}
		f.logger.Warn("Redis unavailable, falling back to in-memory stores",
			zap.String("addr", f.cfg.Addr()),
			zap.Error(err),
		)
		return f.InMemory(), nil
	}

	f.logger.Info("Using Redis stores",
		zap.String("addr", f.cfg.Addr()),
		zap.String("key_prefix", f.cfg.KeyPrefix),
	)
	// Both stores share one client; only the idempotency store closes it.
	return Stores{
		Idempotency: NewRedisIdempotencyStore(client, f.cfg.KeyPrefix),
		Memo:        sharedClientMemo{NewRedisMemoStore(client, f.cfg.KeyPrefix)},
	}, nil
}

// sharedClientMemo leaves closing the client to its owner
type sharedClientMemo struct {
	*RedisMemoStore
}

func (sharedClientMemo) Close() error { return nil }

// ContentKey hashes parts into a fixed-length memo key. Parts are
// length-prefixed so ("ab","c") and ("a","bc") differ.
func ContentKey(namespace string, parts ...string) string {
	h, _ := blake2b.New256(nil)
	for _, p := range parts {
		fmt.Fprintf(h, "%d:%s|", len(p), p)
	}
	return namespace + ":" + hex.EncodeToString(h.Sum(nil))
}
