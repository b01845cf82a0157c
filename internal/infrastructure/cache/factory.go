package cache

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
)

// Guest cart store backends
const (
	GuestStoreRedis  = "redis"
	GuestStoreMemory = "memory"
)

// GuestCartStore is a guest cart store that holds resources
type GuestCartStore interface {
	cart.LocalStore
	io.Closer
}

// GuestCartStoreFactory creates guest cart stores based on configuration
type GuestCartStoreFactory struct {
	redisConfig           RedisConfig
	keyPrefix             string
	ttl                   time.Duration
	logger                *zap.Logger
	allowInMemoryFallback bool
}

// GuestCartStoreFactoryOption configures the factory
type GuestCartStoreFactoryOption func(*GuestCartStoreFactory)

// WithLogger sets the logger for the factory and the stores it creates
func WithLogger(logger *zap.Logger) GuestCartStoreFactoryOption {
	return func(f *GuestCartStoreFactory) {
		f.logger = logger
	}
}

// WithInMemoryFallback controls whether to fall back to the in-memory store
// when Redis is unavailable. Default is true.
func WithInMemoryFallback(allow bool) GuestCartStoreFactoryOption {
	return func(f *GuestCartStoreFactory) {
		f.allowInMemoryFallback = allow
	}
}

// WithKeyPrefix sets the Redis key prefix
func WithKeyPrefix(prefix string) GuestCartStoreFactoryOption {
	return func(f *GuestCartStoreFactory) {
		f.keyPrefix = prefix
	}
}

// WithTTL sets how long an untouched guest cart is kept
func WithTTL(ttl time.Duration) GuestCartStoreFactoryOption {
	return func(f *GuestCartStoreFactory) {
		f.ttl = ttl
	}
}

// NewGuestCartStoreFactory creates a new factory
func NewGuestCartStoreFactory(cfg RedisConfig, opts ...GuestCartStoreFactoryOption) *GuestCartStoreFactory {
	f := &GuestCartStoreFactory{
		redisConfig:           cfg,
		keyPrefix:             defaultGuestKeyPrefix,
		ttl:                   defaultGuestTTL,
		logger:                zap.NewNop(),
		allowInMemoryFallback: true,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// CreateRedisStore connects to Redis and returns a store over it
func (f *GuestCartStoreFactory) CreateRedisStore(ctx context.Context) (*RedisGuestCartStore, error) {
	client, err := NewRedisClient(ctx, f.redisConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis guest cart store: %w", err)
	}
	return NewRedisGuestCartStore(client, f.keyPrefix, f.ttl, f.logger), nil
}

// CreateInMemoryStore returns a process-local store
func (f *GuestCartStoreFactory) CreateInMemoryStore() *InMemoryGuestCartStore {
	return NewInMemoryGuestCartStore(f.ttl, f.logger)
}

// CreateStore returns the store for backend. For redis it falls back to
// memory when Redis is unreachable, unless fallback was disabled.
func (f *GuestCartStoreFactory) CreateStore(ctx context.Context, backend string) (GuestCartStore, error) {
	switch backend {
	case GuestStoreMemory:
		f.logger.Info("using in-memory guest cart store")
		return f.CreateInMemoryStore(), nil
	case GuestStoreRedis, "":
	default:
		return nil, fmt.Errorf("unknown guest cart store %q", backend)
	}

	store, err := f.CreateRedisStore(ctx)
	if err == nil {
		f.logger.Info("using Redis guest cart store")
		return store, nil
	}
	if !f.allowInMemoryFallback {
		return nil, fmt.Errorf("redis required for guest carts but unavailable: %w", err)
	}

	f.logger.Warn("Redis unavailable, falling back to in-memory guest cart store. "+
		"Guest carts will not be shared between instances.",
		zap.Error(err),
	)
	return f.CreateInMemoryStore(), nil
}
