package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
)

const (
	defaultGuestKeyPrefix = "cart:guest:"
	defaultGuestTTL       = 30 * 24 * time.Hour
)

// RedisGuestCartStore keeps guest carts in Redis, one JSON value per session.
// Storage failures are logged and never surfaced: a guest whose cart cannot
// be read sees an empty cart.
type RedisGuestCartStore struct {
	client    *redis.Client
	keyPrefix string
	ttl       time.Duration
	logger    *zap.Logger
}

var _ cart.LocalStore = (*RedisGuestCartStore)(nil)

// RedisConfig holds Redis connection configuration
type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

// NewRedisClient connects to Redis and verifies the connection
func NewRedisClient(ctx context.Context, cfg RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// NewRedisGuestCartStore creates a store over an existing client. Empty
// prefix and zero TTL select the defaults.
func NewRedisGuestCartStore(client *redis.Client, keyPrefix string, ttl time.Duration, logger *zap.Logger) *RedisGuestCartStore {
	if keyPrefix == "" {
		keyPrefix = defaultGuestKeyPrefix
	}
	if ttl <= 0 {
		ttl = defaultGuestTTL
	}
	return &RedisGuestCartStore{
		client:    client,
		keyPrefix: keyPrefix,
		ttl:       ttl,
		logger:    logger.Named("guest_cart"),
	}
}

func (s *RedisGuestCartStore) key(sessionID string) string {
	return s.keyPrefix + sessionID
}

// Load returns the session's guest cart
func (s *RedisGuestCartStore) Load(ctx context.Context, sessionID string) cart.Snapshot {
	data, err := s.client.Get(ctx, s.key(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return cart.EmptySnapshot()
	}
	if err != nil {
		s.logger.Warn("failed to read guest cart", zap.String("session_id", sessionID), zap.Error(err))
		return cart.EmptySnapshot()
	}

	snapshot, backfilled, err := decodeGuestCart(data)
	if err != nil {
		s.logger.Warn("discarding unreadable guest cart", zap.String("session_id", sessionID), zap.Error(err))
		return cart.EmptySnapshot()
	}
	if backfilled {
		s.Save(ctx, sessionID, snapshot)
	}
	return snapshot
}

// Save replaces the session's guest cart and renews its expiry
func (s *RedisGuestCartStore) Save(ctx context.Context, sessionID string, snapshot cart.Snapshot) {
	data, err := encodeGuestCart(snapshot)
	if err != nil {
		s.logger.Error("failed to encode guest cart", zap.String("session_id", sessionID), zap.Error(err))
		return
	}
	if err := s.client.Set(ctx, s.key(sessionID), data, s.ttl).Err(); err != nil {
		s.logger.Warn("failed to write guest cart", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Clear removes the session's guest cart
func (s *RedisGuestCartStore) Clear(ctx context.Context, sessionID string) {
	if err := s.client.Del(ctx, s.key(sessionID)).Err(); err != nil {
		s.logger.Warn("failed to clear guest cart", zap.String("session_id", sessionID), zap.Error(err))
	}
}

// Ping reports whether Redis is reachable
func (s *RedisGuestCartStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisGuestCartStore) Close() error {
	return s.client.Close()
}
