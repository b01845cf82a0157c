package cli

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/identity"
	"github.com/storefront/backend/internal/infrastructure/logger"
	"github.com/storefront/backend/internal/infrastructure/persistence"
)

// TokenMinter signs access tokens for a user id.
type TokenMinter interface {
	Mint(userID string) (string, time.Time, error)
}

// Backend gives commands access to the cart stores. Stores are opened on
// first use so commands only connect to what they touch.
type Backend interface {
	LocalStore(ctx context.Context) (cart.LocalStore, error)
	RemoteStore(ctx context.Context) (cart.RemoteStore, error)
	Tokens() (TokenMinter, error)
	Logger() *zap.Logger
	Close() error
}

// BackendOpener creates the backend for one command invocation.
type BackendOpener func(ctx context.Context) (Backend, error)

// OpenFromConfig builds a Backend from the server configuration
// (config.toml and SHOP_* variables).
func OpenFromConfig(ctx context.Context) (Backend, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	log, err := logger.New(&logger.Config{Level: "warn", Format: "console", Output: "stderr"})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return &configBackend{cfg: cfg, log: log}, nil
}

type configBackend struct {
	cfg *config.Config
	log *zap.Logger

	mu     sync.Mutex
	local  cache.GuestCartStore
	db     *persistence.Database
	remote cart.RemoteStore
}

// LocalStore connects to Redis. cartctl never falls back to memory: a
// process-local guest store would not see the server's carts.
func (b *configBackend) LocalStore(ctx context.Context) (cart.LocalStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.local != nil {
		return b.local, nil
	}
	factory := cache.NewGuestCartStoreFactory(
		cache.RedisConfig{
			Host:     b.cfg.Redis.Host,
			Port:     b.cfg.Redis.Port,
			Password: b.cfg.Redis.Password,
			DB:       b.cfg.Redis.DB,
		},
		cache.WithLogger(b.log),
		cache.WithInMemoryFallback(false),
		cache.WithKeyPrefix(b.cfg.Cart.GuestKeyPrefix),
		cache.WithTTL(b.cfg.Cart.GuestTTL),
	)
	store, err := factory.CreateRedisStore(ctx)
	if err != nil {
		return nil, err
	}
	b.local = store
	return store, nil
}

func (b *configBackend) RemoteStore(_ context.Context) (cart.RemoteStore, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.remote != nil {
		return b.remote, nil
	}
	gormLog := logger.NewGormLogger(b.log, logger.MapGormLogLevel("warn"))
	db, err := persistence.NewDatabase(&b.cfg.Database, persistence.WithLogger(gormLog))
	if err != nil {
		return nil, err
	}
	b.db = db
	b.remote = persistence.NewGormCartLineRepository(db.DB)
	return b.remote, nil
}

func (b *configBackend) Tokens() (TokenMinter, error) {
	if b.cfg.JWT.Secret == "" {
		return nil, errors.New("jwt secret is not configured")
	}
	return identity.NewTokenVerifier(b.cfg.JWT), nil
}

func (b *configBackend) Logger() *zap.Logger {
	return b.log
}

func (b *configBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	var errs []error
	if b.local != nil {
		errs = append(errs, b.local.Close())
	}
	if b.db != nil {
		errs = append(errs, b.db.Close())
	}
	_ = logger.Sync(b.log)
	return errors.Join(errs...)
}

// withBackend opens the backend, runs fn and closes it.
func withBackend(cmd interface{ Context() context.Context }, open BackendOpener, fn func(ctx context.Context, b Backend) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	b, err := open(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open backend", err)
	}
	defer func() { _ = b.Close() }()
	return fn(ctx, b)
}
