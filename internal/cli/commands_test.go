package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
	"gopkg.in/yaml.v3"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/identity"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
)

type testBackend struct {
	local     *cache.InMemoryGuestCartStore
	remote    cart.RemoteStore
	tokens    TokenMinter
	log       *zap.Logger
	remoteErr error
	closed    bool
}

func (b *testBackend) LocalStore(context.Context) (cart.LocalStore, error) { return b.local, nil }

func (b *testBackend) RemoteStore(context.Context) (cart.RemoteStore, error) {
	if b.remoteErr != nil {
		return nil, b.remoteErr
	}
	return b.remote, nil
}

func (b *testBackend) Tokens() (TokenMinter, error) {
	if b.tokens == nil {
		return nil, errors.New("no secret")
	}
	return b.tokens, nil
}

func (b *testBackend) Logger() *zap.Logger { return b.log }

func (b *testBackend) Close() error {
	b.closed = true
	return nil
}

func newTestBackend(t *testing.T) *testBackend {
	t.Helper()
	log := zaptest.NewLogger(t)
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.CartLineModel{}))

	return &testBackend{
		local:  cache.NewInMemoryGuestCartStore(time.Hour, log),
		remote: persistence.NewGormCartLineRepository(db),
		tokens: identity.NewTokenVerifier(config.JWTConfig{Secret: "cli-test-secret-0123456789abcdef"}),
		log:    log,
	}
}

func run(t *testing.T, b Backend, args ...string) (string, error) {
	t.Helper()
	cmd := NewRootCommand(func(context.Context) (Backend, error) { return b, nil })
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func line(productID, name, price string, qty int) cart.Line {
	return cart.NewLine(cart.Item{
		ProductRef: productID,
		Name:       name,
		UnitPrice:  decimal.RequireFromString(price),
	}, qty)
}

func TestShow_GuestCartText(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	b.local.Save(ctx, "sess-1", cart.NewSnapshot([]cart.Line{
		line(uuid.NewString(), "Mug", "9.50", 2),
	}))

	out, err := run(t, b, "show", "--session", "sess-1")
	require.NoError(t, err)
	assert.Contains(t, out, "guest cart sess-1")
	assert.Contains(t, out, "Mug")
	assert.Contains(t, out, "items: 2  total: 19.00")
	assert.True(t, b.closed)
}

func TestShow_EmptyUserCartJSON(t *testing.T) {
	b := newTestBackend(t)

	out, err := run(t, b, "show", "--user", "42", "--format", "json")
	require.NoError(t, err)

	var env struct {
		Status string     `json:"status"`
		Data   CartReport `json:"data"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &env))
	assert.Equal(t, "ok", env.Status)
	assert.Equal(t, ScopeUser, env.Data.Scope)
	assert.Equal(t, "42", env.Data.Owner)
	assert.Empty(t, env.Data.Lines)
	assert.Equal(t, "0.00", env.Data.Total)
}

func TestShow_RequiresExactlyOneTarget(t *testing.T) {
	b := newTestBackend(t)

	_, err := run(t, b, "show")
	assert.Error(t, err)

	_, err = run(t, b, "show", "--session", "s", "--user", "u")
	assert.Error(t, err)
}

func TestShow_RemoteUnavailable(t *testing.T) {
	b := newTestBackend(t)
	b.remoteErr = errors.New("connection refused")

	_, err := run(t, b, "show", "--user", "42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestMerge_GuestQuantityWins(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	shared := uuid.NewString()
	fresh := uuid.NewString()

	require.NoError(t, b.remote.UpsertLine(ctx, "7", line(shared, "Mug", "9.50", 5)))
	b.local.Save(ctx, "sess-1", cart.NewSnapshot([]cart.Line{
		line(shared, "Mug", "9.50", 1),
		line(fresh, "Poster", "15.00", 2),
	}))

	out, err := run(t, b, "merge", "--session", "sess-1", "--user", "7", "--format", "yaml")
	require.NoError(t, err)

	var env struct {
		Status string      `yaml:"status"`
		Data   MergeReport `yaml:"data"`
	}
	require.NoError(t, yaml.Unmarshal([]byte(out), &env))
	assert.Equal(t, 2, env.Data.Merged)
	assert.Zero(t, env.Data.Dropped)
	assert.Equal(t, 3, env.Data.Result.ItemCount)

	merged, err := b.remote.LoadForUser(ctx, "7")
	require.NoError(t, err)
	mug, ok := merged.FindByProduct(shared)
	require.True(t, ok)
	assert.Equal(t, 1, mug.Quantity)
	assert.True(t, b.local.Load(ctx, "sess-1").IsEmpty(), "guest cart is cleared after merge")
}

func TestMerge_DryRunWritesNothing(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	b.local.Save(ctx, "sess-1", cart.NewSnapshot([]cart.Line{
		line(uuid.NewString(), "Poster", "15.00", 2),
	}))

	out, err := run(t, b, "merge", "--session", "sess-1", "--user", "7", "--dry-run")
	require.NoError(t, err)
	assert.Contains(t, out, "would merge 1 line(s)")
	assert.Contains(t, out, "Poster")

	remote, err := b.remote.LoadForUser(ctx, "7")
	require.NoError(t, err)
	assert.True(t, remote.IsEmpty())
	assert.Equal(t, 1, b.local.Load(ctx, "sess-1").Len())
}

func TestMerge_RequiresBothFlags(t *testing.T) {
	_, err := run(t, newTestBackend(t), "merge", "--session", "sess-1")
	assert.Error(t, err)
}

func TestPreviewMerge(t *testing.T) {
	shared := uuid.NewString()
	remote := cart.NewSnapshot([]cart.Line{line(shared, "Mug", "9.50", 5)})
	guest := cart.NewSnapshot([]cart.Line{
		line(shared, "Mug", "9.50", 2),
		line(uuid.NewString(), "Poster", "15.00", 1),
	})

	got := previewMerge(remote, guest)
	assert.Equal(t, 2, got.Len())
	mug, ok := got.FindByProduct(shared)
	require.True(t, ok)
	assert.Equal(t, 2, mug.Quantity)
	assert.Equal(t, 5, remote.Lines()[0].Quantity, "input snapshot is not modified")
}

func TestClear(t *testing.T) {
	b := newTestBackend(t)
	ctx := context.Background()
	b.local.Save(ctx, "sess-1", cart.NewSnapshot([]cart.Line{line(uuid.NewString(), "Mug", "9.50", 1)}))
	require.NoError(t, b.remote.UpsertLine(ctx, "7", line(uuid.NewString(), "Poster", "15.00", 1)))
	require.NoError(t, b.remote.UpsertLine(ctx, "7", line(uuid.NewString(), "Pen", "1.00", 3)))

	out, err := run(t, b, "clear", "--session", "sess-1")
	require.NoError(t, err)
	assert.Contains(t, out, "cleared guest cart sess-1 (1 line(s) removed)")
	assert.True(t, b.local.Load(ctx, "sess-1").IsEmpty())

	out, err = run(t, b, "clear", "--user", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "(2 line(s) removed)")
	remote, err := b.remote.LoadForUser(ctx, "7")
	require.NoError(t, err)
	assert.True(t, remote.IsEmpty())
}

func TestMintToken(t *testing.T) {
	b := newTestBackend(t)

	out, err := run(t, b, "mint-token", "42")
	require.NoError(t, err)

	verifier := b.tokens.(*identity.TokenVerifier)
	id, err := verifier.Verify(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.True(t, id.Authenticated)
	assert.Equal(t, "42", id.UserID)
}

func TestMintToken_NoSecret(t *testing.T) {
	b := newTestBackend(t)
	b.tokens = nil

	_, err := run(t, b, "mint-token", "42")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}
