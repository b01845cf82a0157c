package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	appcart "github.com/storefront/backend/internal/application/cart"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/config"
	"github.com/storefront/backend/internal/infrastructure/event"
	"github.com/storefront/backend/internal/infrastructure/identity"
	"github.com/storefront/backend/internal/infrastructure/notification"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"github.com/storefront/backend/internal/interfaces/http/dto"
	"github.com/storefront/backend/internal/interfaces/http/middleware"
)

func init() {
	gin.SetMode(gin.TestMode)
	middleware.SetupValidator()
}

// storefront wires the cart API on real in-process collaborators: the
// in-memory guest store, a sqlite backed remote store and the identity hub.
type storefront struct {
	router   *gin.Engine
	db       *gorm.DB
	guest    *cache.InMemoryGuestCartStore
	registry *appcart.SessionRegistry
	toasts   *notification.Center
	verifier *identity.TokenVerifier
}

func newStorefront(t *testing.T, submitter CheckoutSubmitter) *storefront {
	t.Helper()
	log := zaptest.NewLogger(t)

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(&models.CartLineModel{}))

	guest := cache.NewInMemoryGuestCartStore(time.Hour, log)
	remote := persistence.NewGormCartLineRepository(db)
	hub := identity.NewHub(log)
	toasts := notification.NewCenter(time.Minute)
	bus := event.NewInMemoryEventBus(log)
	bus.Subscribe(appcart.NewItemAddedNotificationHandler(toasts, log))
	require.NoError(t, bus.Start(context.Background()))

	registry := appcart.NewSessionRegistry(func(sessionID string) *appcart.Engine {
		return appcart.NewEngine(sessionID, guest, remote, hub, log, appcart.WithEventPublisher(bus))
	}, time.Minute, 0, log)

	verifier := identity.NewTokenVerifier(config.JWTConfig{Secret: "handler-test-secret-0123456789abcdef"})

	r := gin.New()
	r.Use(
		middleware.RequestID(),
		middleware.Session(config.SessionConfig{}),
		middleware.Identity(verifier, hub, log),
	)
	api := r.Group("/api/v1")
	carts := NewCartHandler(registry, toasts)
	api.GET("/cart", carts.GetCart)
	api.DELETE("/cart", carts.Clear)
	api.POST("/cart/items", carts.AddItem)
	api.PATCH("/cart/items/:lineId", carts.UpdateQuantity)
	api.DELETE("/cart/items/:lineId", carts.RemoveItem)
	api.GET("/cart/notification", carts.GetNotification)
	if submitter != nil {
		api.POST("/checkout", NewCheckoutHandler(registry, submitter).Submit)
	}

	t.Cleanup(func() {
		registry.Close()
		toasts.Close()
		_ = guest.Close()
	})
	return &storefront{router: r, db: db, guest: guest, registry: registry, toasts: toasts, verifier: verifier}
}

// client is one browser session
type client struct {
	t         *testing.T
	sf        *storefront
	sessionID string
	token     string
}

func (sf *storefront) client(t *testing.T) *client {
	return &client{t: t, sf: sf, sessionID: uuid.NewString()}
}

func (c *client) signIn(userID string) {
	token, _, err := c.sf.verifier.Mint(userID)
	require.NoError(c.t, err)
	c.token = token
}

func (c *client) signOut() {
	c.token = ""
}

func (c *client) do(method, path string, body any) (*httptest.ResponseRecorder, dto.Response) {
	c.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(c.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(middleware.SessionHeader, c.sessionID)
	if c.token != "" {
		req.Header.Set(middleware.AuthHeaderKey, middleware.BearerPrefix+c.token)
	}
	w := httptest.NewRecorder()
	c.sf.router.ServeHTTP(w, req)

	var resp dto.Response
	require.NoError(c.t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}

// cart decodes the data of a cart response
func (c *client) cart(resp dto.Response) appcart.CartResponse {
	c.t.Helper()
	raw, err := json.Marshal(resp.Data)
	require.NoError(c.t, err)
	var out appcart.CartResponse
	require.NoError(c.t, json.Unmarshal(raw, &out))
	return out
}

func (c *client) getCart() appcart.CartResponse {
	c.t.Helper()
	w, resp := c.do(http.MethodGet, "/api/v1/cart", nil)
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	return c.cart(resp)
}

func (c *client) add(productID, name, price string, qty int) appcart.CartResponse {
	c.t.Helper()
	w, resp := c.do(http.MethodPost, "/api/v1/cart/items", map[string]any{
		"product_id": productID,
		"name":       name,
		"price":      price,
		"quantity":   qty,
	})
	require.Equal(c.t, http.StatusOK, w.Code, w.Body.String())
	return c.cart(resp)
}
