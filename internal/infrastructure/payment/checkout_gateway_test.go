package payment

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/application/checkout"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc) *HTTPCheckoutGateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	g, err := NewHTTPCheckoutGateway(CheckoutGatewayConfig{
		Endpoint:   server.URL + "/checkout",
		SecretKey:  "sk_test_123",
		Timeout:    2 * time.Second,
		SuccessURL: "https://shop.example/thanks",
	})
	require.NoError(t, err)
	return g
}

func testRequest() checkout.Request {
	return checkout.Request{
		Locale: "de",
		Items: []checkout.Item{
			{Name: "Angelrute", Price: decimal.RequireFromString("49.9"), Quantity: 2},
		},
	}
}

func TestHTTPCheckoutGateway_CreateCheckout(t *testing.T) {
	var got map[string]any
	g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/checkout", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"url":"https://pay.example/s/abc"}`))
	})

	session, err := g.CreateCheckout(context.Background(), testRequest())
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/s/abc", session.RedirectURL)

	assert.Equal(t, "de", got["locale"])
	assert.Equal(t, "https://shop.example/thanks", got["success_url"])
	assert.NotContains(t, got, "cancel_url")
	items := got["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.Equal(t, "Angelrute", item["name"])
	assert.Equal(t, 49.9, item["price"])
	assert.EqualValues(t, 2, item["qty"])
}

func TestHTTPCheckoutGateway_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
	}{
		{"server error", http.StatusBadGateway, `oops`, ErrGatewayUnavailable},
		{"rejected", http.StatusUnprocessableEntity, `{"error":"currency not enabled"}`, ErrGatewayRequestFailed},
		{"rejected without body", http.StatusUnauthorized, ``, ErrGatewayRequestFailed},
		{"not json", http.StatusOK, `<html>`, ErrGatewayInvalidResponse},
		{"missing url", http.StatusOK, `{}`, ErrGatewayInvalidResponse},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			session, err := g.CreateCheckout(context.Background(), testRequest())
			assert.Nil(t, session)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestHTTPCheckoutGateway_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	endpoint := server.URL
	server.Close()

	g, err := NewHTTPCheckoutGateway(CheckoutGatewayConfig{Endpoint: endpoint, SecretKey: "sk"})
	require.NoError(t, err)

	_, err = g.CreateCheckout(context.Background(), testRequest())
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestNewHTTPCheckoutGateway_RequiresConfig(t *testing.T) {
	_, err := NewHTTPCheckoutGateway(CheckoutGatewayConfig{SecretKey: "sk"})
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)

	_, err = NewHTTPCheckoutGateway(CheckoutGatewayConfig{Endpoint: "https://pay.example"})
	assert.ErrorIs(t, err, ErrGatewayNotConfigured)
}
