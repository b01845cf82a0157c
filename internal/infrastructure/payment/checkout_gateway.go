package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/storefront/backend/internal/application/checkout"
)

// Gateway errors
var (
	ErrGatewayNotConfigured   = errors.New("payment: checkout gateway not configured")
	ErrGatewayUnavailable     = errors.New("payment: gateway temporarily unavailable")
	ErrGatewayRequestFailed   = errors.New("payment: gateway request failed")
	ErrGatewayInvalidResponse = errors.New("payment: invalid gateway response")
)

const maxResponseBytes = 1 << 20

// CheckoutGatewayConfig configures the hosted checkout client
type CheckoutGatewayConfig struct {
	Endpoint   string
	SecretKey  string
	Timeout    time.Duration
	SuccessURL string
	CancelURL  string
}

// Validate checks the configuration
func (c *CheckoutGatewayConfig) Validate() error {
	if c.Endpoint == "" {
		return fmt.Errorf("%w: missing endpoint", ErrGatewayNotConfigured)
	}
	if c.SecretKey == "" {
		return fmt.Errorf("%w: missing secret key", ErrGatewayNotConfigured)
	}
	return nil
}

// HTTPCheckoutGateway creates hosted checkout sessions over HTTP
type HTTPCheckoutGateway struct {
	config     CheckoutGatewayConfig
	httpClient *http.Client
}

var _ checkout.Gateway = (*HTTPCheckoutGateway)(nil)

// NewHTTPCheckoutGateway creates a new gateway client
func NewHTTPCheckoutGateway(cfg CheckoutGatewayConfig) (*HTTPCheckoutGateway, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &HTTPCheckoutGateway{
		config:     cfg,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

type checkoutItem struct {
	Name  string      `json:"name"`
	Price json.Number `json:"price"`
	Qty   int         `json:"qty"`
}

type checkoutRequest struct {
	Locale     string         `json:"locale"`
	Items      []checkoutItem `json:"items"`
	SuccessURL string         `json:"success_url,omitempty"`
	CancelURL  string         `json:"cancel_url,omitempty"`
}

type checkoutResponse struct {
	URL   string `json:"url"`
	Error string `json:"error,omitempty"`
}

// CreateCheckout posts the cart to the provider and returns the page to
// redirect the shopper to
func (g *HTTPCheckoutGateway) CreateCheckout(ctx context.Context, req checkout.Request) (*checkout.Session, error) {
	payload := checkoutRequest{
		Locale:     req.Locale,
		Items:      make([]checkoutItem, 0, len(req.Items)),
		SuccessURL: g.config.SuccessURL,
		CancelURL:  g.config.CancelURL,
	}
	for _, item := range req.Items {
		payload.Items = append(payload.Items, checkoutItem{
			Name:  item.Name,
			Price: json.Number(item.Price.StringFixed(2)),
			Qty:   item.Quantity,
		})
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("payment: failed to encode checkout request: %w", err)
	}

	respBody, err := g.doRequest(ctx, body)
	if err != nil {
		return nil, err
	}

	var resp checkoutResponse
	if err := json.Unmarshal(respBody, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayInvalidResponse, err)
	}
	if resp.URL == "" {
		return nil, fmt.Errorf("%w: missing url", ErrGatewayInvalidResponse)
	}
	return &checkout.Session{RedirectURL: resp.URL}, nil
}

func (g *HTTPCheckoutGateway) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.config.Endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.config.SecretKey)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("payment: failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode >= 500:
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayUnavailable, resp.StatusCode)
	case resp.StatusCode >= 400:
		var failure checkoutResponse
		if json.Unmarshal(respBody, &failure) == nil && failure.Error != "" {
			return nil, fmt.Errorf("%w: HTTP %d - %s", ErrGatewayRequestFailed, resp.StatusCode, failure.Error)
		}
		return nil, fmt.Errorf("%w: HTTP %d", ErrGatewayRequestFailed, resp.StatusCode)
	}
	return respBody, nil
}
