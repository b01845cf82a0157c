// Package checkout hands the current cart to the payment provider and
// returns the hosted checkout page to redirect to.
package checkout

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/text/language"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/telemetry"
)

const defaultNameMaxLength = 120

// ErrEmptyCart is returned when checking out a cart without lines
var ErrEmptyCart = shared.NewDomainError("INVALID_STATE", "Cart is empty")

// Item is one line sent to the payment provider
type Item struct {
	Name     string
	Price    decimal.Decimal
	Quantity int
}

// Request is the payload handed to the payment provider
type Request struct {
	Locale string
	Items  []Item
}

// Session is the provider's answer
type Session struct {
	RedirectURL string
}

// Gateway creates hosted checkout sessions at the payment provider
type Gateway interface {
	CreateCheckout(ctx context.Context, req Request) (*Session, error)
}

// Config configures the checkout service
type Config struct {
	NameMaxLength int
	DefaultLocale string
	// SupportedLocales restricts the locales sent to the provider. Empty
	// means any well-formed locale is passed through.
	SupportedLocales []string
}

// Service is the checkout/payment bridge
type Service struct {
	gateway       Gateway
	nameMaxLength int
	defaultLocale language.Tag
	matcher       language.Matcher
	supported     []language.Tag
	logger        *zap.Logger
}

// NewService creates a checkout service
func NewService(gateway Gateway, cfg Config, logger *zap.Logger) *Service {
	s := &Service{
		gateway:       gateway,
		nameMaxLength: cfg.NameMaxLength,
		defaultLocale: language.English,
		logger:        logger,
	}
	if s.nameMaxLength <= 0 {
		s.nameMaxLength = defaultNameMaxLength
	}
	if tag, err := language.Parse(cfg.DefaultLocale); err == nil {
		s.defaultLocale = tag
	}
	for _, l := range cfg.SupportedLocales {
		if tag, err := language.Parse(l); err == nil {
			s.supported = append(s.supported, tag)
		}
	}
	if len(s.supported) > 0 {
		s.matcher = language.NewMatcher(s.supported)
	}
	return s
}

// Result is returned by a successful checkout
type Result struct {
	RedirectURL string `json:"redirect_url"`
	Locale      string `json:"locale"`
}

// Submit sends the cart lines to the payment provider and returns the
// redirect URL. Any provider failure is reported as CHECKOUT_FAILED and
// is not retried.
func (s *Service) Submit(ctx context.Context, view cart.View, locale string) (_ *Result, err error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "checkout", "submit",
		telemetry.WithAttribute("line_count", len(view.Lines)),
	)
	defer func() {
		telemetry.RecordError(span, err)
		span.End()
	}()

	if len(view.Lines) == 0 {
		return nil, ErrEmptyCart
	}

	req := Request{
		Locale: s.NormalizeLocale(locale),
		Items:  make([]Item, 0, len(view.Lines)),
	}
	for _, l := range view.Lines {
		req.Items = append(req.Items, Item{
			Name:     TruncateName(l.Name, s.nameMaxLength),
			Price:    l.UnitPrice,
			Quantity: l.Quantity,
		})
	}

	session, err := s.gateway.CreateCheckout(ctx, req)
	if err != nil {
		s.logger.Error("checkout session creation failed",
			zap.String("locale", req.Locale),
			zap.Int("items", len(req.Items)),
			zap.Error(err),
		)
		return nil, errors.Join(shared.ErrCheckoutFailed, err)
	}
	if session == nil || strings.TrimSpace(session.RedirectURL) == "" {
		s.logger.Error("checkout session without redirect url", zap.String("locale", req.Locale))
		return nil, shared.ErrCheckoutFailed
	}

	s.logger.Info("checkout session created",
		zap.String("locale", req.Locale),
		zap.Int("items", len(req.Items)),
		zap.String("total", view.Total.String()),
	)
	return &Result{RedirectURL: session.RedirectURL, Locale: req.Locale}, nil
}

// NormalizeLocale returns a BCP 47 tag for locale. Malformed or empty
// locales fall back to the default; with a supported list configured the
// closest supported locale is used.
func (s *Service) NormalizeLocale(locale string) string {
	tag, err := language.Parse(strings.TrimSpace(locale))
	if err != nil || tag == language.Und {
		tag = s.defaultLocale
	}
	if s.matcher != nil {
		_, idx, conf := s.matcher.Match(tag)
		if conf == language.No {
			return s.defaultLocale.String()
		}
		return s.supported[idx].String()
	}
	return tag.String()
}

// TruncateName shortens name to at most max runes.
func TruncateName(name string, max int) string {
	runes := []rune(name)
	if len(runes) <= max {
		return name
	}
	return string(runes[:max])
}
