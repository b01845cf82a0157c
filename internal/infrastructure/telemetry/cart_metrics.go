package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/storefront/backend/internal/domain/cart"
)

// Metric attribute keys.
var (
	AttrOperation = attribute.Key("cart.operation")
	AttrAuthority = attribute.Key("cart.authority")
	AttrOutcome   = attribute.Key("cart.merge.outcome")
)

// CartMetrics records cart engine measurements on OpenTelemetry instruments.
type CartMetrics struct {
	mutations     metric.Int64Counter
	writeFailures metric.Int64Counter
	merges        metric.Int64Counter
	mergedLines   metric.Int64Counter
}

// NewCartMetrics creates the cart instruments on meter.
func NewCartMetrics(meter metric.Meter) (*CartMetrics, error) {
	m := &CartMetrics{}
	var err error

	if m.mutations, err = meter.Int64Counter("storefront.cart.mutations",
		metric.WithDescription("Cart mutations applied, by operation and authority"),
		metric.WithUnit("{mutation}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create cart mutations counter: %w", err)
	}
	if m.writeFailures, err = meter.Int64Counter("storefront.cart.remote_write_failures",
		metric.WithDescription("Remote cart writes that failed"),
		metric.WithUnit("{failure}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create remote write failure counter: %w", err)
	}
	if m.merges, err = meter.Int64Counter("storefront.cart.merges",
		metric.WithDescription("Guest carts merged into a user cart"),
		metric.WithUnit("{merge}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create merge counter: %w", err)
	}
	if m.mergedLines, err = meter.Int64Counter("storefront.cart.merge_lines",
		metric.WithDescription("Guest lines processed by a merge, by outcome"),
		metric.WithUnit("{line}"),
	); err != nil {
		return nil, fmt.Errorf("failed to create merge lines counter: %w", err)
	}
	return m, nil
}

// RecordMutation counts an applied mutation.
func (m *CartMetrics) RecordMutation(ctx context.Context, op string, authority cart.AuthorityKind) {
	m.mutations.Add(ctx, 1, metric.WithAttributes(
		AttrOperation.String(op),
		AttrAuthority.String(authority.String()),
	))
}

// RecordRemoteWriteFailure counts a failed remote write.
func (m *CartMetrics) RecordRemoteWriteFailure(ctx context.Context, op string) {
	m.writeFailures.Add(ctx, 1, metric.WithAttributes(AttrOperation.String(op)))
}

// RecordMerge counts one merge and the lines it merged or dropped.
func (m *CartMetrics) RecordMerge(ctx context.Context, merged, dropped int) {
	m.merges.Add(ctx, 1)
	if merged > 0 {
		m.mergedLines.Add(ctx, int64(merged), metric.WithAttributes(AttrOutcome.String("merged")))
	}
	if dropped > 0 {
		m.mergedLines.Add(ctx, int64(dropped), metric.WithAttributes(AttrOutcome.String("dropped")))
	}
}

// RegisterSessionGauge reports the number of live cart sessions, as
// returned by count, on every collection.
func RegisterSessionGauge(meter metric.Meter, count func() int) error {
	_, err := meter.Int64ObservableGauge("storefront.cart.sessions",
		metric.WithDescription("Cart sessions currently held in memory"),
		metric.WithUnit("{session}"),
		metric.WithInt64Callback(func(_ context.Context, o metric.Int64Observer) error {
			o.Observe(int64(count()))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("failed to create session gauge: %w", err)
	}
	return nil
}
