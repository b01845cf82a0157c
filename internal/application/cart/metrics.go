package cart

import (
	"context"

	"github.com/storefront/backend/internal/domain/cart"
)

// Operation names used for logging and metrics
const (
	OpAdd       = "add"
	OpRemove    = "remove"
	OpUpdateQty = "update_qty"
	OpClear     = "clear"
	OpMerge     = "merge"
	OpLoad      = "load"
)

// Metrics records cart engine measurements.
type Metrics interface {
	RecordMutation(ctx context.Context, op string, authority cart.AuthorityKind)
	RecordRemoteWriteFailure(ctx context.Context, op string)
	RecordMerge(ctx context.Context, merged, dropped int)
}

type noopMetrics struct{}

func (noopMetrics) RecordMutation(context.Context, string, cart.AuthorityKind) {}
func (noopMetrics) RecordRemoteWriteFailure(context.Context, string)          {}
func (noopMetrics) RecordMerge(context.Context, int, int)                     {}
