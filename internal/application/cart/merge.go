package cart

import (
	"context"

	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/cart"
)

// MergeResult summarizes a guest cart merge.
type MergeResult struct {
	Merged  int
	Dropped int
}

// MergeGuestCart writes every guest line into the user's remote cart.
// The guest quantity overwrites the remote quantity for the same product
// (local wins, quantities are not summed). A line whose upsert fails is
// dropped and the remaining lines are still attempted.
func MergeGuestCart(ctx context.Context, remote cart.RemoteStore, userID string, guest cart.Snapshot, logger *zap.Logger) MergeResult {
	var result MergeResult
	for _, line := range guest.Lines() {
		if err := remote.UpsertLine(ctx, userID, line); err != nil {
			result.Dropped++
			logger.Warn("dropping guest cart line during merge",
				zap.String("user_id", userID),
				zap.String("product_ref", line.ProductRef),
				zap.Int("quantity", line.Quantity),
				zap.Error(err),
			)
			continue
		}
		result.Merged++
	}
	return result
}
