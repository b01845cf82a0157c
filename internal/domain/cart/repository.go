package cart

import "context"

// LocalStore persists guest carts per storefront session.
// It never fails: unreadable data loads as an empty snapshot and write
// errors are swallowed by the implementation.
type LocalStore interface {
	Load(ctx context.Context, sessionID string) Snapshot
	Save(ctx context.Context, sessionID string, snapshot Snapshot)
	Clear(ctx context.Context, sessionID string)
}

// RemoteStore persists carts of authenticated users.
type RemoteStore interface {
	// LoadForUser returns the user's lines, most recently created first.
	LoadForUser(ctx context.Context, userID string) (Snapshot, error)
	// UpsertLine writes the line's quantity, inserting it with line.LineID
	// as row id when no row exists for the product.
	UpsertLine(ctx context.Context, userID string, line Line) error
	// UpdateQuantity sets the quantity of an existing line.
	UpdateQuantity(ctx context.Context, userID string, line Line, qty int) error
	// DeleteLine removes a single line.
	DeleteLine(ctx context.Context, userID string, line Line) error
	// DeleteAll removes every line of the user.
	DeleteAll(ctx context.Context, userID string) error
}
