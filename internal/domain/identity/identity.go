// Package identity describes who is using a storefront session.
package identity

import "context"

// Identity is the authentication state of a session.
type Identity struct {
	Authenticated bool
	UserID        string
}

// Anonymous returns the identity of a signed-out session
func Anonymous() Identity {
	return Identity{}
}

// User returns the identity of a signed-in user
func User(userID string) Identity {
	return Identity{Authenticated: true, UserID: userID}
}

// Equal compares two identities
func (i Identity) Equal(other Identity) bool {
	return i.Authenticated == other.Authenticated && i.UserID == other.UserID
}

// Listener receives identity transitions for a session.
type Listener func(ctx context.Context, id Identity)

// Provider reports the identity of storefront sessions and their changes.
type Provider interface {
	// Current returns the identity currently attached to the session.
	Current(ctx context.Context, sessionID string) Identity
	// Subscribe registers fn for identity changes of the session. The
	// returned function removes the subscription.
	Subscribe(sessionID string, fn Listener) (unsubscribe func())
}
