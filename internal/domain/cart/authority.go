package cart

import "fmt"

// AuthorityKind tells which store owns the cart.
type AuthorityKind int

const (
	// AuthorityUninitialized is the state before the first identity report.
	AuthorityUninitialized AuthorityKind = iota
	// AuthorityLocal means the guest store is authoritative.
	AuthorityLocal
	// AuthorityRemote means the remote store is authoritative for a user.
	AuthorityRemote
)

// String returns the name of the kind
func (k AuthorityKind) String() string {
	switch k {
	case AuthorityLocal:
		return "local"
	case AuthorityRemote:
		return "remote"
	default:
		return "uninitialized"
	}
}

// Authority is Local or Remote(userID). A user id only exists for Remote.
type Authority struct {
	kind   AuthorityKind
	userID string
}

// LocalAuthority returns the guest authority
func LocalAuthority() Authority {
	return Authority{kind: AuthorityLocal}
}

// RemoteAuthority returns the authority for an authenticated user
func RemoteAuthority(userID string) Authority {
	return Authority{kind: AuthorityRemote, userID: userID}
}

// Kind returns the authority kind
func (a Authority) Kind() AuthorityKind {
	return a.kind
}

// UserID returns the owning user when the authority is remote
func (a Authority) UserID() (string, bool) {
	if a.kind != AuthorityRemote {
		return "", false
	}
	return a.userID, true
}

// IsRemote reports whether the remote store is authoritative
func (a Authority) IsRemote() bool {
	return a.kind == AuthorityRemote
}

// IsInitialized reports whether an identity has been applied
func (a Authority) IsInitialized() bool {
	return a.kind != AuthorityUninitialized
}

// Equal compares two authorities
func (a Authority) Equal(other Authority) bool {
	return a.kind == other.kind && a.userID == other.userID
}

func (a Authority) String() string {
	if a.kind == AuthorityRemote {
		return fmt.Sprintf("remote(%s)", a.userID)
	}
	return a.kind.String()
}
