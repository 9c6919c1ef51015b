// Package identity carries the authenticated caller through a request. Tokens are
// minted and checked here; nothing else in the service looks at credentials.
package identity

import "context"

// Role is what an authenticated caller is allowed to do.
type Role string

const (
	RoleStudent Role = "student"
	RoleAdmin   Role = "admin"
)

// IsValid checks if the role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleStudent, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) String() string {
	return string(r)
}

// Identity is the authenticated caller.
type Identity struct {
	UserID string
	Role   Role
}

func (i Identity) IsAdmin() bool { return i.Role == RoleAdmin }

type contextKey struct{}

// WithIdentity returns a copy of ctx carrying id.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// FromContext returns the identity stored by WithIdentity.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}
