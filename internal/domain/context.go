// Package domain holds the invoicing core types, the ports the services depend
// on, and the request-scoped context helpers.
package domain

import "context"

// contextKey is an unexported type for context keys to prevent collisions.
type contextKey int

const (
	principalContextKey contextKey = iota
)

// Principal is the authenticated caller. It is resolved by the auth layer and
// never re-validated inside the core.
type Principal struct {
	ID       int64
	Username string
	Role     Role
}

// IsAdmin reports whether the principal may run reports and manage users.
func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdministrator
}

// Creator converts the principal into the weak reference stored on orders.
func (p Principal) Creator() Creator {
	return Creator{ID: p.ID, Username: p.Username, Role: p.Role}
}

// WithPrincipal returns a copy of ctx carrying the principal.
func WithPrincipal(ctx context.Context, p *Principal) context.Context {
	return context.WithValue(ctx, principalContextKey, p)
}

// PrincipalFromContext returns the principal or nil if the request is anonymous.
func PrincipalFromContext(ctx context.Context) *Principal {
	p, _ := ctx.Value(principalContextKey).(*Principal)
	return p
}

// MustPrincipal returns the principal or an EUNAUTHORIZED error.
func MustPrincipal(ctx context.Context) (*Principal, error) {
	if p := PrincipalFromContext(ctx); p != nil {
		return p, nil
	}
	return nil, Unauthorized("principal.from_context", "Authentication required")
}
