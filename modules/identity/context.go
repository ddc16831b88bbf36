package identity

import "context"

type contextKey struct{}

// NewContext returns a context carrying the resolved identity. Set by the
// access guard; downstream handlers never need another database round-trip.
func NewContext(ctx context.Context, ident *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, ident)
}

// FromContext returns the identity attached by the access guard, or false
// when the request is anonymous.
func FromContext(ctx context.Context) (*Identity, bool) {
	ident, ok := ctx.Value(contextKey{}).(*Identity)
	return ident, ok && ident != nil
}
