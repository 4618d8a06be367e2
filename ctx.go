package auth

import (
	"context"

	"github.com/goliatone/go-router"
)

// DefaultContextKey is the router Locals key holding the Identity
const DefaultContextKey = "user"

var identityCtxKey = &contextKey{"identity"}

type contextKey struct {
	name string
}

// WithIdentity sets the Identity in the given context
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	return context.WithValue(ctx, identityCtxKey, identity)
}

// FromContext finds the Identity in the context
func FromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityCtxKey).(*Identity)
	return identity, ok && identity != nil
}

// IdentityFromRouter returns the Identity stored in the request Locals
// under key, DefaultContextKey when key is empty.
func IdentityFromRouter(c router.Context, key string) (*Identity, bool) {
	if key == "" {
		key = DefaultContextKey
	}
	identity, ok := c.Locals(key).(*Identity)
	return identity, ok && identity != nil
}
