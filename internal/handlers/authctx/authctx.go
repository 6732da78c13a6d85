// Package authctx carries the authenticated caller identity through
// request context
package authctx

import (
	"context"

	"github.com/gt-platform/gtauth/internal/service/auth"
)

type ctxKey string

const identityKey ctxKey = "identity"

// New returns a context carrying the identity
func New(ctx context.Context, id auth.Identity) context.Context {
	return context.WithValue(ctx, identityKey, id)
}

// FromContext extracts the identity, if the request was authenticated
func FromContext(ctx context.Context) (auth.Identity, bool) {
	id, ok := ctx.Value(identityKey).(auth.Identity)
	return id, ok
}
