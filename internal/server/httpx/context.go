package httpx

import (
	"context"

	"github.com/codesleeps/palmers/internal/server/models"
)

type ctxKey string

const ctxKeyIdentity ctxKey = "identity"

// WithIdentity returns a copy of ctx carrying the authenticated identity.
func WithIdentity(ctx context.Context, id models.Identity) context.Context {
	return context.WithValue(ctx, ctxKeyIdentity, id)
}

// IdentityFromContext returns the identity attached by Authenticate or
// OptionalAuthenticate, if any.
func IdentityFromContext(ctx context.Context) (models.Identity, bool) {
	id, ok := ctx.Value(ctxKeyIdentity).(models.Identity)
	return id, ok
}
