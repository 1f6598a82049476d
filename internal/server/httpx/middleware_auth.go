package httpx

import (
	"context"
	"errors"
	"net/http"
	"slices"

	"github.com/codesleeps/palmers/internal/common"
	"github.com/codesleeps/palmers/internal/logging"
	"github.com/codesleeps/palmers/internal/server/auth"
	"github.com/codesleeps/palmers/internal/server/models"
)

// SessionResolver turns a raw token into the identity of an active user.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (models.Identity, error)
}

// Authenticator holds the session middleware.
type Authenticator struct {
	resolver SessionResolver
	logger   logging.Logger
}

func NewAuthenticator(resolver SessionResolver, logger logging.Logger) *Authenticator {
	return &Authenticator{resolver: resolver, logger: logger.With("module", "auth_middleware")}
}

// Authenticate rejects the request with 401 unless it carries a valid token
// for an active user, and attaches that user's identity otherwise.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := auth.ExtractToken(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, msgNoToken)
			return
		}

		id, err := a.resolver.ResolveSession(r.Context(), token)
		if err != nil {
			a.logRejection(r, err)
			writeError(w, http.StatusUnauthorized, msgInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// OptionalAuthenticate attaches an identity when the request carries a
// valid token and otherwise passes the request through untouched.
func (a *Authenticator) OptionalAuthenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if token, ok := auth.ExtractToken(r); ok {
			id, err := a.resolver.ResolveSession(r.Context(), token)
			if err == nil {
				r = r.WithContext(WithIdentity(r.Context(), id))
			} else {
				a.logRejection(r, err)
			}
		}
		next.ServeHTTP(w, r)
	})
}

func (a *Authenticator) logRejection(r *http.Request, err error) {
	reason := "other"
	switch {
	case errors.Is(err, common.ErrTokenExpired):
		reason = "expired"
	case errors.Is(err, common.ErrTokenInvalid):
		reason = "invalid"
	case errors.Is(err, common.ErrUserNotFoundOrInactive):
		reason = "user_not_found_or_inactive"
	}
	a.logger.Debug(r.Context(), "session rejected",
		"reason", reason,
		"error", err.Error(),
	)
}

// Authorize admits only identities whose role is one of roles. It must run
// after Authenticate; without an identity it answers 401, with a role
// outside the set 403.
func Authorize(roles ...models.Role) func(http.Handler) http.Handler {
	allowed := slices.Clone(roles)
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := IdentityFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, msgAuthRequired)
				return
			}
			if !slices.Contains(allowed, id.Role) {
				writeError(w, http.StatusForbidden, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
