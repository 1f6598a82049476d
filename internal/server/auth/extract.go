package auth

import (
	"net/http"
	"strings"

	"github.com/codesleeps/palmers/internal/common"
)

// ExtractToken finds the candidate session token in r. An
// "Authorization: Bearer <token>" header wins; otherwise the auth-token
// cookie is used. The second result is false when neither carries a
// non-empty value.
func ExtractToken(r *http.Request) (string, bool) {
	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, common.BearerPrefix) {
		if token := strings.TrimSpace(header[len(common.BearerPrefix):]); token != "" {
			return token, true
		}
	}

	if c, err := r.Cookie(common.AuthCookieName); err == nil && c.Value != "" {
		return c.Value, true
	}

	return "", false
}
