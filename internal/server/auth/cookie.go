package auth

import (
	"net/http"
	"time"

	"github.com/codesleeps/palmers/internal/common"
)

// CookieWriter sets and clears the HTTP-only auth-token cookie.
type CookieWriter struct {
	Secure bool
	MaxAge time.Duration
	Domain string
}

// Set stores token in the auth-token cookie for MaxAge.
func (cw CookieWriter) Set(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    token,
		Path:     "/",
		Domain:   cw.Domain,
		MaxAge:   int(cw.MaxAge / time.Second),
		Expires:  time.Now().Add(cw.MaxAge),
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Clear instructs the client to delete the auth-token cookie.
func (cw CookieWriter) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     common.AuthCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cw.Domain,
		MaxAge:   -1,
		Expires:  time.Unix(0, 0),
		HttpOnly: true,
		Secure:   cw.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}
