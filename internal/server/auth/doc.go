// Package auth holds the authentication core: bcrypt password hashing and
// strength checks, HS256 session tokens, locating a token on a request, and
// the auth-token cookie transport.
package auth
