package common

import "time"

// AuthCookieName is the cookie that carries the session token for browser
// clients.
const AuthCookieName = "auth-token"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "

// DefaultTokenTTL is the lifetime of an issued session token.
const DefaultTokenTTL = 7 * 24 * time.Hour

// Environment names recognised by the server configuration.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)
