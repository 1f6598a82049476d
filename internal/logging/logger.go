// Package logging is the structured-logging seam shared by the server, the
// admin tool and their tests.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	logger.Warn(ctx, "lockout lookup failed", "error", err)
//
// Components derive their own logger with With("module", name).
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}
