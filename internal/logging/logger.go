// Package logging defines the minimal structured-logging contract used by
// the SDK. The SDK never logs through a concrete backend directly, so host
// applications can plug in slog, zap, zerolog or nothing at all.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Warn(ctx, "push channel degraded", "attempt", n, "err", err)
type Logger interface {
	// Debug logs fine-grained diagnostics (individual frames, timers).
	Debug(ctx context.Context, msg string, args ...any)

	// Info logs normal lifecycle events.
	Info(ctx context.Context, msg string, args ...any)

	// Warn logs unusual but non-fatal conditions.
	Warn(ctx context.Context, msg string, args ...any)

	// Error logs failures.
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given pairs.
	With(args ...any) Logger
}
