// Package logging defines the structured-logging interface used across the
// account backend. The server wires an slog-backed implementation; tests can
// substitute a discard logger.
package logging

import "context"

// Logger is a context-aware, structured logger. The variadic args are
// key-value pairs:
//
//	log.Warn(ctx, "login rejected", "id", user.ID)
type Logger interface {
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With returns a child logger that always includes the given key-value
	// pairs, typically a "module" tag.
	With(args ...any) Logger
}
