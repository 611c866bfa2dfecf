// Package logctx carries a zerolog logger through context.Context so the
// batch driver can stamp contextual fields (batch number, phase) that
// propagate into the scan and merge internals.
package logctx

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/mkessy/genre-db/pkg/logging"
)

// loggerKey is the private context key type. A private type prevents
// collisions with other packages.
type loggerKey struct{}

// WithLogger returns a new context with the given logger attached.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext extracts the logger from the context, falling back to the
// process-wide logger when none is attached. Never panics.
func FromContext(ctx context.Context) zerolog.Logger {
	if ctx == nil {
		return *logging.L()
	}
	if logger, ok := ctx.Value(loggerKey{}).(zerolog.Logger); ok {
		return logger
	}
	return *logging.L()
}

// WithStr returns a context whose logger has the given string field added.
func WithStr(ctx context.Context, key, value string) context.Context {
	logger := FromContext(ctx).With().Str(key, value).Logger()
	return WithLogger(ctx, logger)
}

// WithInt returns a context whose logger has the given int field added.
func WithInt(ctx context.Context, key string, value int) context.Context {
	logger := FromContext(ctx).With().Int(key, value).Logger()
	return WithLogger(ctx, logger)
}
