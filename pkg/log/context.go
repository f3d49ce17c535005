package log

import (
	"context"

	"github.com/rs/zerolog"
)

type ctxKey struct{}

// WithLogger stores a logger in the context.
func WithLogger(ctx context.Context, logger zerolog.Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, logger)
}

// Ctx retrieves the logger from the context.
// If no logger is found, the global logger is returned.
func Ctx(ctx context.Context) zerolog.Logger {
	if l, ok := ctx.Value(ctxKey{}).(zerolog.Logger); ok {
		return l
	}
	return L()
}

// WithChannel derives a context whose logger is tagged with the owner and
// id of a live chat channel.
func WithChannel(ctx context.Context, userID, channelID string) context.Context {
	l := Ctx(ctx).With().
		Str(FieldUserID, userID).
		Str(FieldChannelID, channelID).
		Logger()
	return WithLogger(ctx, l)
}
