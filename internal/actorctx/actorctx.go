// Package actorctx carries the authenticated principal and request id on a
// context.Context so code below the HTTP layer can read them.
package actorctx

import (
	"context"
)

type ctxKey string

const (
	keyUserID    ctxKey = "actor_user_id"
	keyRequestID ctxKey = "actor_request_id"
)

func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, keyUserID, userID)
}

func UserIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyUserID).(string)

	return v, ok && v != ""
}

func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, keyRequestID, requestID)
}

func RequestIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyRequestID).(string)

	return v, ok && v != ""
}
