package authn

import (
	"context"
	"strings"
)

type ctxKey string

const actorIDKey ctxKey = "authn_actor_id"

// ContextWithActor stores the authenticated actor id in the context.
func ContextWithActor(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, actorIDKey, strings.TrimSpace(actorID))
}

// ActorIDFromContext extracts the authenticated actor id from the context.
func ActorIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(actorIDKey).(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", false
	}
	return v, true
}
