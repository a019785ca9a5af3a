package actorctx

import "context"

type ctxKey string

const keyActorID ctxKey = "actor_id"

// WithActorID records who is acting on this request, for audit logging.
func WithActorID(ctx context.Context, actorID string) context.Context {
	return context.WithValue(ctx, keyActorID, actorID)
}

func ActorIDFrom(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(keyActorID).(string)

	return v, ok && v != ""
}
