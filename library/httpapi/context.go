package httpapi

import (
	"context"

	"github.com/AntonStoeckl/library-ledger-go/library/shared/core"
)

type contextKey string

const actorKey contextKey = "actor"

func withActor(ctx context.Context, actor core.Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// ActorFrom returns the authenticated Actor of a request context, or an anonymous Actor.
func ActorFrom(ctx context.Context) core.Actor {
	actor, _ := ctx.Value(actorKey).(core.Actor)
	return actor
}
