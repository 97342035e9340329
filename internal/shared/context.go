package shared

import "context"

// Actor identifies the authenticated user performing a request. Authentication
// itself happens upstream; the gateway forwards identity headers which the
// router middleware turns into an Actor.
type Actor struct {
	ID    int64
	Email string
	Admin bool
}

type actorContextKey struct{}

// ContextWithActor stores the actor in context.
func ContextWithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorContextKey{}, actor)
}

// ActorFromContext extracts the actor from context. The zero Actor means the
// request carried no identity (system/internal call).
func ActorFromContext(ctx context.Context) Actor {
	actor, _ := ctx.Value(actorContextKey{}).(Actor)
	return actor
}
