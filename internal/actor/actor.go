package actor

import (
	"context"

	log "github.com/sirupsen/logrus"
)

type contextKey string

const actorKey contextKey = "actor"

// system is recorded when a mutation happens without an identified operator,
// e.g. from a maintenance job.
const system = "system"

// WithActor returns a context carrying the operator id for audit attribution.
func WithActor(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, actorKey, id)
}

// Current retrieves the operator id from the context, falling back to "system".
func Current(ctx context.Context) string {
	id, ok := ctx.Value(actorKey).(string)
	if !ok || id == "" {
		log.Trace("no actor in context, attributing to system")
		return system
	}
	return id
}
