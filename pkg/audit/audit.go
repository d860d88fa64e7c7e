package audit

import "time"

// Entry is one append-only audit trail row. Transitions and forecast
// overwrites record who did what to which entity, and the state movement.
type Entry struct {
	ID         string
	EntityType string
	EntityID   int
	Action     string
	FromState  string
	ToState    string
	Actor      string
	OccurredAt time.Time
}
