package ledger

import (
	"context"
	"fmt"

	"github.com/costline/costline/pkg/costkey"
)

// Filter narrows ListEntries. ProjectID is required; Key restricts to one
// budget line's identity key; Status restricts to one approval state.
type Filter struct {
	ProjectID int
	Key       *costkey.Key
	Status    *State
}

// Matches applies the optional filter fields to an entry. Repos filter
// ProjectID and Status in SQL; Key matching happens here because stores keep
// the raw nullable sub-job id.
func (f Filter) Matches(e Entry) bool {
	if e.Key.ProjectID != f.ProjectID {
		return false
	}
	if f.Key != nil && e.Key != *f.Key {
		return false
	}
	if f.Status != nil && e.Status != *f.Status {
		return false
	}
	return true
}

// Transitioner applies an operator action to one batch of a ledger, as a
// single atomic unit: validate state, write new state, write audit row.
type Transitioner interface {
	Transition(ctx context.Context, batchID int, action Action) (State, error)
}

// EntryLister returns the flattened detail-view rows of one ledger.
type EntryLister interface {
	ListEntries(ctx context.Context, filter Filter) ([]Entry, error)
}

// Registry is the single shared transition/list contract over all ledgers,
// keyed by ledger type. Domain packages register themselves at wiring time.
type Registry struct {
	transitioners map[Type]Transitioner
	listers       map[Type]EntryLister
}

func NewRegistry() *Registry {
	return &Registry{
		transitioners: make(map[Type]Transitioner),
		listers:       make(map[Type]EntryLister),
	}
}

func (r *Registry) Register(t Type, transitioner Transitioner, lister EntryLister) {
	r.transitioners[t] = transitioner
	r.listers[t] = lister
}

func (r *Registry) Transition(ctx context.Context, t Type, batchID int, action Action) (State, error) {
	transitioner, ok := r.transitioners[t]
	if !ok {
		return "", fmt.Errorf("no ledger registered for type %q: %w", t, ErrNotFound)
	}
	return transitioner.Transition(ctx, batchID, action)
}

func (r *Registry) ListEntries(ctx context.Context, t Type, filter Filter) ([]Entry, error) {
	lister, ok := r.listers[t]
	if !ok {
		return nil, fmt.Errorf("no ledger registered for type %q: %w", t, ErrNotFound)
	}
	return lister.ListEntries(ctx, filter)
}
