package ledger

import "github.com/costline/costline/internal/rest"

// Shared error taxonomy for the ledger engine. Handlers map these onto HTTP
// status codes in internal/rest; services wrap them with %w so errors.Is keeps
// working across layers. The values themselves live in internal/rest so the
// status mapping there does not import this package back.
var (
	// ErrNotFound reports an unknown batch, line, or identity key root.
	ErrNotFound = rest.ErrNotFound

	// ErrInvalidTransition reports an action that is not legal from the
	// batch's current state. Never retryable.
	ErrInvalidTransition = rest.ErrInvalidTransition

	// ErrOutOfRange reports a percentage or amount outside its domain bounds.
	// Raised at the write boundary, before any state change.
	ErrOutOfRange = rest.ErrOutOfRange

	// ErrConcurrentModification reports a lost optimistic-version race. The
	// caller may retry the whole transition.
	ErrConcurrentModification = rest.ErrConcurrentModification

	// ErrConfiguration reports a budget line whose forecast method requires
	// data the request did not supply.
	ErrConfiguration = rest.ErrConfiguration
)
