package rest

import "errors"

// Sentinel values for the ledger engine's shared error taxonomy. They are
// defined here, below every other package in the dependency graph, so that
// WriteError can match them without importing pkg/ledger (which itself imports
// this package for WriteError). pkg/ledger re-exports them under its own name;
// all other packages keep referring to them as ledger.Err*.
var (
	ErrNotFound               = errors.New("not found")
	ErrInvalidTransition      = errors.New("invalid transition")
	ErrOutOfRange             = errors.New("value out of range")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrConfiguration          = errors.New("configuration error")
)
