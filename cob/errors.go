package cob

import "errors"

// Error kinds for the backing-store/change-graph/identity taxonomy.
// Validation and identity failures during graph load are recovered locally
// (changes are dropped, not surfaced); backing-store failures are surfaced
// to the originating call.
var (
	// ErrNotFound is returned by BackingStore.Load when a change id is unknown.
	ErrNotFound = errors.New("cob: change not found")
	// ErrInvalidSignature is returned when a change's signature does not
	// validate its id under its claimed key.
	ErrInvalidSignature = errors.New("cob: invalid signature")
	// ErrMalformed is returned when a change's id does not match the hash of
	// its canonical body.
	ErrMalformed = errors.New("cob: malformed change")
	// ErrNoSuchObject is returned by Store.Update when no valid root change
	// reaches the given ObjectId.
	ErrNoSuchObject = errors.New("cob: no such object")
	// ErrNoRoot is returned by LoadGraph when no root change is found.
	ErrNoRoot = errors.New("cob: no root change")
	// ErrAmbiguousRoot is returned by LoadGraph when more than one change
	// claims to be the object's root.
	ErrAmbiguousRoot = errors.New("cob: ambiguous root change")
	// ErrCycle is returned by LoadGraph when the change DAG contains a cycle.
	ErrCycle = errors.New("cob: cyclic change graph")
)
