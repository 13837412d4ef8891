package main

import (
	"fmt"

	"collabnode/cob"
)

// openStore wires a typed cob.Store[T] against the CLI's on-disk
// MemBackingStore snapshot and the active project's resource identity and
// delegate set. The returned save func must be called after any mutating
// operation to persist the new change.
func openStore[T any](dir string, projector cob.FromHistory[T]) (store *cob.Store[T], backing *cob.MemBackingStore, signer *cob.LocalSigner, save func() error, err error) {
	signer, err = loadOrCreateSigner(dir)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	proj, err := loadProject(dir)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("no project initialized in %s: run `project init <name>` first", dir)
	}
	resource, err := proj.resourceID()
	if err != nil {
		return nil, nil, nil, nil, err
	}
	clock := cob.NewSystemClock()
	backing, err = loadStore(dir, clock)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	store = cob.NewStore[T](backing, resource, projector, proj.authorizer(), clock)
	save = func() error { return saveStore(dir, backing) }
	return store, backing, signer, save, nil
}

// parseObjectID parses the CID string form of an ObjectId, as printed
// by a prior create/list call.
func parseObjectID(s string) (cob.ObjectId, error) {
	return cob.ParseContentID(s)
}
