package cob

// BackingStore is the abstract contract the change graph and COB API
// consume. It is a capability set, not a concrete type — production code
// backs it with a real content-addressable git-like object/ref store;
// MemBackingStore (memstore.go) is the in-memory reference implementation
// used by tests and the deterministic reactor simulator.
type BackingStore interface {
	// Objects enumerates refs that witness the given object, across every
	// namespace.
	Objects(typename TypeName, object ObjectId) ([]RefName, error)
	// ListObjects enumerates every distinct ObjectId known for typename,
	// across every namespace — the enumeration List() needs before it can
	// load+evaluate+project each one.
	ListObjects(typename TypeName) ([]ObjectId, error)
	// ResolveRef returns the ChangeId a ref currently points at — the tip
	// that ref witnesses. A ref's target oid is the ChangeId of the change it
	// names, mirroring how a content-addressed git ref names a commit.
	ResolveRef(ref RefName) (ChangeId, error)
	// Load fetches and verifies a change by content-address. Fails with
	// ErrNotFound, ErrInvalidSignature, or ErrMalformed.
	Load(id ChangeId) (*Change, error)
	// Create allocates a new change, signs it, persists it, and returns it.
	Create(resource ResourceId, signer Signer, now Physical, params CreateParams) (*Change, error)
	// Update publishes change under a per-identity ref pointing at change.ID.
	Update(identifier NodeId, typename TypeName, object ObjectId, change *Change) error
}

// RefName is a ref path in the backing store's namespace, e.g.
// "refs/cobs/radicle.issue/<object-id>" or, scoped to a delegate,
// "refs/namespaces/<delegate>/refs/cobs/radicle.issue/<object-id>".
type RefName string

// cobRef builds the unscoped per-identity ref path for an object.
func cobRef(typename TypeName, object ObjectId) RefName {
	return RefName("refs/cobs/" + string(typename) + "/" + object.String())
}

// namespacedCobRef builds the per-delegate scoped ref path for an object.
func namespacedCobRef(delegate NodeId, typename TypeName, object ObjectId) RefName {
	return RefName("refs/namespaces/" + delegate.String() + "/" + string(cobRef(typename, object)))
}
