package cob

// Store is the typed facade over a BackingStore, providing create/update/
// get/list for one collaborative-object kind.

import "fmt"

// FromHistory is the capability every concrete COB kind (issue, patch,
// thread, ...) provides: a TypeName to scope it and a projection from an
// evaluated History into the concrete type.
type FromHistory[T any] struct {
	TypeName    TypeName
	FromHistory func(*History) (T, error)
}

// Store wraps an abstract BackingStore and a project identity to provide a
// typed create/update/get/list facade for one COB kind.
type Store[T any] struct {
	backing    BackingStore
	resource   ResourceId
	projector  FromHistory[T]
	authorized Authorizer
	clock      Clock
}

// NewStore opens a generic store for COB kind T, scoped to resource.
func NewStore[T any](backing BackingStore, resource ResourceId, projector FromHistory[T], authorized Authorizer, clock Clock) *Store[T] {
	return &Store[T]{
		backing:    backing,
		resource:   resource,
		projector:  projector,
		authorized: authorized,
		clock:      clock,
	}
}

// Create writes the root change and a ref for a brand-new collaborative
// object. The returned object's id equals the new change's id.
func (s *Store[T]) Create(message string, contents [][]byte, signer Signer) (*CollaborativeObject, error) {
	change, err := s.backing.Create(s.resource, signer, s.clock.Now(), CreateParams{
		Tips:        nil,
		HistoryType: "cob",
		Contents:    contents,
		TypeName:    s.projector.TypeName,
		Message:     message,
	})
	if err != nil {
		return nil, err
	}
	objectID := change.ID
	if err := s.backing.Update(signer.NodeId(), s.projector.TypeName, objectID, change); err != nil {
		return nil, err
	}
	history := NewHistory(nil)
	history.Extend(change.ID, change.Signature.Key, change.Resource, change.Contents, change.Timestamp)
	return &CollaborativeObject{
		ID:       objectID,
		TypeName: s.projector.TypeName,
		History:  history,
		Tips:     map[ChangeId]struct{}{change.ID: {}},
	}, nil
}

// Update extends an existing object's history with a new change: enumerate
// refs, load+evaluate the graph, create the new change against current
// tips, extend the evaluated history, publish the ref.
func (s *Store[T]) Update(objectID ObjectId, message string, changes [][]byte, signer Signer) (*CollaborativeObject, error) {
	refs, err := s.backing.Objects(s.projector.TypeName, objectID)
	if err != nil {
		return nil, err
	}
	graph, err := LoadGraph(s.backing, refs, s.projector.TypeName, objectID, s.authorized)
	if err != nil {
		if err == ErrNoRoot || err == ErrAmbiguousRoot {
			return nil, ErrNoSuchObject
		}
		return nil, err
	}
	history := graph.Evaluate()
	tips := graph.Tips()

	change, err := s.backing.Create(s.resource, signer, s.clock.Now(), CreateParams{
		Tips:        tips,
		HistoryType: "cob",
		Contents:    changes,
		TypeName:    s.projector.TypeName,
		Message:     message,
	})
	if err != nil {
		return nil, err
	}
	history.Extend(change.ID, change.Signature.Key, change.Resource, changes, change.Timestamp)

	if err := s.backing.Update(signer.NodeId(), s.projector.TypeName, objectID, change); err != nil {
		return nil, err
	}

	// The new change's parents are every tip loaded above, so it is now the
	// only sink.
	tipSet := map[ChangeId]struct{}{change.ID: {}}

	return &CollaborativeObject{
		ID:       objectID,
		TypeName: s.projector.TypeName,
		History:  history,
		Tips:     tipSet,
	}, nil
}

// Get loads, evaluates and projects the object identified by id.
func (s *Store[T]) Get(id ObjectId) (T, bool, error) {
	var zero T
	refs, err := s.backing.Objects(s.projector.TypeName, id)
	if err != nil {
		return zero, false, err
	}
	graph, err := LoadGraph(s.backing, refs, s.projector.TypeName, id, s.authorized)
	if err != nil {
		if err == ErrNoRoot || err == ErrAmbiguousRoot {
			return zero, false, nil
		}
		return zero, false, err
	}
	obj, err := s.projector.FromHistory(graph.Evaluate())
	if err != nil {
		return zero, false, fmt.Errorf("cob: project %s: %w", s.projector.TypeName, err)
	}
	return obj, true, nil
}

// List enumerates every object of this store's kind, projecting each
// through T. Objects whose graph fails to load a unique root (e.g. no
// authorized root survives) are skipped rather than failing the whole call.
func (s *Store[T]) List() ([]ListedObject[T], error) {
	ids, err := s.backing.ListObjects(s.projector.TypeName)
	if err != nil {
		return nil, err
	}
	out := make([]ListedObject[T], 0, len(ids))
	for _, id := range ids {
		obj, ok, err := s.Get(id)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		out = append(out, ListedObject[T]{ID: id, Object: obj})
	}
	return out, nil
}

// ListedObject pairs an ObjectId with its projected value, as returned by
// Store.List.
type ListedObject[T any] struct {
	ID     ObjectId
	Object T
}

// CollaborativeObject is the evaluated-object output type: an object with its
// history and current tips.
type CollaborativeObject struct {
	ID       ObjectId
	TypeName TypeName
	History  *History
	Tips     map[ChangeId]struct{}
}
