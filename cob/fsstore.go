package cob

// FsBackingStore is a filesystem-backed BackingStore: the same content-
// addressed, one-file-per-id layout the teacher's disk LRU uses for pinned
// blobs (core/storage.go's diskLRU, keyed by CID filename), generalized to
// changes and loose refs instead of opaque blob bytes. Changes live under
// "<root>/objects/<changeid>.cbor"; refs live at "<root>/<refname>" (refname
// already starts with "refs/...", so the tree mirrors a git ref namespace)
// and hold the hex-free CID string of the ChangeId they point at.
//
// This is the on-disk test double SPEC_FULL.md promises alongside
// MemBackingStore: exercised by fsstore_test.go through
// internal/testutil.Sandbox for isolation.

import (
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/fxamacker/cbor/v2"
	"go.uber.org/zap"
)

// FsBackingStore implements BackingStore against a directory tree rooted at
// Root.
type FsBackingStore struct {
	mu    sync.RWMutex
	root  string
	clock Clock
}

// NewFsBackingStore creates the object directory under root (if missing)
// and returns a store rooted there. clock supplies Now() for callers
// constructing CreateParams.
func NewFsBackingStore(root string, clock Clock) (*FsBackingStore, error) {
	if err := os.MkdirAll(filepath.Join(root, "objects"), 0o700); err != nil {
		return nil, err
	}
	return &FsBackingStore{root: root, clock: clock}, nil
}

func (s *FsBackingStore) objectPath(id ChangeId) string {
	return filepath.Join(s.root, "objects", id.String()+".cbor")
}

func (s *FsBackingStore) refPath(ref RefName) string {
	return filepath.Join(s.root, filepath.FromSlash(string(ref)))
}

// Load reads and verifies a change by content-address, mirroring
// MemBackingStore.Load's boundary logging on verification failure.
func (s *FsBackingStore) Load(id ChangeId) (*Change, error) {
	s.mu.RLock()
	raw, err := os.ReadFile(s.objectPath(id))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var c Change
	if err := cbor.Unmarshal(raw, &c); err != nil {
		zap.L().Sugar().Errorw("change failed to decode", "change", id.String(), "error", err)
		return nil, ErrMalformed
	}
	if err := c.Verify(); err != nil {
		zap.L().Sugar().Errorw("change failed verification", "change", id.String(), "error", err)
		return nil, err
	}
	return &c, nil
}

// Create allocates, signs and persists a new change as a CBOR object file.
func (s *FsBackingStore) Create(resource ResourceId, signer Signer, now Physical, params CreateParams) (*Change, error) {
	change, err := NewChange(resource, signer, now, params)
	if err != nil {
		zap.L().Sugar().Errorw("change creation failed", "resource", resource.String(), "error", err)
		return nil, err
	}
	raw, err := cbor.Marshal(change)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	err = os.WriteFile(s.objectPath(change.ID), raw, 0o600)
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	zap.L().Sugar().Debugw("change persisted", "change", change.ID.String(), "typename", string(params.TypeName))
	return change, nil
}

// Update publishes change under the per-identity ref for (typename, object)
// as a loose ref file holding the change's CID string.
func (s *FsBackingStore) Update(identifier NodeId, typename TypeName, object ObjectId, change *Change) error {
	ref := namespacedCobRef(identifier, typename, object)
	path := s.refPath(ref)
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return err
	}
	if err := os.WriteFile(path, []byte(change.ID.String()), 0o600); err != nil {
		return err
	}
	zap.L().Sugar().Debugw("ref updated", "ref", string(ref), "change", change.ID.String())
	return nil
}

// ResolveRef returns the ChangeId a ref currently points at.
func (s *FsBackingStore) ResolveRef(ref RefName) (ChangeId, error) {
	s.mu.RLock()
	raw, err := os.ReadFile(s.refPath(ref))
	s.mu.RUnlock()
	if err != nil {
		if os.IsNotExist(err) {
			return ChangeId{}, ErrNotFound
		}
		return ChangeId{}, err
	}
	return ParseContentID(string(raw))
}

// Objects enumerates every ref, scoped or unscoped, that currently witnesses
// the given object by walking the ref tree for a matching suffix.
func (s *FsBackingStore) Objects(typename TypeName, object ObjectId) ([]RefName, error) {
	suffix := string(cobRef(typename, object))
	var out []RefName
	err := s.walkRefs(func(ref RefName) {
		r := string(ref)
		if r == suffix || hasSuffix(r, "/"+suffix) {
			out = append(out, ref)
		}
	})
	return out, err
}

// ListObjects enumerates every distinct ObjectId known for typename, across
// every namespace, by walking the ref tree for paths of the form
// ".../refs/cobs/<typename>/<object-id>".
func (s *FsBackingStore) ListObjects(typename TypeName) ([]ObjectId, error) {
	prefix := "refs/cobs/" + string(typename) + "/"
	seen := make(map[string]ObjectId)
	err := s.walkRefs(func(ref RefName) {
		r := string(ref)
		idx := indexOf(r, prefix)
		if idx < 0 {
			return
		}
		idStr := r[idx+len(prefix):]
		if idStr == "" {
			return
		}
		if _, ok := seen[idStr]; ok {
			return
		}
		id, err := ParseContentID(idStr)
		if err != nil {
			return
		}
		seen[idStr] = id
	})
	out := make([]ObjectId, 0, len(seen))
	for _, id := range seen {
		out = append(out, id)
	}
	return out, err
}

// walkRefs visits every loose ref file under root/refs, converting each
// path back to its slash-form RefName.
func (s *FsBackingStore) walkRefs(visit func(RefName)) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	refsRoot := filepath.Join(s.root, "refs")
	err := filepath.WalkDir(refsRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}
		visit(RefName(filepath.ToSlash(rel)))
		return nil
	})
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}

// Now returns the store's injected clock reading as a Physical timestamp.
func (s *FsBackingStore) Now() Physical { return s.clock.Now() }

var _ BackingStore = (*FsBackingStore)(nil)
