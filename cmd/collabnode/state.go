package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/fxamacker/cbor/v2"

	"collabnode/cob"
)

const (
	identityFileName = "identity.key"
	projectFileName  = "project.json"
	storeFileName    = "store.cbor"
)

// loadOrCreateSigner reads a 32-byte ed25519 seed from dir/identity.key,
// hex-encoded, generating and persisting a fresh one on first run.
func loadOrCreateSigner(dir string) (*cob.LocalSigner, error) {
	path := filepath.Join(dir, identityFileName)
	raw, err := os.ReadFile(path)
	if err == nil {
		seed, decErr := hex.DecodeString(string(raw))
		if decErr != nil {
			return nil, fmt.Errorf("identity: decode %s: %w", path, decErr)
		}
		return cob.LocalSignerFromSeed(seed)
	}
	if !os.IsNotExist(err) {
		return nil, fmt.Errorf("identity: read %s: %w", path, err)
	}

	signer, err := cob.NewLocalSigner()
	if err != nil {
		return nil, err
	}
	seed := signer.Seed()
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("identity: create %s: %w", dir, err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(seed)), 0o600); err != nil {
		return nil, fmt.Errorf("identity: write %s: %w", path, err)
	}
	return signer, nil
}

// projectState is the CLI's on-disk record of which resource identity is
// active and which NodeIds are authorized delegates for it — the CLI's
// stand-in for the real identity-document resolution the backing store's
// production implementation owns.
type projectState struct {
	Name      string   `json:"name"`
	Resource  string   `json:"resource"`
	Delegates []string `json:"delegates"`
}

func projectPath(dir string) string { return filepath.Join(dir, projectFileName) }

func loadProject(dir string) (*projectState, error) {
	raw, err := os.ReadFile(projectPath(dir))
	if err != nil {
		return nil, err
	}
	var p projectState
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("project: decode %s: %w", projectPath(dir), err)
	}
	return &p, nil
}

func saveProject(dir string, p *projectState) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("project: create %s: %w", dir, err)
	}
	raw, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(projectPath(dir), raw, 0o600)
}

// initProject derives a ResourceId by content-addressing the project name
// and records self as its sole delegate. Re-running on an existing project
// is a no-op that returns the existing state.
func initProject(dir, name string, self cob.NodeId) (*projectState, error) {
	if existing, err := loadProject(dir); err == nil {
		return existing, nil
	}
	resource, err := cob.NewContentID([]byte("collabnode.project:" + name))
	if err != nil {
		return nil, err
	}
	p := &projectState{
		Name:      name,
		Resource:  resource.String(),
		Delegates: []string{self.String()},
	}
	if err := saveProject(dir, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *projectState) resourceID() (cob.ResourceId, error) {
	return cob.ParseContentID(p.Resource)
}

// authorizer builds a cob.Authorizer from the project's recorded delegate
// set, matching NodeIds by their hex string form.
func (p *projectState) authorizer() cob.Authorizer {
	allowed := make(map[string]bool, len(p.Delegates))
	for _, d := range p.Delegates {
		allowed[d] = true
	}
	return func(id cob.NodeId) bool { return allowed[id.String()] }
}

func storePath(dir string) string { return filepath.Join(dir, storeFileName) }

// loadStore opens dir/store.cbor into a fresh MemBackingStore, or an empty
// one if no snapshot exists yet.
func loadStore(dir string, clock cob.Clock) (*cob.MemBackingStore, error) {
	store := cob.NewMemBackingStore(clock)
	raw, err := os.ReadFile(storePath(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return store, nil
		}
		return nil, fmt.Errorf("store: read %s: %w", storePath(dir), err)
	}
	var snap cob.Snapshot
	if err := cbor.Unmarshal(raw, &snap); err != nil {
		return nil, fmt.Errorf("store: decode %s: %w", storePath(dir), err)
	}
	store.Restore(snap)
	return store, nil
}

// saveStore persists store's full contents back to dir/store.cbor.
func saveStore(dir string, store *cob.MemBackingStore) error {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("store: create %s: %w", dir, err)
	}
	raw, err := cbor.Marshal(store.Snapshot())
	if err != nil {
		return err
	}
	return os.WriteFile(storePath(dir), raw, 0o600)
}
