package cob

// Ed25519 sign/verify helpers and a local-keypair Signer implementation.
// Grounded on the teacher's core/security.go Sign/Verify (AlgoEd25519 case);
// keeps only the single-key path, since nothing in this domain needs
// threshold or multi-algorithm signing.

import (
	"crypto/ed25519"
	"crypto/rand"
	"fmt"
)

func ed25519Verify(pub ed25519.PublicKey, msg, sig []byte) bool {
	return ed25519.Verify(pub, msg, sig)
}

// LocalSigner is an in-memory ed25519 Signer, the default test and
// single-node-operator implementation of the Signer capability.
type LocalSigner struct {
	pub  ed25519.PublicKey
	priv ed25519.PrivateKey
}

// NewLocalSigner generates a fresh Ed25519 keypair.
func NewLocalSigner() (*LocalSigner, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, fmt.Errorf("cob: generate signing key: %w", err)
	}
	return &LocalSigner{pub: pub, priv: priv}, nil
}

// LocalSignerFromSeed deterministically derives a keypair from a 32-byte
// seed, used by tests that need reproducible NodeIds across runs.
func LocalSignerFromSeed(seed []byte) (*LocalSigner, error) {
	if len(seed) != ed25519.SeedSize {
		return nil, fmt.Errorf("cob: seed must be %d bytes", ed25519.SeedSize)
	}
	priv := ed25519.NewKeyFromSeed(seed)
	return &LocalSigner{pub: priv.Public().(ed25519.PublicKey), priv: priv}, nil
}

// NodeId returns the public-key identity of this signer.
func (s *LocalSigner) NodeId() NodeId {
	id, _ := NewNodeId(s.pub)
	return id
}

// Seed returns the 32-byte seed the keypair was derived from, letting a
// caller persist and later reconstruct this signer via
// LocalSignerFromSeed.
func (s *LocalSigner) Seed() []byte {
	return s.priv.Seed()
}

// Sign signs data with the private key.
func (s *LocalSigner) Sign(data []byte) ([]byte, error) {
	return ed25519.Sign(s.priv, data), nil
}
