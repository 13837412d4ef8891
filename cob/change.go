package cob

// Change is the signed, content-addressed change record at the core of a
// collaborative object's history. Canonical encoding (used both to derive
// ChangeId and to compute the bytes a Signer signs) uses CBOR's canonical
// encoding mode, so the same logical content hashes identically on every
// peer regardless of field-ordering or map-iteration differences.

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

var canonicalEncMode cbor.EncMode

func init() {
	opts := cbor.CanonicalEncOptions()
	mode, err := opts.EncMode()
	if err != nil {
		panic(fmt.Errorf("cob: building canonical cbor encoder: %w", err))
	}
	canonicalEncMode = mode
}

// Signature binds a Change's id to the NodeId that authored it.
type Signature struct {
	Key NodeId
	Sig []byte
}

// Signer is the cryptographic capability the COB store consumes to produce
// signed changes. It is a capability set, not a concrete type, so in-memory
// test doubles (ed25519 keys generated on the spot) can stand in for a real
// keystore-backed signer.
type Signer interface {
	NodeId() NodeId
	Sign(data []byte) ([]byte, error)
}

// Change is the immutable, signed unit of a collaborative object's history.
type Change struct {
	ID         ChangeId
	Parents    []ChangeId
	Resource   ResourceId
	TypeName   TypeName
	HistoryType string
	Contents   [][]byte
	Signature  Signature
	Timestamp  Physical
	Message    string
}

// changeBody is the canonical, signature-excluded encoding of a Change. It
// encodes as a CBOR map keyed by field name; cbor's canonical mode sorts
// those keys, so the resulting bytes do not depend on declaration order and
// are byte-identical across peers for identical logical content.
type changeBody struct {
	Parents     []ChangeId
	Resource    ResourceId
	TypeName    TypeName
	HistoryType string
	Contents    [][]byte
	Timestamp   Physical
	Message     string
}

// CreateParams are the caller-supplied fields for a new Change; id, resource
// identity verification, and the signature are computed by NewChange.
type CreateParams struct {
	Tips        []ChangeId
	HistoryType string
	Contents    [][]byte
	TypeName    TypeName
	Message     string
}

// NewChange allocates a new Change: it hashes the canonical encoding of
// everything but the signature to produce the ChangeId, signs that id with
// signer, and returns the fully populated, verifiable Change.
func NewChange(resource ResourceId, signer Signer, now Physical, params CreateParams) (*Change, error) {
	if err := params.TypeName.Validate(); err != nil {
		return nil, err
	}
	body := changeBody{
		Parents:     params.Tips,
		Resource:    resource,
		TypeName:    params.TypeName,
		HistoryType: params.HistoryType,
		Contents:    params.Contents,
		Timestamp:   now,
		Message:     params.Message,
	}
	encoded, err := canonicalEncMode.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("cob: encode change body: %w", err)
	}
	id, err := NewContentID(encoded)
	if err != nil {
		return nil, fmt.Errorf("cob: hash change body: %w", err)
	}
	sig, err := signer.Sign(id.Bytes())
	if err != nil {
		return nil, fmt.Errorf("cob: sign change: %w", err)
	}
	return &Change{
		ID:          id,
		Parents:     params.Tips,
		Resource:    resource,
		TypeName:    params.TypeName,
		HistoryType: params.HistoryType,
		Contents:    params.Contents,
		Signature:   Signature{Key: signer.NodeId(), Sig: sig},
		Timestamp:   now,
		Message:     params.Message,
	}, nil
}

// Verify checks that the Change's id is the correct hash of its canonical
// body and that its signature validates that id under its claimed key.
// Tampering with any field invalidates the signature.
func (c *Change) Verify() error {
	body := changeBody{
		Parents:     c.Parents,
		Resource:    c.Resource,
		TypeName:    c.TypeName,
		HistoryType: c.HistoryType,
		Contents:    c.Contents,
		Timestamp:   c.Timestamp,
		Message:     c.Message,
	}
	encoded, err := canonicalEncMode.Marshal(body)
	if err != nil {
		return fmt.Errorf("cob: encode change body: %w", err)
	}
	wantID, err := NewContentID(encoded)
	if err != nil {
		return fmt.Errorf("cob: hash change body: %w", err)
	}
	if !wantID.Equal(c.ID) {
		return ErrMalformed
	}
	return verifySignature(c.Signature.Key, c.ID.Bytes(), c.Signature.Sig)
}

func verifySignature(key NodeId, msg, sig []byte) error {
	if !ed25519Verify(key.PublicKey(), msg, sig) {
		return ErrInvalidSignature
	}
	return nil
}
