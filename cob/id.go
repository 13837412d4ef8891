package cob

import (
	"bytes"
	"crypto/ed25519"
	"encoding/hex"
	"errors"
	"strings"

	"github.com/ipfs/go-cid"
	mh "github.com/multiformats/go-multihash"
)

// ContentID is a CIDv1, raw-codec, SHA2-256 content address. ChangeId,
// ObjectId and ResourceId are all ContentID newtypes distinguished only by
// the role they play, the same way the teacher's storage.go derives a CID
// from raw bytes for a blob pin.
type ContentID struct {
	c cid.Cid
}

// NewContentID hashes data and wraps it in a CIDv1/raw/sha2-256 address.
func NewContentID(data []byte) (ContentID, error) {
	digest, err := mh.Sum(data, mh.SHA2_256, -1)
	if err != nil {
		return ContentID{}, err
	}
	return ContentID{c: cid.NewCidV1(cid.Raw, digest)}, nil
}

// ParseContentID decodes the string form produced by String().
func ParseContentID(s string) (ContentID, error) {
	c, err := cid.Decode(s)
	if err != nil {
		return ContentID{}, err
	}
	return ContentID{c: c}, nil
}

func (c ContentID) String() string   { return c.c.String() }
func (c ContentID) Bytes() []byte    { return c.c.Bytes() }
func (c ContentID) IsZero() bool     { return !c.c.Defined() }
func (c ContentID) Equal(o ContentID) bool { return c.c.Equals(o.c) }

// Less orders two content ids lexicographically by their raw bytes. This is
// the tie-break used to make history evaluation deterministic across peers
// when Lamport depth and timestamp are equal.
func (c ContentID) Less(o ContentID) bool {
	return bytes.Compare(c.Bytes(), o.Bytes()) < 0
}

// MarshalBinary/UnmarshalBinary let ContentID participate directly in CBOR
// canonical encoding as a byte string rather than a nested map.
func (c ContentID) MarshalBinary() ([]byte, error) { return c.Bytes(), nil }

func (c *ContentID) UnmarshalBinary(data []byte) error {
	parsed, err := cid.Cast(data)
	if err != nil {
		return err
	}
	c.c = parsed
	return nil
}

// ChangeId content-addresses a single Change.
type ChangeId = ContentID

// ObjectId content-addresses the root Change of a collaborative object.
type ObjectId = ContentID

// ResourceId content-addresses the parent identity (project) a COB belongs to.
type ResourceId = ContentID

// NodeId is a peer's Ed25519 public key.
type NodeId struct {
	key ed25519.PublicKey
}

// NewNodeId wraps a raw Ed25519 public key.
func NewNodeId(pub ed25519.PublicKey) (NodeId, error) {
	if len(pub) != ed25519.PublicKeySize {
		return NodeId{}, errors.New("cob: invalid ed25519 public key length")
	}
	return NodeId{key: pub}, nil
}

func (n NodeId) PublicKey() ed25519.PublicKey { return n.key }
func (n NodeId) Bytes() []byte                { return []byte(n.key) }
func (n NodeId) String() string               { return hex.EncodeToString(n.key) }
func (n NodeId) Equal(o NodeId) bool          { return bytes.Equal(n.key, o.key) }
func (n NodeId) IsZero() bool                 { return len(n.key) == 0 }

func (n NodeId) MarshalBinary() ([]byte, error) { return n.Bytes(), nil }

func (n *NodeId) UnmarshalBinary(data []byte) error {
	if len(data) != ed25519.PublicKeySize {
		return errors.New("cob: invalid ed25519 public key length")
	}
	n.key = ed25519.PublicKey(append([]byte(nil), data...))
	return nil
}

// TypeName is a namespaced string scoping a COB kind, e.g. "radicle.issue".
type TypeName string

// Validate checks that a TypeName is non-empty, printable ASCII and
// namespaced (contains at least one '.').
func (t TypeName) Validate() error {
	s := string(t)
	if s == "" {
		return errors.New("cob: empty typename")
	}
	if !strings.Contains(s, ".") {
		return errors.New("cob: typename must be namespaced (contain a '.')")
	}
	for i := 0; i < len(s); i++ {
		if s[i] < 0x20 || s[i] > 0x7e {
			return errors.New("cob: typename must be printable ASCII")
		}
	}
	return nil
}
