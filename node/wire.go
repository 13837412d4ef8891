package node

// Frame format: magic (4 bytes, big-endian) | tag (2 bytes, little-endian) |
// length (4 bytes, little-endian) | payload (length bytes, canonical CBOR).
// The magic is big-endian so it reads as a recognizable byte pattern in a
// hex dump; every other fixed-width field is little-endian.

import (
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"collabnode/cob"
)

const envelopeHeaderLen = 4 + 2 + 4

// MessageTag identifies the wire shape of a Message's payload.
type MessageTag uint16

const (
	TagInitialize MessageTag = iota + 1
	TagInventoryAnnouncement
	TagNodeAnnouncement
	TagRefsAnnouncement
	TagSubscribe
	TagPing
	TagPong
)

// Message is any of the tagged wire payloads a node exchanges with a peer.
type Message interface {
	messageTag() MessageTag
}

// Initialize is the first message exchanged on every new link, identifying
// the sender and letting the receiver validate the network magic.
type Initialize struct {
	NodeId    cob.NodeId
	Agent     string
	Timestamp cob.Physical
}

func (Initialize) messageTag() MessageTag { return TagInitialize }

// InventoryAnnouncement advertises a set of refs the sender can serve.
type InventoryAnnouncement struct {
	Refs []string
}

func (InventoryAnnouncement) messageTag() MessageTag { return TagInventoryAnnouncement }

// NodeAnnouncement advertises a peer's reachable address, for gossip-based
// address book growth.
type NodeAnnouncement struct {
	NodeId    cob.NodeId
	Addr      string
	Timestamp cob.Physical
}

func (NodeAnnouncement) messageTag() MessageTag { return TagNodeAnnouncement }

// RefsAnnouncement publishes the current ref tips for one resource.
type RefsAnnouncement struct {
	Resource cob.ResourceId
	Refs     map[string]cob.ChangeId
}

func (RefsAnnouncement) messageTag() MessageTag { return TagRefsAnnouncement }

// Subscribe requests gossip for a set of collaborative-object type names.
type Subscribe struct {
	Topics []cob.TypeName
}

func (Subscribe) messageTag() MessageTag { return TagSubscribe }

// Ping is a keepalive probe; the receiver must answer with a Pong carrying
// the same nonce.
type Ping struct {
	Nonce uint64
}

func (Ping) messageTag() MessageTag { return TagPing }

// Pong answers a Ping.
type Pong struct {
	Nonce uint64
}

func (Pong) messageTag() MessageTag { return TagPong }

func encodeMessage(msg Message) (MessageTag, []byte, error) {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		return 0, nil, fmt.Errorf("node: build canonical cbor encoder: %w", err)
	}
	payload, err := em.Marshal(msg)
	if err != nil {
		return 0, nil, fmt.Errorf("node: encode message: %w", err)
	}
	return msg.messageTag(), payload, nil
}

func decodeMessage(tag MessageTag, payload []byte) (Message, error) {
	var msg Message
	switch tag {
	case TagInitialize:
		var m Initialize
		msg = &m
	case TagInventoryAnnouncement:
		var m InventoryAnnouncement
		msg = &m
	case TagNodeAnnouncement:
		var m NodeAnnouncement
		msg = &m
	case TagRefsAnnouncement:
		var m RefsAnnouncement
		msg = &m
	case TagSubscribe:
		var m Subscribe
		msg = &m
	case TagPing:
		var m Ping
		msg = &m
	case TagPong:
		var m Pong
		msg = &m
	default:
		return nil, ErrUnknownMessageTag
	}
	if err := cbor.Unmarshal(payload, msg); err != nil {
		return nil, fmt.Errorf("node: decode message: %w", err)
	}
	return derefMessage(msg), nil
}

// derefMessage unwraps the pointer decodeMessage unmarshals into so callers
// receive the same value shape EncodeFrame accepts.
func derefMessage(msg Message) Message {
	switch m := msg.(type) {
	case *Initialize:
		return *m
	case *InventoryAnnouncement:
		return *m
	case *NodeAnnouncement:
		return *m
	case *RefsAnnouncement:
		return *m
	case *Subscribe:
		return *m
	case *Ping:
		return *m
	case *Pong:
		return *m
	default:
		return msg
	}
}

// EncodeFrame serializes msg into a complete wire frame tagged with magic.
func EncodeFrame(magic uint32, msg Message) ([]byte, error) {
	tag, payload, err := encodeMessage(msg)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, envelopeHeaderLen, envelopeHeaderLen+len(payload))
	binary.BigEndian.PutUint32(buf[0:4], magic)
	binary.LittleEndian.PutUint16(buf[4:6], uint16(tag))
	binary.LittleEndian.PutUint32(buf[6:10], uint32(len(payload)))
	buf = append(buf, payload...)
	return buf, nil
}

// DecodeFrame reads one frame from the front of data, returning the magic,
// the decoded message, and whatever bytes follow the frame.
func DecodeFrame(data []byte) (magic uint32, msg Message, rest []byte, err error) {
	if len(data) < envelopeHeaderLen {
		return 0, nil, nil, ErrShortFrame
	}
	magic = binary.BigEndian.Uint32(data[0:4])
	tag := MessageTag(binary.LittleEndian.Uint16(data[4:6]))
	length := binary.LittleEndian.Uint32(data[6:10])
	if uint32(len(data)-envelopeHeaderLen) < length {
		return 0, nil, nil, ErrIncompleteFrame
	}
	payload := data[envelopeHeaderLen : envelopeHeaderLen+int(length)]
	msg, err = decodeMessage(tag, payload)
	if err != nil {
		return 0, nil, nil, err
	}
	rest = data[envelopeHeaderLen+int(length):]
	return magic, msg, rest, nil
}
