package node_test

import (
	"reflect"
	"testing"

	"collabnode/cob"
	"collabnode/node"
)

func TestFrameRoundTrip(t *testing.T) {
	signer, err := cob.NewLocalSigner()
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	now := cob.NewPhysical(1000)
	resource, _ := cob.NewContentID([]byte("r"))
	change, _ := cob.NewContentID([]byte("c"))

	cases := []node.Message{
		node.Initialize{NodeId: signer.NodeId(), Agent: "collabnode/0.1", Timestamp: now},
		node.InventoryAnnouncement{Refs: []string{"refs/cobs/collabnode.issue/abc"}},
		node.NodeAnnouncement{NodeId: signer.NodeId(), Addr: "127.0.0.1:8776", Timestamp: now},
		node.RefsAnnouncement{Resource: resource, Refs: map[string]cob.ChangeId{"refs/cobs/collabnode.issue/abc": change}},
		node.Subscribe{Topics: []cob.TypeName{"collabnode.issue", "collabnode.patch"}},
		node.Ping{Nonce: 42},
		node.Pong{Nonce: 42},
	}

	const magic = uint32(0x52414431)
	for _, msg := range cases {
		framed, err := node.EncodeFrame(magic, msg)
		if err != nil {
			t.Fatalf("encode %T: %v", msg, err)
		}
		gotMagic, got, rest, err := node.DecodeFrame(framed)
		if err != nil {
			t.Fatalf("decode %T: %v", msg, err)
		}
		if gotMagic != magic {
			t.Fatalf("magic = %x, want %x", gotMagic, magic)
		}
		if len(rest) != 0 {
			t.Fatalf("unexpected trailing bytes: %d", len(rest))
		}
		if !reflect.DeepEqual(got, msg) {
			t.Fatalf("round trip mismatch: got %+v, want %+v", got, msg)
		}
	}
}

func TestDecodeFrameShort(t *testing.T) {
	_, _, _, err := node.DecodeFrame([]byte{1, 2, 3})
	if err != node.ErrShortFrame {
		t.Fatalf("err = %v, want ErrShortFrame", err)
	}
}

func TestDecodeFrameMultiple(t *testing.T) {
	const magic = uint32(0x52414431)
	a, err := node.EncodeFrame(magic, node.Ping{Nonce: 1})
	if err != nil {
		t.Fatalf("encode a: %v", err)
	}
	b, err := node.EncodeFrame(magic, node.Pong{Nonce: 1})
	if err != nil {
		t.Fatalf("encode b: %v", err)
	}
	combined := append(a, b...)

	_, firstMsg, rest, err := node.DecodeFrame(combined)
	if err != nil {
		t.Fatalf("decode first: %v", err)
	}
	if _, ok := firstMsg.(node.Ping); !ok {
		t.Fatalf("first message = %T, want Ping", firstMsg)
	}
	_, secondMsg, rest, err := node.DecodeFrame(rest)
	if err != nil {
		t.Fatalf("decode second: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("expected no remaining bytes")
	}
	if _, ok := secondMsg.(node.Pong); !ok {
		t.Fatalf("second message = %T, want Pong", secondMsg)
	}
}
