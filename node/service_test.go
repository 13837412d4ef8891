package node_test

import (
	"reflect"
	"testing"

	"collabnode/cob"
	"collabnode/node"
)

func newTestService(t *testing.T, rngSeed int64) *node.Service {
	t.Helper()
	book, err := node.NewAddressBook(32)
	if err != nil {
		t.Fatalf("new address book: %v", err)
	}
	signer, err := cob.LocalSignerFromSeed(make([]byte, 32))
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	cfg := node.Config{
		Magic:            0x52414431,
		MaxPeers:         8,
		KeepaliveSecs:    30,
		IdleTimeoutSecs:  90,
		TickIntervalSecs: 10,
	}
	return node.NewService(cfg, book, cob.NewMockClock(), signer, rngSeed, node.NewMetrics(), nil)
}

func TestHandshakeSequenceEmitsInitializeThenPeerConnected(t *testing.T) {
	svc := newTestService(t, 1)
	addr := "10.0.0.5:8776"

	svc.Connected(addr, node.Outbound, cob.NewPhysical(0))
	first := svc.Outbox().Drain()
	if len(first) != 2 || first[0].Kind != node.IoWrite || first[1].Kind != node.IoWrite {
		t.Fatalf("expected Initialize + InventoryAnnouncement Write ios after Connected, got %+v", first)
	}
	if _, ok := first[0].Message.(node.Initialize); !ok {
		t.Fatalf("expected Initialize message, got %T", first[0].Message)
	}
	if _, ok := first[1].Message.(node.InventoryAnnouncement); !ok {
		t.Fatalf("expected InventoryAnnouncement message, got %T", first[1].Message)
	}

	if err := svc.ReceivedMessage(addr, node.Initialize{}, cob.NewPhysical(1)); err != nil {
		t.Fatalf("received initialize (handshaking): %v", err)
	}
	svc.Outbox().Drain()

	if err := svc.ReceivedMessage(addr, node.InventoryAnnouncement{}, cob.NewPhysical(2)); err != nil {
		t.Fatalf("received inventory announcement (initialized): %v", err)
	}
	second := svc.Outbox().Drain()
	found := false
	for _, io := range second {
		if io.Kind == node.IoEvent && io.Event.Kind == node.EventPeerConnected {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected a PeerConnected event, got %+v", second)
	}
}

func TestInboundSessionEchoesGreetingOnInitialize(t *testing.T) {
	svc := newTestService(t, 1)
	svc.SetInventory([]string{"refs/cobs/collabnode.issue/abc"})
	addr := "10.0.0.9:8776"

	svc.Connected(addr, node.Inbound, cob.NewPhysical(0))
	if out := svc.Outbox().Drain(); len(out) != 0 {
		t.Fatalf("inbound Connected should stay silent until the peer speaks, got %+v", out)
	}

	if err := svc.ReceivedMessage(addr, node.Initialize{}, cob.NewPhysical(1)); err != nil {
		t.Fatalf("received initialize: %v", err)
	}
	echoed := svc.Outbox().Drain()
	if len(echoed) != 2 {
		t.Fatalf("expected Initialize + InventoryAnnouncement echo, got %+v", echoed)
	}
	if _, ok := echoed[0].Message.(node.Initialize); !ok {
		t.Fatalf("expected Initialize first, got %T", echoed[0].Message)
	}
	inv, ok := echoed[1].Message.(node.InventoryAnnouncement)
	if !ok {
		t.Fatalf("expected InventoryAnnouncement second, got %T", echoed[1].Message)
	}
	if len(inv.Refs) != 1 || inv.Refs[0] != "refs/cobs/collabnode.issue/abc" {
		t.Fatalf("unexpected advertised inventory: %+v", inv.Refs)
	}
}

func TestNonInitializeDuringHandshakingIsProtocolViolation(t *testing.T) {
	svc := newTestService(t, 1)
	addr := "10.0.0.10:8776"
	svc.Connected(addr, node.Outbound, cob.NewPhysical(0))
	svc.Outbox().Drain()

	err := svc.ReceivedMessage(addr, node.Ping{Nonce: 1}, cob.NewPhysical(1))
	if err == nil {
		t.Fatalf("expected a protocol violation error")
	}
	out := svc.Outbox().Drain()
	var disconnect *node.Io
	for i := range out {
		if out[i].Kind == node.IoDisconnect {
			disconnect = &out[i]
		}
	}
	if disconnect == nil || disconnect.Reason != "protocol_violation" {
		t.Fatalf("expected Disconnect(protocol_violation), got %+v", out)
	}
}

func TestMagicMismatchClosesWithProtocolError(t *testing.T) {
	svc := newTestService(t, 1)
	addr := "10.0.0.6:8776"
	svc.Connected(addr, node.Inbound, cob.NewPhysical(0))
	svc.Outbox().Drain()

	svc.MagicMismatch(addr, cob.NewPhysical(1))
	events := svc.Outbox().Drain()

	var disconnect *node.Io
	for i := range events {
		if events[i].Kind == node.IoDisconnect {
			disconnect = &events[i]
		}
	}
	if disconnect == nil {
		t.Fatalf("expected a Disconnect io, got %+v", events)
	}
	if disconnect.Reason != "protocol_error" {
		t.Fatalf("reason = %q, want protocol_error", disconnect.Reason)
	}
}

func replayScript() []node.SimStep {
	return []node.SimStep{
		{Kind: "connected", Addr: "10.0.0.7:8776", Link: node.Outbound, Now: cob.NewPhysical(0)},
		{Kind: "message", Addr: "10.0.0.7:8776", Msg: node.Initialize{}, Now: cob.NewPhysical(1)},
		{Kind: "message", Addr: "10.0.0.7:8776", Msg: node.InventoryAnnouncement{}, Now: cob.NewPhysical(2)},
		{Kind: "message", Addr: "10.0.0.7:8776", Msg: node.Ping{Nonce: 7}, Now: cob.NewPhysical(3)},
		{Kind: "tick", Now: cob.NewPhysical(4)},
		{Kind: "disconnected", Addr: "10.0.0.7:8776", Now: cob.NewPhysical(5)},
	}
}

func TestReplayIsDeterministicAcrossIndependentServices(t *testing.T) {
	svcA := newTestService(t, 99)
	svcB := newTestService(t, 99)

	reactorA := &node.SimReactor{Steps: replayScript()}
	reactorB := &node.SimReactor{Steps: replayScript()}

	outA := reactorA.Run(svcA)
	outB := reactorB.Run(svcB)

	if !reflect.DeepEqual(outA, outB) {
		t.Fatalf("replay diverged:\nA: %+v\nB: %+v", outA, outB)
	}
}
