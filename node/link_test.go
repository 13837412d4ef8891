package node_test

import (
	"testing"

	"collabnode/cob"
	"collabnode/node"
)

func TestSessionHandshakeTransitions(t *testing.T) {
	now := cob.NewPhysical(0)
	sess := node.NewSession("10.0.0.1:8776", node.Outbound, now, 90)
	if sess.State != node.Handshaking {
		t.Fatalf("initial state = %v, want Handshaking", sess.State)
	}

	if err := sess.ReceiveInitialize(cob.NewPhysical(1), true, cob.NodeId{}, 90); err != nil {
		t.Fatalf("receive initialize: %v", err)
	}
	if sess.State != node.Initialized {
		t.Fatalf("state after initialize = %v, want Initialized", sess.State)
	}

	if err := sess.Activate(cob.NewPhysical(2), 90); err != nil {
		t.Fatalf("activate: %v", err)
	}
	if sess.State != node.Active {
		t.Fatalf("state after activate = %v, want Active", sess.State)
	}
}

func TestSessionMagicMismatchCloses(t *testing.T) {
	sess := node.NewSession("10.0.0.2:8776", node.Inbound, cob.NewPhysical(0), 90)
	err := sess.ReceiveInitialize(cob.NewPhysical(1), false, cob.NodeId{}, 90)
	if err != node.ErrMagicMismatch {
		t.Fatalf("err = %v, want ErrMagicMismatch", err)
	}
	if sess.State != node.Closing {
		t.Fatalf("state = %v, want Closing", sess.State)
	}
}

func TestSessionIdleExpiry(t *testing.T) {
	sess := node.NewSession("10.0.0.3:8776", node.Outbound, cob.NewPhysical(0), 10)
	if sess.IdleExpired(cob.NewPhysical(5)) {
		t.Fatalf("should not be expired yet")
	}
	if !sess.IdleExpired(cob.NewPhysical(11)) {
		t.Fatalf("should be expired")
	}
	if sess.State != node.Closing {
		t.Fatalf("state = %v, want Closing", sess.State)
	}
}

func TestSessionNeedsKeepaliveAfterSilence(t *testing.T) {
	sess := node.NewSession("10.0.0.4:8776", node.Outbound, cob.NewPhysical(0), 90)
	if sess.NeedsKeepalive(cob.NewPhysical(5), 30) {
		t.Fatalf("should not need keepalive before handshake completes")
	}

	if err := sess.ReceiveInitialize(cob.NewPhysical(0), true, cob.NodeId{}, 90); err != nil {
		t.Fatalf("receive initialize: %v", err)
	}
	if err := sess.Activate(cob.NewPhysical(0), 90); err != nil {
		t.Fatalf("activate: %v", err)
	}

	if sess.NeedsKeepalive(cob.NewPhysical(10), 30) {
		t.Fatalf("should not need keepalive before the interval elapses")
	}
	if !sess.NeedsKeepalive(cob.NewPhysical(30), 30) {
		t.Fatalf("should need keepalive once silent for >= the interval")
	}

	sess.MarkKeepaliveSent()
	if sess.NeedsKeepalive(cob.NewPhysical(31), 30) {
		t.Fatalf("should not re-request keepalive while one is already in flight")
	}

	sess.Touch(cob.NewPhysical(31), 90)
	if sess.NeedsKeepalive(cob.NewPhysical(40), 30) {
		t.Fatalf("Touch should clear the pending keepalive and reset the silence window")
	}
}

func TestNextBackoffSecsGrowsAndCaps(t *testing.T) {
	if got := node.NextBackoffSecs(0); got != 1 {
		t.Fatalf("attempt 0 = %d, want 1", got)
	}
	if got := node.NextBackoffSecs(1); got != 2 {
		t.Fatalf("attempt 1 = %d, want 2", got)
	}
	if got := node.NextBackoffSecs(20); got != 300 {
		t.Fatalf("attempt 20 = %d, want capped at 300", got)
	}
}
