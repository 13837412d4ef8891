package node

import "collabnode/cob"

// LinkDirection records which side of a connection initiated it.
type LinkDirection int

const (
	Inbound LinkDirection = iota
	Outbound
)

// SessionState is a position in the per-link handshake state machine.
type SessionState int

const (
	Handshaking SessionState = iota
	Initialized
	Active
	Closing
)

func (s SessionState) String() string {
	switch s {
	case Handshaking:
		return "handshaking"
	case Initialized:
		return "initialized"
	case Active:
		return "active"
	case Closing:
		return "closing"
	default:
		return "unknown"
	}
}

// Session tracks one peer connection's handshake progress and idle deadline.
type Session struct {
	Addr         string
	Link         LinkDirection
	State        SessionState
	Since        cob.Physical
	IdleDeadline cob.Physical
	LastActivity cob.Physical
	PeerNodeId   cob.NodeId
	pingPending  bool
	attempts     int
}

// NewSession opens a session in the Handshaking state.
func NewSession(addr string, link LinkDirection, now cob.Physical, idleTimeoutSecs uint64) *Session {
	return &Session{
		Addr:         addr,
		Link:         link,
		State:        Handshaking,
		Since:        now,
		IdleDeadline: now.Add(idleTimeoutSecs),
		LastActivity: now,
	}
}

// ReceiveInitialize advances Handshaking -> Initialized on a valid magic,
// recording the peer's node id, or forces Closing on a mismatch.
func (s *Session) ReceiveInitialize(now cob.Physical, magicOK bool, peerNodeId cob.NodeId, idleTimeoutSecs uint64) error {
	if s.State != Handshaking {
		return ErrUnexpectedTransition
	}
	if !magicOK {
		s.State = Closing
		return ErrMagicMismatch
	}
	s.State = Initialized
	s.Since = now
	s.IdleDeadline = now.Add(idleTimeoutSecs)
	s.LastActivity = now
	s.PeerNodeId = peerNodeId
	return nil
}

// Activate advances Initialized -> Active on receipt of the peer's
// InventoryAnnouncement, the state a session must be in to exchange
// ordinary gossip and ref traffic.
func (s *Session) Activate(now cob.Physical, idleTimeoutSecs uint64) error {
	if s.State != Initialized {
		return ErrUnexpectedTransition
	}
	s.State = Active
	s.Since = now
	s.IdleDeadline = now.Add(idleTimeoutSecs)
	s.LastActivity = now
	return nil
}

// ProtocolViolation forces Closing on any message that violates the link
// state machine (wrong magic, or traffic other than Initialize sent before
// the handshake completes).
func (s *Session) ProtocolViolation() {
	s.State = Closing
}

// Touch resets the idle deadline on receipt of any message while Active,
// and clears any pending keepalive so the silence window measured from
// LastActivity starts fresh.
func (s *Session) Touch(now cob.Physical, idleTimeoutSecs uint64) {
	s.IdleDeadline = now.Add(idleTimeoutSecs)
	s.LastActivity = now
	s.pingPending = false
}

// NeedsKeepalive reports whether an Active session has been silent longer
// than keepaliveSecs and has no keepalive probe already in flight. Callers
// must call MarkKeepaliveSent after emitting the Ping to avoid re-emitting
// one every tick until the peer responds or the idle timeout closes the
// session.
func (s *Session) NeedsKeepalive(now cob.Physical, keepaliveSecs uint64) bool {
	if s.State != Active || s.pingPending {
		return false
	}
	return now.AsSecs()-s.LastActivity.AsSecs() >= keepaliveSecs
}

// MarkKeepaliveSent records that a keepalive probe was just emitted for
// this session, suppressing further probes until the next Touch.
func (s *Session) MarkKeepaliveSent() { s.pingPending = true }

// IdleExpired reports whether now has passed the session's idle deadline,
// transitioning the session to Closing if so.
func (s *Session) IdleExpired(now cob.Physical) bool {
	if s.State == Closing {
		return false
	}
	if now.AsSecs() < s.IdleDeadline.AsSecs() {
		return false
	}
	s.State = Closing
	return true
}

// Close forces the session into Closing regardless of its current state.
func (s *Session) Close() {
	s.State = Closing
}

const (
	backoffBaseSecs = 1
	backoffCapSecs  = 300
)

// NextBackoffSecs returns the delay before the (attempt+1)'th reconnect try,
// doubling each attempt up to a fixed cap.
func NextBackoffSecs(attempt int) uint64 {
	if attempt < 0 {
		attempt = 0
	}
	delay := uint64(backoffBaseSecs)
	for i := 0; i < attempt; i++ {
		if delay >= backoffCapSecs {
			return backoffCapSecs
		}
		delay *= 2
	}
	if delay > backoffCapSecs {
		delay = backoffCapSecs
	}
	return delay
}
