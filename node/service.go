package node

import (
	"math/rand"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"collabnode/cob"
)

// Config is the subset of a running node's configuration the Service
// consumes directly.
type Config struct {
	Magic            uint32
	MaxPeers         int
	KeepaliveSecs    uint64
	IdleTimeoutSecs  uint64
	TickIntervalSecs uint64
}

// CommandKind tags the variant of an operator-issued Command.
type CommandKind int

const (
	CommandAnnounce CommandKind = iota
	CommandFetch
	CommandConnect
	CommandDisconnect
	CommandSubscribe
)

// Command is an operator- or application-issued instruction, correlated to
// its eventual ServiceEvent by CorrelationId.
type Command struct {
	Kind          CommandKind
	Addr          string
	Resource      cob.ResourceId
	Topics        []cob.TypeName
	CorrelationId uuid.UUID
}

// ServiceEventKind tags the variant of a ServiceEvent.
type ServiceEventKind int

const (
	EventAnnounced ServiceEventKind = iota
	EventFetched
	EventPeerConnected
	EventPeerDisconnected
)

// ServiceEvent reports the outcome of a Command or an unsolicited
// connection lifecycle change, surfaced to the application via the outbox.
type ServiceEvent struct {
	Kind          ServiceEventKind
	Addr          string
	CorrelationId uuid.UUID
	Err           string
}

// Service is the single-threaded, cooperative core of a node: it owns no
// sockets itself, only decides what I/O should happen in response to each
// input, expressed as Io instructions appended to its Outbox.
type Service struct {
	mu sync.Mutex

	cfg           Config
	addressBook   *AddressBook
	rng           *rand.Rand
	clock         cob.Clock
	signer        cob.Signer
	outbox        *Outbox
	sessions      map[string]*Session
	inventoryRefs []string
	metrics       *Metrics
	log           *logrus.Logger
}

// NewService constructs a Service. rngSeed lets tests and replay-determinism
// checks fix the sequence of any randomized decisions (peer sampling).
func NewService(cfg Config, addressBook *AddressBook, clock cob.Clock, signer cob.Signer, rngSeed int64, metrics *Metrics, log *logrus.Logger) *Service {
	if log == nil {
		log = logrus.New()
	}
	return &Service{
		cfg:         cfg,
		addressBook: addressBook,
		rng:         rand.New(rand.NewSource(rngSeed)),
		clock:       clock,
		signer:      signer,
		outbox:      NewOutbox(),
		sessions:    make(map[string]*Session),
		metrics:     metrics,
		log:         log,
	}
}

// Outbox exposes the Service's pending-instruction queue.
func (s *Service) Outbox() *Outbox { return s.outbox }

// Now reads the Service's injected clock, the timestamp a Reactor should
// pass to the next input it feeds in.
func (s *Service) Now() cob.Physical { return s.clock.Now() }

func (s *Service) recordCounts() {
	if s.metrics == nil {
		return
	}
	s.metrics.SetPeerCount(s.addressBook.Len())
	s.metrics.SetSessionCount(len(s.sessions))
	s.metrics.SetOutboxDepth(s.outbox.Len())
}

// Initialize starts the service: it schedules the recurring tick timer the
// Reactor must fire Tick with.
func (s *Service) Initialize(now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.outbox.Push(Io{Kind: IoSetTimer, DelaySecs: s.cfg.TickIntervalSecs})
	s.recordCounts()
}

// Tick runs periodic maintenance: idle-session eviction and, while under
// MaxPeers, a new outbound connection attempt sampled from the address
// book.
func (s *Service) Tick(now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for addr, sess := range s.sessions {
		if sess.IdleExpired(now) {
			s.outbox.Push(Io{Kind: IoDisconnect, Addr: addr, Reason: "idle_timeout"})
			continue
		}
		if sess.NeedsKeepalive(now, s.cfg.KeepaliveSecs) {
			sess.MarkKeepaliveSent()
			s.outbox.Push(Io{Kind: IoWrite, Addr: addr, Message: Ping{Nonce: uint64(now.AsSecs())}})
		}
	}

	if len(s.sessions) < s.cfg.MaxPeers {
		if addr, ok := s.sampleUnconnected(); ok {
			s.addressBook.MarkAttempt(addr, now)
			s.outbox.Push(Io{Kind: IoConnect, Addr: addr})
		}
	}

	s.outbox.Push(Io{Kind: IoSetTimer, DelaySecs: s.cfg.TickIntervalSecs})
	s.recordCounts()
}

func (s *Service) sampleUnconnected() (string, bool) {
	all := s.addressBook.All()
	if len(all) == 0 {
		return "", false
	}
	order := s.rng.Perm(len(all))
	for _, i := range order {
		addr := all[i].Addr
		if _, connected := s.sessions[addr]; !connected {
			return addr, true
		}
	}
	return "", false
}

// Attempted records that the Reactor attempted (but has not yet confirmed)
// an outbound connection to addr.
func (s *Service) Attempted(addr string, now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.addressBook.MarkAttempt(addr, now)
}

// Connected records a newly established link. An outbound link speaks
// first: it emits Initialize + InventoryAnnouncement immediately, staying
// in Handshaking until the peer's own Initialize arrives. An inbound link
// stays silent until it has observed the peer's Initialize (§4.6).
func (s *Service) Connected(addr string, link LinkDirection, now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[addr] = NewSession(addr, link, now, s.cfg.IdleTimeoutSecs)
	s.addressBook.MarkSuccess(addr, now)
	if link == Outbound {
		s.greet(addr, now)
	}
	s.recordCounts()
}

// greet emits this node's Initialize followed by its current
// InventoryAnnouncement, the pair every session must send exactly once:
// eagerly for an Outbound link, or echoed on receipt of the peer's
// Initialize for an Inbound one.
func (s *Service) greet(addr string, now cob.Physical) {
	s.outbox.Push(Io{
		Kind: IoWrite,
		Addr: addr,
		Message: Initialize{
			NodeId:    s.signer.NodeId(),
			Agent:     "collabnode",
			Timestamp: now,
		},
	})
	s.outbox.Push(Io{
		Kind:    IoWrite,
		Addr:    addr,
		Message: InventoryAnnouncement{Refs: s.inventory()},
	})
}

// inventory returns the ref set this node advertises in handshake
// InventoryAnnouncements. Nil until a caller sets one with SetInventory: a
// bare Service has no backing store of its own to enumerate (§4.8 keeps
// storage a separate concern from link bookkeeping).
func (s *Service) inventory() []string {
	return s.inventoryRefs
}

// SetInventory replaces the ref set advertised in future handshakes.
func (s *Service) SetInventory(refs []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inventoryRefs = refs
}

// Disconnected tears down a session and schedules a backoff-delayed
// reconnect attempt if the link was outbound.
func (s *Service) Disconnected(addr string, now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[addr]
	delete(s.sessions, addr)
	s.outbox.Push(Io{Kind: IoEvent, Event: ServiceEvent{Kind: EventPeerDisconnected, Addr: addr}})
	if ok && sess.Link == Outbound {
		sess.attempts++
		s.outbox.Push(Io{Kind: IoSetTimer, DelaySecs: NextBackoffSecs(sess.attempts)})
	}
	s.recordCounts()
}

// ReceivedMessage advances the session for addr according to the message
// received, and returns any protocol error encountered.
func (s *Service) ReceivedMessage(addr string, msg Message, now cob.Physical) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[addr]
	if !ok {
		return ErrUnknownSession
	}

	if sess.State == Handshaking {
		if _, ok := msg.(Initialize); !ok {
			sess.ProtocolViolation()
			s.outbox.Push(Io{Kind: IoDisconnect, Addr: addr, Reason: "protocol_violation"})
			return ErrUnexpectedTransition
		}
	}

	switch m := msg.(type) {
	case Initialize:
		magicOK := true // the magic itself is validated by the framing layer
		wasHandshaking := sess.State == Handshaking
		if err := sess.ReceiveInitialize(now, magicOK, m.NodeId, s.cfg.IdleTimeoutSecs); err != nil {
			s.outbox.Push(Io{Kind: IoDisconnect, Addr: addr, Reason: "protocol_error"})
			return err
		}
		if wasHandshaking && sess.Link == Inbound {
			s.greet(addr, now)
		}
	case InventoryAnnouncement:
		sess.Touch(now, s.cfg.IdleTimeoutSecs)
		if sess.State == Initialized {
			if err := sess.Activate(now, s.cfg.IdleTimeoutSecs); err != nil {
				return err
			}
			s.outbox.Push(Io{Kind: IoEvent, Event: ServiceEvent{Kind: EventPeerConnected, Addr: addr}})
		}
	case Ping:
		sess.Touch(now, s.cfg.IdleTimeoutSecs)
		s.outbox.Push(Io{Kind: IoWrite, Addr: addr, Message: Pong{Nonce: m.Nonce}})
	case Pong:
		sess.Touch(now, s.cfg.IdleTimeoutSecs)
	case NodeAnnouncement:
		sess.Touch(now, s.cfg.IdleTimeoutSecs)
		s.addressBook.Insert(m.Addr, SourcePeer, now)
	case RefsAnnouncement, Subscribe:
		sess.Touch(now, s.cfg.IdleTimeoutSecs)
	}
	s.recordCounts()
	return nil
}

// MagicMismatch is called by the framing layer when an inbound frame's
// magic doesn't match this node's network, forcing the session closed.
func (s *Service) MagicMismatch(addr string, now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[addr]; ok {
		sess.Close()
	}
	s.outbox.Push(Io{Kind: IoDisconnect, Addr: addr, Reason: "protocol_error"})
	s.recordCounts()
}

// Command dispatches an operator-issued instruction, appending the
// resulting Io and/or ServiceEvent to the outbox.
func (s *Service) Command(cmd Command, now cob.Physical) {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch cmd.Kind {
	case CommandConnect:
		s.outbox.Push(Io{Kind: IoConnect, Addr: cmd.Addr})
	case CommandDisconnect:
		if sess, ok := s.sessions[cmd.Addr]; ok {
			sess.Close()
		}
		s.outbox.Push(Io{Kind: IoDisconnect, Addr: cmd.Addr, Reason: "requested"})
	case CommandAnnounce:
		if s.metrics != nil {
			s.metrics.IncCobOps()
		}
		s.outbox.Push(Io{Kind: IoEvent, Event: ServiceEvent{Kind: EventAnnounced, CorrelationId: cmd.CorrelationId}})
	case CommandFetch:
		s.outbox.Push(Io{Kind: IoEvent, Event: ServiceEvent{Kind: EventFetched, CorrelationId: cmd.CorrelationId}})
	case CommandSubscribe:
		for addr, sess := range s.sessions {
			if sess.State == Active {
				s.outbox.Push(Io{Kind: IoWrite, Addr: addr, Message: Subscribe{Topics: cmd.Topics}})
			}
		}
	}
	s.recordCounts()
}
