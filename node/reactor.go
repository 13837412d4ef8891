package node

import (
	"context"
	"sync"
)

// IoKind tags the variant of an Io instruction emitted by the Service.
type IoKind int

const (
	IoWrite IoKind = iota
	IoConnect
	IoDisconnect
	IoEvent
	IoSetTimer
	IoWakeup
)

// Io is one instruction the Service asks its Reactor to carry out. Only the
// fields relevant to Kind are populated.
type Io struct {
	Kind     IoKind
	Addr     string
	Message  Message
	Event    ServiceEvent
	Reason   string
	DelaySecs uint64
}

// Outbox accumulates Io instructions the Service has decided to issue;
// Drain hands them to the Reactor and clears the buffer, matching the
// append-only/drain pattern of an unbounded work queue with no backpressure.
type Outbox struct {
	mu    sync.Mutex
	items []Io
}

// NewOutbox constructs an empty Outbox.
func NewOutbox() *Outbox { return &Outbox{} }

// Push appends an instruction.
func (o *Outbox) Push(io Io) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.items = append(o.items, io)
}

// Drain returns and clears every pending instruction.
func (o *Outbox) Drain() []Io {
	o.mu.Lock()
	defer o.mu.Unlock()
	items := o.items
	o.items = nil
	return items
}

// Len reports how many instructions are currently pending.
func (o *Outbox) Len() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.items)
}

// Reactor drives a Service against real I/O: opening listeners, dialing
// peers, reading/writing frames, and delivering timer/wakeup events. The
// production implementation is an external collaborator; this package
// supplies only the interface and a deterministic test double (SimReactor).
type Reactor interface {
	Run(ctx context.Context, listenAddrs []string, svc *Service) error
}
