package cob

// CRDT primitives: a join-semilattice Max wrapper and the Lamport/Physical
// clocks built on top of it. Lamport.Merge performs the max-merge and then
// ticks the counter so the receiver of a message strictly dominates both
// prior values.

import (
	"cmp"
	"encoding/binary"
	"errors"
)

// Max is a join-semilattice wrapper: Merge(a, b) = max(a, b). It is
// commutative, associative and idempotent.
type Max[T cmp.Ordered] struct {
	value T
}

// NewMax wraps an initial value.
func NewMax[T cmp.Ordered](v T) Max[T] { return Max[T]{value: v} }

// Get returns the wrapped value.
func (m Max[T]) Get() T { return m.value }

// Merge returns the larger of the two values, satisfying the join-semilattice
// laws: commutative, associative, idempotent.
func Merge[T cmp.Ordered](a, b Max[T]) Max[T] {
	if cmp.Less(a.value, b.value) {
		return b
	}
	return a
}

// Lamport is a monotone logical clock used to causally order events.
type Lamport struct {
	counter Max[uint64]
}

// NewLamport constructs a Lamport clock at the given value.
func NewLamport(v uint64) Lamport { return Lamport{counter: NewMax(v)} }

// Value returns the current counter value.
func (l Lamport) Value() uint64 { return l.counter.Get() }

// Tick increments the clock and returns the new value. Must be called before
// sending a message.
func (l *Lamport) Tick() Lamport {
	l.counter = NewMax(l.counter.Get() + 1)
	return *l
}

// Merge merges with another clock and then ticks, so the result strictly
// dominates max(self, other) by at least one. Must be called whenever a
// message is received.
func (l *Lamport) Merge(other Lamport) Lamport {
	l.counter = Merge(l.counter, other.counter)
	return l.Tick()
}

// Reset sets the clock back to zero.
func (l *Lamport) Reset() { l.counter = NewMax[uint64](0) }

// Clock is an injectable source of physical time. Production code uses a
// real clock; deterministic tests substitute github.com/benbjohnson/clock's
// mock so timestamp-dependent behavior can be exercised without sleeping.
type Clock interface {
	Now() Physical
}

// Physical is a Unix-seconds timestamp, used only as an ordering tiebreak and
// for display — never for causality.
type Physical struct {
	seconds uint64
}

// NewPhysical wraps a raw Unix-seconds value.
func NewPhysical(seconds uint64) Physical { return Physical{seconds: seconds} }

// PhysicalNow reads the current time off the injected Clock capability.
func PhysicalNow(c Clock) Physical { return c.Now() }

// AsSecs returns the wrapped Unix-seconds value.
func (p Physical) AsSecs() uint64 { return p.seconds }

// Less orders two physical timestamps by seconds ascending.
func (p Physical) Less(o Physical) bool { return p.seconds < o.seconds }

// Add returns a new Physical offset by the given number of seconds.
func (p Physical) Add(secs uint64) Physical { return Physical{seconds: p.seconds + secs} }

// MarshalBinary/UnmarshalBinary let Physical take part in CBOR encoding
// (change bodies, wire messages) as an 8-byte big-endian byte string, since
// its only field is unexported.
func (p Physical) MarshalBinary() ([]byte, error) {
	return binary.BigEndian.AppendUint64(nil, p.seconds), nil
}

func (p *Physical) UnmarshalBinary(data []byte) error {
	if len(data) != 8 {
		return errors.New("cob: physical timestamp must be 8 bytes")
	}
	p.seconds = binary.BigEndian.Uint64(data)
	return nil
}
