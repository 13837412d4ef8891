package node

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"collabnode/cob"
)

// Source records how an address was learned. Higher-provenance sources are
// never overwritten by a lower one for the same address.
type Source int

const (
	SourceDns Source = iota
	SourceBootstrap
	SourceImported
	SourcePeer
)

func (s Source) priority() int {
	switch s {
	case SourceDns, SourceBootstrap, SourceImported:
		return 1
	default:
		return 0
	}
}

// KnownAddress is one entry in the AddressBook.
type KnownAddress struct {
	Addr        string
	Source      Source
	LastSuccess cob.Physical
	LastAttempt cob.Physical
}

// AddressBook tracks every address a node has learned, keeping durable
// sources (Dns, Bootstrap, Imported) in an unbounded map and bounding
// Peer-gossiped addresses behind an LRU cache so a hostile peer can't grow
// the book without limit.
type AddressBook struct {
	mu     sync.Mutex
	known  map[string]KnownAddress
	gossip *lru.Cache[string, KnownAddress]
}

// NewAddressBook constructs an AddressBook bounding Peer-sourced entries to
// peerCapacity.
func NewAddressBook(peerCapacity int) (*AddressBook, error) {
	cache, err := lru.New[string, KnownAddress](peerCapacity)
	if err != nil {
		return nil, err
	}
	return &AddressBook{
		known:  make(map[string]KnownAddress),
		gossip: cache,
	}, nil
}

// Insert records addr as learned from source. A Peer-sourced address never
// overwrites an existing Dns/Bootstrap/Imported entry for the same address.
func (b *AddressBook) Insert(addr string, source Source, now cob.Physical) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if existing, ok := b.known[addr]; ok && existing.Source.priority() >= source.priority() {
		return
	}
	if _, ok := b.gossip.Get(addr); ok && source.priority() == 0 {
		return
	}

	entry := KnownAddress{Addr: addr, Source: source, LastAttempt: now}
	if source.priority() == 1 {
		delete(b.known, addr)
		b.gossip.Remove(addr)
		b.known[addr] = entry
		return
	}
	b.gossip.Add(addr, entry)
}

// MarkAttempt records a connection attempt timestamp for addr.
func (b *AddressBook) MarkAttempt(addr string, now cob.Physical) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.known[addr]; ok {
		e.LastAttempt = now
		b.known[addr] = e
		return
	}
	if e, ok := b.gossip.Get(addr); ok {
		e.LastAttempt = now
		b.gossip.Add(addr, e)
	}
}

// MarkSuccess records a successful connection timestamp for addr.
func (b *AddressBook) MarkSuccess(addr string, now cob.Physical) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if e, ok := b.known[addr]; ok {
		e.LastSuccess = now
		b.known[addr] = e
		return
	}
	if e, ok := b.gossip.Get(addr); ok {
		e.LastSuccess = now
		b.gossip.Add(addr, e)
	}
}

// All returns every known address, durable entries first.
func (b *AddressBook) All() []KnownAddress {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]KnownAddress, 0, len(b.known)+b.gossip.Len())
	for _, e := range b.known {
		out = append(out, e)
	}
	for _, e := range b.gossip.Values() {
		out = append(out, e)
	}
	return out
}

// Len returns the total number of tracked addresses.
func (b *AddressBook) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.known) + b.gossip.Len()
}
