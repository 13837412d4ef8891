package cob

// History is the ordered, deduplicated event log produced by evaluating a
// change graph. It is append-only during a process's view of an object;
// divergence is resolved by re-evaluating the graph from scratch after a
// refetch, never by mutating entries in place.

// Entry is one evaluated position in a History.
type Entry struct {
	ID        ChangeId
	Author    NodeId
	Resource  ResourceId
	Contents  [][]byte
	Timestamp Physical
}

// History is an ordered sequence of Entry.
type History struct {
	entries []Entry
}

// NewHistory wraps an already-ordered slice of entries, as produced by
// Graph.Evaluate.
func NewHistory(entries []Entry) *History {
	return &History{entries: entries}
}

// Extend appends a new entry. The caller (Store.Update) must only extend
// with a change that has already been persisted and validated — Extend
// itself never fails or panics.
func (h *History) Extend(id ChangeId, author NodeId, resource ResourceId, contents [][]byte, ts Physical) {
	h.entries = append(h.entries, Entry{
		ID:        id,
		Author:    author,
		Resource:  resource,
		Contents:  contents,
		Timestamp: ts,
	})
}

// Len returns the number of entries.
func (h *History) Len() int { return len(h.entries) }

// Entries returns a read-only view of the ordered entries.
func (h *History) Entries() []Entry {
	return h.entries
}

// Tip returns the last entry's id, or the zero ChangeId if the history is
// empty.
func (h *History) Tip() ChangeId {
	if len(h.entries) == 0 {
		return ChangeId{}
	}
	return h.entries[len(h.entries)-1].ID
}

// Iter provides stable, deterministic iteration over entries in evaluation
// order, stopping early if yield returns false.
func (h *History) Iter(yield func(Entry) bool) {
	for _, e := range h.entries {
		if !yield(e) {
			return
		}
	}
}
