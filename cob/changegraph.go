package cob

import "sort"

// Graph is the DAG over Change: edges go from child to parents via
// Change.Parents; sinks (changes with no children) are the tips. Loading
// drops unauthorized changes rather than erroring, and evaluation is a
// deterministic topological sort.
type Graph struct {
	object     ObjectId
	typename   TypeName
	resource   ResourceId
	changes    map[ChangeId]*Change
	childCount map[ChangeId]int // number of loaded children pointing at this change
}

// Authorizer decides whether a NodeId is currently a delegate authorized to
// publish changes for a resource. Unauthorized changes are dropped during
// load, never errored. Evaluated against the resource identity's current
// revision only — no historical-revision tracking, since no
// identity-revision-history type exists in this model.
type Authorizer func(NodeId) bool

// LoadGraph resolves every ref to its tip ChangeId, transitively fetches
// every ancestor via store.Load, validates each change's typename, and
// drops any change signed by a key the Authorizer rejects. It returns
// ErrNoRoot if no valid root change reaches object, and ErrAmbiguousRoot if
// more than one does.
func LoadGraph(store BackingStore, refs []RefName, typename TypeName, object ObjectId, authorized Authorizer) (*Graph, error) {
	g := &Graph{
		object:     object,
		typename:   typename,
		changes:    make(map[ChangeId]*Change),
		childCount: make(map[ChangeId]int),
	}

	var frontier []ChangeId
	seen := make(map[ChangeId]bool)
	for _, ref := range refs {
		tip, err := store.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		if !seen[tip] {
			seen[tip] = true
			frontier = append(frontier, tip)
		}
	}

	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		if _, ok := g.changes[id]; ok {
			continue
		}
		change, err := store.Load(id)
		if err != nil {
			if err == ErrNotFound {
				continue
			}
			return nil, err
		}
		if change.TypeName != typename {
			continue
		}
		if !authorized(change.Signature.Key) {
			// Silently dropped: it may be legitimate for a different
			// identity revision.
			continue
		}
		if g.resource.IsZero() {
			g.resource = change.Resource
		}
		g.changes[id] = change
		for _, p := range change.Parents {
			g.childCount[p]++
			if !seen[p] {
				seen[p] = true
				frontier = append(frontier, p)
			}
		}
	}

	var roots []ChangeId
	for id, c := range g.changes {
		if len(c.Parents) == 0 {
			roots = append(roots, id)
		}
	}
	switch {
	case len(roots) == 0:
		return nil, ErrNoRoot
	case len(roots) > 1:
		return nil, ErrAmbiguousRoot
	}
	if !roots[0].Equal(object) {
		return nil, ErrNoRoot
	}

	if err := g.checkAcyclic(); err != nil {
		return nil, err
	}

	return g, nil
}

// checkAcyclic defends against a malicious peer replaying a forged parent
// edge that would otherwise loop Evaluate forever. A well-formed store never
// produces a cycle since every id is a hash of its own content.
func (g *Graph) checkAcyclic() error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[ChangeId]int, len(g.changes))
	var visit func(ChangeId) error
	visit = func(id ChangeId) error {
		switch color[id] {
		case black:
			return nil
		case gray:
			return ErrCycle
		}
		color[id] = gray
		if c, ok := g.changes[id]; ok {
			for _, p := range c.Parents {
				if err := visit(p); err != nil {
					return err
				}
			}
		}
		color[id] = black
		return nil
	}
	for id := range g.changes {
		if err := visit(id); err != nil {
			return err
		}
	}
	return nil
}

// Tips returns the current sinks of the graph: changes with no loaded
// children.
func (g *Graph) Tips() []ChangeId {
	var tips []ChangeId
	for id := range g.changes {
		if g.childCount[id] == 0 {
			tips = append(tips, id)
		}
	}
	return tips
}

type evalNode struct {
	id    ChangeId
	depth uint64
}

// Evaluate performs a deterministic topological sort of the graph, assigning
// each change a Lamport depth d(c) = 1 + max(d(parents)), d(root) = 0, and
// emits entries ordered (depth ascending, timestamp ascending, ChangeId
// ascending). Given the same DAG this produces a byte-identical History on
// any peer.
func (g *Graph) Evaluate() *History {
	depth := make(map[ChangeId]uint64, len(g.changes))
	var compute func(ChangeId) uint64
	compute = func(id ChangeId) uint64 {
		if d, ok := depth[id]; ok {
			return d
		}
		c, ok := g.changes[id]
		if !ok {
			return 0
		}
		var maxParent uint64
		first := true
		for _, p := range c.Parents {
			pd := compute(p)
			if first || pd > maxParent {
				maxParent = pd
				first = false
			}
		}
		var d uint64
		if len(c.Parents) == 0 {
			d = 0
		} else {
			d = maxParent + 1
		}
		depth[id] = d
		return d
	}

	nodes := make([]evalNode, 0, len(g.changes))
	for id := range g.changes {
		nodes = append(nodes, evalNode{id: id, depth: compute(id)})
	}

	sortNodes(nodes, g.changes)

	entries := make([]Entry, 0, len(nodes))
	for _, n := range nodes {
		c := g.changes[n.id]
		entries = append(entries, Entry{
			ID:        c.ID,
			Author:    c.Signature.Key,
			Resource:  c.Resource,
			Contents:  c.Contents,
			Timestamp: c.Timestamp,
		})
	}
	return NewHistory(entries)
}

// sortNodes orders by (depth, timestamp, ChangeId) ascending, the tie-break
// that guarantees determinism across peers.
func sortNodes(nodes []evalNode, changes map[ChangeId]*Change) {
	sort.Slice(nodes, func(i, j int) bool {
		a, b := nodes[i], nodes[j]
		if a.depth != b.depth {
			return a.depth < b.depth
		}
		ta, tb := changes[a.id].Timestamp, changes[b.id].Timestamp
		if ta.AsSecs() != tb.AsSecs() {
			return ta.Less(tb)
		}
		return a.id.Less(b.id)
	})
}
