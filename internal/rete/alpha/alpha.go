// Package alpha implements the alpha network (spec.md §4.2): a dispatch
// table of atomic (field, operator, value) tests, each with a memory of
// the fact IDs currently satisfying it, fed by a reverse field→tests
// index so activation cost is independent of total rule count.
package alpha

import (
	"sync"

	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/store"
)

// Subscriber is notified whenever a Node's memory gains or loses a fact.
// The beta network implements this to drive incremental join
// maintenance.
type Subscriber interface {
	OnAlphaChange(node *Node, factID uint64, added bool)
}

// Node is one leaf test and its memory.
type Node struct {
	Cond   fact.Condition
	memory store.IDSet
	subs   []Subscriber
}

func newNode(c fact.Condition) *Node {
	return &Node{Cond: c, memory: store.NewIDSet()}
}

// Memory returns the live set of fact IDs currently satisfying the test.
// Callers must not mutate the returned set.
func (n *Node) Memory() store.IDSet { return n.memory }

// Subscribe registers s to be notified of membership changes. Not safe
// to call concurrently with Activate/Retract; subscriptions are set up
// once, at rule-compile time.
func (n *Node) Subscribe(s Subscriber) { n.subs = append(n.subs, s) }

// Network is the alpha network proper.
type Network struct {
	mu      sync.Mutex
	nodes   map[fact.CanonicalKey]*Node
	byField map[string][]*Node
}

// NewNetwork returns an empty alpha network.
func NewNetwork() *Network {
	return &Network{
		nodes:   make(map[fact.CanonicalKey]*Node),
		byField: make(map[string][]*Node),
	}
}

// Compile canonicalizes a leaf condition and returns its Node, reusing an
// existing one when the canonical key already has a match (spec.md §4.2:
// "existing nodes are reused, new ones created").
func (net *Network) Compile(c fact.Condition) *Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	key := c.CanonicalKey()
	if n, ok := net.nodes[key]; ok {
		return n
	}
	n := newNode(c)
	net.nodes[key] = n
	net.byField[c.Field] = append(net.byField[c.Field], n)
	return n
}

// Activate evaluates every test registered against a field the fact
// carries, and updates memberships, notifying subscribers of any change
// (spec.md §4.2's "fact activation" and "retraction" are the same code
// path here: retraction just evaluates every test to false on removal).
func (net *Network) Activate(f fact.Fact) {
	for _, n := range net.candidatesFor(f) {
		fv, ok := f.Get(n.Cond.Field)
		matched := false
		if ok {
			if m, err := n.Cond.Test(fv); err == nil {
				matched = m
			}
		}
		net.applyMembership(n, f.InternalID, matched)
	}
}

// Retract clears every membership a removed fact held.
func (net *Network) Retract(f fact.Fact) {
	for _, n := range net.candidatesFor(f) {
		net.applyMembership(n, f.InternalID, false)
	}
}

// RetractByID clears id from every node's memory regardless of which
// fields it carried, for callers (the engine facade's delete-cascade
// path) that no longer have the fact's fields because the store already
// dropped the slot. This is an O(distinct tests) scan rather than the
// O(fields the fact has) path Retract takes, but deletions are rare
// relative to insert/update traffic so the wider scan is acceptable.
func (net *Network) RetractByID(id uint64) {
	net.mu.Lock()
	nodes := make([]*Node, 0, len(net.nodes))
	for _, n := range net.nodes {
		nodes = append(nodes, n)
	}
	net.mu.Unlock()
	for _, n := range nodes {
		net.applyMembership(n, id, false)
	}
}

func (net *Network) candidatesFor(f fact.Fact) []*Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	var out []*Node
	for field := range f.Fields {
		out = append(out, net.byField[field]...)
	}
	return out
}

// NodeCount returns the number of distinct compiled alpha tests (spec.md
// §4.2: one node per distinct (field, operator, value) test, shared
// across every rule that references it).
func (net *Network) NodeCount() int {
	net.mu.Lock()
	defer net.mu.Unlock()
	return len(net.nodes)
}

// TotalMemorySize sums the live-fact count across every alpha memory,
// for EngineStats (SPEC_FULL.md §4).
func (net *Network) TotalMemorySize() int {
	net.mu.Lock()
	nodes := make([]*Node, 0, len(net.nodes))
	for _, n := range net.nodes {
		nodes = append(nodes, n)
	}
	net.mu.Unlock()
	total := 0
	for _, n := range nodes {
		total += len(n.Memory())
	}
	return total
}

// Nodes returns a snapshot of every compiled alpha node, for diagnostic
// tooling (bingo validate --graph) that needs to describe the compiled
// network rather than just its size.
func (net *Network) Nodes() []*Node {
	net.mu.Lock()
	defer net.mu.Unlock()
	out := make([]*Node, 0, len(net.nodes))
	for _, n := range net.nodes {
		out = append(out, n)
	}
	return out
}

func (net *Network) applyMembership(n *Node, id uint64, present bool) {
	was := n.memory.Has(id)
	if was == present {
		return
	}
	if present {
		n.memory.Add(id)
	} else {
		n.memory.Remove(id)
	}
	for _, s := range n.subs {
		s.OnAlphaChange(n, id, present)
	}
}
