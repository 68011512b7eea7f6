// Package beta implements the beta network (spec.md §4.3): left-linear
// join chains over a rule's compiled conditions, producing complete
// tokens for the terminal/action phase, with incremental maintenance on
// every alpha membership change.
package beta

import (
	"sync"

	"github.com/bingo-rules/bingo/internal/rete/alpha"
	"github.com/bingo-rules/bingo/internal/rete/token"
	"github.com/bingo-rules/bingo/internal/store"
)

// DefaultSingleFactPoolCapacity is the default bound on the free-list a
// chain with exactly one positive literal uses for its tokens (spec.md
// §4.3: "the engine keeps two bounded free-lists, single-fact and
// multi-fact, default capacities 5000/2500").
const DefaultSingleFactPoolCapacity = 5000

// DefaultMultiFactPoolCapacity is the default bound for chains with two
// or more positive literals.
const DefaultMultiFactPoolCapacity = 2500

// Activation is a complete token ready for the terminal/action phase,
// tagged with the rule and which OR-disjunct (chain) produced it —
// distinct disjuncts of the same rule are allowed to fire independently
// (spec.md §4.2).
type Activation struct {
	RuleID   uint64
	ChainIdx int
	Token    *token.Token
}

// Listener receives activation and retraction events as beta chains are
// incrementally maintained.
type Listener interface {
	OnActivation(a Activation)
	OnRetraction(a Activation)
}

// Chain is one compiled DNF conjunction: a left-linear join over its
// positive literals' alpha memories, gated by its negated literals'
// memories being empty.
type Chain struct {
	ruleID   uint64
	idx      int
	positive []*alpha.Node
	negated  []*alpha.Node
	pool     *token.Pool
	listener Listener

	mu      sync.Mutex
	blocked bool // true while any negated literal's memory is non-empty
}

// Network compiles rules into Chains and routes alpha membership changes
// into activation/retraction events.
type Network struct {
	mu     sync.Mutex
	chains map[uint64][]*Chain
}

// NewNetwork returns an empty beta network.
func NewNetwork() *Network {
	return &Network{chains: make(map[uint64][]*Chain)}
}

// Compile builds one Chain per DNF conjunction for a rule, subscribing
// each literal's alpha node to drive incremental maintenance, and
// registers them under ruleID.
func (net *Network) Compile(ruleID uint64, an *alpha.Network, conjunctions []Conjunction, listener Listener) []*Chain {
	net.mu.Lock()
	defer net.mu.Unlock()

	chains := make([]*Chain, len(conjunctions))
	for i, conj := range conjunctions {
		c := &Chain{ruleID: ruleID, idx: i, listener: listener}
		for _, lit := range conj.Positive() {
			c.positive = append(c.positive, an.Compile(lit.Cond))
		}
		for _, lit := range conj.Negated() {
			c.negated = append(c.negated, an.Compile(lit.Cond))
		}
		if len(c.positive) <= 1 {
			c.pool = token.NewPool(DefaultSingleFactPoolCapacity)
		} else {
			c.pool = token.NewPool(DefaultMultiFactPoolCapacity)
		}
		c.blocked = c.anyNegatedNonEmpty()
		for _, n := range c.positive {
			n.Subscribe(c)
		}
		for _, n := range c.negated {
			n.Subscribe(c)
		}
		chains[i] = c
	}
	net.chains[ruleID] = append(net.chains[ruleID], chains...)

	// Backfill: emit the matches already held in the chains' alpha
	// memories. An alpha node created by this call starts empty (facts
	// already in the store are not evaluated against it), so a chain with
	// such a node backfills nothing; earlier facts reach that node only
	// when they are next activated.
	for _, c := range chains {
		if c.blocked || listener == nil {
			continue
		}
		for _, tok := range c.materialize() {
			listener.OnActivation(Activation{RuleID: c.ruleID, ChainIdx: c.idx, Token: tok})
		}
	}
	return chains
}

// Remove drops every chain compiled for ruleID. Alpha nodes are left in
// place, including nodes no other rule uses. alpha.Node keeps an
// append-only subscriber list with no unsubscribe hook, so a removed
// chain stays subscribed: Remove clears its listener and the chain
// ignores every later change.
func (net *Network) Remove(ruleID uint64) {
	net.mu.Lock()
	defer net.mu.Unlock()
	for _, c := range net.chains[ruleID] {
		c.mu.Lock()
		c.listener = nil
		c.mu.Unlock()
	}
	delete(net.chains, ruleID)
}

// ChainCount returns the total number of compiled chains (DNF disjuncts)
// across every registered rule.
func (net *Network) ChainCount() int {
	net.mu.Lock()
	defer net.mu.Unlock()
	n := 0
	for _, chains := range net.chains {
		n += len(chains)
	}
	return n
}

// PoolStats aggregates token-pool telemetry (spec.md §4.3) across every
// chain compiled into the network.
func (net *Network) PoolStats() token.Stats {
	net.mu.Lock()
	defer net.mu.Unlock()
	var agg token.Stats
	for _, chains := range net.chains {
		for _, c := range chains {
			s := c.pool.Stats()
			agg.Capacity += s.Capacity
			agg.Len += s.Len
			agg.Hits += s.Hits
			agg.Misses += s.Misses
			if s.PeakLen > agg.PeakLen {
				agg.PeakLen = s.PeakLen
			}
		}
	}
	return agg
}

// ChainInfo describes one compiled chain for diagnostic tooling.
type ChainInfo struct {
	RuleID   uint64
	ChainIdx int
	Positive []*alpha.Node
	Negated  []*alpha.Node
}

// Describe returns a snapshot of every compiled chain across every rule,
// for bingo validate --graph.
func (net *Network) Describe() []ChainInfo {
	net.mu.Lock()
	defer net.mu.Unlock()
	var out []ChainInfo
	for _, chains := range net.chains {
		for _, c := range chains {
			out = append(out, ChainInfo{RuleID: c.ruleID, ChainIdx: c.idx, Positive: c.positive, Negated: c.negated})
		}
	}
	return out
}

func (c *Chain) anyNegatedNonEmpty() bool {
	for _, n := range c.negated {
		if len(n.Memory()) > 0 {
			return true
		}
	}
	return false
}

// OnAlphaChange implements alpha.Subscriber.
func (c *Chain) OnAlphaChange(n *alpha.Node, factID uint64, added bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.listener == nil {
		return
	}

	if c.isNegated(n) {
		wasBlocked := c.blocked
		c.blocked = c.anyNegatedNonEmpty()
		switch {
		case !wasBlocked && c.blocked:
			for _, tok := range c.materialize() {
				c.listener.OnRetraction(Activation{RuleID: c.ruleID, ChainIdx: c.idx, Token: tok})
			}
		case wasBlocked && !c.blocked:
			for _, tok := range c.materialize() {
				c.listener.OnActivation(Activation{RuleID: c.ruleID, ChainIdx: c.idx, Token: tok})
			}
		}
		return
	}

	if c.blocked {
		return
	}
	for _, tok := range c.extend(n, factID) {
		if added {
			c.listener.OnActivation(Activation{RuleID: c.ruleID, ChainIdx: c.idx, Token: tok})
		} else {
			c.listener.OnRetraction(Activation{RuleID: c.ruleID, ChainIdx: c.idx, Token: tok})
		}
	}
}

func (c *Chain) isNegated(n *alpha.Node) bool {
	for _, neg := range c.negated {
		if neg == n {
			return true
		}
	}
	return false
}

// materialize computes the full current cross product of every positive
// position's memory, honoring I3 (no duplicate fact IDs within a token).
func (c *Chain) materialize() []*token.Token {
	if len(c.positive) == 0 {
		return []*token.Token{token.New(c.pool.Get(0))}
	}
	sets := make([]store.IDSet, len(c.positive))
	for i, n := range c.positive {
		sets[i] = n.Memory()
	}
	var out []*token.Token
	cur := make([]uint64, len(sets))
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(sets) {
			if !hasDuplicate(cur) {
				buf := c.pool.Get(len(cur))
				copy(buf, cur)
				out = append(out, token.New(buf))
			}
			return
		}
		for id := range sets[pos] {
			cur[pos] = id
			walk(pos + 1)
		}
	}
	walk(0)
	return out
}

// extend computes the new tokens produced by one fact joining (or
// leaving) position changedIdx, holding every other position's current
// memory fixed — the standard incremental cross-product join.
func (c *Chain) extend(changed *alpha.Node, factID uint64) []*token.Token {
	changedIdx := -1
	for i, n := range c.positive {
		if n == changed {
			changedIdx = i
			break
		}
	}
	if changedIdx == -1 {
		return nil
	}

	others := make([]store.IDSet, len(c.positive))
	for i, n := range c.positive {
		if i != changedIdx {
			others[i] = n.Memory()
		}
	}

	var out []*token.Token
	cur := make([]uint64, len(c.positive))
	cur[changedIdx] = factID
	var walk func(pos int)
	walk = func(pos int) {
		if pos == len(c.positive) {
			if !hasDuplicate(cur) {
				buf := c.pool.Get(len(cur))
				copy(buf, cur)
				out = append(out, token.New(buf))
			}
			return
		}
		if pos == changedIdx {
			walk(pos + 1)
			return
		}
		for id := range others[pos] {
			cur[pos] = id
			walk(pos + 1)
		}
	}
	walk(0)
	return out
}

func hasDuplicate(ids []uint64) bool {
	seen := make(map[uint64]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return true
		}
		seen[id] = struct{}{}
	}
	return false
}
