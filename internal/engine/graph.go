package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bingo-rules/bingo/internal/rete/alpha"
)

// DotGraph renders the compiled alpha/beta network as Graphviz dot
// source (SPEC_FULL.md §4, `bingo validate --graph`): one node per
// alpha test plus one node per beta chain, edges showing which tests
// feed which chain. Read-only diagnostic; it does not mutate the
// network.
func (e *Engine) DotGraph() string {
	var b strings.Builder
	b.WriteString("digraph bingo {\n  rankdir=LR;\n")

	nodes := e.alphaNet.Nodes()
	nodeName := make(map[*alpha.Node]string, len(nodes))
	for i, n := range nodes {
		name := fmt.Sprintf("alpha%d", i)
		nodeName[n] = name
		label := fmt.Sprintf("%s %s %v", n.Cond.Field, n.Cond.Operator, n.Cond.Value)
		fmt.Fprintf(&b, "  %s [shape=box,label=%q];\n", name, label)
	}

	chains := e.betaNet.Describe()
	sort.Slice(chains, func(i, j int) bool {
		if chains[i].RuleID != chains[j].RuleID {
			return chains[i].RuleID < chains[j].RuleID
		}
		return chains[i].ChainIdx < chains[j].ChainIdx
	})
	for _, c := range chains {
		rule := e.rules[c.RuleID]
		chainName := fmt.Sprintf("chain_%d_%d", c.RuleID, c.ChainIdx)
		fmt.Fprintf(&b, "  %s [shape=ellipse,label=%q];\n", chainName, fmt.Sprintf("%s[%d]", rule.Name, c.ChainIdx))
		for _, n := range c.Positive {
			if name, ok := nodeName[n]; ok {
				fmt.Fprintf(&b, "  %s -> %s;\n", name, chainName)
			}
		}
		for _, n := range c.Negated {
			if name, ok := nodeName[n]; ok {
				fmt.Fprintf(&b, "  %s -> %s [style=dashed,label=\"not\"];\n", name, chainName)
			}
		}
	}

	b.WriteString("}\n")
	return b.String()
}
