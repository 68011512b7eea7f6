package beta

import "github.com/bingo-rules/bingo/internal/fact"

// Literal is one leaf test in a conjunction, possibly negated.
type Literal struct {
	Cond    fact.Condition
	Negated bool
}

// Conjunction is an AND of literals: compiles to exactly one beta chain.
type Conjunction []Literal

// ToDNF expands a rule's (implicitly ANDed) top-level condition list
// into disjunctive normal form. Every Or produces an independent
// disjunct, each compiled into its own beta chain sharing the rule's
// actions (spec.md §4.2: "a rule fires once per satisfying alternative").
// Not is pushed down to its leaves via De Morgan expansion, so every
// literal in the result is a bare leaf test, never a Complex node.
func ToDNF(conditions []fact.Condition) []Conjunction {
	if len(conditions) == 0 {
		return []Conjunction{{}}
	}
	whole := fact.Complex(fact.LogicalAnd, conditions...)
	return toDNF(whole)
}

func toDNF(c fact.Condition) []Conjunction {
	switch c.Kind {
	case fact.ConditionSimple:
		return []Conjunction{{{Cond: c, Negated: false}}}
	case fact.ConditionComplex:
		switch c.LogicalOp {
		case fact.LogicalAnd:
			result := []Conjunction{{}}
			for _, child := range c.Children {
				result = crossMerge(result, toDNF(child))
			}
			return result
		case fact.LogicalOr:
			var result []Conjunction
			for _, child := range c.Children {
				result = append(result, toDNF(child)...)
			}
			return result
		case fact.LogicalNot:
			return negate(toDNF(c.Children[0]))
		}
	}
	return nil
}

// crossMerge distributes AND over two disjunctions of conjunctions:
// (a1 OR a2 OR ...) AND (b1 OR b2 OR ...) = (a1∧b1) OR (a1∧b2) OR ...
func crossMerge(a, b []Conjunction) []Conjunction {
	out := make([]Conjunction, 0, len(a)*len(b))
	for _, ca := range a {
		for _, cb := range b {
			merged := make(Conjunction, 0, len(ca)+len(cb))
			merged = append(merged, ca...)
			merged = append(merged, cb...)
			out = append(out, merged)
		}
	}
	return out
}

// negate computes the De Morgan negation of a DNF expression and
// redistributes it back into DNF. NOT(conj1 OR conj2 OR ...) =
// NOT(conj1) AND NOT(conj2) AND ..., and NOT(lit1 AND lit2 AND ...) =
// NOT(lit1) OR NOT(lit2) OR ..., so the whole negation is a conjunction
// of disjunctions (CNF) which this then expands via repeated crossMerge.
func negate(dnf []Conjunction) []Conjunction {
	result := []Conjunction{{}}
	for _, conj := range dnf {
		var negatedDisjuncts []Conjunction
		for _, lit := range conj {
			negatedDisjuncts = append(negatedDisjuncts, Conjunction{{Cond: lit.Cond, Negated: !lit.Negated}})
		}
		result = crossMerge(result, negatedDisjuncts)
	}
	return result
}

// Positive returns the literals in c that bind a fact to the token (all
// literals except negated ones, which are pure existential gates).
func (c Conjunction) Positive() []Literal {
	var out []Literal
	for _, l := range c {
		if !l.Negated {
			out = append(out, l)
		}
	}
	return out
}

// Negated returns the literals in c that must have an empty alpha memory
// for the chain to be active.
func (c Conjunction) Negated() []Literal {
	var out []Literal
	for _, l := range c {
		if l.Negated {
			out = append(out, l)
		}
	}
	return out
}
