package fact

import (
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
)

// Rule is a compiled-from-JSON production: when all of Conditions hold,
// run Actions in order. Priority breaks conflict-set ties (spec.md §4.4):
// higher priority fires first, then lower rule ID.
type Rule struct {
	ID         uint64          `json:"id"`
	Name       string          `json:"name"`
	Conditions []Condition     `json:"conditions"`
	Actions    []Action        `json:"actions"`
	Priority   int             `json:"priority"`
}

// Validate checks every condition and action, and that the rule carries
// at least one condition and one action — a rule with no conditions
// would fire on every fact batch and is almost certainly a mistake, and
// the grammar has no use for a rule with no actions.
func (r Rule) Validate() error {
	if r.Name == "" {
		return fmt.Errorf("%w: rule %d missing name", bingoerr.ErrValidation, r.ID)
	}
	if len(r.Conditions) == 0 {
		return fmt.Errorf("%w: rule %q has no conditions", bingoerr.ErrValidation, r.Name)
	}
	if len(r.Actions) == 0 {
		return fmt.Errorf("%w: rule %q has no actions", bingoerr.ErrValidation, r.Name)
	}
	for i, c := range r.Conditions {
		if err := c.Validate(); err != nil {
			return fmt.Errorf("rule %q condition %d: %w", r.Name, i, err)
		}
	}
	for i, a := range r.Actions {
		if err := a.Validate(); err != nil {
			return fmt.Errorf("rule %q action %d: %w", r.Name, i, err)
		}
	}
	return nil
}

// LeafCount returns the number of Simple leaves across all top-level
// conditions. This equals the length of a complete token only for rules
// built from Simple and And conditions: the beta network compiles each
// DNF disjunct into its own chain, and a chain's tokens carry one slot
// per positive literal of that disjunct (negated literals carry none).
func (r Rule) LeafCount() int {
	n := 0
	for _, c := range r.Conditions {
		n += len(c.Leaves())
	}
	return n
}
