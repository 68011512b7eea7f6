package action

import (
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/value"
)

// setField updates every fact in the token (spec.md §4.5), recording one
// FieldSet result per fact actually written.
func (e *Executor) setField(idx int, a fact.Action, tokenFacts []uint64) []Result {
	if len(tokenFacts) == 0 {
		return []Result{fail(idx, a.Kind, ResultFieldNotFound,
			fmt.Errorf("action: set_field: empty token: %w", bingoerr.ErrNotFound))}
	}
	updates := map[string]value.Value{a.Field: a.Value}
	out := make([]Result, 0, len(tokenFacts))
	for _, id := range tokenFacts {
		if err := e.store.Update(id, updates); err != nil {
			out = append(out, fail(idx, a.Kind, ResultFieldNotFound,
				fmt.Errorf("action: set_field: fact %d: %w", id, err)))
			continue
		}
		out = append(out, Result{ActionIndex: idx, Kind: a.Kind, Outcome: ResultFieldSet, FactID: id, Field: a.Field, Value: a.Value})
	}
	return out
}

// incrementField numerically adds a.Increment to a.Field on every fact in
// the token, promoting int+int to int and any float operand to float
// (spec.md §4.5's numeric rules).
func (e *Executor) incrementField(idx int, a fact.Action, tokenFacts []uint64) []Result {
	if len(tokenFacts) == 0 {
		return []Result{fail(idx, a.Kind, ResultFieldNotFound,
			fmt.Errorf("action: increment_field: empty token: %w", bingoerr.ErrNotFound))}
	}
	out := make([]Result, 0, len(tokenFacts))
	for _, id := range tokenFacts {
		f, ok := e.store.Get(id)
		if !ok {
			out = append(out, fail(idx, a.Kind, ResultFactNotFound,
				fmt.Errorf("action: increment_field: fact %d: %w", id, bingoerr.ErrNotFound)))
			continue
		}
		cur, ok := f.Get(a.Field)
		if !ok {
			out = append(out, fail(idx, a.Kind, ResultFieldNotFound,
				fmt.Errorf("action: increment_field: fact %d has no field %q: %w", id, a.Field, bingoerr.ErrNotFound)))
			continue
		}
		sum, err := numericAdd(cur, a.Increment)
		if err != nil {
			out = append(out, fail(idx, a.Kind, ResultTypeMismatch,
				fmt.Errorf("action: increment_field: fact %d field %q: %w", id, a.Field, err)))
			continue
		}
		if err := e.store.Update(id, map[string]value.Value{a.Field: sum}); err != nil {
			out = append(out, fail(idx, a.Kind, ResultFieldNotFound,
				fmt.Errorf("action: increment_field: fact %d: %w", id, err)))
			continue
		}
		out = append(out, Result{ActionIndex: idx, Kind: a.Kind, Outcome: ResultFieldIncremented, FactID: id, Field: a.Field, Value: sum, Old: cur})
	}
	return out
}

// createFact inserts a.Data as a brand-new fact using the store's
// generated-id space (spec.md §4.5: "ID >= 1_000_000 offset").
func (e *Executor) createFact(idx int, a fact.Action) []Result {
	id := e.store.InsertGenerated(fact.Fact{Fields: a.Data})
	return []Result{{ActionIndex: idx, Kind: a.Kind, Outcome: ResultFactCreated, FactID: id}}
}

// updateFact resolves a.FactIDField against the token's facts and applies
// a.Updates to the fact it names.
func (e *Executor) updateFact(idx int, a fact.Action, tokenFacts []uint64) []Result {
	targetID, err := e.findFactID(tokenFacts, a.FactIDField)
	if err != nil {
		return []Result{fail(idx, a.Kind, ResultFactNotFound, err)}
	}
	if err := e.store.Update(targetID, a.Updates); err != nil {
		return []Result{fail(idx, a.Kind, ResultFieldNotFound,
			fmt.Errorf("action: update_fact: fact %d: %w", targetID, err))}
	}
	fields := make([]string, 0, len(a.Updates))
	for k := range a.Updates {
		fields = append(fields, k)
	}
	return []Result{{ActionIndex: idx, Kind: a.Kind, Outcome: ResultFactUpdated, FactID: targetID, UpdatedFields: fields}}
}

// deleteFact resolves a.FactIDField against the token's facts and removes
// the fact it names from the store. The engine facade observes the
// removal and retracts it from the alpha network, which cascades into
// every beta token referencing it through the network's normal
// incremental maintenance; the executor itself only owns the store row.
func (e *Executor) deleteFact(idx int, a fact.Action, tokenFacts []uint64) []Result {
	targetID, err := e.findFactID(tokenFacts, a.FactIDField)
	if err != nil {
		return []Result{fail(idx, a.Kind, ResultFactNotFound, err)}
	}
	if err := e.store.Remove(targetID); err != nil {
		return []Result{fail(idx, a.Kind, ResultFactNotFound,
			fmt.Errorf("action: delete_fact: fact %d: %w", targetID, err))}
	}
	return []Result{{ActionIndex: idx, Kind: a.Kind, Outcome: ResultFactDeleted, FactID: targetID}}
}
