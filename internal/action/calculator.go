package action

import (
	"errors"
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/calc"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/value"
)

// callCalculator resolves a.InputMapping against the current fact's
// fields, invokes the named calculator, and writes the result to
// a.OutputField on the current fact.
func (e *Executor) callCalculator(idx int, a fact.Action, tokenFacts []uint64) ([]Result, error) {
	if len(a.InputMapping) > e.limits.MaxCalculatorInputs {
		return nil, fmt.Errorf("action: call_calculator %q: %d inputs exceeds limit %d: %w",
			a.CalculatorName, len(a.InputMapping), e.limits.MaxCalculatorInputs, bingoerr.ErrLimitExceeded)
	}

	factID, ok := currentFactID(tokenFacts)
	if !ok {
		return []Result{fail(idx, a.Kind, ResultInputMissing,
			fmt.Errorf("action: call_calculator %q: no current fact: %w", a.CalculatorName, bingoerr.ErrNotFound))}, nil
	}
	f, ok := e.store.Get(factID)
	if !ok {
		return []Result{fail(idx, a.Kind, ResultFactNotFound,
			fmt.Errorf("action: call_calculator %q: fact %d: %w", a.CalculatorName, factID, bingoerr.ErrNotFound))}, nil
	}

	in := make(calc.Inputs, len(a.InputMapping))
	for calcInput, sourceField := range a.InputMapping {
		v, ok := f.Get(sourceField)
		if !ok {
			return []Result{fail(idx, a.Kind, ResultInputMissing,
				fmt.Errorf("action: call_calculator %q: fact %d missing field %q: %w", a.CalculatorName, factID, sourceField, bingoerr.ErrNotFound))}, nil
		}
		in[calcInput] = v
	}

	out, err := e.calculators.Invoke(a.CalculatorName, in)
	if err != nil {
		kind := ResultEvalError
		if errors.Is(err, bingoerr.ErrNotFound) {
			kind = ResultCalculatorNotFound
		}
		return []Result{fail(idx, a.Kind, kind,
			fmt.Errorf("action: call_calculator %q: %w", a.CalculatorName, err))}, nil
	}

	if err := e.store.Update(factID, map[string]value.Value{a.OutputField: out}); err != nil {
		return []Result{fail(idx, a.Kind, ResultFieldNotFound,
			fmt.Errorf("action: call_calculator %q: write %q: %w", a.CalculatorName, a.OutputField, err))}, nil
	}
	return []Result{{ActionIndex: idx, Kind: a.Kind, Outcome: ResultCalculatorInvoked, FactID: factID, Field: a.OutputField, Value: out, Name: a.CalculatorName}}, nil
}
