package action

import (
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/formula"
	"github.com/bingo-rules/bingo/internal/value"
)

// evalFormula compiles (through the evaluator's cache) and runs
// a.Expression over the current fact's fields, writing the result to
// a.OutputField.
func (e *Executor) evalFormula(idx int, a fact.Action, tokenFacts []uint64) ([]Result, error) {
	if len(a.Expression) > e.limits.MaxExpressionLength {
		return nil, fmt.Errorf("action: formula: expression length %d exceeds limit %d: %w",
			len(a.Expression), e.limits.MaxExpressionLength, bingoerr.ErrLimitExceeded)
	}
	if n := formula.EstimateComplexity(a.Expression); n > e.limits.MaxExpressionComplexity {
		return nil, fmt.Errorf("action: formula: complexity %d exceeds limit %d: %w",
			n, e.limits.MaxExpressionComplexity, bingoerr.ErrLimitExceeded)
	}
	if e.evaluator == nil {
		return []Result{fail(idx, a.Kind, ResultEvalError,
			fmt.Errorf("action: formula: no evaluator configured: %w", bingoerr.ErrInternal))}, nil
	}

	factID, ok := currentFactID(tokenFacts)
	if !ok {
		return []Result{fail(idx, a.Kind, ResultEvalError,
			fmt.Errorf("action: formula: no current fact: %w", bingoerr.ErrNotFound))}, nil
	}
	f, ok := e.store.Get(factID)
	if !ok {
		return []Result{fail(idx, a.Kind, ResultFactNotFound,
			fmt.Errorf("action: formula: fact %d: %w", factID, bingoerr.ErrNotFound))}, nil
	}

	prog, err := e.evaluator.Compile(a.Expression)
	if err != nil {
		return []Result{fail(idx, a.Kind, ResultParseError,
			fmt.Errorf("action: formula: compile: %w", err))}, nil
	}
	out, err := prog.Eval(f.Fields)
	if err != nil {
		return []Result{fail(idx, a.Kind, ResultEvalError,
			fmt.Errorf("action: formula: eval: %w", err))}, nil
	}

	if err := e.store.Update(factID, map[string]value.Value{a.OutputField: out}); err != nil {
		return []Result{fail(idx, a.Kind, ResultFieldNotFound,
			fmt.Errorf("action: formula: write %q: %w", a.OutputField, err))}, nil
	}
	return []Result{{ActionIndex: idx, Kind: a.Kind, Outcome: ResultFormulaEvaluated, FactID: factID, Field: a.OutputField, Value: out}}, nil
}
