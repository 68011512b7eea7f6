// Package action implements the action executor (spec.md §4.5): given a
// rule's activation (its compiled actions and the token of facts that
// satisfied it), it runs each action in sequence against the fact store,
// optionally invoking a calculator or a formula program along the way.
package action

import (
	"fmt"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/calc"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/formula"
	"github.com/bingo-rules/bingo/internal/store"
	"github.com/bingo-rules/bingo/internal/value"
)

// ResultKind discriminates the outcome of a single executed action.
type ResultKind string

const (
	ResultFieldSet           ResultKind = "field_set"
	ResultFieldIncremented   ResultKind = "field_incremented"
	ResultLogged             ResultKind = "logged"
	ResultFactCreated        ResultKind = "fact_created"
	ResultFactUpdated        ResultKind = "fact_updated"
	ResultFactDeleted        ResultKind = "fact_deleted"
	ResultCalculatorInvoked  ResultKind = "calculator_invoked"
	ResultFormulaEvaluated   ResultKind = "formula_evaluated"
	ResultFieldNotFound      ResultKind = "field_not_found"
	ResultTypeMismatch       ResultKind = "type_mismatch"
	ResultFactNotFound       ResultKind = "fact_not_found"
	ResultCalculatorNotFound ResultKind = "calculator_not_found"
	ResultInputMissing       ResultKind = "input_missing"
	ResultParseError         ResultKind = "parse_error"
	ResultEvalError          ResultKind = "eval_error"
)

// Result is the per-action record spec.md §4.5 says the activation
// carries: which action ran, what it produced, and — for the failure
// kinds — the error that explains it.
type Result struct {
	ActionIndex   int
	Kind          fact.ActionKind
	Outcome       ResultKind
	FactID        uint64
	Field         string
	Value         value.Value
	Old           value.Value // IncrementField only: the pre-increment value
	UpdatedFields []string    // UpdateFact only: names written
	Name          string      // CallCalculator only: the calculator name
	Message       string
	Err           error
}

func (r Result) Failed() bool { return r.Err != nil }

// Limits are the per-action security caps spec.md §4.5 requires: a
// violation fails the whole batch with ErrLimitExceeded rather than
// producing a failure Result, since it indicates a malicious or
// malformed rule rather than an ordinary runtime condition (e.g. a
// missing field).
//
// MaxRulesPerBatch is not enforced here — it bounds how many rules a
// single process_facts call may fire, which is the engine facade's
// concern, not a single rule's action sequence — but it lives on this
// struct because spec.md §4.5 groups all four caps together and the
// engine constructs one Limits value for the whole instance.
type Limits struct {
	MaxExpressionLength     int
	MaxExpressionComplexity int
	MaxCalculatorInputs     int
	MaxRulesPerBatch        int
}

// DefaultLimits returns conservative caps generous enough for any
// legitimate rule set.
func DefaultLimits() Limits {
	return Limits{
		MaxExpressionLength:     2000,
		MaxExpressionComplexity: 500,
		MaxCalculatorInputs:     32,
		MaxRulesPerBatch:        500,
	}
}

// Executor runs a rule's actions against a fact store, a calculator
// registry, and a formula evaluator.
type Executor struct {
	store       *store.Store
	calculators *calc.Registry
	evaluator   formula.Evaluator
	limits      Limits
}

// NewExecutor builds an Executor. evaluator may be nil if the rule set
// never uses Formula actions.
func NewExecutor(st *store.Store, calculators *calc.Registry, evaluator formula.Evaluator, limits Limits) *Executor {
	return &Executor{store: st, calculators: calculators, evaluator: evaluator, limits: limits}
}

// Execute runs actions in order against the facts named by tokenFacts,
// the fact IDs a rule's conditions bound (in declaration order; an
// empty slice means the rule had no positive conditions). The "current
// fact" CallCalculator and Formula read from and write to is the first
// id in tokenFacts; SetField and IncrementField apply to every fact in
// the token.
//
// Execute returns early with a non-nil error only for a security-cap
// violation (bingoerr.ErrLimitExceeded); every other failure is recorded
// as a failed Result and execution continues to the next action, since
// one action's ordinary failure (a missing field, an unknown fact)
// should not silently swallow the rest of the rule's effects.
func (e *Executor) Execute(actions []fact.Action, tokenFacts []uint64) ([]Result, error) {
	results := make([]Result, 0, len(actions))
	for i, a := range actions {
		r, err := e.execOne(i, a, tokenFacts)
		if err != nil {
			return results, err
		}
		results = append(results, r...)
	}
	return results, nil
}

func (e *Executor) execOne(idx int, a fact.Action, tokenFacts []uint64) ([]Result, error) {
	switch a.Kind {
	case fact.ActionSetField:
		return e.setField(idx, a, tokenFacts), nil
	case fact.ActionIncrementField:
		return e.incrementField(idx, a, tokenFacts), nil
	case fact.ActionLog:
		return []Result{{ActionIndex: idx, Kind: a.Kind, Outcome: ResultLogged, Message: a.Message}}, nil
	case fact.ActionCreateFact:
		return e.createFact(idx, a), nil
	case fact.ActionUpdateFact:
		return e.updateFact(idx, a, tokenFacts), nil
	case fact.ActionDeleteFact:
		return e.deleteFact(idx, a, tokenFacts), nil
	case fact.ActionCallCalculator:
		return e.callCalculator(idx, a, tokenFacts)
	case fact.ActionFormula:
		return e.evalFormula(idx, a, tokenFacts)
	default:
		return nil, fmt.Errorf("action: unknown kind %q: %w", a.Kind, bingoerr.ErrInternal)
	}
}

func fail(idx int, kind fact.ActionKind, outcome ResultKind, err error) Result {
	return Result{ActionIndex: idx, Kind: kind, Outcome: outcome, Err: err}
}

// currentFactID returns the primary fact a CallCalculator/Formula/
// single-fact action reads and writes: the first fact bound by the
// rule's conditions.
func currentFactID(tokenFacts []uint64) (uint64, bool) {
	if len(tokenFacts) == 0 {
		return 0, false
	}
	return tokenFacts[0], true
}

// findFactID resolves fact_id_field against every fact in the token,
// returning the first one that carries the field (spec.md §4.5:
// "reads target ID from the token's facts").
func (e *Executor) findFactID(tokenFacts []uint64, fieldName string) (uint64, error) {
	for _, id := range tokenFacts {
		f, ok := e.store.Get(id)
		if !ok {
			continue
		}
		if v, ok := f.Get(fieldName); ok {
			targetID, ok := v.AsInt()
			if !ok {
				return 0, fmt.Errorf("action: field %q is not an integer fact id: %w", fieldName, bingoerr.ErrTypeMismatch)
			}
			return uint64(targetID), nil
		}
	}
	return 0, fmt.Errorf("action: no fact in token carries field %q: %w", fieldName, bingoerr.ErrNotFound)
}
