package engine

import (
	"github.com/bingo-rules/bingo/internal/action"
	"github.com/bingo-rules/bingo/internal/formula"
	"github.com/bingo-rules/bingo/internal/rete/beta"
	"github.com/bingo-rules/bingo/internal/rete/token"
	"github.com/bingo-rules/bingo/internal/stats"
	"github.com/bingo-rules/bingo/internal/value"
)

// RuleExecutionResult is the per-activation wire shape spec.md §6
// defines: the rule that fired, the rightmost fact in its token, and
// every action's result in order.
type RuleExecutionResult struct {
	RuleID         uint64         `json:"rule_id"`
	FactID         uint64         `json:"fact_id"`
	ActionsExecuted []ActionResult `json:"actions_executed"`
}

// ActionResult is the tagged union spec.md §6 names: exactly one of
// Logged/FieldSet/FieldIncremented/FactCreated/FactUpdated/FactDeleted/
// CalculatorCalled/FormulaEvaluated/Error, discriminated by Kind.
type ActionResult struct {
	Kind string `json:"kind"`

	Message       string      `json:"message,omitempty"`
	FactID        uint64      `json:"fact_id,omitempty"`
	Field         string      `json:"field,omitempty"`
	Value         value.Value `json:"value,omitempty"`
	Old           value.Value `json:"old,omitempty"`
	New           value.Value `json:"new,omitempty"`
	UpdatedFields []string    `json:"updated_fields,omitempty"`
	Name          string      `json:"name,omitempty"`
	Result        value.Value `json:"result,omitempty"`

	ErrorKind string `json:"error_kind,omitempty"`
}

func buildResult(a beta.Activation, ruleID uint64, actionResults []action.Result) RuleExecutionResult {
	var factID uint64
	if n := len(a.Token.Facts); n > 0 {
		factID = a.Token.Facts[n-1]
	}
	out := RuleExecutionResult{RuleID: ruleID, FactID: factID, ActionsExecuted: make([]ActionResult, len(actionResults))}
	for i, r := range actionResults {
		out.ActionsExecuted[i] = toActionResult(r)
	}
	return out
}

func toActionResult(r action.Result) ActionResult {
	if r.Failed() {
		return ActionResult{Kind: "error", ErrorKind: string(r.Outcome), Message: r.Err.Error(), FactID: r.FactID}
	}
	switch r.Outcome {
	case action.ResultLogged:
		return ActionResult{Kind: "logged", Message: r.Message}
	case action.ResultFieldSet:
		return ActionResult{Kind: "field_set", FactID: r.FactID, Field: r.Field, Value: r.Value}
	case action.ResultFieldIncremented:
		return ActionResult{Kind: "field_incremented", FactID: r.FactID, Field: r.Field, Old: r.Old, New: r.Value}
	case action.ResultFactCreated:
		return ActionResult{Kind: "fact_created", FactID: r.FactID}
	case action.ResultFactUpdated:
		return ActionResult{Kind: "fact_updated", FactID: r.FactID, UpdatedFields: r.UpdatedFields}
	case action.ResultFactDeleted:
		return ActionResult{Kind: "fact_deleted", FactID: r.FactID}
	case action.ResultCalculatorInvoked:
		return ActionResult{Kind: "calculator_called", Name: r.Name, Result: r.Value}
	case action.ResultFormulaEvaluated:
		return ActionResult{Kind: "formula_evaluated", Field: r.Field, Result: r.Value}
	default:
		return ActionResult{Kind: "error", ErrorKind: string(r.Outcome)}
	}
}

// EngineStats is the shape get_stats() returns (spec.md §6, detailed in
// SPEC_FULL.md §4): rule/activation churn, network sizes, and the pool
// and cache telemetry the individual components already track.
type EngineStats struct {
	FactsLive       int
	RulesRegistered int
	AlphaNodeCount  int
	AlphaMemorySize int
	BetaChainCount  int
	TokenPool       token.Stats
	FormulaCache    formula.CacheStats

	RulesAdded            int64
	RulesRemoved          int64
	ActivationsFired      int64
	BatchesRun            int64
	LimitExceededCount    int64
	CalculatorInvocations map[string]uint64
	CycleLatencyMs        stats.HistogramSnapshot
	BatchLatencyMs        stats.HistogramSnapshot
}
