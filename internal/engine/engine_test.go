package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/rete/beta"
	"github.com/bingo-rules/bingo/internal/value"
)

func mustAddRule(t *testing.T, e *Engine, r fact.Rule) {
	t.Helper()
	require.NoError(t, e.AddRule(r))
}

// Scenario 1: simple equality — two of three facts activate and gain
// processed=true.
func TestSimpleEquality(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "mark_active",
		Conditions: []fact.Condition{fact.Simple("status", fact.OpEqual, value.String("active"))},
		Actions:    []fact.Action{{Kind: fact.ActionSetField, Field: "processed", Value: value.Bool(true)}},
	})

	results, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{"status": value.String("active")}},
		{Fields: map[string]value.Value{"status": value.String("inactive")}},
		{Fields: map[string]value.Value{"status": value.String("active")}},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.ElementsMatch(t, []uint64{0, 2}, []uint64{results[0].FactID, results[1].FactID})

	f0, _ := e.store.Get(0)
	processed, ok := f0.Get("processed")
	require.True(t, ok)
	assert.True(t, processed.Equal(value.Bool(true)))
}

// Scenario 2: a two-condition AND produces zero activations when the
// lone fact fails the first condition.
func TestTwoConditionANDNoMatch(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:   1,
		Name: "adult_active",
		Conditions: []fact.Condition{
			fact.Simple("age", fact.OpGreaterThan, value.Int(18)),
			fact.Simple("status", fact.OpEqual, value.String("active")),
		},
		Actions: []fact.Action{{Kind: fact.ActionSetField, Field: "eligible", Value: value.Bool(true)}},
	})

	results, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{"age": value.Int(16), "status": value.String("active")}},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

// Scenario 3: overtime computation.
func TestOvertimeComputation(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "flag_overtime",
		Conditions: []fact.Condition{fact.Simple("hours_worked", fact.OpGreaterThan, value.Float(40))},
		Actions:    []fact.Action{{Kind: fact.ActionSetField, Field: "overtime", Value: value.Bool(true)}},
	})

	results, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{"hours_worked": value.Float(45.0)}},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)

	f0, _ := e.store.Get(0)
	overtime, ok := f0.Get("overtime")
	require.True(t, ok)
	assert.True(t, overtime.Equal(value.Bool(true)))
}

// Scenario 4: calculator invocation computes calculated_hours=9.5.
func TestCalculatorInvocation(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "compute_hours",
		Conditions: []fact.Condition{fact.Simple("entity_type", fact.OpEqual, value.String("shift"))},
		Actions: []fact.Action{{
			Kind:           fact.ActionCallCalculator,
			CalculatorName: "time_between_datetime",
			InputMapping:   map[string]string{"start": "start_datetime", "end": "finish_datetime"},
			OutputField:    "calculated_hours",
		}},
	})

	_, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{
			"entity_type":     value.String("shift"),
			"start_datetime":  value.String("2024-01-01T08:00:00Z"),
			"finish_datetime": value.String("2024-01-01T17:30:00Z"),
		}},
	})
	require.NoError(t, err)

	f0, _ := e.store.Get(0)
	hours, ok := f0.Get("calculated_hours")
	require.True(t, ok)
	got, _ := hours.AsFloat()
	assert.Equal(t, 9.5, got)
}

// Scenario 5: weighted average, including the empty/zero-weight cases.
func TestWeightedAverageCalculator(t *testing.T) {
	out, err := calcWeightedAverage(t, []value.Value{
		value.Object(map[string]value.Value{"value": value.Float(10), "weight": value.Float(2)}),
		value.Object(map[string]value.Value{"value": value.Float(20), "weight": value.Float(3)}),
	})
	require.NoError(t, err)
	got, _ := out.AsFloat()
	assert.Equal(t, 16.0, got)

	out, err = calcWeightedAverage(t, nil)
	require.NoError(t, err)
	got, _ = out.AsFloat()
	assert.Equal(t, 0.0, got)
}

func calcWeightedAverage(t *testing.T, items []value.Value) (value.Value, error) {
	t.Helper()
	e := New(0)
	return e.calculators.Invoke("weighted_average", map[string]value.Value{"items": value.Array(items)})
}

// Scenario 6: the conditional-set DSL resolves to the matching bracket.
func TestConditionalSetDSL(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "bonus_rate",
		Conditions: []fact.Condition{fact.Simple("entity_type", fact.OpEqual, value.String("review"))},
		Actions: []fact.Action{{
			Kind: fact.ActionFormula,
			Expression: "cond when performance_rating >= 4.5 then 0.15 " +
				"when performance_rating >= 4.0 then 0.10 " +
				"when performance_rating >= 3.5 then 0.05 default 0.0",
			OutputField: "bonus_rate",
		}},
	})

	_, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{
			"entity_type":        value.String("review"),
			"performance_rating": value.Float(4.2),
		}},
	})
	require.NoError(t, err)

	f0, _ := e.store.Get(0)
	rate, ok := f0.Get("bonus_rate")
	require.True(t, ok)
	got, _ := rate.AsFloat()
	assert.InDelta(t, 0.10, got, 1e-9)
}

// Scenario 7 / P3: deleting a fact mid-cycle retracts a still-pending
// activation over the same token before its actions run. Rule "purge"
// (higher priority) deletes fact a as soon as it sees it; rule
// "needs_both" would otherwise fire over (a,b), but its activation is
// retracted first since a is gone.
func TestDeleteCascadeRetractsPendingActivation(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "needs_both",
		Priority:   0,
		Conditions: []fact.Condition{
			fact.Simple("role", fact.OpEqual, value.String("a")),
			fact.Simple("role2", fact.OpEqual, value.String("b")),
		},
		Actions: []fact.Action{{Kind: fact.ActionSetField, Field: "paired", Value: value.Bool(true)}},
	})
	mustAddRule(t, e, fact.Rule{
		ID:         2,
		Name:       "purge",
		Priority:   10,
		Conditions: []fact.Condition{fact.Simple("role", fact.OpEqual, value.String("a"))},
		Actions:    []fact.Action{{Kind: fact.ActionDeleteFact, FactIDField: "self_id"}},
	})

	results, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{"role": value.String("a"), "self_id": value.Int(0)}},
		{Fields: map[string]value.Value{"role2": value.String("b")}},
	})
	require.NoError(t, err)

	for _, r := range results {
		assert.NotEqual(t, uint64(1), r.RuleID, "the two-fact rule must not have fired: its activation should have been retracted")
	}
	require.Len(t, results, 1)
	assert.Equal(t, uint64(2), results[0].RuleID)
	assert.Equal(t, "fact_deleted", results[0].ActionsExecuted[0].Kind)
}

func TestBatchDeadlineExceeded(t *testing.T) {
	e := New(0, WithBatchLimits(BatchLimits{Deadline: time.Nanosecond}))
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "always",
		Conditions: []fact.Condition{fact.Simple("x", fact.OpEqual, value.Int(1))},
		Actions:    []fact.Action{{Kind: fact.ActionSetField, Field: "seen", Value: value.Bool(true)}},
	})
	time.Sleep(time.Millisecond)

	_, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{"x": value.Int(1)}},
	})
	require.Error(t, err)
}

func TestLookupFactByID(t *testing.T) {
	e := New(0)
	_, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{ExternalID: "shift-1", Fields: map[string]value.Value{"status": value.String("open")}},
	})
	require.NoError(t, err)

	f, ok := e.LookupFactByID("shift-1")
	require.True(t, ok)
	v, ok := e.GetFieldByID("shift-1", "status")
	require.True(t, ok)
	assert.True(t, v.Equal(value.String("open")))
	assert.Equal(t, "shift-1", f.ExternalID)

	_, ok = e.LookupFactByID("missing")
	assert.False(t, ok)
}

func TestGetStats(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "mark",
		Conditions: []fact.Condition{fact.Simple("x", fact.OpEqual, value.Int(1))},
		Actions:    []fact.Action{{Kind: fact.ActionSetField, Field: "seen", Value: value.Bool(true)}},
	})
	_, err := e.ProcessFacts(context.Background(), []fact.Fact{
		{Fields: map[string]value.Value{"x": value.Int(1)}},
	})
	require.NoError(t, err)

	stats := e.GetStats()
	assert.Equal(t, 1, stats.RulesRegistered)
	assert.Equal(t, int64(1), stats.ActivationsFired)
	assert.Equal(t, int64(1), stats.BatchesRun)
	assert.Equal(t, 1, stats.FactsLive)
}

func TestRemoveRuleDropsPendingActivations(t *testing.T) {
	e := New(0)
	mustAddRule(t, e, fact.Rule{
		ID:         1,
		Name:       "mark",
		Conditions: []fact.Condition{fact.Simple("x", fact.OpEqual, value.Int(1))},
		Actions:    []fact.Action{{Kind: fact.ActionSetField, Field: "seen", Value: value.Bool(true)}},
	})
	e.pending = append(e.pending, arrival{activation: beta.Activation{RuleID: 1}})
	require.NoError(t, e.RemoveRule(1))
	assert.Empty(t, e.pending)

	err := e.RemoveRule(1)
	assert.Error(t, err)
}
