package action

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/calc"
	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/formula"
	"github.com/bingo-rules/bingo/internal/store"
	"github.com/bingo-rules/bingo/internal/value"
)

func newExecutor(t *testing.T) (*Executor, *store.Store) {
	t.Helper()
	st := store.New()
	ex := NewExecutor(st, calc.NewRegistry(), formula.NewDefaultEvaluator(0), DefaultLimits())
	return ex, st
}

func TestSetFieldUpdatesEveryTokenFact(t *testing.T) {
	ex, st := newExecutor(t)
	id1 := st.Insert(fact.Fact{Fields: map[string]value.Value{"status": value.String("pending")}})
	id2 := st.Insert(fact.Fact{Fields: map[string]value.Value{"status": value.String("pending")}})

	a := fact.Action{Kind: fact.ActionSetField, Field: "status", Value: value.String("done")}
	results, err := ex.Execute([]fact.Action{a}, []uint64{id1, id2})
	require.NoError(t, err)
	require.Len(t, results, 2)

	f1, _ := st.Get(id1)
	v, _ := f1.Get("status")
	s, _ := v.AsString()
	assert.Equal(t, "done", s)
}

func TestIncrementFieldPromotesToFloat(t *testing.T) {
	ex, st := newExecutor(t)
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"count": value.Int(5)}})

	a := fact.Action{Kind: fact.ActionIncrementField, Field: "count", Increment: value.Float(1.5)}
	results, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, value.KindFloat, results[0].Value.Kind())

	f, _ := st.Get(id)
	v, _ := f.Get("count")
	fv, _ := v.AsFloat()
	assert.InDelta(t, 6.5, fv, 0.0001)
}

func TestIncrementFieldTypeMismatch(t *testing.T) {
	ex, st := newExecutor(t)
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"name": value.String("a")}})

	a := fact.Action{Kind: fact.ActionIncrementField, Field: "name", Increment: value.Int(1)}
	results, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())
	assert.True(t, errors.Is(results[0].Err, bingoerr.ErrTypeMismatch))
}

func TestCreateFactUsesGeneratedIDOffset(t *testing.T) {
	ex, _ := newExecutor(t)
	a := fact.Action{Kind: fact.ActionCreateFact, Data: map[string]value.Value{"x": value.Int(1)}}
	results, err := ex.Execute([]fact.Action{a}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.GreaterOrEqual(t, results[0].FactID, uint64(1_000_000))
}

func TestUpdateFactResolvesIDFromTokenField(t *testing.T) {
	ex, st := newExecutor(t)
	target := st.Insert(fact.Fact{Fields: map[string]value.Value{"balance": value.Int(100)}})
	trigger := st.Insert(fact.Fact{Fields: map[string]value.Value{"target_id": value.Int(int64(target))}})

	a := fact.Action{
		Kind:        fact.ActionUpdateFact,
		FactIDField: "target_id",
		Updates:     map[string]value.Value{"balance": value.Int(200)},
	}
	results, err := ex.Execute([]fact.Action{a}, []uint64{trigger})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, target, results[0].FactID)

	f, _ := st.Get(target)
	v, _ := f.Get("balance")
	bi, _ := v.AsInt()
	assert.Equal(t, int64(200), bi)
}

func TestDeleteFactNotFound(t *testing.T) {
	ex, st := newExecutor(t)
	trigger := st.Insert(fact.Fact{Fields: map[string]value.Value{"target_id": value.Int(9999)}})

	a := fact.Action{Kind: fact.ActionDeleteFact, FactIDField: "target_id"}
	results, err := ex.Execute([]fact.Action{a}, []uint64{trigger})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Failed())
	assert.Equal(t, ResultFactNotFound, results[0].Outcome)
}

func TestCallCalculatorWritesOutputField(t *testing.T) {
	ex, st := newExecutor(t)
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"base": value.Int(10), "bonus": value.Int(5)}})

	a := fact.Action{
		Kind:           fact.ActionCallCalculator,
		CalculatorName: "add",
		InputMapping:   map[string]string{"addend1": "base", "addend2": "bonus"},
		OutputField:    "total",
	}
	results, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Failed())

	f, _ := st.Get(id)
	v, _ := f.Get("total")
	total, _ := v.AsInt()
	assert.Equal(t, int64(15), total)
}

func TestCallCalculatorUnknownName(t *testing.T) {
	ex, st := newExecutor(t)
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"base": value.Int(1)}})

	a := fact.Action{
		Kind:           fact.ActionCallCalculator,
		CalculatorName: "does_not_exist",
		InputMapping:   map[string]string{"x": "base"},
		OutputField:    "out",
	}
	results, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, ResultCalculatorNotFound, results[0].Outcome)
}

func TestCallCalculatorExceedsInputLimit(t *testing.T) {
	ex, st := newExecutor(t)
	ex.limits.MaxCalculatorInputs = 1
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"a": value.Int(1), "b": value.Int(2)}})

	a := fact.Action{
		Kind:           fact.ActionCallCalculator,
		CalculatorName: "add",
		InputMapping:   map[string]string{"addend1": "a", "addend2": "b"},
		OutputField:    "out",
	}
	_, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bingoerr.ErrLimitExceeded))
}

func TestFormulaEvaluatesAndWrites(t *testing.T) {
	ex, st := newExecutor(t)
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"hours": value.Float(42), "rate": value.Float(20)}})

	a := fact.Action{Kind: fact.ActionFormula, Expression: "hours * rate", OutputField: "pay"}
	results, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.NoError(t, err)
	require.Len(t, results, 1)
	require.False(t, results[0].Failed())

	f, _ := st.Get(id)
	v, _ := f.Get("pay")
	pay, _ := v.AsFloat()
	assert.InDelta(t, 840, pay, 0.0001)
}

func TestFormulaExceedsLengthLimit(t *testing.T) {
	ex, st := newExecutor(t)
	ex.limits.MaxExpressionLength = 5
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"hours": value.Float(1)}})

	a := fact.Action{Kind: fact.ActionFormula, Expression: "hours * 2", OutputField: "out"}
	_, err := ex.Execute([]fact.Action{a}, []uint64{id})
	require.Error(t, err)
	assert.True(t, errors.Is(err, bingoerr.ErrLimitExceeded))
}

func TestActionSequenceAppliesInOrder(t *testing.T) {
	ex, st := newExecutor(t)
	id := st.Insert(fact.Fact{Fields: map[string]value.Value{"count": value.Int(0)}})

	actions := []fact.Action{
		{Kind: fact.ActionIncrementField, Field: "count", Increment: value.Int(1)},
		{Kind: fact.ActionIncrementField, Field: "count", Increment: value.Int(1)},
	}
	results, err := ex.Execute(actions, []uint64{id})
	require.NoError(t, err)
	require.Len(t, results, 2)

	f, _ := st.Get(id)
	v, _ := f.Get("count")
	c, _ := v.AsInt()
	assert.Equal(t, int64(2), c)
}

func TestLogActionRecordsMessage(t *testing.T) {
	ex, _ := newExecutor(t)
	a := fact.Action{Kind: fact.ActionLog, Message: "hello"}
	results, err := ex.Execute([]fact.Action{a}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "hello", results[0].Message)
}
