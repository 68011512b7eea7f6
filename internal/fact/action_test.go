package fact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

func TestActionValidateRequiredFields(t *testing.T) {
	cases := []struct {
		name string
		a    Action
		ok   bool
	}{
		{"set_field ok", Action{Kind: ActionSetField, Field: "x", Value: value.Bool(true)}, true},
		{"set_field missing field", Action{Kind: ActionSetField}, false},
		{"call_calculator ok", Action{Kind: ActionCallCalculator, CalculatorName: "add", OutputField: "out"}, true},
		{"call_calculator missing output", Action{Kind: ActionCallCalculator, CalculatorName: "add"}, false},
		{"formula ok", Action{Kind: ActionFormula, Expression: "1+1", OutputField: "out"}, true},
		{"unknown kind", Action{Kind: "bogus"}, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			err := c.a.Validate()
			if c.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, bingoerr.ErrValidation)
			}
		})
	}
}

func TestActionJSONRoundTrip(t *testing.T) {
	a := Action{
		Kind:           ActionCallCalculator,
		CalculatorName: "time_between_datetime",
		InputMapping:   map[string]string{"start_field": "start_datetime", "end_field": "finish_datetime", "unit": "hours"},
		OutputField:    "calculated_hours",
	}
	b, err := a.MarshalJSON()
	require.NoError(t, err)

	var out Action
	require.NoError(t, out.UnmarshalJSON(b))
	assert.Equal(t, a.Kind, out.Kind)
	assert.Equal(t, a.InputMapping, out.InputMapping)
}
