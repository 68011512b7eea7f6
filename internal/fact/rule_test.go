package fact

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

func validRule() Rule {
	return Rule{
		ID:   1,
		Name: "overtime",
		Conditions: []Condition{
			Simple("hours_worked", OpGreaterThan, value.Float(40)),
		},
		Actions: []Action{
			{Kind: ActionSetField, Field: "overtime", Value: value.Bool(true)},
		},
	}
}

func TestRuleValidate(t *testing.T) {
	r := validRule()
	assert.NoError(t, r.Validate())

	r.Conditions = nil
	assert.ErrorIs(t, r.Validate(), bingoerr.ErrValidation)
}

func TestRuleLeafCount(t *testing.T) {
	r := validRule()
	r.Conditions = []Condition{
		Complex(LogicalAnd,
			Simple("a", OpEqual, value.Int(1)),
			Simple("b", OpEqual, value.Int(2)),
		),
		Simple("c", OpEqual, value.Int(3)),
	}
	assert.Equal(t, 3, r.LeafCount())
}
