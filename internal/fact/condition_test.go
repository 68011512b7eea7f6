package fact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/bingoerr"
	"github.com/bingo-rules/bingo/internal/value"
)

func TestSimpleConditionTest(t *testing.T) {
	c := Simple("status", OpEqual, value.String("active"))
	ok, err := c.Test(value.String("active"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = c.Test(value.String("inactive"))
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGreaterThanCoercesIntFloat(t *testing.T) {
	c := Simple("age", OpGreaterThan, value.Int(18))
	ok, err := c.Test(value.Float(18.5))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestCompareTypeMismatch(t *testing.T) {
	c := Simple("name", OpGreaterThan, value.Int(1))
	_, err := c.Test(value.Bool(true))
	assert.ErrorIs(t, err, bingoerr.ErrTypeMismatch)
}

func TestContainsOnArray(t *testing.T) {
	c := Simple("tags", OpContains, value.String("urgent"))
	ok, err := c.Test(value.Array([]value.Value{value.String("urgent"), value.String("low")}))
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestValidateRejectsUnknownOperator(t *testing.T) {
	c := Simple("x", Operator("bogus"), value.Int(1))
	err := c.Validate()
	assert.ErrorIs(t, err, bingoerr.ErrValidation)
}

func TestValidateNotRequiresExactlyOneChild(t *testing.T) {
	c := Complex(LogicalNot, Simple("a", OpEqual, value.Int(1)), Simple("b", OpEqual, value.Int(2)))
	err := c.Validate()
	assert.ErrorIs(t, err, bingoerr.ErrValidation)
}

func TestLeavesCountsNestedLeaves(t *testing.T) {
	c := Complex(LogicalAnd,
		Simple("a", OpEqual, value.Int(1)),
		Complex(LogicalOr,
			Simple("b", OpEqual, value.Int(2)),
			Simple("c", OpEqual, value.Int(3)),
		),
	)
	assert.Len(t, c.Leaves(), 3)
}

func TestConditionJSONRoundTrip(t *testing.T) {
	c := Complex(LogicalAnd,
		Simple("hours_worked", OpGreaterThan, value.Float(40)),
		Simple("status", OpEqual, value.String("active")),
	)
	b, err := c.MarshalJSON()
	require.NoError(t, err)

	var out Condition
	require.NoError(t, out.UnmarshalJSON(b))
	assert.Equal(t, c.LogicalOp, out.LogicalOp)
	require.Len(t, out.Children, 2)
	assert.Equal(t, "hours_worked", out.Children[0].Field)
}

func TestCanonicalKeySharedAcrossIdenticalLiterals(t *testing.T) {
	a := Simple("status", OpEqual, value.String("active"))
	b := Simple("status", OpEqual, value.String("active"))
	assert.Equal(t, a.CanonicalKey(), b.CanonicalKey())

	c := Simple("status", OpEqual, value.String("inactive"))
	assert.NotEqual(t, a.CanonicalKey(), c.CanonicalKey())
}
