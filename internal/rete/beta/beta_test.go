package beta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/rete/alpha"
	"github.com/bingo-rules/bingo/internal/value"
)

type capturingListener struct {
	activations []Activation
	retractions []Activation
}

func (l *capturingListener) OnActivation(a Activation) { l.activations = append(l.activations, a) }
func (l *capturingListener) OnRetraction(a Activation) { l.retractions = append(l.retractions, a) }

func mkFact(id uint64, field string, v value.Value) fact.Fact {
	return fact.Fact{InternalID: id, Fields: map[string]value.Value{field: v}}
}

func TestSingleConditionChainActivates(t *testing.T) {
	an := alpha.NewNetwork()
	net := NewNetwork()
	l := &capturingListener{}

	conds := []fact.Condition{fact.Simple("status", fact.OpEqual, value.String("active"))}
	net.Compile(1, an, ToDNF(conds), l)

	an.Activate(mkFact(10, "status", value.String("active")))
	require.Len(t, l.activations, 1)
	assert.Equal(t, []uint64{10}, l.activations[0].Token.Facts)
}

func TestTwoConditionCrossProduct(t *testing.T) {
	an := alpha.NewNetwork()
	net := NewNetwork()
	l := &capturingListener{}

	conds := []fact.Condition{
		fact.Simple("type", fact.OpEqual, value.String("shift")),
		fact.Simple("region", fact.OpEqual, value.String("us")),
	}
	net.Compile(1, an, ToDNF(conds), l)

	an.Activate(mkFact(1, "type", value.String("shift")))
	assert.Empty(t, l.activations)

	an.Activate(mkFact(2, "region", value.String("us")))
	require.Len(t, l.activations, 1)
	assert.ElementsMatch(t, []uint64{1, 2}, l.activations[0].Token.Facts)
}

func TestNegatedConditionBlocksThenUnblocks(t *testing.T) {
	an := alpha.NewNetwork()
	net := NewNetwork()
	l := &capturingListener{}

	conds := []fact.Condition{
		fact.Complex(fact.LogicalNot, fact.Simple("blocked", fact.OpEqual, value.Bool(true))),
	}
	net.Compile(1, an, ToDNF(conds), l)

	// Negated-only conjunction: starts active, matches trivially (no
	// positive positions to bind), so it fires once up front.
	require.Len(t, l.activations, 1)

	an.Activate(mkFact(1, "blocked", value.Bool(true)))
	require.Len(t, l.retractions, 1)

	an.Retract(mkFact(1, "blocked", value.Bool(true)))
	require.Len(t, l.activations, 2)
}

func TestRetractionOnFactRemoval(t *testing.T) {
	an := alpha.NewNetwork()
	net := NewNetwork()
	l := &capturingListener{}

	conds := []fact.Condition{fact.Simple("status", fact.OpEqual, value.String("active"))}
	net.Compile(1, an, ToDNF(conds), l)

	f := mkFact(10, "status", value.String("active"))
	an.Activate(f)
	require.Len(t, l.activations, 1)

	an.Retract(f)
	require.Len(t, l.retractions, 1)
	assert.Equal(t, []uint64{10}, l.retractions[0].Token.Facts)
}

func TestRemoveMakesChainInert(t *testing.T) {
	an := alpha.NewNetwork()
	net := NewNetwork()
	l := &capturingListener{}

	conds := []fact.Condition{fact.Simple("status", fact.OpEqual, value.String("active"))}
	net.Compile(1, an, ToDNF(conds), l)
	net.Remove(1)

	an.Activate(mkFact(1, "status", value.String("active")))
	assert.Empty(t, l.activations)
}
