package alpha

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/fact"
	"github.com/bingo-rules/bingo/internal/value"
)

func TestCompileReusesNodeForIdenticalLiteral(t *testing.T) {
	net := NewNetwork()
	a := net.Compile(fact.Simple("status", fact.OpEqual, value.String("active")))
	b := net.Compile(fact.Simple("status", fact.OpEqual, value.String("active")))
	assert.Same(t, a, b)

	c := net.Compile(fact.Simple("status", fact.OpEqual, value.String("inactive")))
	assert.NotSame(t, a, c)
}

func TestActivateUpdatesMemory(t *testing.T) {
	net := NewNetwork()
	node := net.Compile(fact.Simple("hours_worked", fact.OpGreaterThan, value.Float(40)))

	f := fact.Fact{InternalID: 1, Fields: map[string]value.Value{"hours_worked": value.Float(45)}}
	net.Activate(f)
	require.True(t, node.Memory().Has(1))

	f2 := fact.Fact{InternalID: 2, Fields: map[string]value.Value{"hours_worked": value.Float(10)}}
	net.Activate(f2)
	assert.False(t, node.Memory().Has(2))
}

func TestRetractClearsMembership(t *testing.T) {
	net := NewNetwork()
	node := net.Compile(fact.Simple("status", fact.OpEqual, value.String("active")))
	f := fact.Fact{InternalID: 1, Fields: map[string]value.Value{"status": value.String("active")}}
	net.Activate(f)
	require.True(t, node.Memory().Has(1))

	net.Retract(f)
	assert.False(t, node.Memory().Has(1))
}

type recorder struct {
	changes []bool
}

func (r *recorder) OnAlphaChange(n *Node, factID uint64, added bool) {
	r.changes = append(r.changes, added)
}

func TestSubscriberNotifiedOnMembershipChange(t *testing.T) {
	net := NewNetwork()
	node := net.Compile(fact.Simple("status", fact.OpEqual, value.String("active")))
	rec := &recorder{}
	node.Subscribe(rec)

	f := fact.Fact{InternalID: 1, Fields: map[string]value.Value{"status": value.String("active")}}
	net.Activate(f)
	net.Retract(f)

	require.Len(t, rec.changes, 2)
	assert.True(t, rec.changes[0])
	assert.False(t, rec.changes[1])
}
