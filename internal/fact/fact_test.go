package fact

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bingo-rules/bingo/internal/value"
)

func TestFactJSONRoundTrip(t *testing.T) {
	f := Fact{
		ExternalID: "shift-1",
		Timestamp:  time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC),
		Fields: map[string]value.Value{
			"status": value.String("active"),
			"hours":  value.Float(45.5),
		},
	}
	b, err := f.MarshalJSON()
	require.NoError(t, err)

	var out Fact
	require.NoError(t, out.UnmarshalJSON(b))
	assert.Equal(t, f.ExternalID, out.ExternalID)
	assert.True(t, f.Timestamp.Equal(out.Timestamp))
	got, ok := out.Get("status")
	require.True(t, ok)
	assert.True(t, got.Equal(value.String("active")))
}

func TestFactCloneIsIndependent(t *testing.T) {
	f := Fact{Fields: map[string]value.Value{"a": value.Int(1)}}
	clone := f.Clone()
	clone.Fields["a"] = value.Int(2)
	orig, _ := f.Get("a")
	assert.True(t, orig.Equal(value.Int(1)))
}
