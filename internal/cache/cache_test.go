package cache

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddAndGet(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	v, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, 1, v)
}

func TestEvictsLeastRecentlyUsed(t *testing.T) {
	c := New[string, int](2)
	c.Add("a", 1)
	c.Add("b", 2)
	c.Get("a") // touch a, making b the LRU entry
	c.Add("c", 3)

	_, ok := c.Get("b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)

	assert.Equal(t, int64(1), c.Stats().Evictions)
}

func TestCapacityZeroNeverRetains(t *testing.T) {
	c := New[string, int](0)
	c.Add("a", 1)
	_, ok := c.Get("a")
	assert.False(t, ok)
	assert.Equal(t, 0, c.Len())
}

func TestStatsTracksHitsAndMisses(t *testing.T) {
	c := New[string, int](4)
	c.Add("a", 1)
	c.Get("a")
	c.Get("missing")

	s := c.Stats()
	assert.Equal(t, 4, s.Capacity)
	assert.Equal(t, 1, s.Size)
	assert.Equal(t, int64(1), s.Hits)
	assert.Equal(t, int64(1), s.Misses)
}

func TestRemove(t *testing.T) {
	c := New[string, int](4)
	c.Add("a", 1)
	c.Remove("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
}
