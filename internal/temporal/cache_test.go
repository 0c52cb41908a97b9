package temporal

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lu-w/stars-logic-mtcq/internal/convert"
	"github.com/lu-w/stars-logic-mtcq/internal/kb"
)

type fakeSource struct {
	key      string
	instants []Instant
	calls    int
}

func (f *fakeSource) Key() string { return f.key }

func (f *fakeSource) Instants(convert.TypeSet) []Instant {
	f.calls++
	return f.instants
}

func TestCacheGetOrAssemble(t *testing.T) {
	c := NewCache(Config{Prefix: prefix})
	a := &fakeSource{key: "A", instants: fourTicks()}
	b := &fakeSource{key: "B", instants: fourTicks()[:1]}

	first, err := c.GetOrAssemble(context.Background(), a)
	require.NoError(t, err)
	second, err := c.GetOrAssemble(context.Background(), a)
	require.NoError(t, err)
	assert.Same(t, first, second)
	assert.Equal(t, 1, a.calls)

	other, err := c.GetOrAssemble(context.Background(), b)
	require.NoError(t, err)
	assert.Equal(t, 1, other.Len())

	again, err := c.GetOrAssemble(context.Background(), a)
	require.NoError(t, err)
	assert.NotSame(t, first, again, "A was evicted by B and reassembled")
	assert.Equal(t, 2, a.calls)
}

func TestCacheFailureLeavesEmpty(t *testing.T) {
	c := NewCache(Config{Template: kb.NewSnapshot(kb.WithFactLimit(1))})
	bad := &fakeSource{key: "bad", instants: fourTicks()}

	_, err := c.GetOrAssemble(context.Background(), bad)
	require.ErrorIs(t, err, kb.ErrFactLimit)

	_, err = c.GetOrAssemble(context.Background(), bad)
	require.Error(t, err)
	assert.Equal(t, 2, bad.calls, "failed assemblies are not cached")
}

func TestCacheReset(t *testing.T) {
	c := NewCache(Config{})
	src := &fakeSource{key: "A"}
	_, err := c.GetOrAssemble(context.Background(), src)
	require.NoError(t, err)

	c.Reset()
	_, err = c.GetOrAssemble(context.Background(), src)
	require.NoError(t, err)
	assert.Equal(t, 2, src.calls)
}
