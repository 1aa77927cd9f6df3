package scope

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeclareRejectsDuplicateInSameScope(t *testing.T) {
	s := New(OwnerTask, 0, 100)
	require.True(t, s.Declare(Binding{Name: "x", Offset: 1, End: 2}))
	assert.False(t, s.Declare(Binding{Name: "x", Offset: 5, End: 6}))
}

func TestLookupFindsNearestShadowingBinding(t *testing.T) {
	outer := New(OwnerWorkflow, 0, 100)
	outer.Declare(Binding{Name: "x", Offset: 1, End: 2})
	inner := outer.Push(OwnerScatter, 10, 50)
	inner.Declare(Binding{Name: "x", Offset: 11, End: 12})

	b, ok := inner.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 11, b.Offset)

	b, ok = outer.Lookup("x")
	require.True(t, ok)
	assert.Equal(t, 1, b.Offset)
}

func TestLookupFallsThroughToAncestor(t *testing.T) {
	outer := New(OwnerWorkflow, 0, 100)
	outer.Declare(Binding{Name: "y", Offset: 1, End: 2})
	inner := outer.Push(OwnerScatter, 10, 50)

	b, ok := inner.Lookup("y")
	require.True(t, ok)
	assert.Equal(t, 1, b.Offset)

	_, ok = inner.Lookup("missing")
	assert.False(t, ok)
}

func TestEnclosingDescendsToInnermostMatch(t *testing.T) {
	outer := New(OwnerWorkflow, 0, 100)
	inner := outer.Push(OwnerScatter, 10, 50)
	deepest := inner.Push(OwnerConditional, 20, 30)

	assert.Same(t, deepest, outer.Enclosing(25))
	assert.Same(t, inner, outer.Enclosing(40))
	assert.Same(t, outer, outer.Enclosing(5))
	assert.Nil(t, outer.Enclosing(200))
}
