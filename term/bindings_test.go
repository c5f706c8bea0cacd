package term

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBindingsPersistence(t *testing.T) {
	bs := Empty[*Var, Term]()
	v := NewVar("v")

	_, ok := bs.Lookup(v)
	require.False(t, ok, "fresh list should not find v")

	ext := bs.Extend(v, String("x"))

	_, ok = bs.Lookup(v)
	require.False(t, ok, "extending must not mutate the original list")

	got, ok := ext.Lookup(v)
	require.True(t, ok)
	require.Equal(t, String("x"), got)
}

func TestBindingsSharedPrefix(t *testing.T) {
	v1, v2, v3 := NewVar("a"), NewVar("b"), NewVar("c")
	base := Empty[*Var, Term]().Extend(v1, String("1"))
	branchA := base.Extend(v2, String("2a"))
	branchB := base.Extend(v3, String("2b"))

	// Both branches still see the shared prefix binding.
	got, ok := branchA.Lookup(v1)
	require.True(t, ok)
	require.Equal(t, String("1"), got)
	got, ok = branchB.Lookup(v1)
	require.True(t, ok)
	require.Equal(t, String("1"), got)

	// Neither branch sees the other's extension.
	_, ok = branchA.Lookup(v3)
	require.False(t, ok, "branchA should not see branchB's binding")
	_, ok = branchB.Lookup(v2)
	require.False(t, ok, "branchB should not see branchA's binding")
}

func TestBindingsLookupReturnsFirstMatch(t *testing.T) {
	v := NewVar("v")
	bs := Empty[*Var, Term]().Extend(v, String("old")).Extend(v, String("new"))
	got, ok := bs.Lookup(v)
	require.True(t, ok)
	require.Equal(t, String("new"), got, "most recent binding should win")
}
