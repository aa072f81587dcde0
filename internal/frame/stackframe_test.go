package frame

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestResolveLocalScope(t *testing.T) {
	f := NewStackFrame()
	f.Insert("x", Argument(0))

	sym, ok := f.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Argument(0), sym)
}

func TestResolveUnknownIdentifier(t *testing.T) {
	f := NewStackFrame()
	_, ok := f.Resolve("nope")
	require.False(t, ok)
}

func TestInsertStackVariableAccumulatesOffsets(t *testing.T) {
	f := NewStackFrame()
	a := f.InsertStackVariable("a")
	b := f.InsertStackVariable("b")

	require.Equal(t, 0, a.Offset)
	require.Equal(t, 1, b.Offset)
	require.Equal(t, 2, f.StackSlots())
}

func TestResolveThroughNestedScopesAccumulatesParentOffset(t *testing.T) {
	root := NewStackFrame()
	root.InsertStackVariable("outer1")
	root.InsertStackVariable("outer2")

	child := root.Push()
	child.InsertStackVariable("inner1")

	sym, ok := child.Resolve("inner1")
	require.True(t, ok)
	require.Equal(t, 0, sym.Offset)

	sym, ok = child.Resolve("outer1")
	require.True(t, ok)
	require.Equal(t, 1, sym.Offset)

	sym, ok = child.Resolve("outer2")
	require.True(t, ok)
	require.Equal(t, 2, sym.Offset)
}

func TestChildScopeShadowsParent(t *testing.T) {
	root := NewStackFrame()
	root.Insert("x", Argument(0))

	child := root.Push()
	child.Insert("x", Argument(1))

	sym, ok := child.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Argument(1), sym)

	sym, ok = root.Resolve("x")
	require.True(t, ok)
	require.Equal(t, Argument(0), sym)
}

func TestLookupLocalDoesNotWalkParent(t *testing.T) {
	root := NewStackFrame()
	root.Insert("x", Argument(0))
	child := root.Push()

	_, ok := child.LookupLocal("x")
	require.False(t, ok, "LookupLocal must not see a parent scope's binding")

	sym, ok := root.LookupLocal("x")
	require.True(t, ok)
	require.Equal(t, Argument(0), sym)
}

func TestRemoveDeletesLocalBindingOnly(t *testing.T) {
	f := NewStackFrame()
	f.Insert("x", Argument(0))
	f.Remove("x")

	_, ok := f.Resolve("x")
	require.False(t, ok)

	// Removing a name never bound in this scope is a no-op, not a panic.
	f.Remove("never_bound")
}

func TestResolveFunctionSymbolDoesNotAdjustOffset(t *testing.T) {
	root := NewStackFrame()
	root.InsertStackVariable("before")
	root.Insert("add", Function(0xdeadbeef, 2))

	child := root.Push()
	sym, ok := child.Resolve("add")
	require.True(t, ok)
	require.Equal(t, Function(0xdeadbeef, 2), sym)
}
