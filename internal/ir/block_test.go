package ir

import (
	"testing"

	"github.com/emberlang/ember/internal/frame"
	"github.com/stretchr/testify/require"
)

func TestBlockPushAllocatesFreshSlots(t *testing.T) {
	b := NewBlock(frame.NewStackFrame())

	s1 := b.Push(IntLiteral(1))
	s2 := b.Push(IntLiteral(2))

	require.NotEqual(t, s1, s2)
	require.Equal(t, 2, b.Len())
}

func TestBlockSetLabelRecordsPosition(t *testing.T) {
	b := NewBlock(frame.NewStackFrame())
	l := NewLabel("loop")

	b.Push(IntLiteral(1))
	b.SetLabel(l)
	b.Push(IntLiteral(2))

	require.Equal(t, 3, b.Len())
	setLabel, ok := b.Instructions[1].(SetLabel)
	require.True(t, ok)
	require.Equal(t, l, setLabel.L)
}

func TestBlockPushAssignDoesNotAllocateASlot(t *testing.T) {
	b := NewBlock(frame.NewStackFrame())
	s := b.Push(IntLiteral(1))
	target := AssignTarget{Kind: AssignStackVariable, Offset: 0}
	b.PushAssign(target, s)

	assign, ok := b.Instructions[1].(Assign)
	require.True(t, ok)
	require.Equal(t, target, assign.Target)
	require.Equal(t, s, assign.Src)
}

func TestBlockArgumentCache(t *testing.T) {
	b := NewBlock(frame.NewStackFrame())
	_, ok := b.CachedArgumentSlot(0)
	require.False(t, ok)

	s := b.Push(FunctionArgument{Index: 0})
	b.CacheArgumentSlot(0, s)

	cached, ok := b.CachedArgumentSlot(0)
	require.True(t, ok)
	require.Equal(t, s, cached)
}

func TestBlockPushJumpUnconditional(t *testing.T) {
	b := NewBlock(frame.NewStackFrame())
	l := NewLabel("end")
	b.PushJump(l, Unconditional())

	op, ok := b.Instructions[0].(Op)
	require.True(t, ok)
	jump, ok := op.Code.(Jump)
	require.True(t, ok)
	require.Equal(t, l, jump.Target)
	require.Equal(t, JumpUnconditional, jump.Condition.Kind)
}
