package lower

import (
	"testing"

	"github.com/emberlang/ember/internal/frame"
	"github.com/emberlang/ember/internal/ir"
	"github.com/emberlang/ember/internal/syntax"
	"github.com/stretchr/testify/require"
)

func parseBlock(t *testing.T, src string) syntax.Block {
	t.Helper()
	p, err := syntax.NewParser(src)
	require.NoError(t, err)
	block, err := p.Parse()
	require.NoError(t, err)
	return block
}

func endsInReturn(t *testing.T, instrs []ir.Instruction) {
	t.Helper()
	require.NotEmpty(t, instrs)
	_, ok := instrs[len(instrs)-1].(ir.Op)
	require.True(t, ok, "last instruction should be an Op")
	_, ok = instrs[len(instrs)-1].(ir.Op).Code.(ir.Return)
	require.True(t, ok, "last instruction should be Return")
}

func TestLowerArithmeticAddsSyntheticReturn(t *testing.T) {
	stmts := parseBlock(t, "55 + 42")
	block, err := Block(frame.NewStackFrame(), stmts)
	require.NoError(t, err)
	endsInReturn(t, block.Instructions)

	var sawBinOp bool
	for _, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if bin, ok := op.Code.(ir.BinaryOp); ok {
				require.Equal(t, ir.OpAdd, bin.Operator)
				sawBinOp = true
			}
		}
	}
	require.True(t, sawBinOp)
}

func TestLowerRejectsDivision(t *testing.T) {
	stmts := parseBlock(t, "4 / 2")
	_, err := Block(frame.NewStackFrame(), stmts)
	require.Error(t, err)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}

func TestLowerRejectsComparisonOutsidePredicate(t *testing.T) {
	stmts := parseBlock(t, "1 == 1")
	_, err := Block(frame.NewStackFrame(), stmts)
	require.Error(t, err)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}

func TestLowerUnresolvedIdentifier(t *testing.T) {
	stmts := parseBlock(t, "unknown_name")
	_, err := Block(frame.NewStackFrame(), stmts)
	require.Error(t, err)
	var unresolved *UnresolvedSymbolError
	require.ErrorAs(t, err, &unresolved)
	require.Equal(t, "unknown_name", unresolved.Name)
}

func TestLowerFunctionCallArityMismatch(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("add", frame.Function(0x1000, 2))

	stmts := parseBlock(t, "add(1)")
	_, err := Block(f, stmts)
	require.Error(t, err)
	var arityErr *IncorrectArityError
	require.ErrorAs(t, err, &arityErr)
	require.Equal(t, 2, arityErr.Expected)
	require.Equal(t, 1, arityErr.Actual)
}

func TestLowerFunctionCallTooManyArguments(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("f", frame.Function(0x1000, 7))

	stmts := parseBlock(t, "f(1,2,3,4,5,6,7)")
	_, err := Block(f, stmts)
	require.Error(t, err)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}

func TestLowerFunctionCallEmitsCallFunctionWithResolvedCallee(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("add_one", frame.Function(0xdeadbeef, 1))

	stmts := parseBlock(t, "add_one(54)")
	block, err := Block(f, stmts)
	require.NoError(t, err)

	var call ir.CallFunction
	var found bool
	for _, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if c, ok := op.Code.(ir.CallFunction); ok {
				call = c
				found = true
			}
		}
	}
	require.True(t, found)
	require.Equal(t, uintptr(0xdeadbeef), call.Callee)
	require.Len(t, call.Args, 1)
}

func TestLowerVariableDeclarationAndRead(t *testing.T) {
	stmts := parseBlock(t, "let r = 9\nr")
	block, err := Block(frame.NewStackFrame(), stmts)
	require.NoError(t, err)

	var stackVarReads int
	for _, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if _, ok := op.Code.(ir.StackVariable); ok {
				stackVarReads++
			}
		}
	}
	// one from declareStackVariable's handle opcode, one from the later read.
	require.Equal(t, 2, stackVarReads)
}

func TestLowerIfElseBothBranchesReturnTerminatesCondition(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("x", frame.Argument(0))

	stmts := parseBlock(t, "if x { return 1 } else { return 0 }\n2")
	block, err := Block(f, stmts)
	require.NoError(t, err)

	// The trailing literal "2" must never be lowered: the if/else is
	// exhaustive and every branch returns, so lowering stops after the
	// condition and no synthetic return staging the literal 2 is appended.
	var literalTwoSeen bool
	for _, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if lit, ok := op.Code.(ir.Literal); ok && lit.Value.Kind == ir.LiteralInteger && lit.Value.Integer == 2 {
				literalTwoSeen = true
			}
		}
	}
	require.False(t, literalTwoSeen)
}

func TestLowerIfElseIfWithoutTrailingElseFallsThrough(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("x", frame.Argument(0))
	f.Insert("y", frame.Argument(1))

	stmts := parseBlock(t, "if x { return 1 } else if y { return 2 }\n3")
	block, err := Block(f, stmts)
	require.NoError(t, err)

	var literalThreeSeen bool
	for _, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if lit, ok := op.Code.(ir.Literal); ok && lit.Value.Kind == ir.LiteralInteger && lit.Value.Integer == 3 {
				literalThreeSeen = true
			}
		}
	}
	require.True(t, literalThreeSeen, "non-exhaustive condition must fall through to the trailing statement")
}

func TestLowerWhileLoopIsPredicateAfterBody(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("x", frame.Argument(0))

	stmts := parseBlock(t, "while x { x = x - 1 }")
	block, err := Block(f, stmts)
	require.NoError(t, err)

	// First instruction must be an unconditional jump to the test label,
	// per the predicate-after-body pattern.
	first, ok := block.Instructions[0].(ir.Op)
	require.True(t, ok)
	jump, ok := first.Code.(ir.Jump)
	require.True(t, ok)
	require.Equal(t, ir.JumpUnconditional, jump.Condition.Kind)
}

func TestLowerStringLiteral(t *testing.T) {
	stmts := parseBlock(t, `"Hello world!"`)
	block, err := Block(frame.NewStackFrame(), stmts)
	require.NoError(t, err)

	var sawString bool
	for _, instr := range block.Instructions {
		if op, ok := instr.(ir.Op); ok {
			if lit, ok := op.Code.(ir.Literal); ok && lit.Value.Kind == ir.LiteralString {
				require.Equal(t, "Hello world!", lit.Value.String)
				sawString = true
			}
		}
	}
	require.True(t, sawString)
}

func TestLowerCallingArgumentIsNotImplemented(t *testing.T) {
	f := frame.NewStackFrame()
	f.Insert("x", frame.Argument(0))

	stmts := parseBlock(t, "x(1)")
	_, err := Block(f, stmts)
	require.Error(t, err)
	var notImpl *NotImplementedError
	require.ErrorAs(t, err, &notImpl)
}
