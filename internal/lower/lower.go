package lower

import (
	"fmt"

	"github.com/emberlang/ember/internal/frame"
	"github.com/emberlang/ember/internal/ir"
	"github.com/emberlang/ember/internal/syntax"
)

// Block lowers a parsed statement list into a fresh ir.Block rooted at f.
// If control reaches the end of stmts without an explicit Return, a
// synthetic SetReturnValue(last)+Return is appended, where last is the
// final statement's value (or a zero literal if the final statement
// produced none), matching SPEC_FULL.md §4.3's function-body rule.
func Block(f *frame.StackFrame, stmts syntax.Block) (*ir.Block, error) {
	block := ir.NewBlock(f)

	lastSlot, hasValue, terminated, err := lowerStatements(block, stmts)
	if err != nil {
		return nil, err
	}
	if !terminated {
		retSlot := lastSlot
		if !hasValue {
			retSlot = block.Push(ir.IntLiteral(0))
		}
		block.Push(ir.SetReturnValue{Src: retSlot})
		block.Push(ir.Return{})
	}
	return block, nil
}

// lowerStatements lowers stmts in order, stopping early at the first
// statement that unconditionally terminates (a Return, or an exhaustive
// if/else-if/else whose every branch returns) since anything after it is
// unreachable.
func lowerStatements(block *ir.Block, stmts syntax.Block) (lastSlot ir.Slot, hasValue, terminated bool, err error) {
	for _, stmt := range stmts {
		lastSlot, hasValue, terminated, err = lowerStatement(block, stmt)
		if err != nil {
			return 0, false, false, err
		}
		if terminated {
			break
		}
	}
	return lastSlot, hasValue, terminated, nil
}

func lowerStatement(block *ir.Block, stmt syntax.Statement) (ir.Slot, bool, bool, error) {
	switch s := stmt.(type) {
	case syntax.ExprStatement:
		slot, err := lowerExpression(block, s.Expr)
		if err != nil {
			return 0, false, false, err
		}
		return slot, true, false, nil

	case syntax.VariableDeclaration:
		slot, err := lowerExpression(block, s.Value)
		if err != nil {
			return 0, false, false, err
		}
		declareStackVariable(block, s.Name, slot)
		return 0, false, false, nil

	case syntax.Assignment:
		slot, err := lowerExpression(block, s.RHS)
		if err != nil {
			return 0, false, false, err
		}
		symbol, ok := block.Frame.Resolve(s.LHS)
		if !ok {
			return 0, false, false, &UnresolvedSymbolError{Name: s.LHS}
		}
		target, err := assignTargetFor(symbol)
		if err != nil {
			return 0, false, false, err
		}
		block.PushAssign(target, slot)
		return 0, false, false, nil

	case syntax.Condition:
		return lowerCondition(block, s)

	case syntax.Loop:
		if err := lowerLoop(block, s); err != nil {
			return 0, false, false, err
		}
		return 0, false, false, nil

	case syntax.Return:
		slot, err := lowerExpression(block, s.Expr)
		if err != nil {
			return 0, false, false, err
		}
		block.Push(ir.SetReturnValue{Src: slot})
		block.Push(ir.Return{})
		return slot, true, true, nil

	case syntax.FunctionDefinition:
		return 0, false, false, &NotImplementedError{Reason: "nested function definitions"}

	default:
		return 0, false, false, &NotImplementedError{Reason: fmt.Sprintf("statement kind %T", stmt)}
	}
}

func lowerExpression(block *ir.Block, expr syntax.Expression) (ir.Slot, error) {
	switch e := expr.(type) {
	case syntax.Identifier:
		return resolveToSlot(block, e.Name)

	case syntax.Literal:
		switch e.Kind {
		case syntax.LiteralInteger:
			return block.Push(ir.IntLiteral(e.Integer)), nil
		case syntax.LiteralString:
			return block.Push(ir.StringLiteral(e.String)), nil
		default:
			return 0, &NotImplementedError{Reason: "unknown literal kind"}
		}

	case syntax.FunctionCall:
		return lowerCall(block, e)

	case syntax.BinaryExpression:
		if e.Op.IsComparison() {
			return 0, &NotImplementedError{Reason: "comparison used outside a predicate"}
		}
		return lowerArithmetic(block, e)

	default:
		return 0, &NotImplementedError{Reason: fmt.Sprintf("expression kind %T", expr)}
	}
}

func lowerArithmetic(block *ir.Block, e syntax.BinaryExpression) (ir.Slot, error) {
	lhs, err := lowerExpression(block, e.LHS)
	if err != nil {
		return 0, err
	}
	rhs, err := lowerExpression(block, e.RHS)
	if err != nil {
		return 0, err
	}
	op, err := arithmeticOp(e.Op)
	if err != nil {
		return 0, err
	}
	return block.Push(ir.BinaryOp{Operator: op, LHS: lhs, RHS: rhs}), nil
}

func arithmeticOp(op syntax.BinaryOperator) (ir.BinaryOperator, error) {
	switch op {
	case syntax.Add:
		return ir.OpAdd, nil
	case syntax.Sub:
		return ir.OpSub, nil
	case syntax.Mul:
		return ir.OpMul, nil
	case syntax.Div:
		return 0, &NotImplementedError{Reason: "division"}
	default:
		return 0, &NotImplementedError{Reason: "unknown arithmetic operator"}
	}
}

func compareOp(op syntax.BinaryOperator) (ir.CompareOp, error) {
	switch op {
	case syntax.Eq:
		return ir.CompareEq, nil
	case syntax.Ne:
		return ir.CompareNe, nil
	case syntax.Lt:
		return ir.CompareLt, nil
	case syntax.Le:
		return ir.CompareLe, nil
	case syntax.Gt:
		return ir.CompareGt, nil
	case syntax.Ge:
		return ir.CompareGe, nil
	default:
		return 0, &NotImplementedError{Reason: "unknown comparison operator"}
	}
}

func lowerCall(block *ir.Block, call syntax.FunctionCall) (ir.Slot, error) {
	symbol, ok := block.Frame.Resolve(call.Name)
	if !ok {
		return 0, &UnresolvedSymbolError{Name: call.Name}
	}
	if symbol.Kind != frame.SymbolFunction {
		return 0, &NotImplementedError{Reason: fmt.Sprintf("calling non-function symbol %q", call.Name)}
	}
	if len(call.Args) > 6 {
		return 0, &NotImplementedError{Reason: "function call with more than 6 arguments"}
	}
	if len(call.Args) != symbol.Arity {
		return 0, &IncorrectArityError{Name: call.Name, Expected: symbol.Arity, Actual: len(call.Args)}
	}

	argSlots := make([]ir.Slot, len(call.Args))
	for i, arg := range call.Args {
		slot, err := lowerExpression(block, arg)
		if err != nil {
			return 0, err
		}
		argSlots[i] = slot
	}
	return block.Push(ir.CallFunction{Name: call.Name, Callee: symbol.CodePtr, Args: argSlots}), nil
}

// resolveToSlot realizes name's current value as a Slot: a cached
// FunctionArgument read for arguments, a fresh StackVariable read for
// locals (each read is deliberately its own opcode, per SPEC_FULL.md
// §4.2), or an error if name is unbound or names a function — functions
// aren't first-class values here; calling them is the only valid use.
func resolveToSlot(block *ir.Block, name string) (ir.Slot, error) {
	symbol, ok := block.Frame.Resolve(name)
	if !ok {
		return 0, &UnresolvedSymbolError{Name: name}
	}
	switch symbol.Kind {
	case frame.SymbolArgument:
		if slot, ok := block.CachedArgumentSlot(symbol.Offset); ok {
			return slot, nil
		}
		slot := block.Push(ir.FunctionArgument{Index: symbol.Offset})
		block.CacheArgumentSlot(symbol.Offset, slot)
		return slot, nil
	case frame.SymbolStackVariable:
		return block.Push(ir.StackVariable{Offset: symbol.Offset}), nil
	case frame.SymbolFunction:
		return 0, &NotImplementedError{Reason: fmt.Sprintf("function %q used as a value", name)}
	default:
		return 0, &NotImplementedError{Reason: "unresolvable symbol kind"}
	}
}

func assignTargetFor(symbol frame.Symbol) (ir.AssignTarget, error) {
	switch symbol.Kind {
	case frame.SymbolArgument:
		return ir.AssignTarget{Kind: ir.AssignFunctionArgument, Offset: symbol.Offset}, nil
	case frame.SymbolStackVariable:
		return ir.AssignTarget{Kind: ir.AssignStackVariable, Offset: symbol.Offset}, nil
	default:
		return ir.AssignTarget{}, &NotImplementedError{Reason: "assigning to a function symbol"}
	}
}

// declareStackVariable binds name to a fresh stack slot, emitting the
// StackVariable(offset) handle opcode the IR Builder contract calls for
// plus the Assign that stores initial into it. The handle opcode's own
// slot is a dead load at the register-allocator/emitter level (it reads the
// slot's not-yet-initialized stack memory and nothing downstream reads the
// result) — it exists to produce the handle the builder contract (SPEC_FULL.md
// §4.2) specifies, not as a value any later instruction consumes.
func declareStackVariable(block *ir.Block, name string, initial ir.Slot) {
	symbol := block.Frame.InsertStackVariable(name)
	block.Push(ir.StackVariable{Offset: symbol.Offset})
	block.PushAssign(ir.AssignTarget{Kind: ir.AssignStackVariable, Offset: symbol.Offset}, initial)
}

// lowerCondition lowers an if/else-if/else chain. Per-branch predicate
// lowering branches to the branch body on true and falls through to the
// next predicate test (or the end label, for the last branch) on false;
// a body that completes without returning jumps to the end label, after
// recording its result as a PhiStart contribution when the chain is
// exhaustive. The chain's own result is usable by
// the caller only when it is exhaustive (ends in an unconditional else) —
// otherwise the implicit empty else leaves no value to join.
func lowerCondition(block *ir.Block, cond syntax.Condition) (ir.Slot, bool, bool, error) {
	exhaustive := len(cond.Branches) > 0 && cond.Branches[len(cond.Branches)-1].Predicate == nil
	endLabel := ir.NewLabel("if_end")
	joinSlot := ir.NewSlot()

	var sources []ir.Slot
	anyFallthrough := false
	allTerminated := true

	for i, branch := range cond.Branches {
		isLast := i == len(cond.Branches)-1

		if branch.Predicate != nil {
			bodyLabel := ir.NewLabel("if_body")
			nextLabel := endLabel
			if !isLast {
				nextLabel = ir.NewLabel("if_next")
			}
			if err := lowerPredicateJump(block, branch.Predicate, bodyLabel); err != nil {
				return 0, false, false, err
			}
			block.PushJump(nextLabel, ir.Unconditional())
			block.SetLabel(bodyLabel)

			if err := lowerBranchBody(block, branch.Body, exhaustive, joinSlot, endLabel, &sources, &anyFallthrough, &allTerminated); err != nil {
				return 0, false, false, err
			}
			if !isLast {
				block.SetLabel(nextLabel)
			}
			continue
		}

		if err := lowerBranchBody(block, branch.Body, exhaustive, joinSlot, endLabel, &sources, &anyFallthrough, &allTerminated); err != nil {
			return 0, false, false, err
		}
	}

	block.SetLabel(endLabel)

	if !exhaustive || !anyFallthrough {
		return 0, false, exhaustive && allTerminated, nil
	}
	block.PushWithDest(joinSlot, ir.PhiEnd{Sources: sources})
	return joinSlot, true, false, nil
}

func lowerBranchBody(
	block *ir.Block,
	body syntax.Block,
	exhaustive bool,
	joinSlot ir.Slot,
	endLabel ir.Label,
	sources *[]ir.Slot,
	anyFallthrough *bool,
	allTerminated *bool,
) error {
	lastSlot, hasValue, terminated, err := lowerStatements(block, body)
	if err != nil {
		return err
	}
	if terminated {
		return nil
	}
	*allTerminated = false
	if !exhaustive {
		block.PushJump(endLabel, ir.Unconditional())
		return nil
	}

	resultSlot := lastSlot
	if !hasValue {
		resultSlot = block.Push(ir.IntLiteral(0))
	}
	block.PushWithDest(joinSlot, ir.PhiStart{Src: resultSlot})
	*sources = append(*sources, resultSlot)
	*anyFallthrough = true
	block.PushJump(endLabel, ir.Unconditional())
	return nil
}

// lowerPredicateJump lowers predicate and emits a single Jump to target
// taken when predicate is true, recognizing a top-level comparison and
// using its Jump condition directly rather than materializing a boolean.
func lowerPredicateJump(block *ir.Block, predicate syntax.Expression, target ir.Label) error {
	if bin, ok := predicate.(syntax.BinaryExpression); ok && bin.Op.IsComparison() {
		lhs, err := lowerExpression(block, bin.LHS)
		if err != nil {
			return err
		}
		rhs, err := lowerExpression(block, bin.RHS)
		if err != nil {
			return err
		}
		op, err := compareOp(bin.Op)
		if err != nil {
			return err
		}
		block.PushJump(target, ir.Compare(lhs, op, rhs))
		return nil
	}

	slot, err := lowerExpression(block, predicate)
	if err != nil {
		return err
	}
	block.PushJump(target, ir.NotZero(slot))
	return nil
}

// lowerLoop lowers a while-loop in predicate-after-body form: an
// unconditional jump to the test, the body, then the test itself jumping
// back to the start on true and falling through on false.
func lowerLoop(block *ir.Block, loop syntax.Loop) error {
	startLabel := ir.NewLabel("while_start")
	testLabel := ir.NewLabel("while_test")

	block.PushJump(testLabel, ir.Unconditional())
	block.SetLabel(startLabel)
	if _, _, _, err := lowerStatements(block, loop.Body); err != nil {
		return err
	}
	block.SetLabel(testLabel)
	return lowerPredicateJump(block, loop.Predicate, startLabel)
}
