package syntax

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func parse(t *testing.T, src string) Block {
	t.Helper()
	p, err := NewParser(src)
	require.NoError(t, err)
	block, err := p.Parse()
	require.NoError(t, err)
	return block
}

func TestParseSimpleArithmeticExpression(t *testing.T) {
	block := parse(t, "55 + 42")
	require.Len(t, block, 1)

	stmt, ok := block[0].(ExprStatement)
	require.True(t, ok)
	bin, ok := stmt.Expr.(BinaryExpression)
	require.True(t, ok)
	require.Equal(t, Add, bin.Op)
	require.Equal(t, IntegerLiteral(55), bin.LHS)
	require.Equal(t, IntegerLiteral(42), bin.RHS)
}

func TestParseRespectsMultiplicationPrecedence(t *testing.T) {
	block := parse(t, "(2*3)+(3*4)")
	require.Len(t, block, 1)

	stmt := block[0].(ExprStatement)
	top := stmt.Expr.(BinaryExpression)
	require.Equal(t, Add, top.Op)

	lhs := top.LHS.(BinaryExpression)
	require.Equal(t, Mul, lhs.Op)
	rhs := top.RHS.(BinaryExpression)
	require.Equal(t, Mul, rhs.Op)
}

func TestParseFunctionDefinitionAndCall(t *testing.T) {
	block := parse(t, "def add_one(x) { 1 + x }\nadd_one(54)")
	require.Len(t, block, 2)

	def, ok := block[0].(FunctionDefinition)
	require.True(t, ok)
	require.Equal(t, "add_one", def.Name)
	require.Equal(t, []string{"x"}, def.Args)
	require.Len(t, def.Body, 1)

	call, ok := block[1].(ExprStatement).Expr.(FunctionCall)
	require.True(t, ok)
	require.Equal(t, "add_one", call.Name)
	require.Equal(t, []Expression{IntegerLiteral(54)}, call.Args)
}

func TestParseLetAndIdentifierStatement(t *testing.T) {
	block := parse(t, "def square(x) { let r = x * x\nr }")
	def := block[0].(FunctionDefinition)
	require.Len(t, def.Body, 2)

	decl, ok := def.Body[0].(VariableDeclaration)
	require.True(t, ok)
	require.Equal(t, "r", decl.Name)

	expr, ok := def.Body[1].(ExprStatement)
	require.True(t, ok)
	require.Equal(t, Identifier{Name: "r"}, expr.Expr)
}

func TestParseIfElseIfWithTrailingStatement(t *testing.T) {
	block := parse(t, "if x { return 1 } else if y { return 2 }\n3")
	cond, ok := block[0].(Condition)
	require.True(t, ok)
	require.Len(t, cond.Branches, 2)
	require.NotNil(t, cond.Branches[0].Predicate)
	require.NotNil(t, cond.Branches[1].Predicate)

	trailing, ok := block[1].(ExprStatement)
	require.True(t, ok)
	require.Equal(t, IntegerLiteral(3), trailing.Expr)
}

func TestParseIfElse(t *testing.T) {
	block := parse(t, "if x { return 1 } else { return 0 }")
	cond := block[0].(Condition)
	require.Len(t, cond.Branches, 2)
	require.Nil(t, cond.Branches[1].Predicate)
}

func TestParseAssignmentVsExpressionStatement(t *testing.T) {
	block := parse(t, "x = 5\nx")
	assign, ok := block[0].(Assignment)
	require.True(t, ok)
	require.Equal(t, "x", assign.LHS)

	expr, ok := block[1].(ExprStatement)
	require.True(t, ok)
	require.Equal(t, Identifier{Name: "x"}, expr.Expr)
}

func TestParseWhileLoop(t *testing.T) {
	block := parse(t, "while x { x = x - 1 }")
	loop, ok := block[0].(Loop)
	require.True(t, ok)
	require.Equal(t, PredicateBefore, loop.PredicatePosition)
	require.Len(t, loop.Body, 1)
}

func TestParseStringLiteral(t *testing.T) {
	block := parse(t, `"Hello world!"`)
	expr := block[0].(ExprStatement).Expr
	require.Equal(t, StringLiteral("Hello world!"), expr)
}

func TestParseComparisonOperators(t *testing.T) {
	cases := map[string]BinaryOperator{
		"a == b": Eq,
		"a != b": Ne,
		"a < b":  Lt,
		"a <= b": Le,
		"a > b":  Gt,
		"a >= b": Ge,
	}
	for src, op := range cases {
		block := parse(t, src)
		bin := block[0].(ExprStatement).Expr.(BinaryExpression)
		require.Equal(t, op, bin.Op, src)
	}
}

func TestParseUnterminatedBlockFails(t *testing.T) {
	p, err := NewParser("def f(x) { return x")
	require.NoError(t, err)
	_, err = p.Parse()
	require.Error(t, err)
}

func TestParseUnterminatedStringFails(t *testing.T) {
	p, err := NewParser(`let s = "unterminated`)
	require.NoError(t, err)
	_, err = p.Parse()
	require.Error(t, err)
}
