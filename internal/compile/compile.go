package compile

import (
	"encoding/hex"
	"fmt"
	"io"

	"github.com/emberlang/ember/internal/codegen/amd64"
	"github.com/emberlang/ember/internal/frame"
	"github.com/emberlang/ember/internal/function"
	"github.com/emberlang/ember/internal/ir"
	"github.com/emberlang/ember/internal/lower"
	"github.com/emberlang/ember/internal/regalloc"
	"github.com/emberlang/ember/internal/syntax"
)

// Function runs the whole pipeline — AST → IR → register allocation →
// x86-64 emission — over stmts and returns a freshly mapped, callable
// Function. debugOut receives the AST/IR/assembly dumps gated by this
// package's Print* switches; it is never written to when all three are
// false.
func Function(debugOut io.Writer, f *frame.StackFrame, stmts syntax.Block) (*function.Function, error) {
	if PrintAST {
		fmt.Fprintf(debugOut, "ast:\n%s\n", dumpAST(stmts))
	}

	block, err := lower.Block(f, stmts)
	if err != nil {
		return nil, fmt.Errorf("compile: %w", err)
	}

	if PrintIR {
		fmt.Fprintf(debugOut, "ir:\n%s\n", dumpIR(block))
	}

	alloc, err := regalloc.Allocate(block)
	if err != nil {
		return nil, fmt.Errorf("register allocation: %w", err)
	}

	mapping, err := amd64.Emit(block, alloc)
	if err != nil {
		return nil, fmt.Errorf("codegen: %w", err)
	}

	if PrintAsm {
		fmt.Fprintf(debugOut, "asm (%d bytes):\n%s\n", len(mapping.Bytes()), hex.Dump(mapping.Bytes()))
	}

	return function.New(mapping), nil
}

func dumpIR(block *ir.Block) string {
	var out string
	for _, instr := range block.Instructions {
		out += "  " + instr.String() + "\n"
	}
	return out
}

func dumpAST(stmts syntax.Block) string {
	var out string
	for _, stmt := range stmts {
		out += fmt.Sprintf("  %#v\n", stmt)
	}
	return out
}
