// Package evaluator implements the symbol registry described in spec.md
// §4.7: the outermost stack frame functions are registered into, and the
// compile-register-call flow one REPL line goes through.
package evaluator

import (
	"fmt"
	"io"

	"github.com/emberlang/ember/internal/compile"
	"github.com/emberlang/ember/internal/frame"
	"github.com/emberlang/ember/internal/function"
	"github.com/emberlang/ember/internal/syntax"
	"github.com/emberlang/ember/internal/value"
)

// Evaluator owns the program's outermost StackFrame and keeps every
// compiled user function reachable so its executable mapping outlives any
// caller that might still dial it by pointer — the registry is the shared
// owner spec.md §5 calls for.
type Evaluator struct {
	root     *frame.StackFrame
	funcs    map[string]*function.Function
	debugOut io.Writer
}

// New creates an Evaluator with a fresh, empty outermost frame. debugOut
// receives any AST/IR/assembly dumps internal/compile's debug switches
// enable; pass io.Discard if none are set.
func New(debugOut io.Writer) *Evaluator {
	return &Evaluator{
		root:     frame.NewStackFrame(),
		funcs:    make(map[string]*function.Function),
		debugOut: debugOut,
	}
}

// definedFunc is a tentative function definition pending commit, recorded
// so a later failure in the same input can roll every prior definition in
// this input back out, per spec.md §7's all-or-nothing rule.
type definedFunc struct {
	name       string
	hadPrev    bool
	prevSymbol frame.Symbol
	prevFunc   *function.Function
}

// Evaluate parses, compiles, and executes one line of source. A line may
// contain multiple statements; function definitions are registered in the
// outermost frame first, then every remaining statement is compiled as a
// single nullary function and called, yielding the value of its last
// expression (spec.md §6's line protocol).
func (e *Evaluator) Evaluate(line string) (value.Value, error) {
	parser, err := syntax.NewParser(line)
	if err != nil {
		return value.Value{}, err
	}
	block, err := parser.Parse()
	if err != nil {
		return value.Value{}, err
	}

	var rest syntax.Block
	var pending []definedFunc
	for _, stmt := range block {
		def, ok := stmt.(syntax.FunctionDefinition)
		if !ok {
			rest = append(rest, stmt)
			continue
		}
		undo, err := e.defineFunction(def)
		if err != nil {
			e.rollback(pending)
			return value.Value{}, err
		}
		pending = append(pending, undo)
	}

	fn, err := compile.Function(e.debugOut, e.root, rest)
	if err != nil {
		e.rollback(pending)
		return value.Value{}, err
	}

	v, err := fn.Call()
	if err != nil {
		// A decode failure means the definitions we just registered are
		// backed by real, executing code — the miscompile is in the
		// trailing expression, not the definitions. Leave them registered.
		return value.Value{}, err
	}
	return v, nil
}

func (e *Evaluator) defineFunction(def syntax.FunctionDefinition) (definedFunc, error) {
	prevSymbol, hadPrev := e.root.LookupLocal(def.Name)
	undo := definedFunc{name: def.Name, hadPrev: hadPrev, prevSymbol: prevSymbol, prevFunc: e.funcs[def.Name]}

	child := e.root.Push()
	for idx, arg := range def.Args {
		child.Insert(arg, frame.Argument(idx))
	}

	fn, err := compile.Function(e.debugOut, child, def.Body)
	if err != nil {
		return definedFunc{}, fmt.Errorf("compile function %q: %w", def.Name, err)
	}

	e.root.Insert(def.Name, frame.Function(fn.Addr(), len(def.Args)))
	e.funcs[def.Name] = fn
	return undo, nil
}

func (e *Evaluator) rollback(pending []definedFunc) {
	for i := len(pending) - 1; i >= 0; i-- {
		p := pending[i]
		if p.hadPrev {
			e.root.Insert(p.name, p.prevSymbol)
		} else {
			e.root.Remove(p.name)
		}
		if p.prevFunc != nil {
			e.funcs[p.name] = p.prevFunc
		} else {
			delete(e.funcs, p.name)
		}
	}
}
