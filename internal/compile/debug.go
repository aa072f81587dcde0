// Package compile wires the AST → IR → register allocation → x86-64
// emission pipeline together behind one entry point, and holds the
// debug-dump switches the REPL's CLI flags toggle.
package compile

// These switches gate console-only debug dumps of the AST/IR/assembly — the
// Non-goal spec.md §1 carves out. Mirrors the teacher's wazevoapi debug
// const block: disabled by default, flipped on by a CLI flag, never
// affecting compiled semantics. Unlike the teacher's consts these are vars,
// since cmd/ember sets them once from flag.Parse rather than at compile
// time.
var (
	PrintAST = false
	PrintIR  = false
	PrintAsm = false
)
